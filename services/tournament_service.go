package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/models"
	"github.com/meme-madness/meme-madness/repositories"
	"golang.org/x/sync/errgroup"
)

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput, creatorID uuid.UUID) (*models.Tournament, error)
	Get(ctx context.Context, tournamentID, userID uuid.UUID) (*models.Tournament, error)
	GetBracket(ctx context.Context, tournamentID, userID uuid.UUID) ([]*models.Round, error)
	Dashboard(ctx context.Context, tournamentID, userID uuid.UUID) (*DashboardView, error)
	GetJoinCode(ctx context.Context, tournamentID, userID uuid.UUID) (string, error)
	RotateJoinCode(ctx context.Context, tournamentID, userID uuid.UUID) (string, error)
}

type CreateTournamentInput struct {
	Name string `json:"name"`
}

// DashboardView is the organizer's at-a-glance state of a tournament.
type DashboardView struct {
	TournamentID    uuid.UUID               `json:"tournament_id"`
	Name            string                  `json:"name"`
	Status          models.TournamentStatus `json:"status"`
	MemberCount     int                     `json:"member_count"`
	MemeCount       int                     `json:"meme_count"`
	TotalRounds     *int                    `json:"total_rounds,omitempty"`
	CurrentRound    *int                    `json:"current_round,omitempty"`
	MatchupsTotal   int                     `json:"matchups_total"`
	MatchupsDecided int                     `json:"matchups_decided"`
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	memberRepo     repositories.MemberRepository
	memeRepo       repositories.MemeRepository
	roundRepo      repositories.RoundRepository
	matchupRepo    repositories.MatchupRepository
	logger         *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	memberRepo repositories.MemberRepository,
	memeRepo repositories.MemeRepository,
	roundRepo repositories.RoundRepository,
	matchupRepo repositories.MatchupRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		memberRepo:     memberRepo,
		memeRepo:       memeRepo,
		roundRepo:      roundRepo,
		matchupRepo:    matchupRepo,
		logger:         logger,
	}
}

// Create inserts the tournament and its owner admin atomically, then
// registers the creator as a member so they can submit and vote like
// everyone else.
func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput, creatorID uuid.UUID) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}

	joinCode, err := generateJoinCode()
	if err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		ID:        uuid.New(),
		Name:      name,
		Status:    models.TournamentSubmissionOpen,
		JoinCode:  joinCode,
		CreatedBy: creatorID,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.tournamentRepo.Create(ctx, tx, tournament); err != nil {
		return nil, err
	}
	owner := &models.TournamentAdmin{
		ID:           uuid.New(),
		TournamentID: tournament.ID,
		UserID:       creatorID,
		Role:         models.RoleOwner,
	}
	if err := s.memberRepo.AddAdmin(ctx, tx, owner); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tournament creation: %w", err)
	}

	member := &models.TournamentMember{
		ID:           uuid.New(),
		TournamentID: tournament.ID,
		UserID:       creatorID,
	}
	if err := s.memberRepo.AddMember(ctx, member); err != nil && !errors.Is(err, repositories.ErrMemberAlreadyExists) {
		return nil, err
	}

	s.logger.Info("tournament created",
		slog.String("tournament_id", tournament.ID.String()),
		slog.String("created_by", creatorID.String()))
	return tournament, nil
}

func (s *tournamentService) Get(ctx context.Context, tournamentID, userID uuid.UUID) (*models.Tournament, error) {
	if err := requireMember(ctx, s.memberRepo, tournamentID, userID); err != nil {
		return nil, err
	}

	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		memes, err := s.memeRepo.ListByTournament(gctx, tournamentID)
		if err != nil {
			return err
		}
		tournament.Memes = memes
		return nil
	})
	g.Go(func() error {
		rounds, err := s.loadRoundsWithMatchups(gctx, tournamentID)
		if err != nil {
			return err
		}
		tournament.Rounds = rounds
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	attachMemes(tournament.Rounds, tournament.Memes)
	return tournament, nil
}

func (s *tournamentService) GetBracket(ctx context.Context, tournamentID, userID uuid.UUID) ([]*models.Round, error) {
	tournament, err := s.Get(ctx, tournamentID, userID)
	if err != nil {
		return nil, err
	}
	return tournament.Rounds, nil
}

func (s *tournamentService) Dashboard(ctx context.Context, tournamentID, userID uuid.UUID) (*DashboardView, error) {
	if _, err := requireAdmin(ctx, s.memberRepo, tournamentID, userID); err != nil {
		return nil, err
	}

	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	view := &DashboardView{
		TournamentID: tournament.ID,
		Name:         tournament.Name,
		Status:       tournament.Status,
		TotalRounds:  tournament.TotalRounds,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		members, err := s.memberRepo.ListMembers(gctx, tournamentID)
		if err != nil {
			return err
		}
		view.MemberCount = len(members)
		return nil
	})
	g.Go(func() error {
		memes, err := s.memeRepo.ListByTournament(gctx, tournamentID)
		if err != nil {
			return err
		}
		view.MemeCount = len(memes)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if tournament.TotalRounds != nil {
		round, err := s.roundRepo.GetCurrent(ctx, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrRoundNotFound) {
				return view, nil
			}
			return nil, err
		}
		view.CurrentRound = &round.RoundNumber

		matchups, err := s.matchupRepo.ListByRound(ctx, round.ID)
		if err != nil {
			return nil, err
		}
		view.MatchupsTotal = len(matchups)
		for _, m := range matchups {
			if m.Status == models.MatchupComplete {
				view.MatchupsDecided++
			}
		}
	}
	return view, nil
}

func (s *tournamentService) GetJoinCode(ctx context.Context, tournamentID, userID uuid.UUID) (string, error) {
	if _, err := requireAdmin(ctx, s.memberRepo, tournamentID, userID); err != nil {
		return "", err
	}
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return "", err
	}
	return tournament.JoinCode, nil
}

// RotateJoinCode invalidates the previous code; links shared before the
// rotation stop working immediately.
func (s *tournamentService) RotateJoinCode(ctx context.Context, tournamentID, userID uuid.UUID) (string, error) {
	if _, err := requireAdmin(ctx, s.memberRepo, tournamentID, userID); err != nil {
		return "", err
	}
	code, err := generateJoinCode()
	if err != nil {
		return "", err
	}
	if err := s.tournamentRepo.UpdateJoinCode(ctx, tournamentID, code); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return code, nil
}

func (s *tournamentService) loadTournament(ctx context.Context, tournamentID uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) loadRoundsWithMatchups(ctx context.Context, tournamentID uuid.UUID) ([]*models.Round, error) {
	rounds, err := s.roundRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	for _, round := range rounds {
		matchups, err := s.matchupRepo.ListByRound(ctx, round.ID)
		if err != nil {
			return nil, err
		}
		round.Matchups = matchups
	}
	return rounds, nil
}

// attachMemes resolves matchup meme references against the already-loaded
// meme list, avoiding a query per matchup side.
func attachMemes(rounds []*models.Round, memes []*models.Meme) {
	byID := make(map[uuid.UUID]*models.Meme, len(memes))
	for _, meme := range memes {
		byID[meme.ID] = meme
	}
	for _, round := range rounds {
		for _, matchup := range round.Matchups {
			matchup.MemeA = byID[matchup.MemeAID]
			if matchup.MemeBID != nil {
				matchup.MemeB = byID[*matchup.MemeBID]
			}
		}
	}
}
