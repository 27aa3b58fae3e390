package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/brackets"
	"github.com/meme-madness/meme-madness/models"
	"github.com/meme-madness/meme-madness/repositories"
)

type BracketService interface {
	Seed(ctx context.Context, tournamentID, actorID uuid.UUID) (*SeedResult, error)
	Advance(ctx context.Context, tournamentID, actorID uuid.UUID) (*AdvanceResult, error)
}

type SeedResult struct {
	Summary brackets.Summary `json:"summary"`
	Round   *models.Round    `json:"round"`
}

// AdvanceResult reports the outcome of closing out a round: either the next
// round to vote on, or the tournament champion when the closed round was the
// final.
type AdvanceResult struct {
	TournamentID   uuid.UUID     `json:"tournament_id"`
	CompletedRound int           `json:"completed_round"`
	NextRound      *models.Round `json:"next_round,omitempty"`
	Champion       *models.Meme  `json:"champion,omitempty"`
}

type bracketService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	memberRepo     repositories.MemberRepository
	memeRepo       repositories.MemeRepository
	roundRepo      repositories.RoundRepository
	matchupRepo    repositories.MatchupRepository
	hub            *brackets.Hub
	newRand        func() *rand.Rand
	logger         *slog.Logger
}

// NewBracketService wires the seeding and advancement flows. newRand supplies
// the shuffle source per seeding call; tests pass a fixed seed.
func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	memberRepo repositories.MemberRepository,
	memeRepo repositories.MemeRepository,
	roundRepo repositories.RoundRepository,
	matchupRepo repositories.MatchupRepository,
	hub *brackets.Hub,
	newRand func() *rand.Rand,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:             db,
		tournamentRepo: tournamentRepo,
		memberRepo:     memberRepo,
		memeRepo:       memeRepo,
		roundRepo:      roundRepo,
		matchupRepo:    matchupRepo,
		hub:            hub,
		newRand:        newRand,
		logger:         logger,
	}
}

// Seed closes submissions and generates round one in a single transaction:
// the status flip, the round row, and every matchup land together or not at
// all.
func (s *bracketService) Seed(ctx context.Context, tournamentID, actorID uuid.UUID) (*SeedResult, error) {
	if _, err := requireAdmin(ctx, s.memberRepo, tournamentID, actorID); err != nil {
		return nil, err
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tournament.Status != models.TournamentSubmissionOpen {
		return nil, ErrTournamentNotSeedable
	}

	memes, err := s.memeRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	entrants := make([]brackets.Entrant, len(memes))
	for i, meme := range memes {
		entrants[i] = brackets.Entrant{ID: meme.ID, OwnerID: meme.OwnerID}
	}

	planned, summary, err := brackets.PlanRoundOne(entrants, s.newRand())
	if err != nil {
		return nil, err
	}

	round := &models.Round{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		RoundNumber:  1,
		Status:       models.RoundVoting,
	}
	round.Matchups = plannedToMatchups(round.ID, planned)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.tournamentRepo.UpdateSeedInfo(ctx, tx, tournamentID, summary.TotalRounds, models.TournamentVotingOpen); err != nil {
		return nil, err
	}
	if err := s.roundRepo.Create(ctx, tx, round); err != nil {
		return nil, err
	}
	if err := s.matchupRepo.CreateBulk(ctx, tx, round.Matchups); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bracket seed: %w", err)
	}

	s.logger.Info("bracket seeded",
		slog.String("tournament_id", tournamentID.String()),
		slog.Int("entrants", len(entrants)),
		slog.Int("bracket_size", summary.BracketSize),
		slog.Int("byes", summary.NumByes),
		slog.Int("total_rounds", summary.TotalRounds))

	s.hub.Broadcast(tournamentID.String(), brackets.Event{
		Type:         brackets.EventBracketSeeded,
		TournamentID: tournamentID.String(),
		Payload: map[string]interface{}{
			"summary":  summary,
			"round_id": round.ID,
		},
	})

	return &SeedResult{Summary: summary, Round: round}, nil
}

// Advance closes the current round and opens the next one. Every matchup of
// the current round must be complete; otherwise a RoundIncompleteError
// reports how many are still open. Closing the final round crowns the
// champion instead of creating a new round.
func (s *bracketService) Advance(ctx context.Context, tournamentID, actorID uuid.UUID) (*AdvanceResult, error) {
	if _, err := requireAdmin(ctx, s.memberRepo, tournamentID, actorID); err != nil {
		return nil, err
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	switch tournament.Status {
	case models.TournamentVotingOpen:
	case models.TournamentComplete:
		return nil, ErrTournamentComplete
	default:
		return nil, ErrVotingNotOpen
	}
	if tournament.TotalRounds == nil {
		return nil, ErrVotingNotOpen
	}

	round, err := s.roundRepo.GetCurrent(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	matchups, err := s.matchupRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, err
	}

	remaining := 0
	for _, m := range matchups {
		if m.Status != models.MatchupComplete {
			remaining++
		}
	}
	if remaining > 0 {
		return nil, &brackets.RoundIncompleteError{RoundNumber: round.RoundNumber, Remaining: remaining}
	}

	// Winners in position order; consecutive pairs meet in the next round.
	winners := make([]uuid.UUID, len(matchups))
	for i, m := range matchups {
		if m.WinnerID == nil {
			return nil, fmt.Errorf("matchup %s is complete but has no winner", m.ID)
		}
		winners[i] = *m.WinnerID
	}

	if len(winners) == 0 {
		return nil, brackets.ErrInsufficientWinners
	}

	if round.RoundNumber >= *tournament.TotalRounds {
		return s.finishTournament(ctx, tournament, round, winners[0])
	}
	if len(winners) < 2 {
		return nil, brackets.ErrInsufficientWinners
	}

	nextRound := &models.Round{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		RoundNumber:  round.RoundNumber + 1,
		Status:       models.RoundVoting,
	}
	nextRound.Matchups = plannedToMatchups(nextRound.ID, brackets.PairWinners(winners))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.roundRepo.Create(ctx, tx, nextRound); err != nil {
		return nil, err
	}
	if err := s.matchupRepo.CreateBulk(ctx, tx, nextRound.Matchups); err != nil {
		return nil, err
	}
	for i, m := range matchups {
		next := nextRound.Matchups[i/2]
		if err := s.matchupRepo.UpdateNextMatchup(ctx, tx, m.ID, next.ID); err != nil {
			return nil, err
		}
	}
	if err := s.roundRepo.UpdateStatus(ctx, tx, round.ID, models.RoundComplete); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit round advance: %w", err)
	}

	s.logger.Info("round advanced",
		slog.String("tournament_id", tournamentID.String()),
		slog.Int("completed_round", round.RoundNumber),
		slog.Int("next_round", nextRound.RoundNumber),
		slog.Int("matchups", len(nextRound.Matchups)))

	s.hub.Broadcast(tournamentID.String(), brackets.Event{
		Type:         brackets.EventRoundAdvanced,
		TournamentID: tournamentID.String(),
		Payload: map[string]interface{}{
			"completed_round": round.RoundNumber,
			"next_round":      nextRound.RoundNumber,
			"round_id":        nextRound.ID,
		},
	})

	return &AdvanceResult{
		TournamentID:   tournamentID,
		CompletedRound: round.RoundNumber,
		NextRound:      nextRound,
	}, nil
}

func (s *bracketService) finishTournament(ctx context.Context, tournament *models.Tournament, round *models.Round, championID uuid.UUID) (*AdvanceResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.roundRepo.UpdateStatus(ctx, tx, round.ID, models.RoundComplete); err != nil {
		return nil, err
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournament.ID, models.TournamentComplete); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tournament completion: %w", err)
	}

	champion, err := s.memeRepo.GetByID(ctx, championID)
	if err != nil {
		return nil, fmt.Errorf("failed to load champion meme: %w", err)
	}

	s.logger.Info("tournament complete",
		slog.String("tournament_id", tournament.ID.String()),
		slog.String("champion_id", championID.String()))

	s.hub.Broadcast(tournament.ID.String(), brackets.Event{
		Type:         brackets.EventTournamentWon,
		TournamentID: tournament.ID.String(),
		Payload: map[string]interface{}{
			"champion_id":    championID,
			"champion_title": champion.Title,
		},
	})

	return &AdvanceResult{
		TournamentID:   tournament.ID,
		CompletedRound: round.RoundNumber,
		Champion:       champion,
	}, nil
}

func plannedToMatchups(roundID uuid.UUID, planned []brackets.PlannedMatchup) []*models.Matchup {
	matchups := make([]*models.Matchup, len(planned))
	for i, p := range planned {
		matchups[i] = &models.Matchup{
			ID:       p.ID,
			RoundID:  roundID,
			MemeAID:  p.MemeAID,
			MemeBID:  p.MemeBID,
			WinnerID: p.WinnerID,
			Status:   p.Status,
			Position: p.Position,
		}
	}
	return matchups
}
