package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/brackets"
	"github.com/meme-madness/meme-madness/models"
	"github.com/meme-madness/meme-madness/repositories"
)

type VotingService interface {
	CastVote(ctx context.Context, matchupID, voterID, memeID uuid.UUID) (*models.Vote, error)
	MyVote(ctx context.Context, matchupID, voterID uuid.UUID) (*models.Vote, error)
	Results(ctx context.Context, matchupID, userID uuid.UUID) (*MatchupResults, error)
	CloseMatchup(ctx context.Context, matchupID, actorID uuid.UUID) (*models.Matchup, error)
	CloseAllMatchups(ctx context.Context, tournamentID, actorID uuid.UUID) (*CloseAllResult, error)
	BreakTie(ctx context.Context, matchupID, actorID, winnerID uuid.UUID) (*models.Matchup, error)
}

type MatchupResults struct {
	MatchupID uuid.UUID            `json:"matchup_id"`
	Status    models.MatchupStatus `json:"status"`
	VotesA    int                  `json:"votes_a"`
	VotesB    int                  `json:"votes_b"`
	Total     int                  `json:"total"`
	WinnerID  *uuid.UUID           `json:"winner_id,omitempty"`
}

// CloseAllResult lists what a bulk close actually did: tied matchups are
// left open for an explicit tie-break.
type CloseAllResult struct {
	Closed []uuid.UUID `json:"closed"`
	Tied   []uuid.UUID `json:"tied"`
}

type votingService struct {
	db          *sql.DB
	matchupRepo repositories.MatchupRepository
	roundRepo   repositories.RoundRepository
	voteRepo    repositories.VoteRepository
	memeRepo    repositories.MemeRepository
	memberRepo  repositories.MemberRepository
	hub         *brackets.Hub
	logger      *slog.Logger
}

func NewVotingService(
	db *sql.DB,
	matchupRepo repositories.MatchupRepository,
	roundRepo repositories.RoundRepository,
	voteRepo repositories.VoteRepository,
	memeRepo repositories.MemeRepository,
	memberRepo repositories.MemberRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) VotingService {
	return &votingService{
		db:          db,
		matchupRepo: matchupRepo,
		roundRepo:   roundRepo,
		voteRepo:    voteRepo,
		memeRepo:    memeRepo,
		memberRepo:  memberRepo,
		hub:         hub,
		logger:      logger,
	}
}

// CastVote records one vote per member per matchup. Members cannot vote in
// matchups containing their own meme; the unique constraint backs the
// one-vote rule even under concurrent requests.
func (s *votingService) CastVote(ctx context.Context, matchupID, voterID, memeID uuid.UUID) (*models.Vote, error) {
	matchup, round, err := s.loadMatchupWithRound(ctx, matchupID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.memberRepo, round.TournamentID, voterID); err != nil {
		return nil, err
	}
	if matchup.Status != models.MatchupVoting {
		return nil, ErrMatchupNotVoting
	}
	if !matchupContains(matchup, memeID) {
		return nil, ErrInvalidVoteMeme
	}

	memeA, err := s.memeRepo.GetByID(ctx, matchup.MemeAID)
	if err != nil {
		return nil, err
	}
	owners := []uuid.UUID{memeA.OwnerID}
	if matchup.MemeBID != nil {
		memeB, err := s.memeRepo.GetByID(ctx, *matchup.MemeBID)
		if err != nil {
			return nil, err
		}
		owners = append(owners, memeB.OwnerID)
	}
	for _, owner := range owners {
		if owner == voterID {
			return nil, ErrSelfVoteForbidden
		}
	}

	vote := &models.Vote{
		ID:        uuid.New(),
		MatchupID: matchupID,
		VoterID:   voterID,
		MemeID:    memeID,
	}
	if err := s.voteRepo.Create(ctx, vote); err != nil {
		return nil, err
	}
	return vote, nil
}

func (s *votingService) MyVote(ctx context.Context, matchupID, voterID uuid.UUID) (*models.Vote, error) {
	vote, err := s.voteRepo.GetByMatchupAndVoter(ctx, matchupID, voterID)
	if err != nil {
		if errors.Is(err, repositories.ErrVoteNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return vote, nil
}

// Results hides the tally from members who have not voted yet, so the
// running score cannot steer their choice. The two submitters can always see
// it, since the self-vote ban keeps them from ever voting themselves in.
// Completed matchups are public.
func (s *votingService) Results(ctx context.Context, matchupID, userID uuid.UUID) (*MatchupResults, error) {
	matchup, round, err := s.loadMatchupWithRound(ctx, matchupID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.memberRepo, round.TournamentID, userID); err != nil {
		return nil, err
	}

	if matchup.Status != models.MatchupComplete {
		owner, err := s.isCompetitorOwner(ctx, matchup, userID)
		if err != nil {
			return nil, err
		}
		if !owner {
			if _, err := s.voteRepo.GetByMatchupAndVoter(ctx, matchupID, userID); err != nil {
				if errors.Is(err, repositories.ErrVoteNotFound) {
					return nil, ErrResultsHidden
				}
				return nil, err
			}
		}
	}

	votesA, votesB, err := s.tally(ctx, matchup)
	if err != nil {
		return nil, err
	}
	return &MatchupResults{
		MatchupID: matchup.ID,
		Status:    matchup.Status,
		VotesA:    votesA,
		VotesB:    votesB,
		Total:     votesA + votesB,
		WinnerID:  matchup.WinnerID,
	}, nil
}

// CloseMatchup decides a matchup by simple majority. A tie, including the
// zero-vote case, is reported back so an admin can break it explicitly.
func (s *votingService) CloseMatchup(ctx context.Context, matchupID, actorID uuid.UUID) (*models.Matchup, error) {
	matchup, round, err := s.loadMatchupWithRound(ctx, matchupID)
	if err != nil {
		return nil, err
	}
	if _, err := requireAdmin(ctx, s.memberRepo, round.TournamentID, actorID); err != nil {
		return nil, err
	}
	if matchup.Status != models.MatchupVoting {
		return nil, ErrMatchupNotVoting
	}

	votesA, votesB, err := s.tally(ctx, matchup)
	if err != nil {
		return nil, err
	}
	if votesA == votesB {
		return nil, ErrMatchupTied
	}

	winnerID := matchup.MemeAID
	if votesB > votesA {
		winnerID = *matchup.MemeBID
	}
	return s.resolve(ctx, matchup, round, winnerID)
}

// CloseAllMatchups sweeps the current round, closing every matchup with a
// clear majority and reporting the ties it skipped.
func (s *votingService) CloseAllMatchups(ctx context.Context, tournamentID, actorID uuid.UUID) (*CloseAllResult, error) {
	if _, err := requireAdmin(ctx, s.memberRepo, tournamentID, actorID); err != nil {
		return nil, err
	}
	round, err := s.roundRepo.GetCurrent(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrVotingNotOpen
		}
		return nil, err
	}
	matchups, err := s.matchupRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, err
	}

	result := &CloseAllResult{Closed: []uuid.UUID{}, Tied: []uuid.UUID{}}
	for _, matchup := range matchups {
		if matchup.Status != models.MatchupVoting {
			continue
		}
		votesA, votesB, err := s.tally(ctx, matchup)
		if err != nil {
			return nil, err
		}
		if votesA == votesB {
			result.Tied = append(result.Tied, matchup.ID)
			continue
		}
		winnerID := matchup.MemeAID
		if votesB > votesA {
			winnerID = *matchup.MemeBID
		}
		if _, err := s.resolve(ctx, matchup, round, winnerID); err != nil {
			return nil, err
		}
		result.Closed = append(result.Closed, matchup.ID)
	}
	return result, nil
}

// BreakTie lets an admin pick the winner of a tied matchup directly.
func (s *votingService) BreakTie(ctx context.Context, matchupID, actorID, winnerID uuid.UUID) (*models.Matchup, error) {
	matchup, round, err := s.loadMatchupWithRound(ctx, matchupID)
	if err != nil {
		return nil, err
	}
	if _, err := requireAdmin(ctx, s.memberRepo, round.TournamentID, actorID); err != nil {
		return nil, err
	}
	if matchup.Status != models.MatchupVoting {
		return nil, ErrMatchupNotVoting
	}
	if !matchupContains(matchup, winnerID) {
		return nil, ErrInvalidTieBreak
	}
	return s.resolve(ctx, matchup, round, winnerID)
}

func (s *votingService) resolve(ctx context.Context, matchup *models.Matchup, round *models.Round, winnerID uuid.UUID) (*models.Matchup, error) {
	if err := s.matchupRepo.UpdateWinner(ctx, s.db, matchup.ID, winnerID, models.MatchupComplete); err != nil {
		return nil, err
	}
	matchup.WinnerID = &winnerID
	matchup.Status = models.MatchupComplete

	s.logger.Info("matchup resolved",
		slog.String("matchup_id", matchup.ID.String()),
		slog.String("winner_id", winnerID.String()),
		slog.Int("round", round.RoundNumber))

	s.hub.Broadcast(round.TournamentID.String(), brackets.Event{
		Type:         brackets.EventMatchupResolved,
		TournamentID: round.TournamentID.String(),
		Payload: map[string]interface{}{
			"matchup_id": matchup.ID,
			"winner_id":  winnerID,
			"round":      round.RoundNumber,
		},
	})
	return matchup, nil
}

func (s *votingService) tally(ctx context.Context, matchup *models.Matchup) (votesA, votesB int, err error) {
	votes, err := s.voteRepo.ListByMatchup(ctx, matchup.ID)
	if err != nil {
		return 0, 0, err
	}
	for _, vote := range votes {
		switch {
		case vote.MemeID == matchup.MemeAID:
			votesA++
		case matchup.MemeBID != nil && vote.MemeID == *matchup.MemeBID:
			votesB++
		}
	}
	return votesA, votesB, nil
}

func (s *votingService) loadMatchupWithRound(ctx context.Context, matchupID uuid.UUID) (*models.Matchup, *models.Round, error) {
	matchup, err := s.matchupRepo.GetByID(ctx, matchupID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchupNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	round, err := s.roundRepo.GetByID(ctx, matchup.RoundID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load round for matchup %s: %w", matchupID, err)
	}
	return matchup, round, nil
}

func (s *votingService) isCompetitorOwner(ctx context.Context, matchup *models.Matchup, userID uuid.UUID) (bool, error) {
	memeA, err := s.memeRepo.GetByID(ctx, matchup.MemeAID)
	if err != nil {
		return false, err
	}
	if memeA.OwnerID == userID {
		return true, nil
	}
	if matchup.MemeBID == nil {
		return false, nil
	}
	memeB, err := s.memeRepo.GetByID(ctx, *matchup.MemeBID)
	if err != nil {
		return false, err
	}
	return memeB.OwnerID == userID, nil
}

func matchupContains(matchup *models.Matchup, memeID uuid.UUID) bool {
	if matchup.MemeAID == memeID {
		return true
	}
	return matchup.MemeBID != nil && *matchup.MemeBID == memeID
}
