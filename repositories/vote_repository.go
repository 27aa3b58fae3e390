package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/meme-madness/meme-madness/models"
)

var (
	ErrVoteNotFound = errors.New("vote not found")

	// ErrDuplicateVote maps the UNIQUE(matchup_id, voter_id) constraint; the
	// store, not the service, is the authority on one-vote-per-matchup.
	ErrDuplicateVote = errors.New("user has already voted on this matchup")
)

type VoteRepository interface {
	Create(ctx context.Context, vote *models.Vote) error
	GetByMatchupAndVoter(ctx context.Context, matchupID, voterID uuid.UUID) (*models.Vote, error)
	ListByMatchup(ctx context.Context, matchupID uuid.UUID) ([]*models.Vote, error)
}

type postgresVoteRepository struct {
	db *sql.DB
}

func NewPostgresVoteRepository(db *sql.DB) VoteRepository {
	return &postgresVoteRepository{db: db}
}

func (r *postgresVoteRepository) Create(ctx context.Context, vote *models.Vote) error {
	query := `
		INSERT INTO votes (id, matchup_id, voter_id, meme_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		vote.ID,
		vote.MatchupID,
		vote.VoterID,
		vote.MemeID,
	).Scan(&vote.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "votes_matchup_id_voter_id_key" {
			return ErrDuplicateVote
		}
		return fmt.Errorf("failed to create vote: %w", err)
	}
	return nil
}

func (r *postgresVoteRepository) GetByMatchupAndVoter(ctx context.Context, matchupID, voterID uuid.UUID) (*models.Vote, error) {
	vote := &models.Vote{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, matchup_id, voter_id, meme_id, created_at
		FROM votes
		WHERE matchup_id = $1 AND voter_id = $2`,
		matchupID, voterID).Scan(
		&vote.ID,
		&vote.MatchupID,
		&vote.VoterID,
		&vote.MemeID,
		&vote.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVoteNotFound
		}
		return nil, fmt.Errorf("failed to scan vote: %w", err)
	}
	return vote, nil
}

func (r *postgresVoteRepository) ListByMatchup(ctx context.Context, matchupID uuid.UUID) ([]*models.Vote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, matchup_id, voter_id, meme_id, created_at
		FROM votes
		WHERE matchup_id = $1`, matchupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes for matchup %s: %w", matchupID, err)
	}
	defer rows.Close()

	votes := make([]*models.Vote, 0)
	for rows.Next() {
		var vote models.Vote
		if err := rows.Scan(
			&vote.ID,
			&vote.MatchupID,
			&vote.VoterID,
			&vote.MemeID,
			&vote.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vote row: %w", err)
		}
		votes = append(votes, &vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during vote rows iteration: %w", err)
	}
	return votes, nil
}
