package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/models"
)

var ErrMatchupNotFound = errors.New("matchup not found")

type MatchupRepository interface {
	CreateBulk(ctx context.Context, exec SQLExecutor, matchups []*models.Matchup) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Matchup, error)
	ListByRound(ctx context.Context, roundID uuid.UUID) ([]*models.Matchup, error)
	UpdateWinner(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerID uuid.UUID, status models.MatchupStatus) error
	UpdateNextMatchup(ctx context.Context, exec SQLExecutor, id uuid.UUID, nextMatchupID uuid.UUID) error
}

type postgresMatchupRepository struct {
	db *sql.DB
}

func NewPostgresMatchupRepository(db *sql.DB) MatchupRepository {
	return &postgresMatchupRepository{db: db}
}

// CreateBulk inserts a whole round's matchups with a single multi-row
// INSERT, so a failed seed or advance leaves no partial matchup set behind
// when run inside the caller's transaction.
func (r *postgresMatchupRepository) CreateBulk(ctx context.Context, exec SQLExecutor, matchups []*models.Matchup) error {
	if len(matchups) == 0 {
		return nil
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		INSERT INTO matchups (id, round_id, meme_a_id, meme_b_id, winner_id, status, position)
		VALUES `)

	args := make([]interface{}, 0, len(matchups)*7)
	for i, m := range matchups {
		if i > 0 {
			queryBuilder.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&queryBuilder, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args, m.ID, m.RoundID, m.MemeAID, m.MemeBID, m.WinnerID, m.Status, m.Position)
	}

	if _, err := exec.ExecContext(ctx, queryBuilder.String(), args...); err != nil {
		return fmt.Errorf("failed to bulk create %d matchups: %w", len(matchups), err)
	}
	return nil
}

func (r *postgresMatchupRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Matchup, error) {
	matchup := &models.Matchup{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, round_id, meme_a_id, meme_b_id, winner_id, status, position, next_matchup_id
		FROM matchups WHERE id = $1`, id).Scan(
		&matchup.ID,
		&matchup.RoundID,
		&matchup.MemeAID,
		&matchup.MemeBID,
		&matchup.WinnerID,
		&matchup.Status,
		&matchup.Position,
		&matchup.NextMatchupID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchupNotFound
		}
		return nil, fmt.Errorf("failed to scan matchup %s: %w", id, err)
	}
	return matchup, nil
}

// ListByRound returns the round's matchups ordered by position. Consecutive
// pairs of this ordering decide the next round's pairings, so the ordering
// is part of the engine's contract, not presentation.
func (r *postgresMatchupRepository) ListByRound(ctx context.Context, roundID uuid.UUID) ([]*models.Matchup, error) {
	query := `
		SELECT id, round_id, meme_a_id, meme_b_id, winner_id, status, position, next_matchup_id
		FROM matchups
		WHERE round_id = $1
		ORDER BY position ASC`
	return r.list(ctx, query, roundID)
}

func (r *postgresMatchupRepository) UpdateWinner(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerID uuid.UUID, status models.MatchupStatus) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE matchups SET winner_id = $1, status = $2 WHERE id = $3`,
		winnerID, status, id)
	if err != nil {
		return fmt.Errorf("failed to update matchup %s winner: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchupNotFound)
}

func (r *postgresMatchupRepository) UpdateNextMatchup(ctx context.Context, exec SQLExecutor, id uuid.UUID, nextMatchupID uuid.UUID) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE matchups SET next_matchup_id = $1 WHERE id = $2`,
		nextMatchupID, id)
	if err != nil {
		return fmt.Errorf("failed to link matchup %s to next matchup: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchupNotFound)
}

func (r *postgresMatchupRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Matchup, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matchups: %w", err)
	}
	defer rows.Close()

	matchups := make([]*models.Matchup, 0)
	for rows.Next() {
		var matchup models.Matchup
		if err := rows.Scan(
			&matchup.ID,
			&matchup.RoundID,
			&matchup.MemeAID,
			&matchup.MemeBID,
			&matchup.WinnerID,
			&matchup.Status,
			&matchup.Position,
			&matchup.NextMatchupID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan matchup row: %w", err)
		}
		matchups = append(matchups, &matchup)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during matchup rows iteration: %w", err)
	}
	return matchups, nil
}
