package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/models"
)

var ErrRoundNotFound = errors.New("round not found")

type RoundRepository interface {
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Round, error)
	GetCurrent(ctx context.Context, tournamentID uuid.UUID) (*models.Round, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Round, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.RoundStatus) error
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO rounds (id, tournament_id, round_number, status)
		VALUES ($1, $2, $3, $4)`,
		round.ID,
		round.TournamentID,
		round.RoundNumber,
		round.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create round %d for tournament %s: %w", round.RoundNumber, round.TournamentID, err)
	}
	return nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Round, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, tournament_id, round_number, status
		FROM rounds
		WHERE id = $1`, id))
}

// GetCurrent returns the highest-numbered round of the tournament, which is
// the one still accepting results unless it is already complete.
func (r *postgresRoundRepository) GetCurrent(ctx context.Context, tournamentID uuid.UUID) (*models.Round, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, tournament_id, round_number, status
		FROM rounds
		WHERE tournament_id = $1
		ORDER BY round_number DESC
		LIMIT 1`, tournamentID))
}

func (r *postgresRoundRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Round, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tournament_id, round_number, status
		FROM rounds
		WHERE tournament_id = $1
		ORDER BY round_number ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	rounds := make([]*models.Round, 0)
	for rows.Next() {
		var round models.Round
		if err := rows.Scan(&round.ID, &round.TournamentID, &round.RoundNumber, &round.Status); err != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", err)
		}
		rounds = append(rounds, &round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during round rows iteration: %w", err)
	}
	return rounds, nil
}

func (r *postgresRoundRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.RoundStatus) error {
	result, err := exec.ExecContext(ctx, `UPDATE rounds SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update round %s status: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) scanOne(row *sql.Row) (*models.Round, error) {
	round := &models.Round{}
	err := row.Scan(&round.ID, &round.TournamentID, &round.RoundNumber, &round.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round: %w", err)
	}
	return round, nil
}
