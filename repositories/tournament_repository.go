package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	GetByJoinCode(ctx context.Context, joinCode string) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.TournamentStatus) error
	UpdateSeedInfo(ctx context.Context, exec SQLExecutor, id uuid.UUID, totalRounds int, status models.TournamentStatus) error
	UpdateJoinCode(ctx context.Context, id uuid.UUID, joinCode string) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournament (id, name, status, join_code, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := exec.QueryRowContext(ctx, query,
		tournament.ID,
		tournament.Name,
		tournament.Status,
		tournament.JoinCode,
		tournament.CreatedBy,
	).Scan(&tournament.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, name, status, join_code, total_rounds, created_by, created_at
		FROM tournament WHERE id = $1`, id))
}

func (r *postgresTournamentRepository) GetByJoinCode(ctx context.Context, joinCode string) (*models.Tournament, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, name, status, join_code, total_rounds, created_by, created_at
		FROM tournament WHERE join_code = $1`, joinCode))
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.TournamentStatus) error {
	result, err := exec.ExecContext(ctx, `UPDATE tournament SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament %s status: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateSeedInfo(ctx context.Context, exec SQLExecutor, id uuid.UUID, totalRounds int, status models.TournamentStatus) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE tournament SET total_rounds = $1, status = $2 WHERE id = $3`,
		totalRounds, status, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament %s seed info: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateJoinCode(ctx context.Context, id uuid.UUID, joinCode string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournament SET join_code = $1 WHERE id = $2`, joinCode, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament %s join code: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) scanOne(row *sql.Row) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Status,
		&t.JoinCode,
		&t.TotalRounds,
		&t.CreatedBy,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament: %w", err)
	}
	return t, nil
}
