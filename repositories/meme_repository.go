package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/models"
)

var ErrMemeNotFound = errors.New("meme not found")

type MemeRepository interface {
	Create(ctx context.Context, meme *models.Meme) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Meme, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Meme, error)
	ListByOwner(ctx context.Context, tournamentID, ownerID uuid.UUID) ([]*models.Meme, error)
	CountByOwner(ctx context.Context, tournamentID, ownerID uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresMemeRepository struct {
	db *sql.DB
}

func NewPostgresMemeRepository(db *sql.DB) MemeRepository {
	return &postgresMemeRepository{db: db}
}

func (r *postgresMemeRepository) Create(ctx context.Context, meme *models.Meme) error {
	query := `
		INSERT INTO memes (id, tournament_id, owner_id, title, image_key, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING submitted_at`

	err := r.db.QueryRowContext(ctx, query,
		meme.ID,
		meme.TournamentID,
		meme.OwnerID,
		meme.Title,
		meme.ImageKey,
		meme.ImageURL,
	).Scan(&meme.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to create meme: %w", err)
	}
	return nil
}

func (r *postgresMemeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Meme, error) {
	meme := &models.Meme{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tournament_id, owner_id, title, image_key, image_url, submitted_at
		FROM memes WHERE id = $1`, id).Scan(
		&meme.ID,
		&meme.TournamentID,
		&meme.OwnerID,
		&meme.Title,
		&meme.ImageKey,
		&meme.ImageURL,
		&meme.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemeNotFound
		}
		return nil, fmt.Errorf("failed to scan meme %s: %w", id, err)
	}
	return meme, nil
}

func (r *postgresMemeRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Meme, error) {
	query := `
		SELECT id, tournament_id, owner_id, title, image_key, image_url, submitted_at
		FROM memes
		WHERE tournament_id = $1
		ORDER BY submitted_at DESC`
	return r.list(ctx, query, tournamentID)
}

func (r *postgresMemeRepository) ListByOwner(ctx context.Context, tournamentID, ownerID uuid.UUID) ([]*models.Meme, error) {
	query := `
		SELECT id, tournament_id, owner_id, title, image_key, image_url, submitted_at
		FROM memes
		WHERE tournament_id = $1 AND owner_id = $2
		ORDER BY submitted_at DESC`
	return r.list(ctx, query, tournamentID, ownerID)
}

func (r *postgresMemeRepository) CountByOwner(ctx context.Context, tournamentID, ownerID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM memes WHERE tournament_id = $1 AND owner_id = $2`,
		tournamentID, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count memes: %w", err)
	}
	return count, nil
}

func (r *postgresMemeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM memes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meme %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMemeNotFound)
}

func (r *postgresMemeRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Meme, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memes: %w", err)
	}
	defer rows.Close()

	memes := make([]*models.Meme, 0)
	for rows.Next() {
		var meme models.Meme
		if err := rows.Scan(
			&meme.ID,
			&meme.TournamentID,
			&meme.OwnerID,
			&meme.Title,
			&meme.ImageKey,
			&meme.ImageURL,
			&meme.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan meme row: %w", err)
		}
		memes = append(memes, &meme)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during meme rows iteration: %w", err)
	}
	return memes, nil
}
