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
	ErrMemberNotFound       = errors.New("tournament member not found")
	ErrMemberAlreadyExists  = errors.New("user is already a member of this tournament")
	ErrAdminNotFound        = errors.New("tournament admin not found")
	ErrAdminAlreadyAssigned = errors.New("user is already an admin of this tournament")
)

// MemberRepository covers both tournament membership and the admin roster.
// Admins are implicit members; the service layer treats them as such.
type MemberRepository interface {
	AddMember(ctx context.Context, member *models.TournamentMember) error
	IsMember(ctx context.Context, tournamentID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, tournamentID uuid.UUID) ([]*models.TournamentMember, error)
	RemoveMember(ctx context.Context, tournamentID, userID uuid.UUID) error

	AddAdmin(ctx context.Context, exec SQLExecutor, admin *models.TournamentAdmin) error
	GetAdminRole(ctx context.Context, tournamentID, userID uuid.UUID) (models.AdminRole, error)
	ListAdmins(ctx context.Context, tournamentID uuid.UUID) ([]*models.TournamentAdmin, error)
	RemoveAdmin(ctx context.Context, tournamentID, userID uuid.UUID) error
}

type postgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) MemberRepository {
	return &postgresMemberRepository{db: db}
}

func (r *postgresMemberRepository) AddMember(ctx context.Context, member *models.TournamentMember) error {
	query := `
		INSERT INTO tournament_members (id, tournament_id, user_id)
		VALUES ($1, $2, $3)
		RETURNING joined_at`

	err := r.db.QueryRowContext(ctx, query,
		member.ID,
		member.TournamentID,
		member.UserID,
	).Scan(&member.JoinedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "tournament_members_tournament_id_user_id_key" {
			return ErrMemberAlreadyExists
		}
		return fmt.Errorf("failed to add tournament member: %w", err)
	}
	return nil
}

func (r *postgresMemberRepository) IsMember(ctx context.Context, tournamentID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tournament_members WHERE tournament_id = $1 AND user_id = $2
		)`, tournamentID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

func (r *postgresMemberRepository) ListMembers(ctx context.Context, tournamentID uuid.UUID) ([]*models.TournamentMember, error) {
	query := `
		SELECT m.id, m.tournament_id, m.user_id, m.joined_at,
		       u.id, u.email, u.display_name, u.created_at
		FROM tournament_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.tournament_id = $1
		ORDER BY m.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	members := make([]*models.TournamentMember, 0)
	for rows.Next() {
		var m models.TournamentMember
		var u models.User
		if err := rows.Scan(
			&m.ID, &m.TournamentID, &m.UserID, &m.JoinedAt,
			&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		m.User = &u
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during member rows iteration: %w", err)
	}
	return members, nil
}

func (r *postgresMemberRepository) RemoveMember(ctx context.Context, tournamentID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM tournament_members WHERE tournament_id = $1 AND user_id = $2`,
		tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresMemberRepository) AddAdmin(ctx context.Context, exec SQLExecutor, admin *models.TournamentAdmin) error {
	query := `
		INSERT INTO tournament_admins (id, tournament_id, user_id, role, invited_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := exec.QueryRowContext(ctx, query,
		admin.ID,
		admin.TournamentID,
		admin.UserID,
		admin.Role,
		admin.InvitedBy,
	).Scan(&admin.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "tournament_admins_tournament_id_user_id_key" {
			return ErrAdminAlreadyAssigned
		}
		return fmt.Errorf("failed to add tournament admin: %w", err)
	}
	return nil
}

func (r *postgresMemberRepository) GetAdminRole(ctx context.Context, tournamentID, userID uuid.UUID) (models.AdminRole, error) {
	var role models.AdminRole
	err := r.db.QueryRowContext(ctx, `
		SELECT role FROM tournament_admins WHERE tournament_id = $1 AND user_id = $2`,
		tournamentID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrAdminNotFound
		}
		return "", fmt.Errorf("failed to get admin role: %w", err)
	}
	return role, nil
}

func (r *postgresMemberRepository) ListAdmins(ctx context.Context, tournamentID uuid.UUID) ([]*models.TournamentAdmin, error) {
	query := `
		SELECT a.id, a.tournament_id, a.user_id, a.role, a.invited_by, a.created_at,
		       u.id, u.email, u.display_name, u.created_at
		FROM tournament_admins a
		JOIN users u ON u.id = a.user_id
		WHERE a.tournament_id = $1
		ORDER BY a.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query admins for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	admins := make([]*models.TournamentAdmin, 0)
	for rows.Next() {
		var a models.TournamentAdmin
		var u models.User
		if err := rows.Scan(
			&a.ID, &a.TournamentID, &a.UserID, &a.Role, &a.InvitedBy, &a.CreatedAt,
			&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan admin row: %w", err)
		}
		a.User = &u
		admins = append(admins, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during admin rows iteration: %w", err)
	}
	return admins, nil
}

func (r *postgresMemberRepository) RemoveAdmin(ctx context.Context, tournamentID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM tournament_admins WHERE tournament_id = $1 AND user_id = $2`,
		tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove admin: %w", err)
	}
	return checkAffectedRows(result, ErrAdminNotFound)
}
