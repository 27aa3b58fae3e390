package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/models"
	"github.com/meme-madness/meme-madness/repositories"
)

type MemberService interface {
	JoinByCode(ctx context.Context, code string, userID uuid.UUID) (*models.Tournament, error)
	ListMembers(ctx context.Context, tournamentID, userID uuid.UUID) ([]*models.TournamentMember, error)
	RemoveMember(ctx context.Context, tournamentID, actorID, targetID uuid.UUID) error
	AddAdmin(ctx context.Context, tournamentID, actorID, targetID uuid.UUID) (*models.TournamentAdmin, error)
	ListAdmins(ctx context.Context, tournamentID, userID uuid.UUID) ([]*models.TournamentAdmin, error)
	RemoveAdmin(ctx context.Context, tournamentID, actorID, targetID uuid.UUID) error
}

type memberService struct {
	tournamentRepo repositories.TournamentRepository
	memberRepo     repositories.MemberRepository
	db             repositories.SQLExecutor
	logger         *slog.Logger
}

func NewMemberService(
	db repositories.SQLExecutor,
	tournamentRepo repositories.TournamentRepository,
	memberRepo repositories.MemberRepository,
	logger *slog.Logger,
) MemberService {
	return &memberService{
		db:             db,
		tournamentRepo: tournamentRepo,
		memberRepo:     memberRepo,
		logger:         logger,
	}
}

// JoinByCode is idempotent: joining a tournament you already belong to
// returns the tournament rather than an error, so a re-tapped invite link
// never fails.
func (s *memberService) JoinByCode(ctx context.Context, code string, userID uuid.UUID) (*models.Tournament, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidJoinCode
	}

	tournament, err := s.tournamentRepo.GetByJoinCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrInvalidJoinCode
		}
		return nil, fmt.Errorf("failed to resolve join code: %w", err)
	}

	member := &models.TournamentMember{
		ID:           uuid.New(),
		TournamentID: tournament.ID,
		UserID:       userID,
	}
	if err := s.memberRepo.AddMember(ctx, member); err != nil {
		if errors.Is(err, repositories.ErrMemberAlreadyExists) {
			return tournament, nil
		}
		return nil, err
	}

	s.logger.Info("member joined tournament",
		slog.String("tournament_id", tournament.ID.String()),
		slog.String("user_id", userID.String()))
	return tournament, nil
}

func (s *memberService) ListMembers(ctx context.Context, tournamentID, userID uuid.UUID) ([]*models.TournamentMember, error) {
	if err := requireMember(ctx, s.memberRepo, tournamentID, userID); err != nil {
		return nil, err
	}
	return s.memberRepo.ListMembers(ctx, tournamentID)
}

func (s *memberService) RemoveMember(ctx context.Context, tournamentID, actorID, targetID uuid.UUID) error {
	if _, err := requireAdmin(ctx, s.memberRepo, tournamentID, actorID); err != nil {
		return err
	}
	if role, err := s.memberRepo.GetAdminRole(ctx, tournamentID, targetID); err == nil && role == models.RoleOwner {
		return ErrOwnerImmutable
	} else if err != nil && !errors.Is(err, repositories.ErrAdminNotFound) {
		return err
	}

	if err := s.memberRepo.RemoveMember(ctx, tournamentID, targetID); err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *memberService) AddAdmin(ctx context.Context, tournamentID, actorID, targetID uuid.UUID) (*models.TournamentAdmin, error) {
	if _, err := requireAdmin(ctx, s.memberRepo, tournamentID, actorID); err != nil {
		return nil, err
	}

	admin := &models.TournamentAdmin{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		UserID:       targetID,
		Role:         models.RoleAdmin,
		InvitedBy:    &actorID,
	}
	if err := s.memberRepo.AddAdmin(ctx, s.db, admin); err != nil {
		if errors.Is(err, repositories.ErrAdminAlreadyAssigned) {
			return nil, repositories.ErrAdminAlreadyAssigned
		}
		return nil, err
	}
	return admin, nil
}

func (s *memberService) ListAdmins(ctx context.Context, tournamentID, userID uuid.UUID) ([]*models.TournamentAdmin, error) {
	if err := requireMember(ctx, s.memberRepo, tournamentID, userID); err != nil {
		return nil, err
	}
	return s.memberRepo.ListAdmins(ctx, tournamentID)
}

// RemoveAdmin demotes an admin; only the owner can do it, and the owner
// role itself can never be removed.
func (s *memberService) RemoveAdmin(ctx context.Context, tournamentID, actorID, targetID uuid.UUID) error {
	role, err := requireAdmin(ctx, s.memberRepo, tournamentID, actorID)
	if err != nil {
		return err
	}
	if role != models.RoleOwner {
		return ErrForbiddenOperation
	}

	targetRole, err := s.memberRepo.GetAdminRole(ctx, tournamentID, targetID)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return ErrNotFound
		}
		return err
	}
	if targetRole == models.RoleOwner {
		return ErrOwnerImmutable
	}
	return s.memberRepo.RemoveAdmin(ctx, tournamentID, targetID)
}
