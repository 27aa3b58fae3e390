package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/models"
	"github.com/meme-madness/meme-madness/repositories"
)

// joinCodeCharset drops ambiguous characters (0/O, 1/I/L) so codes survive
// being read aloud.
const joinCodeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const joinCodeLength = 8

func generateJoinCode() (string, error) {
	randomBytes := make([]byte, joinCodeLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate join code: %w", err)
	}
	code := make([]byte, joinCodeLength)
	for i, rb := range randomBytes {
		code[i] = joinCodeCharset[int(rb)%len(joinCodeCharset)]
	}
	return string(code), nil
}

// requireMember allows both plain members and admins through.
func requireMember(ctx context.Context, members repositories.MemberRepository, tournamentID, userID uuid.UUID) error {
	isMember, err := members.IsMember(ctx, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return nil
	}
	if _, err := members.GetAdminRole(ctx, tournamentID, userID); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrAdminNotFound) {
		return fmt.Errorf("failed to check admin role: %w", err)
	}
	return ErrNotTournamentMember
}

func requireAdmin(ctx context.Context, members repositories.MemberRepository, tournamentID, userID uuid.UUID) (models.AdminRole, error) {
	role, err := members.GetAdminRole(ctx, tournamentID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return "", ErrNotTournamentAdmin
		}
		return "", fmt.Errorf("failed to check admin role: %w", err)
	}
	return role, nil
}
