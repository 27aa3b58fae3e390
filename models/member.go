package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminRole distinguishes the tournament owner (its creator) from admins the
// owner invited. Only the owner can remove other admins.
type AdminRole string

const (
	RoleOwner AdminRole = "owner"
	RoleAdmin AdminRole = "admin"
)

type TournamentMember struct {
	ID           uuid.UUID `json:"id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	UserID       uuid.UUID `json:"user_id"`
	JoinedAt     time.Time `json:"joined_at"`

	User *User `json:"user,omitempty"`
}

type TournamentAdmin struct {
	ID           uuid.UUID  `json:"id"`
	TournamentID uuid.UUID  `json:"tournament_id"`
	UserID       uuid.UUID  `json:"user_id"`
	Role         AdminRole  `json:"role"`
	InvitedBy    *uuid.UUID `json:"invited_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	User *User `json:"user,omitempty"`
}
