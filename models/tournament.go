package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus mirrors the ENUM in the database.
type TournamentStatus string

const (
	TournamentSubmissionOpen TournamentStatus = "submission_open"
	TournamentVotingOpen     TournamentStatus = "voting_open"
	TournamentComplete       TournamentStatus = "complete"
)

type Tournament struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Status      TournamentStatus `json:"status"`
	JoinCode    string           `json:"-"`
	TotalRounds *int             `json:"total_rounds,omitempty"`
	CreatedBy   uuid.UUID        `json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`

	// Optional related entities, populated by services when requested.
	Rounds []*Round `json:"rounds,omitempty"`
	Memes  []*Meme  `json:"memes,omitempty"`
}
