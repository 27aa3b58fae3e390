package models

import "github.com/google/uuid"

type RoundStatus string

const (
	RoundVoting   RoundStatus = "voting"
	RoundComplete RoundStatus = "complete"
)

type Round struct {
	ID           uuid.UUID   `json:"id"`
	TournamentID uuid.UUID   `json:"tournament_id"`
	RoundNumber  int         `json:"round_number"`
	Status       RoundStatus `json:"status"`

	Matchups []*Matchup `json:"matchups,omitempty"`
}
