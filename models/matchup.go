package models

import "github.com/google/uuid"

type MatchupStatus string

const (
	MatchupPending  MatchupStatus = "pending"
	MatchupVoting   MatchupStatus = "voting"
	MatchupComplete MatchupStatus = "complete"
)

// Matchup is one head-to-head pairing within a round. A matchup with
// MemeBID == nil is a bye: it is created already complete with the winner
// set to MemeAID. Position orders matchups left to right within a round;
// consecutive positions pair into the next round's matchups.
type Matchup struct {
	ID            uuid.UUID     `json:"id"`
	RoundID       uuid.UUID     `json:"round_id"`
	MemeAID       uuid.UUID     `json:"meme_a_id"`
	MemeBID       *uuid.UUID    `json:"meme_b_id,omitempty"`
	WinnerID      *uuid.UUID    `json:"winner_id,omitempty"`
	Status        MatchupStatus `json:"status"`
	Position      int           `json:"position"`
	NextMatchupID *uuid.UUID    `json:"next_matchup_id,omitempty"`

	MemeA *Meme `json:"meme_a,omitempty"`
	MemeB *Meme `json:"meme_b,omitempty"`
}

func (m *Matchup) IsBye() bool {
	return m.MemeBID == nil
}
