package models

import (
	"time"

	"github.com/google/uuid"
)

// MemeBracketStatus is a derived, read-only view of where a meme stands in
// its tournament. It is computed from the meme's matchups, never stored.
type MemeBracketStatus string

const (
	MemeNotInBracket MemeBracketStatus = "not_in_bracket"
	MemeActive       MemeBracketStatus = "active"
	MemeAdvanced     MemeBracketStatus = "advanced"
	MemeByeAdvanced  MemeBracketStatus = "bye_advanced"
	MemeEliminated   MemeBracketStatus = "eliminated"
)

type Meme struct {
	ID           uuid.UUID `json:"id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Title        string    `json:"title"`
	ImageKey     string    `json:"-"`
	ImageURL     string    `json:"image_url"`
	SubmittedAt  time.Time `json:"submitted_at"`

	BracketStatus MemeBracketStatus `json:"bracket_status,omitempty"`
	Owner         *User             `json:"owner,omitempty"`
}
