package models

import (
	"time"

	"github.com/google/uuid"
)

type Vote struct {
	ID        uuid.UUID `json:"id"`
	MatchupID uuid.UUID `json:"matchup_id"`
	VoterID   uuid.UUID `json:"voter_id"`
	MemeID    uuid.UUID `json:"meme_id"`
	CreatedAt time.Time `json:"created_at"`
}
