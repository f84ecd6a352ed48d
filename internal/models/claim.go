package models

import (
	"time"

	"github.com/google/uuid"
)

// Claim records a redeemed key. (campaign_id, idx) is unique.
type Claim struct {
	ID         string    `json:"id" db:"id"` // ULID
	CampaignID uuid.UUID `json:"campaign_id" db:"campaign_id"`
	Index      int       `json:"index" db:"idx"`
	Address    string    `json:"address" db:"address"`
	Recipient  string    `json:"recipient" db:"recipient"`
	ClaimedAt  time.Time `json:"claimed_at" db:"claimed_at"`
}
