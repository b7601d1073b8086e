package elo

import "time"

// Entry is one row of the rating ledger.
type Entry struct {
	Seq         int64     `json:"seq"`
	PlayerID    string    `json:"player_id"`
	Rating      int       `json:"rating"`
	AsOfMatchID string    `json:"as_of_match_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
