package attendance

import "time"

// Status is a player's RSVP for one occurrence.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusDeclined  Status = "declined"
	StatusMaybe     Status = "maybe"
	StatusWaitlist  Status = "waitlist"
)

func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusDeclined, StatusMaybe, StatusWaitlist:
		return true
	}
	return false
}

// Source records where an attendance row came from.
type Source string

const (
	SourceWhatsApp Source = "whatsapp"
	SourceWeb      Source = "web"
	SourceAdmin    Source = "admin"
)

func (s Source) Valid() bool {
	return s == SourceWhatsApp || s == SourceWeb || s == SourceAdmin
}

// Attendance is the single row kept per (occurrence, player).
type Attendance struct {
	ID           string    `json:"id"`
	OccurrenceID string    `json:"occurrence_id"`
	GroupID      string    `json:"group_id"`
	PlayerID     string    `json:"player_id"`
	PlayerName   string    `json:"player_name,omitempty"`
	Status       Status    `json:"status"`
	Source       Source    `json:"source"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary is recomputed from the attendance rows on every read.
type Summary struct {
	OccurrenceID   string       `json:"occurrence_id"`
	Capacity       int          `json:"capacity"`
	Confirmed      []Attendance `json:"confirmed"`
	Declined       []Attendance `json:"declined"`
	Maybe          []Attendance `json:"maybe"`
	Waitlist       []Attendance `json:"waitlist"`
	ConfirmedCount int          `json:"confirmed_count"`
	DeclinedCount  int          `json:"declined_count"`
	MaybeCount     int          `json:"maybe_count"`
	WaitlistCount  int          `json:"waitlist_count"`
	IsFull         bool         `json:"is_full"`
	SpotsAvailable int          `json:"spots_available"`
}

// Total is the number of players with a row for the occurrence.
func (s Summary) Total() int {
	return s.ConfirmedCount + s.DeclinedCount + s.MaybeCount + s.WaitlistCount
}

// Broadcaster pushes payloads to clients watching a room.
type Broadcaster interface {
	Broadcast(room string, payload any)
}
