package events

import "time"

// WeeklyEvent is a recurring schedule template from which occurrences are
// generated.
type WeeklyEvent struct {
	ID                 string    `json:"id"`
	GroupID            string    `json:"group_id"`
	Name               string    `json:"name"`
	Weekday            int       `json:"weekday"`
	StartTime          string    `json:"start_time"`
	Capacity           int       `json:"capacity"`
	CutoffWeekday      *int      `json:"cutoff_weekday,omitempty"`
	CutoffTime         string    `json:"cutoff_time,omitempty"`
	IsActive           bool      `json:"is_active"`
	ActiveOccurrenceID string    `json:"active_occurrence_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewWeeklyEvent is the input for CreateWeeklyEvent. Cutoff values are
// stored and returned but not enforced.
type NewWeeklyEvent struct {
	Name          string `json:"name" validate:"required,max=80"`
	Weekday       int    `json:"weekday" validate:"min=0,max=6"`
	StartTime     string `json:"start_time" validate:"required"`
	Capacity      int    `json:"capacity" validate:"min=2,max=64"`
	CutoffWeekday *int   `json:"cutoff_weekday,omitempty" validate:"omitempty,min=0,max=6"`
	CutoffTime    string `json:"cutoff_time,omitempty"`
}

// Status is the lifecycle state of an occurrence.
type Status string

const (
	StatusOpen      Status = "open"
	StatusLocked    Status = "locked"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Occurrence is one dated instance of a weekly event.
type Occurrence struct {
	ID            string    `json:"id"`
	WeeklyEventID string    `json:"weekly_event_id"`
	GroupID       string    `json:"group_id"`
	StartsAt      time.Time `json:"starts_at"`
	Status        Status    `json:"status"`
	LoadedMatchID string    `json:"loaded_match_id,omitempty"`
	Booking       *Booking  `json:"booking,omitempty"`
}

// Booking is a court reservation linked to an occurrence.
type Booking struct {
	Ref   string `json:"ref"`
	Court string `json:"court,omitempty"`
	Price string `json:"price,omitempty"`
}

const (
	MinWeeksAhead = 1
	MaxWeeksAhead = 52
)
