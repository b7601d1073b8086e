package events

import (
	"context"
	"time"

	"github.com/mauv0809/padel-weekly/internal/database"
)

// Store persists weekly events and their occurrences.
type Store interface {
	CreateWeeklyEvent(ctx context.Context, groupID string, in NewWeeklyEvent) (*WeeklyEvent, error)
	GetWeeklyEvent(ctx context.Context, id string) (*WeeklyEvent, error)
	ListWeeklyEvents(ctx context.Context, groupID string) ([]WeeklyEvent, error)
	ListActiveWeeklyEvents(ctx context.Context) ([]WeeklyEvent, error)
	SetActive(ctx context.Context, id string, active bool) error
	// InsertOccurrences inserts one occurrence per start time, ignoring
	// those that already exist for the event, and returns how many were
	// created.
	InsertOccurrences(ctx context.Context, event *WeeklyEvent, startsAt []time.Time) (int, error)
	RefreshActiveOccurrence(ctx context.Context, eventID string, now time.Time) error
	GetOccurrence(ctx context.Context, q database.DBTX, id string) (*Occurrence, error)
	ListOccurrences(ctx context.Context, groupID string, from, to time.Time) ([]Occurrence, error)
	ListLinkable(ctx context.Context, q database.DBTX, groupID string, from, to time.Time) ([]Occurrence, error)
	// UpdateStatus moves an occurrence to status when its current status is
	// one of from. It reports whether a row changed.
	UpdateStatus(ctx context.Context, id string, to Status, from ...Status) (bool, error)
	// LinkMatch sets loaded_match_id once and marks the occurrence completed.
	LinkMatch(ctx context.Context, q database.DBTX, occurrenceID, matchID string) error
	SetBooking(ctx context.Context, occurrenceID string, b Booking) error
}
