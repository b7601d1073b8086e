package attendance

import (
	"context"

	"github.com/mauv0809/padel-weekly/internal/database"
)

// Store persists attendance rows.
type Store interface {
	// Upsert inserts the row or, when one exists for the same occurrence and
	// player, updates its status and timestamp. The source of an existing
	// row is kept.
	Upsert(ctx context.Context, a Attendance) (*Attendance, error)
	ListForOccurrence(ctx context.Context, occurrenceID string) ([]Attendance, error)
	Capacity(ctx context.Context, occurrenceID string) (int, error)
	ConfirmedPlayerIDs(ctx context.Context, q database.DBTX, occurrenceID string) ([]string, error)
}
