package matches

import (
	"context"

	"github.com/mauv0809/padel-weekly/internal/database"
)

// Store persists matches, their teams and their sets. Methods taking a
// database.DBTX run on it when non-nil so callers can compose them in a
// transaction.
type Store interface {
	Insert(ctx context.Context, q database.DBTX, m Match, split Split) error
	Get(ctx context.Context, q database.DBTX, id string) (*Match, error)
	Players(ctx context.Context, q database.DBTX, matchID string) ([]TeamPlayer, error)
	Sets(ctx context.Context, matchID string) ([]Set, error)
	// RecordResult stores sets and the winner once. A match that already has
	// a winner is a conflict.
	RecordResult(ctx context.Context, q database.DBTX, matchID string, sets []Set, winner int, updatedBy string) error
	List(ctx context.Context, groupID string, limit int) ([]Match, error)
	// OccurrenceID returns the occurrence linked to the match, or "".
	OccurrenceID(ctx context.Context, matchID string) (string, error)
}
