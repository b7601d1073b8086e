package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/database"
)

type store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// New creates a new attendance Store.
func New(db *sql.DB) Store {
	return &store{db: db, now: time.Now}
}

func (s *store) Upsert(ctx context.Context, a Attendance) (*Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC().Truncate(time.Second)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance (id, occurrence_id, group_id, player_id, status, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(occurrence_id, player_id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at`,
		uuid.NewString(), a.OccurrenceID, a.GroupID, a.PlayerID, a.Status, a.Source, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to save attendance: %w", err)
	}

	var out Attendance
	var updated int64
	err = s.db.QueryRowContext(ctx, `
		SELECT a.id, a.occurrence_id, a.group_id, a.player_id, p.name, a.status, a.source, a.updated_at
		FROM attendance a JOIN players p ON p.id = a.player_id
		WHERE a.occurrence_id = ? AND a.player_id = ?`, a.OccurrenceID, a.PlayerID).
		Scan(&out.ID, &out.OccurrenceID, &out.GroupID, &out.PlayerID, &out.PlayerName, &out.Status, &out.Source, &updated)
	if err != nil {
		return nil, fmt.Errorf("failed to reload attendance: %w", err)
	}
	out.UpdatedAt = time.Unix(updated, 0).UTC()
	return &out, nil
}

func (s *store) ListForOccurrence(ctx context.Context, occurrenceID string) ([]Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.occurrence_id, a.group_id, a.player_id, p.name, a.status, a.source, a.updated_at
		FROM attendance a JOIN players p ON p.id = a.player_id
		WHERE a.occurrence_id = ?
		ORDER BY a.updated_at, p.name`, occurrenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var out []Attendance
	for rows.Next() {
		var a Attendance
		var updated int64
		if err := rows.Scan(&a.ID, &a.OccurrenceID, &a.GroupID, &a.PlayerID, &a.PlayerName, &a.Status, &a.Source, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		a.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *store) Capacity(ctx context.Context, occurrenceID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var capacity int
	err := s.db.QueryRowContext(ctx, `
		SELECT w.capacity FROM event_occurrences o
		JOIN weekly_events w ON w.id = o.weekly_event_id
		WHERE o.id = ?`, occurrenceID).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.NotFound("occurrence not found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load capacity: %w", err)
	}
	return capacity, nil
}

// ConfirmedPlayerIDs lists confirmed players in the order they confirmed.
// A nil q uses the store's database.
func (s *store) ConfirmedPlayerIDs(ctx context.Context, q database.DBTX, occurrenceID string) ([]string, error) {
	if q == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		q = s.db
	}
	rows, err := q.QueryContext(ctx, `
		SELECT player_id FROM attendance
		WHERE occurrence_id = ? AND status = 'confirmed'
		ORDER BY updated_at, player_id`, occurrenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed players: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
