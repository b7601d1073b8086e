package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/database"
)

type store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// New creates a new events Store.
func New(db *sql.DB) Store {
	return &store{db: db, now: time.Now}
}

func (s *store) CreateWeeklyEvent(ctx context.Context, groupID string, in NewWeeklyEvent) (*WeeklyEvent, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.Validation("event name is required")
	}
	if in.Weekday < 0 || in.Weekday > 6 {
		return nil, apperr.Validation("weekday must be between 0 and 6")
	}
	if _, _, err := ParseClock(in.StartTime); err != nil {
		return nil, err
	}
	if in.Capacity == 0 {
		in.Capacity = 4
	}
	if in.Capacity < 2 {
		return nil, apperr.Validation("capacity must be at least 2")
	}
	if in.CutoffTime != "" {
		if _, _, err := ParseClock(in.CutoffTime); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ev := &WeeklyEvent{
		ID:            uuid.NewString(),
		GroupID:       groupID,
		Name:          in.Name,
		Weekday:       in.Weekday,
		StartTime:     in.StartTime,
		Capacity:      in.Capacity,
		CutoffWeekday: in.CutoffWeekday,
		CutoffTime:    in.CutoffTime,
		IsActive:      true,
		CreatedAt:     s.now().UTC().Truncate(time.Second),
	}
	var cutoffDay sql.NullInt64
	if ev.CutoffWeekday != nil {
		cutoffDay = sql.NullInt64{Int64: int64(*ev.CutoffWeekday), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weekly_events (id, group_id, name, weekday, start_time, capacity, cutoff_weekday, cutoff_time, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		ev.ID, groupID, ev.Name, ev.Weekday, ev.StartTime, ev.Capacity, cutoffDay, nullString(ev.CutoffTime), ev.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create weekly event: %w", err)
	}
	log.Info("Created weekly event", "id", ev.ID, "group", groupID, "weekday", describeWeekday(ev.Weekday), "start", ev.StartTime)
	return ev, nil
}

const eventColumns = `id, group_id, name, weekday, start_time, capacity, cutoff_weekday, COALESCE(cutoff_time, ''), is_active, COALESCE(active_occurrence_id, ''), created_at`

func scanEvent(scan func(dest ...any) error) (WeeklyEvent, error) {
	var ev WeeklyEvent
	var cutoff sql.NullInt64
	var created int64
	err := scan(&ev.ID, &ev.GroupID, &ev.Name, &ev.Weekday, &ev.StartTime, &ev.Capacity, &cutoff, &ev.CutoffTime, &ev.IsActive, &ev.ActiveOccurrenceID, &created)
	if cutoff.Valid {
		d := int(cutoff.Int64)
		ev.CutoffWeekday = &d
	}
	ev.CreatedAt = time.Unix(created, 0).UTC()
	return ev, err
}

func (s *store) GetWeeklyEvent(ctx context.Context, id string) (*WeeklyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, err := scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM weekly_events WHERE id = ?`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("weekly event not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly event: %w", err)
	}
	return &ev, nil
}

func (s *store) ListWeeklyEvents(ctx context.Context, groupID string) ([]WeeklyEvent, error) {
	return s.listEvents(ctx, `SELECT `+eventColumns+` FROM weekly_events WHERE group_id = ? ORDER BY weekday, start_time`, groupID)
}

func (s *store) ListActiveWeeklyEvents(ctx context.Context) ([]WeeklyEvent, error) {
	return s.listEvents(ctx, `SELECT `+eventColumns+` FROM weekly_events WHERE is_active = 1 ORDER BY group_id, weekday`)
}

func (s *store) listEvents(ctx context.Context, query string, args ...any) ([]WeeklyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly events: %w", err)
	}
	defer rows.Close()

	var out []WeeklyEvent
	for rows.Next() {
		ev, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weekly event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *store) SetActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE weekly_events SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update weekly event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("weekly event not found")
	}
	return nil
}

func (s *store) InsertOccurrences(ctx context.Context, event *WeeklyEvent, startsAt []time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO event_occurrences (id, weekly_event_id, group_id, starts_at, status, updated_at)
			VALUES (?, ?, ?, ?, 'open', ?)
			ON CONFLICT(weekly_event_id, starts_at) DO NOTHING`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := s.now().Unix()
		for _, ts := range startsAt {
			res, err := stmt.ExecContext(ctx, uuid.NewString(), event.ID, event.GroupID, ts.Unix(), now)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			created += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (s *store) RefreshActiveOccurrence(ctx context.Context, eventID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		UPDATE weekly_events SET active_occurrence_id = (
			SELECT id FROM event_occurrences
			WHERE weekly_event_id = ? AND starts_at >= ? AND status IN ('open', 'locked')
			ORDER BY starts_at LIMIT 1
		) WHERE id = ?`, eventID, now.Unix(), eventID)
	if err != nil {
		return fmt.Errorf("failed to refresh active occurrence: %w", err)
	}
	return nil
}

const occurrenceColumns = `id, weekly_event_id, group_id, starts_at, status, COALESCE(loaded_match_id, ''), COALESCE(booking_ref, ''), COALESCE(court, ''), COALESCE(price, '')`

func scanOccurrence(scan func(dest ...any) error) (Occurrence, error) {
	var o Occurrence
	var starts int64
	var b Booking
	err := scan(&o.ID, &o.WeeklyEventID, &o.GroupID, &starts, &o.Status, &o.LoadedMatchID, &b.Ref, &b.Court, &b.Price)
	o.StartsAt = time.Unix(starts, 0).UTC()
	if b.Ref != "" {
		o.Booking = &b
	}
	return o, err
}

// GetOccurrence loads an occurrence through q, which may be a transaction.
// A nil q uses the store's database.
func (s *store) GetOccurrence(ctx context.Context, q database.DBTX, id string) (*Occurrence, error) {
	if q == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		q = s.db
	}
	o, err := scanOccurrence(q.QueryRowContext(ctx, `SELECT `+occurrenceColumns+` FROM event_occurrences WHERE id = ?`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("occurrence not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load occurrence: %w", err)
	}
	return &o, nil
}

func (s *store) ListOccurrences(ctx context.Context, groupID string, from, to time.Time) ([]Occurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listOccurrences(ctx, s.db, `
		SELECT `+occurrenceColumns+` FROM event_occurrences
		WHERE group_id = ? AND starts_at >= ? AND starts_at < ?
		ORDER BY starts_at`, groupID, from.Unix(), to.Unix())
}

// ListLinkable returns open or locked occurrences without a match whose start
// lies in [from, to].
func (s *store) ListLinkable(ctx context.Context, q database.DBTX, groupID string, from, to time.Time) ([]Occurrence, error) {
	if q == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		q = s.db
	}
	return listOccurrences(ctx, q, `
		SELECT `+occurrenceColumns+` FROM event_occurrences
		WHERE group_id = ? AND starts_at BETWEEN ? AND ?
		  AND loaded_match_id IS NULL AND status IN ('open', 'locked')
		ORDER BY starts_at`, groupID, from.Unix(), to.Unix())
}

func listOccurrences(ctx context.Context, q database.DBTX, query string, args ...any) ([]Occurrence, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}
	defer rows.Close()

	var out []Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan occurrence: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *store) UpdateStatus(ctx context.Context, id string, to Status, from ...Status) (bool, error) {
	if len(from) == 0 {
		return false, errors.New("at least one source status is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	args := []any{to, s.now().Unix(), id}
	for _, f := range from {
		args = append(args, f)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE event_occurrences SET status = ?, updated_at = ? WHERE id = ? AND status IN (`+placeholders+`)`, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update occurrence status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *store) LinkMatch(ctx context.Context, q database.DBTX, occurrenceID, matchID string) error {
	if q == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		q = s.db
	}
	res, err := q.ExecContext(ctx, `
		UPDATE event_occurrences SET loaded_match_id = ?, status = 'completed', updated_at = ?
		WHERE id = ? AND loaded_match_id IS NULL AND status <> 'cancelled'`,
		matchID, s.now().Unix(), occurrenceID)
	if err != nil {
		return fmt.Errorf("failed to link match to occurrence: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	occ, err := s.GetOccurrence(ctx, q, occurrenceID)
	if err != nil {
		return err
	}
	if occ.Status == StatusCancelled {
		return apperr.Conflict("occurrence was cancelled")
	}
	return apperr.Conflict("occurrence already has a match")
}

func (s *store) SetBooking(ctx context.Context, occurrenceID string, b Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE event_occurrences SET booking_ref = ?, court = ?, price = ?, updated_at = ? WHERE id = ?`,
		b.Ref, nullString(b.Court), nullString(b.Price), s.now().Unix(), occurrenceID)
	if err != nil {
		return fmt.Errorf("failed to set booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("occurrence not found")
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
