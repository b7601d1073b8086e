package elo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/database"
)

// Store reads and appends rating ledger rows. Current ratings are never
// updated in place.
type Store interface {
	Current(ctx context.Context, q database.DBTX, playerID string) (int, error)
	CurrentMany(ctx context.Context, q database.DBTX, playerIDs []string) (map[string]int, error)
	History(ctx context.Context, playerID string) ([]Entry, error)
	RatingBefore(ctx context.Context, playerID, matchID string) (int, error)
	RatingAfter(ctx context.Context, playerID, matchID string) (int, bool, error)
	Append(ctx context.Context, q database.DBTX, entries []Entry) error
	HasMatch(ctx context.Context, q database.DBTX, matchID string) (bool, error)
}

type store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

func New(db *sql.DB) Store {
	return &store{db: db, now: time.Now}
}

func (s *store) querier(q database.DBTX) database.DBTX {
	if q == nil {
		return s.db
	}
	return q
}

func (s *store) Current(ctx context.Context, q database.DBTX, playerID string) (int, error) {
	var rating int
	err := s.querier(q).QueryRowContext(ctx,
		`SELECT rating FROM elo_ratings WHERE player_id = ? ORDER BY seq DESC LIMIT 1`, playerID).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return Default, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load rating: %w", err)
	}
	return rating, nil
}

// CurrentMany returns the latest rating for every id, defaulting to 1000
// for players without history.
func (s *store) CurrentMany(ctx context.Context, q database.DBTX, playerIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(playerIDs))
	for _, id := range playerIDs {
		out[id] = Default
	}
	if len(playerIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(playerIDs)), ",")
	args := make([]any, len(playerIDs))
	for i, id := range playerIDs {
		args[i] = id
	}
	rows, err := s.querier(q).QueryContext(ctx, `
		SELECT e.player_id, e.rating FROM elo_ratings e
		JOIN (SELECT player_id, MAX(seq) AS seq FROM elo_ratings WHERE player_id IN (`+placeholders+`) GROUP BY player_id) latest
		  ON latest.player_id = e.player_id AND latest.seq = e.seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var rating int
		if err := rows.Scan(&id, &rating); err != nil {
			return nil, err
		}
		out[id] = rating
	}
	return out, rows.Err()
}

func (s *store) History(ctx context.Context, playerID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, player_id, rating, COALESCE(as_of_match_id, ''), created_at
		FROM elo_ratings WHERE player_id = ? ORDER BY seq`, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.Seq, &e.PlayerID, &e.Rating, &e.AsOfMatchID, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// RatingBefore is the player's rating going into matchID. When the match
// has no ledger row yet the current rating is returned.
func (s *store) RatingBefore(ctx context.Context, playerID, matchID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var seq int64
	err := s.db.QueryRowContext(ctx,
		`SELECT seq FROM elo_ratings WHERE player_id = ? AND as_of_match_id = ?`, playerID, matchID).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return s.Current(ctx, s.db, playerID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to locate match rating: %w", err)
	}

	var rating int
	err = s.db.QueryRowContext(ctx,
		`SELECT rating FROM elo_ratings WHERE player_id = ? AND seq < ? ORDER BY seq DESC LIMIT 1`, playerID, seq).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return Default, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load previous rating: %w", err)
	}
	return rating, nil
}

func (s *store) RatingAfter(ctx context.Context, playerID, matchID string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rating int
	err := s.db.QueryRowContext(ctx,
		`SELECT rating FROM elo_ratings WHERE player_id = ? AND as_of_match_id = ?`, playerID, matchID).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load match rating: %w", err)
	}
	return rating, true, nil
}

func (s *store) Append(ctx context.Context, q database.DBTX, entries []Entry) error {
	if q == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	now := s.now().Unix()
	for _, e := range entries {
		_, err := s.querier(q).ExecContext(ctx,
			`INSERT INTO elo_ratings (player_id, rating, as_of_match_id, created_at) VALUES (?, ?, ?, ?)`,
			e.PlayerID, e.Rating, sql.NullString{String: e.AsOfMatchID, Valid: e.AsOfMatchID != ""}, now)
		if err != nil {
			return fmt.Errorf("failed to append rating for %s: %w", e.PlayerID, err)
		}
		log.Debug("Appended rating", "player", e.PlayerID, "rating", e.Rating, "match", e.AsOfMatchID)
	}
	return nil
}

func (s *store) HasMatch(ctx context.Context, q database.DBTX, matchID string) (bool, error) {
	var n int
	err := s.querier(q).QueryRowContext(ctx, `SELECT COUNT(*) FROM elo_ratings WHERE as_of_match_id = ?`, matchID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check match ratings: %w", err)
	}
	return n > 0, nil
}
