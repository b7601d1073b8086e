package matches

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

func New(db *sql.DB) Store {
	return &store{db: db, now: time.Now}
}

const matchColumns = `id, group_id, played_at, best_of, winner_team, created_by, updated_by, created_at, updated_at`

func scanMatch(scan func(dest ...any) error) (*Match, error) {
	var (
		m                              Match
		playedAt, createdAt, updatedAt int64
		winner                         sql.NullInt64
	)
	if err := scan(&m.ID, &m.GroupID, &playedAt, &m.BestOf, &winner, &m.CreatedBy, &m.UpdatedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	m.PlayedAt = time.Unix(playedAt, 0).UTC()
	m.CreatedAt = time.Unix(createdAt, 0).UTC()
	m.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	m.WinnerTeam = int(winner.Int64)
	return &m, nil
}

// Insert writes the match row, both team rows and the four player
// assignments.
func (s *store) Insert(ctx context.Context, q database.DBTX, m Match, split Split) error {
	if q == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		q = s.db
	}
	now := s.now().Unix()
	_, err := q.ExecContext(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, NULL, ?, ?, ?, ?)`,
		m.ID, m.GroupID, m.PlayedAt.Unix(), m.BestOf, m.CreatedBy, m.CreatedBy, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	for n, team := range [][]string{split.TeamA, split.TeamB} {
		teamID := uuid.NewString()
		if _, err := q.ExecContext(ctx,
			`INSERT INTO match_teams (id, match_id, team_number) VALUES (?, ?, ?)`, teamID, m.ID, n+1); err != nil {
			return fmt.Errorf("failed to insert team %d: %w", n+1, err)
		}
		for _, playerID := range team {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO match_team_players (match_team_id, player_id) VALUES (?, ?)`, teamID, playerID); err != nil {
				return fmt.Errorf("failed to assign player to team %d: %w", n+1, err)
			}
		}
	}
	log.Debug("Inserted match", "match", m.ID, "group", m.GroupID)
	return nil
}

func (s *store) Get(ctx context.Context, q database.DBTX, id string) (*Match, error) {
	if q == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		q = s.db
	}
	m, err := scanMatch(q.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("match not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

func (s *store) Players(ctx context.Context, q database.DBTX, matchID string) ([]TeamPlayer, error) {
	if q == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		q = s.db
	}
	rows, err := q.QueryContext(ctx, `
		SELECT mt.team_number, p.id, p.name
		FROM match_teams mt
		JOIN match_team_players mtp ON mtp.match_team_id = mt.id
		JOIN players p ON p.id = mtp.player_id
		WHERE mt.match_id = ?
		ORDER BY mt.team_number, p.name, p.id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match players: %w", err)
	}
	defer rows.Close()

	var out []TeamPlayer
	for rows.Next() {
		var tp TeamPlayer
		if err := rows.Scan(&tp.Team, &tp.PlayerID, &tp.Name); err != nil {
			return nil, fmt.Errorf("failed to scan match player: %w", err)
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}

func (s *store) Sets(ctx context.Context, matchID string) ([]Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT set_number, team1_games, team2_games FROM match_sets
		WHERE match_id = ? ORDER BY set_number`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sets: %w", err)
	}
	defer rows.Close()

	var out []Set
	for rows.Next() {
		var set Set
		if err := rows.Scan(&set.Number, &set.Team1Games, &set.Team2Games); err != nil {
			return nil, fmt.Errorf("failed to scan set: %w", err)
		}
		out = append(out, set)
	}
	return out, rows.Err()
}

func (s *store) RecordResult(ctx context.Context, q database.DBTX, matchID string, sets []Set, winner int, updatedBy string) error {
	if q == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		q = s.db
	}
	res, err := q.ExecContext(ctx, `
		UPDATE matches SET winner_team = ?, updated_by = ?, updated_at = ?
		WHERE id = ? AND winner_team IS NULL`, winner, updatedBy, s.now().Unix(), matchID)
	if err != nil {
		return fmt.Errorf("failed to record winner: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.Get(ctx, q, matchID); err != nil {
			return err
		}
		return apperr.Conflict("result already recorded")
	}

	for _, set := range sets {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO match_sets (match_id, set_number, team1_games, team2_games) VALUES (?, ?, ?, ?)`,
			matchID, set.Number, set.Team1Games, set.Team2Games); err != nil {
			return fmt.Errorf("failed to insert set %d: %w", set.Number, err)
		}
	}
	return nil
}

// List returns the group's matches, most recent first. A non-positive limit
// returns all of them.
func (s *store) List(ctx context.Context, groupID string, limit int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE group_id = ? ORDER BY played_at DESC, created_at DESC LIMIT ?`, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		m, err := scanMatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *store) OccurrenceID(ctx context.Context, matchID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM event_occurrences WHERE loaded_match_id = ? ORDER BY starts_at LIMIT 1`, matchID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find linked occurrence: %w", err)
	}
	return id, nil
}
