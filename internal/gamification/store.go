package gamification

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

func New(db *sql.DB) Store {
	return &store{db: db, now: time.Now}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func (s *store) EnsureChallenges(ctx context.Context, groupID string, weekStart time.Time, defs []ChallengeDef) ([]Challenge, error) {
	s.mu.Lock()
	for _, d := range defs {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO challenges (id, group_id, week_start, kind, title, target, points)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(group_id, week_start, kind) DO NOTHING`,
			uuid.NewString(), groupID, weekStart.Unix(), string(d.Kind), d.Title, d.Target, d.Points)
		if err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("failed to create challenge %s: %w", d.Kind, err)
		}
	}
	s.mu.Unlock()
	return s.Challenges(ctx, groupID, weekStart)
}

func (s *store) Challenges(ctx context.Context, groupID string, weekStart time.Time) ([]Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, week_start, kind, title, target, points
		FROM challenges WHERE group_id = ? AND week_start = ? ORDER BY points, kind`, groupID, weekStart.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var out []Challenge
	for rows.Next() {
		var c Challenge
		var ws int64
		if err := rows.Scan(&c.ID, &c.GroupID, &ws, &c.Kind, &c.Title, &c.Target, &c.Points); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		c.WeekStart = time.Unix(ws, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *store) EnsureProgress(ctx context.Context, challengeIDs, playerIDs []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	for _, c := range challengeIDs {
		for _, p := range playerIDs {
			res, err := s.db.ExecContext(ctx, `
				INSERT INTO challenge_progress (challenge_id, player_id, progress)
				VALUES (?, ?, 0) ON CONFLICT(challenge_id, player_id) DO NOTHING`, c, p)
			if err != nil {
				return created, fmt.Errorf("failed to initialize progress: %w", err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				created++
			}
		}
	}
	return created, nil
}

func (s *store) SetProgress(ctx context.Context, p Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completed sql.NullInt64
	if p.CompletedAt != nil {
		completed = sql.NullInt64{Int64: p.CompletedAt.Unix(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO challenge_progress (challenge_id, player_id, progress, completed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(challenge_id, player_id) DO UPDATE SET
			progress = excluded.progress,
			completed_at = COALESCE(challenge_progress.completed_at, excluded.completed_at)`,
		p.ChallengeID, p.PlayerID, p.Progress, completed)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

func (s *store) Progress(ctx context.Context, challengeIDs []string) ([]Progress, error) {
	if len(challengeIDs) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	args := make([]any, len(challengeIDs))
	for i, id := range challengeIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT challenge_id, player_id, progress, completed_at FROM challenge_progress
		WHERE challenge_id IN (`+placeholders(len(args))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	defer rows.Close()

	var out []Progress
	for rows.Next() {
		var p Progress
		var completed sql.NullInt64
		if err := rows.Scan(&p.ChallengeID, &p.PlayerID, &p.Progress, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		if completed.Valid {
			t := time.Unix(completed.Int64, 0).UTC()
			p.CompletedAt = &t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func bounds(from, to time.Time) (int64, int64) {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if !from.IsZero() {
		lo = from.Unix()
	}
	if !to.IsZero() {
		hi = to.Unix()
	}
	return lo, hi
}

func (s *store) PlayerMatches(ctx context.Context, groupID, playerID string, from, to time.Time) ([]PlayedMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lo, hi := bounds(from, to)
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.played_at, mt.team_number, COALESCE(m.winner_team, 0),
			COALESCE((SELECT p2.player_id FROM match_team_players p2
				WHERE p2.match_team_id = mt.id AND p2.player_id <> mtp.player_id LIMIT 1), '')
		FROM matches m
		JOIN match_teams mt ON mt.match_id = m.id
		JOIN match_team_players mtp ON mtp.match_team_id = mt.id
		WHERE m.group_id = ? AND mtp.player_id = ? AND m.played_at >= ? AND m.played_at < ?
		ORDER BY m.played_at, m.created_at`, groupID, playerID, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("failed to load player matches: %w", err)
	}
	var out []PlayedMatch
	index := map[string]int{}
	for rows.Next() {
		var m PlayedMatch
		var playedAt int64
		if err := rows.Scan(&m.ID, &playedAt, &m.Team, &m.Winner, &m.Partner); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan player match: %w", err)
		}
		m.PlayedAt = time.Unix(playedAt, 0).UTC()
		index[m.ID] = len(out)
		out = append(out, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	// Rows must be closed before the next query: the pool may hold a single
	// connection.
	args := make([]any, 0, len(out))
	for _, m := range out {
		args = append(args, m.ID)
	}
	setRows, err := s.db.QueryContext(ctx, `
		SELECT match_id, team1_games, team2_games FROM match_sets
		WHERE match_id IN (`+placeholders(len(args))+`) ORDER BY match_id, set_number`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load sets: %w", err)
	}
	defer setRows.Close()
	for setRows.Next() {
		var id string
		var g1, g2 int
		if err := setRows.Scan(&id, &g1, &g2); err != nil {
			return nil, fmt.Errorf("failed to scan set: %w", err)
		}
		m := &out[index[id]]
		if m.Team == 1 {
			m.Sets = append(m.Sets, [2]int{g1, g2})
		} else {
			m.Sets = append(m.Sets, [2]int{g2, g1})
		}
	}
	return out, setRows.Err()
}

func (s *store) ConfirmedCount(ctx context.Context, playerID string, from, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lo, hi := bounds(from, to)
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance a
		JOIN event_occurrences o ON o.id = a.occurrence_id
		WHERE a.player_id = ? AND a.status = 'confirmed' AND o.starts_at >= ? AND o.starts_at < ?`,
		playerID, lo, hi).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count confirmations: %w", err)
	}
	return n, nil
}

func (s *store) Award(ctx context.Context, groupID, playerID, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO player_badges (player_id, badge_code, group_id, awarded_at)
		VALUES (?, ?, ?, ?) ON CONFLICT(player_id, badge_code) DO NOTHING`,
		playerID, code, groupID, s.now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to award badge %s: %w", code, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *store) PlayerBadges(ctx context.Context, playerID string) ([]Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.code, b.name, b.description, b.special, pb.awarded_at
		FROM player_badges pb JOIN badges b ON b.code = pb.badge_code
		WHERE pb.player_id = ? ORDER BY pb.awarded_at, b.code`, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	var out []Badge
	for rows.Next() {
		var b Badge
		var awarded int64
		if err := rows.Scan(&b.Code, &b.Name, &b.Description, &b.Special, &awarded); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		b.AwardedAt = time.Unix(awarded, 0).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *store) SkipWeek(ctx context.Context, groupID string, weekStart time.Time, by string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO skipped_weeks (group_id, week_start, skipped_by, created_at)
		VALUES (?, ?, ?, ?) ON CONFLICT(group_id, week_start) DO NOTHING`,
		groupID, weekStart.Unix(), by, s.now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to skip week: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *store) SkippedWeeks(ctx context.Context, groupID string) (map[int64]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT week_start FROM skipped_weeks WHERE group_id = ?`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skipped weeks: %w", err)
	}
	defer rows.Close()

	out := map[int64]bool{}
	for rows.Next() {
		var ws int64
		if err := rows.Scan(&ws); err != nil {
			return nil, err
		}
		out[ws] = true
	}
	return out, rows.Err()
}
