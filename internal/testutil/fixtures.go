// Package testutil builds in-memory databases and row fixtures for tests.
// It writes rows with plain SQL so any package's tests can use it.
package testutil

import (
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/database"
	"github.com/stretchr/testify/require"
)

// MigrationsDir resolves the repository migrations directory regardless of
// the calling package.
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// NewDB returns a migrated in-memory database closed at test cleanup.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()
	db, teardown, err := database.InitDB(":memory:", "", "", MigrationsDir())
	require.NoError(t, err)
	t.Cleanup(teardown)
	return db
}

func exec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

// Group inserts a group and returns its id.
func Group(t *testing.T, db *sql.DB, slug string) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO groups (id, name, slug, created_at) VALUES (?, ?, ?, ?)`, id, slug, slug, time.Now().Unix())
	return id
}

// Member adds userID to the group.
func Member(t *testing.T, db *sql.DB, groupID, userID string) {
	t.Helper()
	exec(t, db, `INSERT INTO group_members (group_id, user_id, role, created_at) VALUES (?, ?, 'member', ?)`, groupID, userID, time.Now().Unix())
}

// Player inserts a usual player and returns its id.
func Player(t *testing.T, db *sql.DB, groupID, name string) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO players (id, group_id, name, status, created_at) VALUES (?, ?, ?, 'usual', ?)`, id, groupID, name, time.Now().Unix())
	return id
}

// PlaytomicPlayer inserts a player linked to a Playtomic user id.
func PlaytomicPlayer(t *testing.T, db *sql.DB, groupID, name, playtomicID string) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO players (id, group_id, name, status, playtomic_id, created_at) VALUES (?, ?, ?, 'usual', ?, ?)`,
		id, groupID, name, playtomicID, time.Now().Unix())
	return id
}

// Event inserts a weekly event with the given capacity and returns its id.
func Event(t *testing.T, db *sql.DB, groupID string, weekday int, start string, capacity int) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO weekly_events (id, group_id, name, weekday, start_time, capacity, is_active, created_at) VALUES (?, ?, 'Weekly', ?, ?, ?, 1, ?)`,
		id, groupID, weekday, start, capacity, time.Now().Unix())
	return id
}

// Occurrence inserts an open occurrence of eventID starting at startsAt.
func Occurrence(t *testing.T, db *sql.DB, groupID, eventID string, startsAt time.Time) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO event_occurrences (id, weekly_event_id, group_id, starts_at, status, updated_at) VALUES (?, ?, ?, ?, 'open', ?)`,
		id, eventID, groupID, startsAt.Unix(), time.Now().Unix())
	return id
}

// Attend records an attendance row.
func Attend(t *testing.T, db *sql.DB, groupID, occurrenceID, playerID, status string) {
	t.Helper()
	now := time.Now().Unix()
	exec(t, db, `INSERT INTO attendance (id, occurrence_id, group_id, player_id, status, source, created_at, updated_at) VALUES (?, ?, ?, ?, ?, 'web', ?, ?)`,
		uuid.NewString(), occurrenceID, groupID, playerID, status, now, now)
}

// Rating appends an ELO ledger row.
func Rating(t *testing.T, db *sql.DB, playerID string, rating int) {
	t.Helper()
	exec(t, db, `INSERT INTO elo_ratings (player_id, rating, created_at) VALUES (?, ?, ?)`, playerID, rating, time.Now().Unix())
}

// Match inserts a match with teams a and b, optional set scores and winner,
// and returns its id. ELO rows are not written.
func Match(t *testing.T, db *sql.DB, groupID string, playedAt time.Time, a, b [2]string, sets ...[2]int) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now().Unix()
	var winner sql.NullInt64
	if len(sets) > 0 {
		won1, won2 := 0, 0
		for _, s := range sets {
			if s[0] > s[1] {
				won1++
			} else {
				won2++
			}
		}
		winner = sql.NullInt64{Int64: 2, Valid: true}
		if won1 > won2 {
			winner.Int64 = 1
		}
	}
	exec(t, db, `INSERT INTO matches (id, group_id, played_at, best_of, winner_team, created_by, updated_by, created_at, updated_at) VALUES (?, ?, ?, 3, ?, 'test', 'test', ?, ?)`,
		id, groupID, playedAt.Unix(), winner, now, now)
	for n, team := range [][2]string{a, b} {
		teamID := uuid.NewString()
		exec(t, db, `INSERT INTO match_teams (id, match_id, team_number) VALUES (?, ?, ?)`, teamID, id, n+1)
		for _, p := range team {
			exec(t, db, `INSERT INTO match_team_players (match_team_id, player_id) VALUES (?, ?)`, teamID, p)
		}
	}
	for i, s := range sets {
		exec(t, db, `INSERT INTO match_sets (match_id, set_number, team1_games, team2_games) VALUES (?, ?, ?, ?)`, id, i+1, s[0], s[1])
	}
	return id
}

// Count returns SELECT COUNT(*) for the given query tail, e.g.
// Count(t, db, "attendance WHERE occurrence_id = ?", id).
func Count(t *testing.T, db *sql.DB, from string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+from, args...).Scan(&n))
	return n
}
