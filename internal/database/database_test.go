package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err, "InitDB should not return an error")
	defer teardown()

	for _, table := range []string{
		"groups", "group_members", "players", "weekly_events", "event_occurrences",
		"attendance", "matches", "match_teams", "match_team_players", "match_sets",
		"elo_ratings", "player_stats", "pair_stats", "challenges", "challenge_progress",
		"badges", "player_badges", "skipped_weeks",
	} {
		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}

	var badges int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM badges").Scan(&badges))
	assert.Equal(t, 11, badges, "badge catalogue should be seeded")
}

func TestInitDB_ForeignKeysEnabled(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	defer teardown()

	_, err = db.Exec(`INSERT INTO players (id, group_id, name, status, created_at) VALUES ('p1', 'missing', 'Ana', 'usual', 0)`)
	assert.Error(t, err, "inserting a player for an unknown group should violate the foreign key")
}

func TestRunInTx(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	defer teardown()
	ctx := context.Background()

	count := func() int {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM groups").Scan(&n))
		return n
	}

	t.Run("commits on success", func(t *testing.T) {
		err := RunInTx(ctx, db, func(tx *sql.Tx) error {
			_, err := tx.Exec(`INSERT INTO groups (id, name, slug, created_at) VALUES ('g1', 'G1', 'g1', 0)`)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, count())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := RunInTx(ctx, db, func(tx *sql.Tx) error {
			if _, err := tx.Exec(`INSERT INTO groups (id, name, slug, created_at) VALUES ('g2', 'G2', 'g2', 0)`); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, count())
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = RunInTx(ctx, db, func(tx *sql.Tx) error {
				_, _ = tx.Exec(`INSERT INTO groups (id, name, slug, created_at) VALUES ('g3', 'G3', 'g3', 0)`)
				panic("kaboom")
			})
		})
		assert.Equal(t, 1, count())
	})
}
