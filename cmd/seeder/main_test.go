package main

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/mauv0809/padel-weekly/internal/app"
	"github.com/mauv0809/padel-weekly/internal/config"
	"github.com/mauv0809/padel-weekly/internal/tasks"
	"github.com/mauv0809/padel-weekly/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdFlags(t *testing.T) {
	for name, def := range map[string]string{"slug": "thursday", "owner": "", "weeks": "12"} {
		f := rootCmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, def, f.DefValue, name)
	}
	assert.NotNil(t, rootCmd.Flags().Lookup("seed"))
}

func TestSeed_RequiresDatabase(t *testing.T) {
	err := seed(context.Background(), config.Config{Timezone: "UTC"}, seedOptions{slug: "x", weeks: 1}, app.Options{Registerer: prometheus.NewRegistry()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PATH")
}

func TestSeederRun(t *testing.T) {
	cfg := config.Config{
		Timezone:      "UTC",
		WeeksAhead:    2,
		DBPath:        ":memory:",
		MigrationsDir: testutil.MigrationsDir(),
		SideEffects:   config.SideEffectsConfig{Backend: config.BackendLocal, Workers: 1},
	}
	ctx := tasks.WithDryRun(context.Background(), true)
	a, err := app.Build(ctx, cfg, app.Options{InlineSideEffects: true, Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer a.Close()

	s := &seeder{app: a, rnd: rand.New(rand.NewSource(1)), loc: time.UTC}
	require.NoError(t, s.run(ctx, "thursday", "owner-1", 3))

	assert.Equal(t, 1, testutil.Count(t, a.DB, "groups WHERE slug = ?", "thursday"))
	assert.Equal(t, 1, testutil.Count(t, a.DB, "group_members WHERE user_id = ?", "owner-1"))
	assert.Equal(t, len(playerNames), testutil.Count(t, a.DB, "players"))
	assert.Equal(t, 3, testutil.Count(t, a.DB, "matches"))
	assert.Equal(t, 3, testutil.Count(t, a.DB, "event_occurrences WHERE status = 'completed'"))
	assert.Positive(t, testutil.Count(t, a.DB, "elo_ratings"))
}

func TestRandomSets(t *testing.T) {
	s := &seeder{rnd: rand.New(rand.NewSource(7))}
	for i := 0; i < 50; i++ {
		sets := s.randomSets()
		require.GreaterOrEqual(t, len(sets), 2)
		require.LessOrEqual(t, len(sets), 3)
		won := [2]int{}
		for _, set := range sets {
			assert.Contains(t, set, 6)
			if set[0] > set[1] {
				won[0]++
			} else {
				won[1]++
			}
		}
		assert.True(t, won[0] == 2 || won[1] == 2, "%v", sets)
	}
}
