package app

import (
	"context"
	"testing"

	"github.com/mauv0809/padel-weekly/internal/config"
	"github.com/mauv0809/padel-weekly/internal/demo"
	"github.com/mauv0809/padel-weekly/internal/processor"
	"github.com/mauv0809/padel-weekly/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() config.Config {
	return config.Config{
		Timezone:    "Europe/Madrid",
		WeeksAhead:  4,
		CORSOrigins: []string{"*"},
		SideEffects: config.SideEffectsConfig{Backend: config.BackendLocal, Workers: 1},
		Scheduler:   config.SchedulerConfig{Enabled: true},
	}
}

func TestBuild_DemoMode(t *testing.T) {
	a, err := Build(context.Background(), baseConfig(), Options{Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.DemoMode())
	assert.Nil(t, a.Views.Live)
	assert.NotNil(t, a.Views.Demo)
	assert.Equal(t, demo.Slug, a.Views.DemoSlug)
	assert.True(t, a.Views.IsDemo("anything"))
	assert.Nil(t, a.Matches)
	assert.Nil(t, a.Scheduler)
	assert.NotNil(t, a.Notifier)
}

func TestBuild_LocalDatabase(t *testing.T) {
	cfg := baseConfig()
	cfg.DBPath = ":memory:"
	cfg.MigrationsDir = testutil.MigrationsDir()

	a, err := Build(context.Background(), cfg, Options{Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.DemoMode())
	require.NotNil(t, a.Views.Live)
	assert.False(t, a.Views.IsDemo("thursday"))
	assert.Nil(t, a.Views.Demo, "a configured database serves every slug live")
	assert.False(t, a.Views.IsDemo(demo.Slug))
	require.NotNil(t, a.Queue)
	assert.Same(t, a.Queue, a.Matches.Dispatcher)
	assert.NotNil(t, a.Scheduler)
	assert.NotNil(t, a.Hub)
	assert.Nil(t, a.Bookings)
	assert.Nil(t, a.Inngest)
}

func TestBuild_InlineSideEffects(t *testing.T) {
	cfg := baseConfig()
	cfg.DBPath = ":memory:"
	cfg.MigrationsDir = testutil.MigrationsDir()
	cfg.Scheduler.Enabled = false
	cfg.Playtomic.TenantID = "tenant-1"

	a, err := Build(context.Background(), cfg, Options{InlineSideEffects: true, Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Queue)
	assert.Nil(t, a.Scheduler)
	assert.NotNil(t, a.Bookings)
	assert.IsType(t, processor.Inline{}, a.Matches.Dispatcher)
}
