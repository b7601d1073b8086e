package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/metrics"
	"github.com/mauv0809/padel-weekly/internal/notifier"
	"github.com/mauv0809/padel-weekly/internal/playtomic"
	"github.com/mauv0809/padel-weekly/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGroups []group.Group

func (f fakeGroups) ListGroups(context.Context) ([]group.Group, error) { return f, nil }

type fakeGenerator struct{ weeks []int }

func (f *fakeGenerator) GenerateAll(_ context.Context, weeks int) (int, error) {
	f.weeks = append(f.weeks, weeks)
	return 2, nil
}

type fakeSyncer struct{ failFor string }

func (f fakeSyncer) Sync(_ context.Context, groupID string) (playtomic.SyncResult, error) {
	if groupID == f.failFor {
		return playtomic.SyncResult{}, errors.New("playtomic down")
	}
	return playtomic.SyncResult{Checked: 1, Linked: 1}, nil
}

type fakeRanking struct{ ids []auth.Identity }

func (f *fakeRanking) Ranking(_ context.Context, id auth.Identity, groupID string) ([]stats.RankingEntry, error) {
	f.ids = append(f.ids, id)
	if groupID == "empty" {
		return nil, nil
	}
	out := make([]stats.RankingEntry, 12)
	for i := range out {
		out[i] = stats.RankingEntry{Position: i + 1}
	}
	return out, nil
}

func TestAddJob_Validation(t *testing.T) {
	s, err := New(time.UTC, metrics.NewMock())
	require.NoError(t, err)
	noop := func(context.Context) error { return nil }

	_, err = s.AddJob(" ", "* * * * *", noop)
	assert.ErrorIs(t, err, ErrEmptyJobName)
	_, err = s.AddJob("job", "", noop)
	assert.ErrorIs(t, err, ErrEmptyCronExpr)
	_, err = s.AddJob("job", "not a cron", noop)
	assert.Error(t, err)
}

func TestRegister_OptionalJobs(t *testing.T) {
	s, err := New(time.UTC, metrics.NewMock())
	require.NoError(t, err)
	require.NoError(t, s.Register(Jobs{}))
	assert.Len(t, s.scheduler.Jobs(), 2)

	s, err = New(time.UTC, metrics.NewMock())
	require.NoError(t, err)
	require.NoError(t, s.Register(Jobs{Bookings: fakeSyncer{}, Notifier: notifier.NewMock()}))
	assert.Len(t, s.scheduler.Jobs(), 4)
}

func TestWrap_CountsOutcomes(t *testing.T) {
	m := metrics.NewMock()
	s, err := New(time.UTC, m)
	require.NoError(t, err)

	s.wrap("ok-job", func(context.Context) error { return nil })()
	s.wrap("bad-job", func(context.Context) error { return errors.New("boom") })()

	assert.Equal(t, 1, m.JobRuns("ok-job", metrics.OutcomeOK))
	assert.Equal(t, 1, m.JobRuns("bad-job", metrics.OutcomeFailed))
}

func TestJobs(t *testing.T) {
	ctx := context.Background()
	groups := fakeGroups{{ID: "g1", Slug: "one", Name: "One"}, {ID: "g2", Slug: "two", Name: "Two"}, {ID: "empty", Slug: "empty"}}

	t.Run("generate", func(t *testing.T) {
		gen := &fakeGenerator{}
		require.NoError(t, Jobs{Occurrences: gen, WeeksAhead: 4}.GenerateOccurrences(ctx))
		assert.Equal(t, []int{4}, gen.weeks)
	})

	t.Run("playtomic sync continues past failures", func(t *testing.T) {
		err := Jobs{Groups: groups, Bookings: fakeSyncer{failFor: "g1"}}.PlaytomicSync(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "group one")
		assert.NotContains(t, err.Error(), "group two")
	})

	t.Run("weekly ranking posts top ten", func(t *testing.T) {
		n := notifier.NewMock()
		r := &fakeRanking{}
		require.NoError(t, Jobs{Groups: groups, Ranking: r, Notifier: n}.WeeklyRanking(ctx))

		require.Len(t, n.WeeklyRankingCalls, 2)
		assert.Equal(t, "One", n.WeeklyRankingCalls[0].Group)
		assert.Len(t, n.WeeklyRankingCalls[0].Ranking, 10)
		for _, id := range r.ids {
			assert.True(t, id.System)
		}
	})
}
