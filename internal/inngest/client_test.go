package inngest

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/mauv0809/padel-weekly/internal/metrics"
	"github.com/mauv0809/padel-weekly/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	events []map[string]any
	err    error
}

func (m *mockClient) Serve() http.Handler { return http.NotFoundHandler() }

func (m *mockClient) SendEvent(_ context.Context, name string, data map[string]any) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, data)
	return nil
}

func TestTaskData(t *testing.T) {
	task := tasks.Task{Kind: tasks.KindAutoClose, GroupID: "g1", MatchID: "m1", DryRun: true}
	got, err := TaskFromData(TaskData(task))
	require.NoError(t, err)
	assert.Equal(t, task, got)

	_, err = TaskFromData(map[string]any{"group_id": "g1"})
	assert.Error(t, err)
}

func TestDispatcher(t *testing.T) {
	c := &mockClient{}
	m := metrics.NewMock()
	d := NewDispatcher(c, m)

	out := d.Dispatch(context.Background(), tasks.Task{Kind: tasks.KindRefreshStats, GroupID: "g1"})
	assert.Equal(t, 1, out.Queued)
	require.Len(t, c.events, 1)
	assert.Equal(t, "refresh_stats", c.events[0]["kind"])

	c.err = errors.New("inngest unreachable")
	out = d.Dispatch(context.Background(), tasks.Task{Kind: tasks.KindNotifyTeams, MatchID: "m1"})
	assert.Equal(t, 0, out.Queued)
	require.Len(t, out.Failed, 1)
	assert.Equal(t, 1, m.SideEffects(string(tasks.KindNotifyTeams), metrics.OutcomeDropped))
}
