package pubsub

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/mauv0809/padel-weekly/internal/metrics"
	"github.com/mauv0809/padel-weekly/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestDecode(t *testing.T) {
	task := tasks.Task{Kind: tasks.KindCheckAchievements, GroupID: "g1", PlayerID: "p1", MatchID: "m1", DryRun: true}
	data, err := Encode(task)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, task, got)

	_, err = Decode([]byte("not msgpack"))
	assert.Error(t, err)

	empty, err := msgpack.Marshal(map[string]string{"group_id": "g1"})
	require.NoError(t, err)
	_, err = Decode(empty)
	assert.ErrorContains(t, err, "missing kind")
}

func TestDecodePush(t *testing.T) {
	task := tasks.Task{Kind: tasks.KindRefreshStats, GroupID: "g1"}
	data, err := Encode(task)
	require.NoError(t, err)
	body := fmt.Sprintf(`{"subscription":"projects/p/subscriptions/s","message":{"messageId":"1","data":%q}}`,
		base64.StdEncoding.EncodeToString(data))

	got, err := DecodePush([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, task, got)

	_, err = DecodePush([]byte(`{"message":{"data":"%%%"}}`))
	assert.ErrorContains(t, err, "base64")
	_, err = DecodePush([]byte(`not json`))
	assert.ErrorContains(t, err, "envelope")
}

func TestDispatcher(t *testing.T) {
	client := NewMock()
	client.SendMessageFunc = func(t tasks.Task) error {
		if t.Kind == tasks.KindNotifyResult {
			return errors.New("publish timeout")
		}
		return nil
	}
	m := metrics.NewMock()
	d := NewDispatcher(client, m)

	out := d.Dispatch(context.Background(),
		tasks.Task{Kind: tasks.KindRefreshStats, GroupID: "g1"},
		tasks.Task{Kind: tasks.KindNotifyResult, MatchID: "m1"},
	)

	assert.Equal(t, 1, out.Queued)
	require.Len(t, out.Failed, 1)
	assert.Equal(t, "publish timeout", out.Failed[0].Error)
	assert.Len(t, client.SendMessageCalls, 2)
	assert.Equal(t, 1, m.SideEffects(string(tasks.KindNotifyResult), metrics.OutcomeDropped))
}
