package pubsub

import (
	"context"

	"github.com/mauv0809/padel-weekly/internal/metrics"
	"github.com/mauv0809/padel-weekly/internal/tasks"
)

// Dispatcher publishes tasks for a push subscription to deliver back to
// the service. A failed publish is a soft failure.
type Dispatcher struct {
	client  PubSubClient
	metrics metrics.Metrics
}

func NewDispatcher(client PubSubClient, m metrics.Metrics) *Dispatcher {
	return &Dispatcher{client: client, metrics: m}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ts ...tasks.Task) tasks.Outcome {
	var out tasks.Outcome
	for _, t := range ts {
		if _, err := d.client.SendMessage(context.WithoutCancel(ctx), t); err != nil {
			d.metrics.IncSideEffect(string(t.Kind), metrics.OutcomeDropped)
			out.Fail(t, err)
			continue
		}
		out.Queued++
	}
	return out
}
