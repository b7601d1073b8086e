package inngest

import (
	"context"

	"github.com/mauv0809/padel-weekly/internal/metrics"
	"github.com/mauv0809/padel-weekly/internal/tasks"
)

// Dispatcher sends each task as an Inngest event.
type Dispatcher struct {
	client  InngestClient
	metrics metrics.Metrics
}

func NewDispatcher(client InngestClient, m metrics.Metrics) *Dispatcher {
	return &Dispatcher{client: client, metrics: m}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ts ...tasks.Task) tasks.Outcome {
	var out tasks.Outcome
	for _, t := range ts {
		if err := d.client.SendEvent(context.WithoutCancel(ctx), EventSideEffect, TaskData(t)); err != nil {
			d.metrics.IncSideEffect(string(t.Kind), metrics.OutcomeDropped)
			out.Fail(t, err)
			continue
		}
		out.Queued++
	}
	return out
}
