package inngest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/mauv0809/padel-weekly/internal/processor"
	"github.com/mauv0809/padel-weekly/internal/tasks"
)

// New registers the side effect function on inngestClient. Events are
// executed by runner, with retries handled by Inngest.
func New(inngestClient inngestgo.Client, runner processor.Runner) (InngestClient, error) {
	c := &client{
		inngestClient: inngestClient,
		runner:        runner,
	}
	if _, err := c.createSideEffectFunction(); err != nil {
		return nil, err
	}
	return c, nil
}

func (i *client) createSideEffectFunction() (inngestgo.ServableFunction, error) {
	config := inngestgo.FunctionOpts{
		ID:   "padel-side-effect",
		Name: "Run padel side effect",
	}
	f, err := inngestgo.CreateFunction(
		i.inngestClient,
		config,
		inngestgo.EventTrigger(EventSideEffect, nil),
		func(ctx context.Context, input inngestgo.Input[map[string]any]) (any, error) {
			t, err := TaskFromData(input.Event.Data)
			if err != nil {
				return nil, inngestgo.NoRetryError(err)
			}
			// Wrapped in a step so a failure is retried on its own.
			_, err = step.Run(ctx, string(t.Kind), func(ctx context.Context) (string, error) {
				if err := i.runner.Run(ctx, t); err != nil {
					return "", err
				}
				return "OK", nil
			})
			if err != nil {
				return nil, err
			}
			return "OK", nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create function: %w", err)
	}
	return f, nil
}

func (i *client) Serve() http.Handler {
	return i.inngestClient.Serve()
}

func (i *client) SendEvent(ctx context.Context, name string, data map[string]any) error {
	_, err := i.inngestClient.Send(ctx, inngestgo.Event{Name: name, Data: data})
	if err != nil {
		log.Error("Failed to send Inngest event", "name", name, "error", err)
		return fmt.Errorf("failed to send event %s: %w", name, err)
	}
	return nil
}

// TaskData flattens a task into an event payload.
func TaskData(t tasks.Task) map[string]any {
	return map[string]any{
		"kind":      string(t.Kind),
		"group_id":  t.GroupID,
		"player_id": t.PlayerID,
		"match_id":  t.MatchID,
		"dry_run":   t.DryRun,
	}
}

// TaskFromData reverses TaskData.
func TaskFromData(data map[string]any) (tasks.Task, error) {
	str := func(k string) string {
		v, _ := data[k].(string)
		return v
	}
	t := tasks.Task{
		Kind:     tasks.Kind(str("kind")),
		GroupID:  str("group_id"),
		PlayerID: str("player_id"),
		MatchID:  str("match_id"),
	}
	t.DryRun, _ = data["dry_run"].(bool)
	if t.Kind == "" {
		return tasks.Task{}, fmt.Errorf("event payload has no task kind")
	}
	return t, nil
}
