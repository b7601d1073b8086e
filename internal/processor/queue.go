package processor

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/metrics"
	"github.com/mauv0809/padel-weekly/internal/tasks"
)

// LocalQueue is an in-process Dispatcher: a buffered channel drained by a
// fixed pool of workers. A full queue drops tasks instead of blocking the
// caller.
type LocalQueue struct {
	runner  Runner
	metrics metrics.Metrics
	queue   chan tasks.Task
	workers int
}

func NewLocalQueue(runner Runner, m metrics.Metrics, size, workers int) *LocalQueue {
	if size < 1 {
		size = 64
	}
	if workers < 1 {
		workers = 1
	}
	return &LocalQueue{runner: runner, metrics: m, queue: make(chan tasks.Task, size), workers: workers}
}

func (q *LocalQueue) Dispatch(_ context.Context, ts ...tasks.Task) tasks.Outcome {
	var out tasks.Outcome
	for _, t := range ts {
		select {
		case q.queue <- t:
			out.Queued++
		default:
			q.metrics.IncSideEffect(string(t.Kind), metrics.OutcomeDropped)
			log.Warn("Side effect queue full, dropping task", "task", t.String())
			out.Fail(t, ErrQueueFull)
		}
	}
	return out
}

// Run starts the workers and blocks until ctx is done and every worker
// finished its current task. Tasks still queued at that point are dropped.
func (q *LocalQueue) Run(ctx context.Context) error {
	log.Info("Starting side effect workers", "workers", q.workers, "capacity", cap(q.queue))
	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t := <-q.queue:
					// Tasks outlive the request that queued them.
					_ = q.runner.Run(context.WithoutCancel(ctx), t)
				}
			}
		}()
	}
	wg.Wait()

	dropped := 0
	for {
		select {
		case t := <-q.queue:
			q.metrics.IncSideEffect(string(t.Kind), metrics.OutcomeDropped)
			dropped++
		default:
			if dropped > 0 {
				log.Warn("Dropped queued side effects on shutdown", "count", dropped)
			}
			return nil
		}
	}
}

// Len reports how many tasks are waiting.
func (q *LocalQueue) Len() int { return len(q.queue) }

// Inline runs tasks synchronously in the caller's goroutine. Failures are
// reported in the Outcome. The CLI seeder uses it.
type Inline struct {
	Runner Runner
}

func (i Inline) Dispatch(ctx context.Context, ts ...tasks.Task) tasks.Outcome {
	var out tasks.Outcome
	for _, t := range ts {
		if err := i.Runner.Run(ctx, t); err != nil {
			out.Fail(t, err)
			continue
		}
		out.Queued++
	}
	return out
}
