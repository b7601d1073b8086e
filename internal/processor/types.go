package processor

import (
	"errors"

	"github.com/mauv0809/padel-weekly/internal/metrics"
)

// ErrQueueFull is reported when the local queue cannot take a task.
var ErrQueueFull = errors.New("side effect queue is full")

// Processor executes best-effort side effects.
type Processor struct {
	stats        StatsRefresher
	achievements AchievementChecker
	matches      MatchService
	notifier     Notifier
	metrics      metrics.Metrics
}
