package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/metrics"
	"github.com/mauv0809/padel-weekly/internal/tasks"
)

// New creates a new Processor.
func New(stats StatsRefresher, achievements AchievementChecker, matches MatchService, notifier Notifier, m metrics.Metrics) *Processor {
	return &Processor{
		stats:        stats,
		achievements: achievements,
		matches:      matches,
		notifier:     notifier,
		metrics:      m,
	}
}

// Run executes one task under the system identity and records its outcome.
// The returned error is for the caller's retry policy only; it never
// reaches the user who triggered the task.
func (p *Processor) Run(ctx context.Context, t tasks.Task) error {
	ctx = auth.WithIdentity(ctx, auth.System())
	start := time.Now()
	err := p.run(ctx, t)
	p.metrics.ObserveSideEffectDuration(time.Since(start).Seconds())

	if err != nil {
		p.metrics.IncSideEffect(string(t.Kind), metrics.OutcomeFailed)
		log.Error("Side effect failed", "task", t.String(), "error", err)
		return err
	}
	p.metrics.IncSideEffect(string(t.Kind), metrics.OutcomeOK)
	log.Debug("Side effect done", "task", t.String(), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (p *Processor) run(ctx context.Context, t tasks.Task) error {
	switch t.Kind {
	case tasks.KindRefreshStats:
		if t.GroupID == "" {
			return fmt.Errorf("%s: missing group", t.Kind)
		}
		return p.stats.Refresh(ctx, t.GroupID)

	case tasks.KindCheckAchievements, tasks.KindCheckSpecialAchievements:
		if t.GroupID == "" || t.PlayerID == "" {
			return fmt.Errorf("%s: missing group or player", t.Kind)
		}
		check := p.achievements.CheckAchievements
		if t.Kind == tasks.KindCheckSpecialAchievements {
			check = p.achievements.CheckSpecialAchievements
		}
		awarded, err := check(ctx, t.GroupID, t.PlayerID)
		if err != nil {
			return err
		}
		if len(awarded) > 0 {
			log.Info("New badges", "player", t.PlayerID, "badges", awarded)
		}
		return nil

	case tasks.KindAutoClose:
		if t.MatchID == "" {
			return fmt.Errorf("%s: missing match", t.Kind)
		}
		closed, err := p.matches.AutoCloseSimilar(ctx, t.MatchID)
		if err != nil {
			return err
		}
		log.Debug("Auto-close scan finished", "match", t.MatchID, "closed", closed)
		return nil

	case tasks.KindNotifyTeams, tasks.KindNotifyResult:
		if t.MatchID == "" {
			return fmt.Errorf("%s: missing match", t.Kind)
		}
		summary, err := p.matches.Summary(ctx, auth.System(), t.MatchID)
		if err != nil {
			return err
		}
		if t.Kind == tasks.KindNotifyTeams {
			return p.notifier.TeamsAnnounced(ctx, summary, t.DryRun)
		}
		return p.notifier.ResultRecorded(ctx, summary, t.DryRun)
	}
	return fmt.Errorf("unknown task kind %q", t.Kind)
}
