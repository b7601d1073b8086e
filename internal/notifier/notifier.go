package notifier

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/stats"
)

// Notifier defines the outbound announcements of a group.
type Notifier interface {
	TeamsAnnounced(ctx context.Context, match *matches.Summary, dryRun bool) error
	ResultRecorded(ctx context.Context, match *matches.Summary, dryRun bool) error
	WeeklyRanking(ctx context.Context, groupName string, ranking []stats.RankingEntry, dryRun bool) error
}

// Noop is used when no chat integration is configured.
type Noop struct{}

var _ Notifier = Noop{}

func (Noop) TeamsAnnounced(_ context.Context, m *matches.Summary, _ bool) error {
	log.Debug("Notifier disabled, skipping teams announcement", "match", m.ID)
	return nil
}

func (Noop) ResultRecorded(_ context.Context, m *matches.Summary, _ bool) error {
	log.Debug("Notifier disabled, skipping result", "match", m.ID)
	return nil
}

func (Noop) WeeklyRanking(_ context.Context, groupName string, _ []stats.RankingEntry, _ bool) error {
	log.Debug("Notifier disabled, skipping weekly ranking", "group", groupName)
	return nil
}
