package processor

import (
	"context"

	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/notifier"
	"github.com/mauv0809/padel-weekly/internal/tasks"
)

// StatsRefresher rebuilds a group's statistics.
type StatsRefresher interface {
	Refresh(ctx context.Context, groupID string) error
}

// AchievementChecker evaluates challenges and badges for a player.
type AchievementChecker interface {
	CheckAchievements(ctx context.Context, groupID, playerID string) ([]string, error)
	CheckSpecialAchievements(ctx context.Context, groupID, playerID string) ([]string, error)
}

// MatchService is the part of the match service side effects need.
type MatchService interface {
	AutoCloseSimilar(ctx context.Context, matchID string) (int, error)
	Summary(ctx context.Context, id auth.Identity, matchID string) (*matches.Summary, error)
}

// Notifier defines the notification operations required by the processor.
type Notifier interface {
	notifier.Notifier
}

// Runner executes a single task.
type Runner interface {
	Run(ctx context.Context, t tasks.Task) error
}
