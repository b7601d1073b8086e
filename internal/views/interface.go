package views

import (
	"context"

	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/stats"
)

// Reader is the read side of a group addressed by slug. Every entity id is
// checked to belong to that group; a foreign id is reported as not found.
type Reader interface {
	Group(ctx context.Context, id auth.Identity, slug string) (*group.Group, error)
	Dashboard(ctx context.Context, id auth.Identity, slug string) (*Dashboard, error)
	Events(ctx context.Context, id auth.Identity, slug string) ([]events.WeeklyEvent, error)
	Occurrence(ctx context.Context, id auth.Identity, slug, occurrenceID string) (*OccurrenceView, error)
	Matches(ctx context.Context, id auth.Identity, slug string, limit int) ([]matches.Summary, error)
	Match(ctx context.Context, id auth.Identity, slug, matchID string) (*matches.Summary, error)
	Players(ctx context.Context, id auth.Identity, slug string) ([]group.Player, error)
	Player(ctx context.Context, id auth.Identity, slug, playerID string) (*stats.Profile, error)
	Ranking(ctx context.Context, id auth.Identity, slug string) ([]stats.RankingEntry, error)
	Pairs(ctx context.Context, id auth.Identity, slug string, minMatches int) ([]stats.PairStats, error)
	Challenges(ctx context.Context, id auth.Identity, slug, playerID string) (*ChallengesView, error)
}
