package views

import (
	"context"

	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/stats"
)

// Router serves the demo slug from Demo and every other slug from Live.
// Without a live reader other slugs are not found.
type Router struct {
	Live     Reader
	Demo     Reader
	DemoSlug string
}

var _ Reader = Router{}

func (r Router) pick(slug string) (Reader, error) {
	if r.Demo != nil && slug == r.DemoSlug {
		return r.Demo, nil
	}
	if r.Live == nil {
		return nil, apperr.NotFound("group not found")
	}
	return r.Live, nil
}

// IsDemo reports whether slug is served read-only from the demo dataset.
func (r Router) IsDemo(slug string) bool {
	return r.Live == nil || (r.Demo != nil && slug == r.DemoSlug)
}

func (r Router) Group(ctx context.Context, id auth.Identity, slug string) (*group.Group, error) {
	rd, err := r.pick(slug)
	if err != nil {
		return nil, err
	}
	return rd.Group(ctx, id, slug)
}

func (r Router) Dashboard(ctx context.Context, id auth.Identity, slug string) (*Dashboard, error) {
	rd, err := r.pick(slug)
	if err != nil {
		return nil, err
	}
	return rd.Dashboard(ctx, id, slug)
}

func (r Router) Events(ctx context.Context, id auth.Identity, slug string) ([]events.WeeklyEvent, error) {
	rd, err := r.pick(slug)
	if err != nil {
		return nil, err
	}
	return rd.Events(ctx, id, slug)
}

func (r Router) Occurrence(ctx context.Context, id auth.Identity, slug, occurrenceID string) (*OccurrenceView, error) {
	rd, err := r.pick(slug)
	if err != nil {
		return nil, err
	}
	return rd.Occurrence(ctx, id, slug, occurrenceID)
}

func (r Router) Matches(ctx context.Context, id auth.Identity, slug string, limit int) ([]matches.Summary, error) {
	rd, err := r.pick(slug)
	if err != nil {
		return nil, err
	}
	return rd.Matches(ctx, id, slug, limit)
}

func (r Router) Match(ctx context.Context, id auth.Identity, slug, matchID string) (*matches.Summary, error) {
	rd, err := r.pick(slug)
	if err != nil {
		return nil, err
	}
	return rd.Match(ctx, id, slug, matchID)
}

func (r Router) Players(ctx context.Context, id auth.Identity, slug string) ([]group.Player, error) {
	rd, err := r.pick(slug)
	if err != nil {
		return nil, err
	}
	return rd.Players(ctx, id, slug)
}

func (r Router) Player(ctx context.Context, id auth.Identity, slug, playerID string) (*stats.Profile, error) {
	rd, err := r.pick(slug)
	if err != nil {
		return nil, err
	}
	return rd.Player(ctx, id, slug, playerID)
}

func (r Router) Ranking(ctx context.Context, id auth.Identity, slug string) ([]stats.RankingEntry, error) {
	rd, err := r.pick(slug)
	if err != nil {
		return nil, err
	}
	return rd.Ranking(ctx, id, slug)
}

func (r Router) Pairs(ctx context.Context, id auth.Identity, slug string, minMatches int) ([]stats.PairStats, error) {
	rd, err := r.pick(slug)
	if err != nil {
		return nil, err
	}
	return rd.Pairs(ctx, id, slug, minMatches)
}

func (r Router) Challenges(ctx context.Context, id auth.Identity, slug, playerID string) (*ChallengesView, error) {
	rd, err := r.pick(slug)
	if err != nil {
		return nil, err
	}
	return rd.Challenges(ctx, id, slug, playerID)
}
