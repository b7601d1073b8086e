package demo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/elo"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/gamification"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/stats"
	"github.com/mauv0809/padel-weekly/internal/views"
)

// Same windows as the live dashboard.
const (
	upcomingSpan = 28 * 24 * time.Hour
	inProgress   = 3 * time.Hour
)

// Reader serves the demo dataset. Reads need no identity. The dataset is
// rebuilt when the week changes so relative dates stay current.
type Reader struct {
	file *fileData
	loc  *time.Location
	now  func() time.Time

	mu   sync.Mutex
	data *dataset
}

var _ views.Reader = (*Reader)(nil)

// New parses the embedded dataset.
func New(loc *time.Location) (*Reader, error) {
	return NewFromYAML(embedded, loc)
}

// NewFromYAML builds a reader over raw instead of the embedded dataset.
func NewFromYAML(raw []byte, loc *time.Location) (*Reader, error) {
	if loc == nil {
		loc = time.UTC
	}
	f, err := parse(raw)
	if err != nil {
		return nil, err
	}
	r := &Reader{file: f, loc: loc, now: time.Now}
	if _, err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// WithClock replaces the clock that anchors the relative dates.
func (r *Reader) WithClock(now func() time.Time) *Reader {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	r.data = nil
	return r
}

// Slug is the group slug of the dataset.
func (r *Reader) Slug() string { return r.file.Group.Slug }

func (r *Reader) load() (*dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if r.data != nil && r.data.weekStart.Equal(gamification.WeekStart(now, r.loc)) {
		return r.data, nil
	}
	d, err := build(r.file, now, r.loc)
	if err != nil {
		return nil, err
	}
	log.Debug("Built demo dataset", "week", d.weekStart.Format(time.DateOnly), "matches", len(d.matches))
	r.data = d
	return d, nil
}

func (r *Reader) get(slug string) (*dataset, error) {
	if slug != r.file.Group.Slug {
		return nil, apperr.NotFound("group not found")
	}
	return r.load()
}

func (r *Reader) Group(_ context.Context, _ auth.Identity, slug string) (*group.Group, error) {
	d, err := r.get(slug)
	if err != nil {
		return nil, err
	}
	g := d.group
	return &g, nil
}

func (r *Reader) Dashboard(_ context.Context, _ auth.Identity, slug string) (*views.Dashboard, error) {
	d, err := r.get(slug)
	if err != nil {
		return nil, err
	}
	now := r.now()
	out := &views.Dashboard{Group: d.group, Demo: true, Upcoming: []events.Occurrence{}, WeekStart: d.weekStart}
	for _, o := range d.occurrences {
		if o.StartsAt.Before(now.Add(-inProgress)) || !o.StartsAt.Before(now.Add(upcomingSpan)) {
			continue
		}
		out.Upcoming = append(out.Upcoming, o)
		if out.Next == nil && o.Status != events.StatusCancelled {
			out.Next = d.occurrenceView(o)
		}
	}
	out.RecentMatches = limit(d.matches, views.DashboardMatches)
	ranking := d.ranking()
	if len(ranking) > views.DashboardTop {
		ranking = ranking[:views.DashboardTop]
	}
	out.Top = ranking
	out.Challenges = d.challenges()
	return out, nil
}

func (r *Reader) Events(_ context.Context, _ auth.Identity, slug string) ([]events.WeeklyEvent, error) {
	d, err := r.get(slug)
	if err != nil {
		return nil, err
	}
	return []events.WeeklyEvent{d.event}, nil
}

func (r *Reader) Occurrence(_ context.Context, _ auth.Identity, slug, occurrenceID string) (*views.OccurrenceView, error) {
	d, err := r.get(slug)
	if err != nil {
		return nil, err
	}
	for _, o := range d.occurrences {
		if o.ID == occurrenceID {
			return d.occurrenceView(o), nil
		}
	}
	return nil, apperr.NotFound("occurrence not found")
}

func (r *Reader) Matches(_ context.Context, _ auth.Identity, slug string, n int) ([]matches.Summary, error) {
	d, err := r.get(slug)
	if err != nil {
		return nil, err
	}
	return limit(d.matches, n), nil
}

func (r *Reader) Match(_ context.Context, _ auth.Identity, slug, matchID string) (*matches.Summary, error) {
	d, err := r.get(slug)
	if err != nil {
		return nil, err
	}
	if m := d.match(matchID); m != nil {
		return m, nil
	}
	return nil, apperr.NotFound("match not found")
}

func (r *Reader) Players(_ context.Context, _ auth.Identity, slug string) ([]group.Player, error) {
	d, err := r.get(slug)
	if err != nil {
		return nil, err
	}
	return append([]group.Player(nil), d.players...), nil
}

func (r *Reader) Player(_ context.Context, _ auth.Identity, slug, playerID string) (*stats.Profile, error) {
	d, err := r.get(slug)
	if err != nil {
		return nil, err
	}
	p := d.player(playerID)
	if p == nil {
		return nil, apperr.NotFound("player not found")
	}
	ps := d.stats[p.ID]
	ps.PlayerID, ps.GroupID = p.ID, p.GroupID
	history := d.history[p.ID]
	if history == nil {
		history = []elo.Entry{}
	}
	badges := d.badges[p.ID]
	if badges == nil {
		badges = []gamification.Badge{}
	}
	return &stats.Profile{Player: *p, Elo: d.rating(p.ID), Stats: ps, WinRate: ps.WinRate(), History: history, Badges: badges}, nil
}

func (r *Reader) Ranking(_ context.Context, _ auth.Identity, slug string) ([]stats.RankingEntry, error) {
	d, err := r.get(slug)
	if err != nil {
		return nil, err
	}
	return d.ranking(), nil
}

func (r *Reader) Pairs(_ context.Context, _ auth.Identity, slug string, minMatches int) ([]stats.PairStats, error) {
	d, err := r.get(slug)
	if err != nil {
		return nil, err
	}
	if minMatches < 1 {
		minMatches = 1
	}
	out := []stats.PairStats{}
	for _, p := range d.pairs {
		if p.MatchesPlayed >= minMatches {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate > out[j].WinRate
		}
		if out[i].MatchesPlayed != out[j].MatchesPlayed {
			return out[i].MatchesPlayed > out[j].MatchesPlayed
		}
		return out[i].NameA+out[i].NameB < out[j].NameA+out[j].NameB
	})
	return out, nil
}

func (r *Reader) Challenges(_ context.Context, _ auth.Identity, slug, playerID string) (*views.ChallengesView, error) {
	d, err := r.get(slug)
	if err != nil {
		return nil, err
	}
	v := &views.ChallengesView{WeekStart: d.weekStart, Challenges: d.challenges()}
	v.Leaderboard = d.leaderboard(v.Challenges, r.loc)
	if playerID == "" {
		return v, nil
	}
	if d.player(playerID) == nil {
		return nil, apperr.NotFound("player not found")
	}
	v.Player = d.playerChallenges(playerID, v.Challenges, r.loc)
	played := map[int64]bool{}
	for _, m := range d.played[playerID] {
		played[gamification.WeekStart(m.PlayedAt, r.loc).Unix()] = true
	}
	streak := gamification.ComputeStreak(played, nil, r.now(), r.loc)
	v.Streak = &streak
	return v, nil
}

func limit(ms []matches.Summary, n int) []matches.Summary {
	if n <= 0 || n > len(ms) {
		n = len(ms)
	}
	return append([]matches.Summary{}, ms[:n]...)
}
