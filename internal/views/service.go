package views

import (
	"context"
	"time"

	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/gamification"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/stats"
)

// Deps lists the services the live reader composes.
type Deps struct {
	Groups       group.Store
	Events       *events.Service
	Attendance   *attendance.Service
	Matches      *matches.Service
	Stats        *stats.Service
	Gamification *gamification.Service
}

// Service is the Reader backed by the database.
type Service struct {
	deps Deps
	now  func() time.Time
}

var _ Reader = (*Service)(nil)

func NewService(deps Deps) *Service {
	return &Service{deps: deps, now: time.Now}
}

// WithClock replaces the clock used to find the next occurrence.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Group resolves slug and checks that id is a member.
func (s *Service) Group(ctx context.Context, id auth.Identity, slug string) (*group.Group, error) {
	g, err := s.deps.Groups.GetGroupBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireMember(ctx, s.deps.Groups, id, g.ID); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) Dashboard(ctx context.Context, id auth.Identity, slug string) (*Dashboard, error) {
	g, err := s.Group(ctx, id, slug)
	if err != nil {
		return nil, err
	}
	now := s.now()
	upcoming, err := s.deps.Events.Store().ListOccurrences(ctx, g.ID, now.Add(-inProgress), now.Add(upcomingSpan))
	if err != nil {
		return nil, err
	}
	if upcoming == nil {
		upcoming = []events.Occurrence{}
	}

	d := &Dashboard{Group: *g, Upcoming: upcoming}
	for _, o := range upcoming {
		if o.Status == events.StatusCancelled {
			continue
		}
		if d.Next, err = s.occurrence(ctx, id, &o); err != nil {
			return nil, err
		}
		break
	}

	if d.RecentMatches, err = s.deps.Matches.ListMatches(ctx, id, g.ID, DashboardMatches); err != nil {
		return nil, err
	}
	ranking, err := s.deps.Stats.Ranking(ctx, id, g.ID)
	if err != nil {
		return nil, err
	}
	if len(ranking) > DashboardTop {
		ranking = ranking[:DashboardTop]
	}
	d.Top = ranking

	d.WeekStart = s.deps.Gamification.CurrentWeek()
	if d.Challenges, err = s.deps.Gamification.GetOrCreateWeeklyChallenges(ctx, g.ID, d.WeekStart); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Events(ctx context.Context, id auth.Identity, slug string) ([]events.WeeklyEvent, error) {
	g, err := s.Group(ctx, id, slug)
	if err != nil {
		return nil, err
	}
	evs, err := s.deps.Events.Store().ListWeeklyEvents(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	if evs == nil {
		evs = []events.WeeklyEvent{}
	}
	return evs, nil
}

func (s *Service) Occurrence(ctx context.Context, id auth.Identity, slug, occurrenceID string) (*OccurrenceView, error) {
	g, err := s.Group(ctx, id, slug)
	if err != nil {
		return nil, err
	}
	occ, err := s.deps.Events.Occurrence(ctx, id, occurrenceID)
	if err != nil {
		return nil, err
	}
	if occ.GroupID != g.ID {
		return nil, apperr.NotFound("occurrence not found")
	}
	return s.occurrence(ctx, id, occ)
}

func (s *Service) occurrence(ctx context.Context, id auth.Identity, occ *events.Occurrence) (*OccurrenceView, error) {
	ev, err := s.deps.Events.Store().GetWeeklyEvent(ctx, occ.WeeklyEventID)
	if err != nil {
		return nil, err
	}
	summary, err := s.deps.Attendance.Summary(ctx, id, occ.ID)
	if err != nil {
		return nil, err
	}
	v := &OccurrenceView{Occurrence: *occ, Event: ev, Attendance: summary}
	if occ.LoadedMatchID != "" {
		if v.Match, err = s.deps.Matches.Summary(ctx, id, occ.LoadedMatchID); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (s *Service) Matches(ctx context.Context, id auth.Identity, slug string, limit int) ([]matches.Summary, error) {
	g, err := s.Group(ctx, id, slug)
	if err != nil {
		return nil, err
	}
	return s.deps.Matches.ListMatches(ctx, id, g.ID, limit)
}

func (s *Service) Match(ctx context.Context, id auth.Identity, slug, matchID string) (*matches.Summary, error) {
	g, err := s.Group(ctx, id, slug)
	if err != nil {
		return nil, err
	}
	m, err := s.deps.Matches.Summary(ctx, id, matchID)
	if err != nil {
		return nil, err
	}
	if m.GroupID != g.ID {
		return nil, apperr.NotFound("match not found")
	}
	return m, nil
}

func (s *Service) Players(ctx context.Context, id auth.Identity, slug string) ([]group.Player, error) {
	g, err := s.Group(ctx, id, slug)
	if err != nil {
		return nil, err
	}
	players, err := s.deps.Groups.ListPlayers(ctx, g.ID, "")
	if err != nil {
		return nil, err
	}
	if players == nil {
		players = []group.Player{}
	}
	return players, nil
}

func (s *Service) Player(ctx context.Context, id auth.Identity, slug, playerID string) (*stats.Profile, error) {
	g, err := s.Group(ctx, id, slug)
	if err != nil {
		return nil, err
	}
	p, err := s.deps.Stats.PlayerProfile(ctx, id, playerID)
	if err != nil {
		return nil, err
	}
	if p.Player.GroupID != g.ID {
		return nil, apperr.NotFound("player not found")
	}
	return p, nil
}

func (s *Service) Ranking(ctx context.Context, id auth.Identity, slug string) ([]stats.RankingEntry, error) {
	g, err := s.Group(ctx, id, slug)
	if err != nil {
		return nil, err
	}
	return s.deps.Stats.Ranking(ctx, id, g.ID)
}

func (s *Service) Pairs(ctx context.Context, id auth.Identity, slug string, minMatches int) ([]stats.PairStats, error) {
	g, err := s.Group(ctx, id, slug)
	if err != nil {
		return nil, err
	}
	return s.deps.Stats.Pairs(ctx, id, g.ID, minMatches)
}

// Challenges returns the week's challenges and leaderboard. With a player
// id it adds that player's progress and streak.
func (s *Service) Challenges(ctx context.Context, id auth.Identity, slug, playerID string) (*ChallengesView, error) {
	g, err := s.Group(ctx, id, slug)
	if err != nil {
		return nil, err
	}
	v := &ChallengesView{WeekStart: s.deps.Gamification.CurrentWeek()}
	if v.Challenges, err = s.deps.Gamification.GetOrCreateWeeklyChallenges(ctx, g.ID, v.WeekStart); err != nil {
		return nil, err
	}
	if v.Leaderboard, err = s.deps.Gamification.GetWeeklyLeaderboard(ctx, id, g.ID, v.WeekStart); err != nil {
		return nil, err
	}
	if playerID == "" {
		return v, nil
	}
	if v.Player, err = s.deps.Gamification.GetPlayerChallenges(ctx, id, g.ID, playerID); err != nil {
		return nil, err
	}
	streak, err := s.deps.Gamification.Streak(ctx, g.ID, playerID)
	if err != nil {
		return nil, err
	}
	v.Streak = &streak
	return v, nil
}
