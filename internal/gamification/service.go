package gamification

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/elo"
	"github.com/mauv0809/padel-weekly/internal/group"
)

const (
	streakBadgeWeeks = 4
	ironManWeeks     = 10
	hatTrickWins     = 3
	regularMatches   = 10
	veteranMatches   = 25
	risingRating     = 1100
	contenderRating  = 1200
)

type Service struct {
	store   Store
	groups  group.Store
	ratings elo.Store
	loc     *time.Location
	now     func() time.Time
}

func NewService(store Store, groups group.Store, ratings elo.Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, groups: groups, ratings: ratings, loc: loc, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) CurrentWeek() time.Time { return WeekStart(s.now(), s.loc) }

// PlayerBadges lists the badges a player was awarded.
func (s *Service) PlayerBadges(ctx context.Context, playerID string) ([]Badge, error) {
	return s.store.PlayerBadges(ctx, playerID)
}

// GetOrCreateWeeklyChallenges returns the group's challenges for the week
// containing weekStart, creating them on first use.
func (s *Service) GetOrCreateWeeklyChallenges(ctx context.Context, groupID string, weekStart time.Time) ([]Challenge, error) {
	ws := WeekStart(weekStart, s.loc)
	return s.store.EnsureChallenges(ctx, groupID, ws, WeeklyDefs(ws))
}

// InitializeWeeklyProgress creates a zero progress row per usual player and
// challenge of the week. It returns how many rows were created.
func (s *Service) InitializeWeeklyProgress(ctx context.Context, groupID string, weekStart time.Time) (int, error) {
	challenges, err := s.GetOrCreateWeeklyChallenges(ctx, groupID, weekStart)
	if err != nil {
		return 0, err
	}
	players, err := s.groups.ListPlayers(ctx, groupID, group.PlayerUsual)
	if err != nil {
		return 0, err
	}
	created, err := s.store.EnsureProgress(ctx, challengeIDs(challenges), playerIDs(players))
	if err != nil {
		return 0, err
	}
	log.Info("Initialized weekly challenges", "group", groupID, "week", WeekStart(weekStart, s.loc).Format(time.DateOnly), "rows", created)
	return created, nil
}

// InitializeAllGroups runs InitializeWeeklyProgress for every group for the
// current week.
func (s *Service) InitializeAllGroups(ctx context.Context) error {
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, g := range groups {
		if _, err := s.InitializeWeeklyProgress(ctx, g.ID, s.now()); err != nil {
			log.Error("Failed to initialize weekly challenges", "group", g.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetPlayerChallenges returns this week's challenges with the player's
// recomputed progress.
func (s *Service) GetPlayerChallenges(ctx context.Context, id auth.Identity, groupID, playerID string) ([]PlayerChallenge, error) {
	if err := auth.RequireMember(ctx, s.groups, id, groupID); err != nil {
		return nil, err
	}
	if err := s.requirePlayer(ctx, groupID, playerID); err != nil {
		return nil, err
	}
	challenges, err := s.GetOrCreateWeeklyChallenges(ctx, groupID, s.now())
	if err != nil {
		return nil, err
	}
	progress, err := s.updateProgress(ctx, groupID, playerID, challenges)
	if err != nil {
		return nil, err
	}

	out := make([]PlayerChallenge, 0, len(challenges))
	for _, c := range challenges {
		p := progress[c.ID]
		out = append(out, PlayerChallenge{
			Challenge:   c,
			Progress:    p.Progress,
			Completed:   p.CompletedAt != nil,
			CompletedAt: p.CompletedAt,
		})
	}
	return out, nil
}

// GetWeeklyLeaderboard ranks players by points of completed challenges in
// the week, then by total progress, then by name.
func (s *Service) GetWeeklyLeaderboard(ctx context.Context, id auth.Identity, groupID string, weekStart time.Time) ([]LeaderboardEntry, error) {
	if err := auth.RequireMember(ctx, s.groups, id, groupID); err != nil {
		return nil, err
	}
	challenges, err := s.GetOrCreateWeeklyChallenges(ctx, groupID, weekStart)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Progress(ctx, challengeIDs(challenges))
	if err != nil {
		return nil, err
	}
	players, err := s.groups.ListPlayers(ctx, groupID, "")
	if err != nil {
		return nil, err
	}

	points := make(map[string]int, len(challenges))
	for _, c := range challenges {
		points[c.ID] = c.Points
	}
	byPlayer := map[string]*LeaderboardEntry{}
	for _, p := range players {
		if p.Status == group.PlayerUsual {
			byPlayer[p.ID] = &LeaderboardEntry{PlayerID: p.ID, Name: p.Name}
		}
	}
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	for _, r := range rows {
		e, ok := byPlayer[r.PlayerID]
		if !ok {
			e = &LeaderboardEntry{PlayerID: r.PlayerID, Name: names[r.PlayerID]}
			byPlayer[r.PlayerID] = e
		}
		e.Progress += r.Progress
		if r.CompletedAt != nil {
			e.Completed++
			e.Points += points[r.ChallengeID]
		}
	}

	out := make([]LeaderboardEntry, 0, len(byPlayer))
	for _, e := range byPlayer {
		out = append(out, *e)
	}
	RankLeaderboard(out)
	return out, nil
}

// CheckAchievements updates the player's progress on this week's challenges
// and awards the standard badges. It returns the newly awarded codes.
func (s *Service) CheckAchievements(ctx context.Context, groupID, playerID string) ([]string, error) {
	challenges, err := s.GetOrCreateWeeklyChallenges(ctx, groupID, s.now())
	if err != nil {
		return nil, err
	}
	if _, err := s.updateProgress(ctx, groupID, playerID, challenges); err != nil {
		return nil, err
	}

	history, err := s.store.PlayerMatches(ctx, groupID, playerID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	rating, err := s.ratings.Current(ctx, nil, playerID)
	if err != nil {
		return nil, err
	}
	streak, err := s.streak(ctx, groupID, history)
	if err != nil {
		return nil, err
	}
	wins := 0
	for _, m := range history {
		if m.Won() {
			wins++
		}
	}

	earned := map[string]bool{
		BadgeFirstMatch: len(history) >= 1,
		BadgeMatches10:  len(history) >= regularMatches,
		BadgeMatches25:  len(history) >= veteranMatches,
		BadgeFirstWin:   wins >= 1,
		BadgeElo1100:    rating >= risingRating,
		BadgeElo1200:    rating >= contenderRating,
		BadgeStreak4:    streak.Best >= streakBadgeWeeks,
	}
	return s.award(ctx, groupID, playerID, earned)
}

// CheckSpecialAchievements awards the special badges: hat-trick, bagel,
// comeback and iron man.
func (s *Service) CheckSpecialAchievements(ctx context.Context, groupID, playerID string) ([]string, error) {
	history, err := s.store.PlayerMatches(ctx, groupID, playerID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	streak, err := s.streak(ctx, groupID, history)
	if err != nil {
		return nil, err
	}
	earned := map[string]bool{
		BadgeHatTrick: longestWinRun(history) >= hatTrickWins,
		BadgeBagel:    bagels(history) > 0,
		BadgeComeback: hasComeback(history),
		BadgeIronMan:  streak.Best >= ironManWeeks,
	}
	return s.award(ctx, groupID, playerID, earned)
}

// Streak returns the player's current and best weekly streak.
func (s *Service) Streak(ctx context.Context, groupID, playerID string) (Streak, error) {
	history, err := s.store.PlayerMatches(ctx, groupID, playerID, time.Time{}, time.Time{})
	if err != nil {
		return Streak{}, err
	}
	return s.streak(ctx, groupID, history)
}

// SkipWeek marks the week containing weekStart as skipped for the group so
// it does not break streaks. Only the current or a future week can be
// skipped. It reports whether the week was newly skipped.
func (s *Service) SkipWeek(ctx context.Context, id auth.Identity, groupID string, weekStart time.Time) (bool, error) {
	if _, err := uuid.Parse(groupID); err != nil {
		return false, apperr.Validation("invalid group id")
	}
	if weekStart.IsZero() {
		return false, apperr.Validation("week_start is required")
	}
	if err := auth.RequireMember(ctx, s.groups, id, groupID); err != nil {
		return false, err
	}
	ws := WeekStart(weekStart, s.loc)
	if ws.Before(s.CurrentWeek()) {
		return false, apperr.Validation("only the current or a future week can be skipped")
	}
	created, err := s.store.SkipWeek(ctx, groupID, ws, id.UserID)
	if err != nil {
		return false, err
	}
	log.Info("Skipped week", "group", groupID, "week", ws.Format(time.DateOnly), "by", id, "new", created)
	return created, nil
}

func (s *Service) requirePlayer(ctx context.Context, groupID, playerID string) error {
	if _, err := uuid.Parse(playerID); err != nil {
		return apperr.Validation("invalid player id")
	}
	p, err := s.groups.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if p.GroupID != groupID {
		return apperr.NotFound("player not found")
	}
	return nil
}

func (s *Service) updateProgress(ctx context.Context, groupID, playerID string, challenges []Challenge) (map[string]Progress, error) {
	out := make(map[string]Progress, len(challenges))
	if len(challenges) == 0 {
		return out, nil
	}
	from := WeekStart(s.now(), s.loc)
	to := from.AddDate(0, 0, 7)
	matches, err := s.store.PlayerMatches(ctx, groupID, playerID, from, to)
	if err != nil {
		return nil, err
	}
	confirmed, err := s.store.ConfirmedCount(ctx, playerID, from, to)
	if err != nil {
		return nil, err
	}
	activity := weekActivity{matches: matches, confirmed: confirmed}

	existing, err := s.store.Progress(ctx, challengeIDs(challenges))
	if err != nil {
		return nil, err
	}
	completedAt := map[string]*time.Time{}
	for _, p := range existing {
		if p.PlayerID == playerID {
			completedAt[p.ChallengeID] = p.CompletedAt
		}
	}

	now := s.now().UTC()
	for _, c := range challenges {
		p := Progress{ChallengeID: c.ID, PlayerID: playerID, Progress: progressFor(c.Kind, activity)}
		p.CompletedAt = completedAt[c.ID]
		if p.CompletedAt == nil && p.Progress >= c.Target {
			p.CompletedAt = &now
			log.Info("Challenge completed", "group", groupID, "player", playerID, "challenge", c.Kind)
		}
		if err := s.store.SetProgress(ctx, p); err != nil {
			return nil, err
		}
		out[c.ID] = p
	}
	return out, nil
}

func (s *Service) streak(ctx context.Context, groupID string, history []PlayedMatch) (Streak, error) {
	skipped, err := s.store.SkippedWeeks(ctx, groupID)
	if err != nil {
		return Streak{}, err
	}
	played := map[int64]bool{}
	for _, m := range history {
		played[WeekStart(m.PlayedAt, s.loc).Unix()] = true
	}
	return ComputeStreak(played, skipped, s.now(), s.loc), nil
}

func (s *Service) award(ctx context.Context, groupID, playerID string, earned map[string]bool) ([]string, error) {
	var awarded []string
	for code, ok := range earned {
		if !ok {
			continue
		}
		isNew, err := s.store.Award(ctx, groupID, playerID, code)
		if err != nil {
			return awarded, err
		}
		if isNew {
			awarded = append(awarded, code)
		}
	}
	sort.Strings(awarded)
	if len(awarded) > 0 {
		log.Info("Awarded badges", "group", groupID, "player", playerID, "badges", awarded)
	}
	return awarded, nil
}

func challengeIDs(cs []Challenge) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func playerIDs(ps []group.Player) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
