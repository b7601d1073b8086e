package gamification_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/elo"
	"github.com/mauv0809/padel-weekly/internal/gamification"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Thursday of ISO week 10.
var now = time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db      *sql.DB
	svc     *gamification.Service
	groupID string
	players []string
	member  auth.Identity
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	groupID := testutil.Group(t, db, "padel")
	testutil.Member(t, db, groupID, "user-1")
	var players []string
	for _, name := range []string{"Ana", "Bea", "Carla", "Dani"} {
		players = append(players, testutil.Player(t, db, groupID, name))
	}
	svc := gamification.NewService(gamification.New(db), group.New(db), elo.New(db), time.UTC).
		WithClock(func() time.Time { return now })
	return fixture{db: db, svc: svc, groupID: groupID, players: players, member: auth.User("user-1")}
}

func (f fixture) match(t *testing.T, at time.Time, sets ...[2]int) string {
	return testutil.Match(t, f.db, f.groupID, at, [2]string{f.players[0], f.players[1]}, [2]string{f.players[2], f.players[3]}, sets...)
}

func TestWeeklyChallengesAreIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.GetOrCreateWeeklyChallenges(ctx, f.groupID, now)
	require.NoError(t, err)
	require.Len(t, first, gamification.ChallengesPerWeek)

	again, err := f.svc.GetOrCreateWeeklyChallenges(ctx, f.groupID, now.Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 3, testutil.Count(t, f.db, "challenges"))

	created, err := f.svc.InitializeWeeklyProgress(ctx, f.groupID, now)
	require.NoError(t, err)
	assert.Equal(t, 12, created)

	created, err = f.svc.InitializeWeeklyProgress(ctx, f.groupID, now)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestInitializeWeeklyProgressSkipsGuests(t *testing.T) {
	f := setup(t)
	guest := testutil.Player(t, f.db, f.groupID, "Guest")
	_, err := f.db.Exec(`UPDATE players SET status = 'invite' WHERE id = ?`, guest)
	require.NoError(t, err)

	created, err := f.svc.InitializeWeeklyProgress(context.Background(), f.groupID, now)
	require.NoError(t, err)
	assert.Equal(t, 12, created)
	assert.Equal(t, 0, testutil.Count(t, f.db, "challenge_progress WHERE player_id = ?", guest))
}

func TestCheckAchievements(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.match(t, now.Add(-2*time.Hour), [2]int{6, 0}, [2]int{6, 2})

	awarded, err := f.svc.CheckAchievements(ctx, f.groupID, f.players[0])
	require.NoError(t, err)
	assert.Equal(t, []string{gamification.BadgeFirstMatch, gamification.BadgeFirstWin}, awarded)

	awarded, err = f.svc.CheckAchievements(ctx, f.groupID, f.players[0])
	require.NoError(t, err)
	assert.Empty(t, awarded, "badges are awarded once")

	loser, err := f.svc.CheckAchievements(ctx, f.groupID, f.players[2])
	require.NoError(t, err)
	assert.Equal(t, []string{gamification.BadgeFirstMatch}, loser)

	challenges, err := f.svc.GetPlayerChallenges(ctx, f.member, f.groupID, f.players[0])
	require.NoError(t, err)
	byKind := map[gamification.ChallengeKind]gamification.PlayerChallenge{}
	for _, c := range challenges {
		byKind[c.Kind] = c
	}
	assert.Equal(t, 12, byKind[gamification.KindGamesWon].Progress)
	assert.False(t, byKind[gamification.KindGamesWon].Completed)
	assert.Equal(t, 1, byKind[gamification.KindNewPartners].Progress)
	assert.True(t, byKind[gamification.KindBagel].Completed)
}

func TestCheckAchievementsRatingBadges(t *testing.T) {
	f := setup(t)
	testutil.Rating(t, f.db, f.players[1], 1150)

	awarded, err := f.svc.CheckAchievements(context.Background(), f.groupID, f.players[1])
	require.NoError(t, err)
	assert.Equal(t, []string{gamification.BadgeElo1100}, awarded)
}

func TestCheckSpecialAchievements(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	week := 7 * 24 * time.Hour
	f.match(t, now.Add(-3*week), [2]int{3, 6}, [2]int{6, 4}, [2]int{6, 3})
	f.match(t, now.Add(-2*week), [2]int{6, 4}, [2]int{6, 4})
	f.match(t, now.Add(-1*week), [2]int{7, 5}, [2]int{6, 0})

	awarded, err := f.svc.CheckSpecialAchievements(ctx, f.groupID, f.players[0])
	require.NoError(t, err)
	assert.Equal(t, []string{gamification.BadgeBagel, gamification.BadgeComeback, gamification.BadgeHatTrick}, awarded)

	awarded, err = f.svc.CheckSpecialAchievements(ctx, f.groupID, f.players[3])
	require.NoError(t, err)
	assert.Empty(t, awarded)

	badges, err := f.svc.PlayerBadges(ctx, f.players[0])
	require.NoError(t, err)
	require.Len(t, badges, 3)
	assert.True(t, badges[0].Special)
}

func TestStreakWithSkippedWeek(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	week := 7 * 24 * time.Hour
	f.match(t, now.Add(-3*week))
	f.match(t, now.Add(-2*week))
	f.match(t, now)

	st, err := f.svc.Streak(ctx, f.groupID, f.players[0])
	require.NoError(t, err)
	assert.Equal(t, gamification.Streak{Current: 1, Best: 2}, st)

	lastWeek := gamification.WeekStart(now.Add(-week), time.UTC)
	_, err = f.db.Exec(`INSERT INTO skipped_weeks (group_id, week_start, skipped_by, created_at) VALUES (?, ?, 'user-1', 0)`,
		f.groupID, lastWeek.Unix())
	require.NoError(t, err)

	st, err = f.svc.Streak(ctx, f.groupID, f.players[0])
	require.NoError(t, err)
	assert.Equal(t, gamification.Streak{Current: 3, Best: 3}, st)
}

func TestSkipWeek(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.SkipWeek(ctx, f.member, f.groupID, now)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.SkipWeek(ctx, f.member, f.groupID, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.False(t, created, "same week is idempotent")
	assert.Equal(t, 1, testutil.Count(t, f.db, "skipped_weeks"))

	_, err = f.svc.SkipWeek(ctx, f.member, f.groupID, now.AddDate(0, 0, -7))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.SkipWeek(ctx, auth.User("intruder"), f.groupID, now)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.SkipWeek(ctx, f.member, "not-a-uuid", now)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestWeeklyLeaderboard(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.match(t, now.Add(-time.Hour), [2]int{6, 0}, [2]int{6, 1})
	for _, p := range f.players {
		_, err := f.svc.CheckAchievements(ctx, f.groupID, p)
		require.NoError(t, err)
	}

	board, err := f.svc.GetWeeklyLeaderboard(ctx, f.member, f.groupID, now)
	require.NoError(t, err)
	require.Len(t, board, 4)
	assert.Equal(t, 1, board[0].Position)
	assert.Equal(t, 30, board[0].Points, "bagel challenge completed")
	assert.Equal(t, 30, board[1].Points)
	assert.ElementsMatch(t, []string{f.players[0], f.players[1]}, []string{board[0].PlayerID, board[1].PlayerID})
	assert.Equal(t, 0, board[3].Points)

	_, err = f.svc.GetWeeklyLeaderboard(ctx, auth.User("intruder"), f.groupID, now)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
