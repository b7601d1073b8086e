package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekStart(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skip("tzdata not available")
	}
	tests := []struct {
		name string
		in   time.Time
		loc  *time.Location
		want time.Time
	}{
		{"thursday", time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC), time.UTC, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"monday midnight", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), time.UTC, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"sunday night", time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC), time.UTC, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"local monday is utc sunday", time.Date(2026, 3, 8, 23, 30, 0, 0, time.UTC), madrid, time.Date(2026, 3, 9, 0, 0, 0, 0, madrid)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(WeekStart(tt.in, tt.loc)), "got %s", WeekStart(tt.in, tt.loc))
		})
	}
}

func TestWeeklyDefs(t *testing.T) {
	week10 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	defs := WeeklyDefs(week10)
	assert.Len(t, defs, ChallengesPerWeek)
	assert.Equal(t, []ChallengeKind{KindGamesWon, KindNewPartners, KindBagel}, []ChallengeKind{defs[0].Kind, defs[1].Kind, defs[2].Kind})

	next := WeeklyDefs(week10.AddDate(0, 0, 7))
	assert.Equal(t, KindNewPartners, next[0].Kind, "rotation advances one entry per week")
	assert.Equal(t, defs, WeeklyDefs(week10.Add(50*time.Hour)))
}

func TestComputeStreak(t *testing.T) {
	w := func(n int) time.Time { return time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*n) }
	set := func(weeks ...int) map[int64]bool {
		out := map[int64]bool{}
		for _, n := range weeks {
			out[w(n).Unix()] = true
		}
		return out
	}

	tests := []struct {
		name    string
		played  map[int64]bool
		skipped map[int64]bool
		current time.Time
		want    Streak
	}{
		{"never played", set(), set(), w(3), Streak{}},
		{"skipped week is neutral", set(0, 1, 3), set(2), w(3), Streak{Current: 3, Best: 3}},
		{"missed week resets", set(0, 1, 3), set(), w(3), Streak{Current: 1, Best: 2}},
		{"current week not yet played", set(0, 1), set(), w(2).Add(36 * time.Hour), Streak{Current: 2, Best: 2}},
		{"finished week without play", set(0, 1), set(), w(3), Streak{Current: 0, Best: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStreak(tt.played, tt.skipped, tt.current, time.UTC))
		})
	}
}

func TestLongestWinRun(t *testing.T) {
	won := PlayedMatch{Team: 1, Winner: 1}
	lost := PlayedMatch{Team: 1, Winner: 2}
	pending := PlayedMatch{Team: 1}
	assert.Equal(t, 3, longestWinRun([]PlayedMatch{won, lost, won, pending, won, won}))
	assert.Equal(t, 0, longestWinRun([]PlayedMatch{lost, pending}))
}

func TestHasComeback(t *testing.T) {
	assert.True(t, hasComeback([]PlayedMatch{{Team: 2, Winner: 2, Sets: [][2]int{{3, 6}, {6, 4}, {6, 2}}}}))
	assert.False(t, hasComeback([]PlayedMatch{{Team: 1, Winner: 1, Sets: [][2]int{{6, 3}, {6, 4}}}}))
	assert.False(t, hasComeback([]PlayedMatch{{Team: 1, Winner: 2, Sets: [][2]int{{3, 6}, {6, 4}, {2, 6}}}}))
}
