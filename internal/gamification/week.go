package gamification

import "time"

// WeekStart returns Monday 00:00 of t's week in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
}

// WeeklyDefs picks ChallengesPerWeek catalogue entries for the week,
// starting at an offset given by the ISO week number.
func WeeklyDefs(weekStart time.Time) []ChallengeDef {
	_, week := weekStart.ISOWeek()
	out := make([]ChallengeDef, 0, ChallengesPerWeek)
	for i := 0; i < ChallengesPerWeek; i++ {
		out = append(out, Catalogue[(week+i)%len(Catalogue)])
	}
	return out
}

// ComputeStreak walks weeks from the first played one to current. Played
// weeks extend the streak, skipped weeks are neutral and any other week
// resets it. The current week only counts once played.
func ComputeStreak(played, skipped map[int64]bool, current time.Time, loc *time.Location) Streak {
	var first time.Time
	for ws := range played {
		t := time.Unix(ws, 0).In(loc)
		if first.IsZero() || t.Before(first) {
			first = t
		}
	}
	if first.IsZero() {
		return Streak{}
	}
	current = WeekStart(current, loc)

	var st Streak
	for w := first; !w.After(current); w = w.AddDate(0, 0, 7) {
		key := w.Unix()
		switch {
		case played[key]:
			st.Current++
			if st.Current > st.Best {
				st.Best = st.Current
			}
		case skipped[key], w.Equal(current):
		default:
			st.Current = 0
		}
	}
	return st
}
