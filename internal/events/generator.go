package events

import (
	"fmt"
	"time"

	"github.com/mauv0809/padel-weekly/internal/apperr"
)

// ParseClock parses an "HH:MM" (or "HH:MM:SS") start time.
func ParseClock(value string) (hour, minute int, err error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, perr := time.Parse(layout, value); perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, apperr.Validation("invalid start time %q, expected HH:MM", value)
}

// ValidateWeeksAhead checks the generation horizon.
func ValidateWeeksAhead(weeksAhead int) error {
	if weeksAhead < MinWeeksAhead || weeksAhead > MaxWeeksAhead {
		return apperr.Validation("weeks ahead must be between %d and %d", MinWeeksAhead, MaxWeeksAhead)
	}
	return nil
}

// NextOccurrences returns up to weeksAhead start times for the given weekday
// and clock time, one per week, beginning with the next future instance
// after now. Wall-clock time is kept across DST changes in loc.
func NextOccurrences(weekday int, startTime string, weeksAhead int, now time.Time, loc *time.Location) ([]time.Time, error) {
	if weekday < 0 || weekday > 6 {
		return nil, apperr.Validation("weekday must be between 0 and 6")
	}
	if err := ValidateWeeksAhead(weeksAhead); err != nil {
		return nil, err
	}
	hour, minute, err := ParseClock(startTime)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	daysToAdd := (weekday - int(now.Weekday()) + 7) % 7
	at := func(days int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day()+days, hour, minute, 0, 0, loc)
	}
	if daysToAdd == 0 && !at(0).After(now) {
		daysToAdd = 7
	}

	out := make([]time.Time, 0, weeksAhead)
	for i := 0; i < weeksAhead; i++ {
		candidate := at(daysToAdd + 7*i)
		if candidate.Before(now) {
			continue
		}
		out = append(out, candidate)
	}
	return out, nil
}

func describeWeekday(d int) string {
	if d < 0 || d > 6 {
		return fmt.Sprintf("weekday(%d)", d)
	}
	return time.Weekday(d).String()
}
