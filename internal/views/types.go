// Package views assembles the read side of a group: every page of the
// client is one call here.
package views

import (
	"time"

	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/gamification"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/stats"
)

const (
	// DashboardTop is the ranking length shown on the dashboard.
	DashboardTop = 5
	// DashboardMatches is the number of recent matches shown.
	DashboardMatches = 5
	// inProgress keeps a started occurrence as "next" for a while.
	inProgress   = 3 * time.Hour
	upcomingSpan = 28 * 24 * time.Hour
)

type Dashboard struct {
	Group         group.Group              `json:"group"`
	Demo          bool                     `json:"demo,omitempty"`
	Next          *OccurrenceView          `json:"next,omitempty"`
	Upcoming      []events.Occurrence      `json:"upcoming"`
	RecentMatches []matches.Summary        `json:"recent_matches"`
	Top           []stats.RankingEntry     `json:"top"`
	WeekStart     time.Time                `json:"week_start"`
	Challenges    []gamification.Challenge `json:"challenges"`
}

type OccurrenceView struct {
	Occurrence events.Occurrence   `json:"occurrence"`
	Event      *events.WeeklyEvent `json:"event,omitempty"`
	Attendance *attendance.Summary `json:"attendance"`
	Match      *matches.Summary    `json:"match,omitempty"`
}

type ChallengesView struct {
	WeekStart   time.Time                       `json:"week_start"`
	Challenges  []gamification.Challenge        `json:"challenges"`
	Leaderboard []gamification.LeaderboardEntry `json:"leaderboard"`
	Player      []gamification.PlayerChallenge  `json:"player,omitempty"`
	Streak      *gamification.Streak            `json:"streak,omitempty"`
}
