// Package demo serves a read-only sample group from an embedded dataset so
// the app can be explored without a database.
package demo

import (
	"time"

	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/elo"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/gamification"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/stats"
)

// Slug is the group slug the demo dataset answers to.
const Slug = "demo"

type fileData struct {
	Group struct {
		Name string `yaml:"name"`
		Slug string `yaml:"slug"`
	} `yaml:"group"`
	Event struct {
		Name      string `yaml:"name"`
		Weekday   int    `yaml:"weekday"`
		StartTime string `yaml:"start_time"`
		Capacity  int    `yaml:"capacity"`
	} `yaml:"event"`
	Players  []filePlayer  `yaml:"players"`
	Badges   []fileBadge   `yaml:"badges"`
	Sessions []fileSession `yaml:"sessions"`
}

type filePlayer struct {
	Name   string `yaml:"name"`
	Status string `yaml:"status"`
}

type fileBadge struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Special     bool   `yaml:"special"`
}

type fileSession struct {
	Week      int        `yaml:"week"`
	Cancelled bool       `yaml:"cancelled"`
	Confirmed []string   `yaml:"confirmed"`
	Declined  []string   `yaml:"declined"`
	Maybe     []string   `yaml:"maybe"`
	Waitlist  []string   `yaml:"waitlist"`
	Court     string     `yaml:"court"`
	Price     string     `yaml:"price"`
	Match     *fileMatch `yaml:"match"`
}

type fileMatch struct {
	Teams [2][2]string `yaml:"teams"`
	Sets  [][2]int     `yaml:"sets"`
}

// dataset is the demo group materialised for one week.
type dataset struct {
	weekStart   time.Time
	group       group.Group
	event       events.WeeklyEvent
	players     []group.Player
	occurrences []events.Occurrence
	attendance  map[string]*attendance.Summary
	// matches is newest first.
	matches  []matches.Summary
	history  map[string][]elo.Entry
	stats    map[string]stats.PlayerStats
	pairs    []stats.PairStats
	played   map[string][]gamification.PlayedMatch
	badges   map[string][]gamification.Badge
	sessions map[string][]time.Time
}
