// Package gamification runs weekly challenges, badges and attendance
// streaks for a group.
package gamification

import "time"

type ChallengeKind string

const (
	KindPlayMatches  ChallengeKind = "play_matches"
	KindWinMatches   ChallengeKind = "win_matches"
	KindStraightSets ChallengeKind = "straight_sets"
	KindGamesWon     ChallengeKind = "games_won"
	KindNewPartners  ChallengeKind = "new_partners"
	KindBagel        ChallengeKind = "bagel"
	KindShowUp       ChallengeKind = "show_up"
)

const ChallengesPerWeek = 3

// ChallengeDef is a catalogue entry.
type ChallengeDef struct {
	Kind   ChallengeKind
	Title  string
	Target int
	Points int
}

// Catalogue is rotated by ISO week number to pick the week's challenges.
var Catalogue = []ChallengeDef{
	{KindPlayMatches, "Play 2 matches this week", 2, 10},
	{KindWinMatches, "Win 2 matches this week", 2, 20},
	{KindStraightSets, "Win a match without dropping a set", 1, 20},
	{KindGamesWon, "Win 20 games this week", 20, 15},
	{KindNewPartners, "Play with 2 different partners", 2, 15},
	{KindBagel, "Win a set 6-0", 1, 30},
	{KindShowUp, "Confirm attendance for a session", 1, 5},
}

type Challenge struct {
	ID        string        `json:"id"`
	GroupID   string        `json:"group_id"`
	WeekStart time.Time     `json:"week_start"`
	Kind      ChallengeKind `json:"kind"`
	Title     string        `json:"title"`
	Target    int           `json:"target"`
	Points    int           `json:"points"`
}

// Progress is one player's progress on one challenge.
type Progress struct {
	ChallengeID string     `json:"challenge_id"`
	PlayerID    string     `json:"player_id"`
	Progress    int        `json:"progress"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type PlayerChallenge struct {
	Challenge
	Progress    int        `json:"progress"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type LeaderboardEntry struct {
	Position  int    `json:"position"`
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Completed int    `json:"completed"`
	Progress  int    `json:"progress"`
}

type Badge struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Special     bool      `json:"special"`
	AwardedAt   time.Time `json:"awarded_at"`
}

// Badge codes.
const (
	BadgeFirstMatch = "first_match"
	BadgeMatches10  = "matches_10"
	BadgeMatches25  = "matches_25"
	BadgeFirstWin   = "first_win"
	BadgeElo1100    = "elo_1100"
	BadgeElo1200    = "elo_1200"
	BadgeStreak4    = "streak_4"
	BadgeHatTrick   = "hat_trick"
	BadgeBagel      = "bagel"
	BadgeComeback   = "comeback"
	BadgeIronMan    = "iron_man"
)

// PlayedMatch is a match seen from one player's side.
type PlayedMatch struct {
	ID       string    `json:"id"`
	PlayedAt time.Time `json:"played_at"`
	Team     int       `json:"team"`
	Winner   int       `json:"winner"`
	Partner  string    `json:"partner"`
	// Sets holds (own games, opponent games) per set in order.
	Sets [][2]int `json:"sets"`
}

func (m PlayedMatch) Decided() bool { return m.Winner != 0 }
func (m PlayedMatch) Won() bool     { return m.Winner != 0 && m.Winner == m.Team }

// Streak counts consecutive weeks with a played match. Weeks the group
// skipped neither extend nor break it.
type Streak struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}
