package matches

import "time"

const (
	DefaultBestOf = 3
	MaxGames      = 7
	// AutoCloseWindow bounds how far an occurrence may start from a match's
	// played_at and still be closed by it.
	AutoCloseWindow = 12 * time.Hour
)

type Match struct {
	ID         string    `json:"id"`
	GroupID    string    `json:"group_id"`
	PlayedAt   time.Time `json:"played_at"`
	BestOf     int       `json:"best_of"`
	WinnerTeam int       `json:"winner_team,omitempty"`
	CreatedBy  string    `json:"created_by"`
	UpdatedBy  string    `json:"updated_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasResult reports whether sets and a winner were recorded.
func (m Match) HasResult() bool { return m.WinnerTeam != 0 }

// Split is a finalized 2 vs 2 team assignment.
type Split struct {
	TeamA []string `json:"team_a" validate:"len=2,dive,uuid"`
	TeamB []string `json:"team_b" validate:"len=2,dive,uuid"`
}

// Players returns team A followed by team B.
func (s Split) Players() []string {
	out := make([]string, 0, len(s.TeamA)+len(s.TeamB))
	out = append(out, s.TeamA...)
	return append(out, s.TeamB...)
}

// CreateInput is the input of CreateFromOccurrence. A zero PlayedAt uses
// the occurrence start; a zero BestOf uses DefaultBestOf.
type CreateInput struct {
	Split    Split     `json:"split"`
	PlayedAt time.Time `json:"played_at"`
	BestOf   int       `json:"best_of" validate:"omitempty,oneof=1 3 5"`
}

// Set holds games won by each team in one set.
type Set struct {
	Number     int `json:"number"`
	Team1Games int `json:"team1_games"`
	Team2Games int `json:"team2_games"`
}

// Winner returns 1 or 2, or 0 for a tied set.
func (s Set) Winner() int {
	switch {
	case s.Team1Games > s.Team2Games:
		return 1
	case s.Team2Games > s.Team1Games:
		return 2
	}
	return 0
}

// TeamPlayer is a player of one side as stored.
type TeamPlayer struct {
	Team     int    `json:"team"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type PlayerSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	EloBefore int    `json:"elo_before"`
	EloAfter  *int   `json:"elo_after,omitempty"`
	Delta     int    `json:"delta,omitempty"`
}

type TeamSummary struct {
	Number  int             `json:"number"`
	Players []PlayerSummary `json:"players"`
	Won     bool            `json:"won"`
}

// Summary is the flat view of a match with its teams, sets and ratings.
type Summary struct {
	ID           string        `json:"id"`
	GroupID      string        `json:"group_id"`
	PlayedAt     time.Time     `json:"played_at"`
	BestOf       int           `json:"best_of"`
	Teams        []TeamSummary `json:"teams"`
	Sets         []Set         `json:"sets"`
	Score        string        `json:"score"`
	Winner       int           `json:"winner,omitempty"`
	OccurrenceID string        `json:"occurrence_id,omitempty"`
}

// PlayerIDs returns every player of the match, team 1 first.
func (s Summary) PlayerIDs() []string {
	var out []string
	for _, t := range s.Teams {
		for _, p := range t.Players {
			out = append(out, p.ID)
		}
	}
	return out
}

// Created is returned by the write operations. Deferred lists side effects
// that could not be queued; the match itself is stored regardless.
type Created struct {
	Match    *Summary `json:"match"`
	Queued   int      `json:"side_effects_queued"`
	Deferred []string `json:"side_effects_failed,omitempty"`
}
