package stats

import (
	"time"

	"github.com/mauv0809/padel-weekly/internal/elo"
	"github.com/mauv0809/padel-weekly/internal/gamification"
	"github.com/mauv0809/padel-weekly/internal/group"
)

// PlayerStats aggregates the decided matches of one player.
type PlayerStats struct {
	PlayerID      string    `json:"player_id"`
	GroupID       string    `json:"group_id"`
	MatchesPlayed int       `json:"matches_played"`
	MatchesWon    int       `json:"matches_won"`
	MatchesLost   int       `json:"matches_lost"`
	SetsWon       int       `json:"sets_won"`
	SetsLost      int       `json:"sets_lost"`
	GamesWon      int       `json:"games_won"`
	GamesLost     int       `json:"games_lost"`
	RefreshedAt   time.Time `json:"refreshed_at"`
}

// WinRate is the share of matches won in [0, 1].
func (s PlayerStats) WinRate() float64 {
	if s.MatchesPlayed == 0 {
		return 0
	}
	return float64(s.MatchesWon) / float64(s.MatchesPlayed)
}

func (s PlayerStats) GamesDiff() int { return s.GamesWon - s.GamesLost }

type RankingEntry struct {
	Position      int                `json:"position"`
	PlayerID      string             `json:"player_id"`
	Name          string             `json:"name"`
	Status        group.PlayerStatus `json:"status"`
	Elo           int                `json:"elo"`
	MatchesPlayed int                `json:"matches_played"`
	MatchesWon    int                `json:"matches_won"`
	MatchesLost   int                `json:"matches_lost"`
	WinRate       float64            `json:"win_rate"`
	GamesDiff     int                `json:"games_diff"`
}

// PairStats describes two players who shared a team. PlayerA sorts before
// PlayerB.
type PairStats struct {
	PlayerA       string  `json:"player_a"`
	NameA         string  `json:"name_a"`
	PlayerB       string  `json:"player_b"`
	NameB         string  `json:"name_b"`
	MatchesPlayed int     `json:"matches_played"`
	MatchesWon    int     `json:"matches_won"`
	WinRate       float64 `json:"win_rate"`
}

type Profile struct {
	Player  group.Player         `json:"player"`
	Elo     int                  `json:"elo"`
	Stats   PlayerStats          `json:"stats"`
	WinRate float64              `json:"win_rate"`
	History []elo.Entry          `json:"elo_history"`
	Badges  []gamification.Badge `json:"badges"`
}
