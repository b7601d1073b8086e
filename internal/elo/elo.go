// Package elo keeps the append-only rating ledger and the team rating math.
package elo

import "math"

const (
	// Default is the rating of a player without history.
	Default = 1000
	// K is the rating volatility factor.
	K = 32.0
)

// Expected is the expected score of a player rated r against an opponent
// rated opp.
func Expected(r, opp float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (opp-r)/400))
}

// TeamDelta computes one player's rating change in a doubles match, scored
// against the opposing team's average.
func TeamDelta(playerElo, opponentAvg float64, won bool) int {
	actual := 0.0
	if won {
		actual = 1.0
	}
	return int(math.Round(K * (actual - Expected(playerElo, opponentAvg))))
}

// TeamAverage is the mean rating of a team.
func TeamAverage(ratings ...int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

// ApplyResult returns the new ratings of both teams after a match. winner is
// 1 or 2.
func ApplyResult(team1, team2 []int, winner int) (new1, new2 []int) {
	avg1, avg2 := TeamAverage(team1...), TeamAverage(team2...)
	new1 = make([]int, len(team1))
	for i, r := range team1 {
		new1[i] = r + TeamDelta(float64(r), avg2, winner == 1)
	}
	new2 = make([]int, len(team2))
	for i, r := range team2 {
		new2[i] = r + TeamDelta(float64(r), avg1, winner == 2)
	}
	return new1, new2
}
