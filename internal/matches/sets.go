package matches

import (
	"fmt"
	"strings"

	"github.com/mauv0809/padel-weekly/internal/apperr"
)

// ValidateSets checks raw set scores against a best-of-n match and returns
// the numbered sets with the winning team. Sets must not be tied, games lie
// in 0..MaxGames and no set may follow the one that decided the match.
func ValidateSets(bestOf int, raw [][2]int) ([]Set, int, error) {
	if len(raw) == 0 || len(raw) > bestOf {
		return nil, 0, apperr.Validation("between 1 and %d sets are required", bestOf)
	}
	need := bestOf/2 + 1
	var won [3]int
	decided := false
	sets := make([]Set, 0, len(raw))
	for i, r := range raw {
		n := i + 1
		if decided {
			return nil, 0, apperr.Validation("set %d was played after the match was decided", n)
		}
		if r[0] < 0 || r[0] > MaxGames || r[1] < 0 || r[1] > MaxGames {
			return nil, 0, apperr.Validation("set %d: games must be between 0 and %d", n, MaxGames)
		}
		set := Set{Number: n, Team1Games: r[0], Team2Games: r[1]}
		w := set.Winner()
		if w == 0 {
			return nil, 0, apperr.Validation("set %d is tied", n)
		}
		won[w]++
		decided = won[w] == need
		sets = append(sets, set)
	}
	switch {
	case won[1] > won[2]:
		return sets, 1, nil
	case won[2] > won[1]:
		return sets, 2, nil
	}
	return nil, 0, apperr.Validation("sets are level, a winner is required")
}

// ScoreLine renders sets as "6-4 3-6 7-5".
func ScoreLine(sets []Set) string {
	parts := make([]string, len(sets))
	for i, s := range sets {
		parts[i] = fmt.Sprintf("%d-%d", s.Team1Games, s.Team2Games)
	}
	return strings.Join(parts, " ")
}
