package gamification

import "sort"

// weekActivity is what a player did during one week.
type weekActivity struct {
	matches   []PlayedMatch
	confirmed int
}

// ChallengeProgress is a player's progress on kind given the week's matches
// and confirmed sessions.
func ChallengeProgress(kind ChallengeKind, matches []PlayedMatch, confirmed int) int {
	return progressFor(kind, weekActivity{matches: matches, confirmed: confirmed})
}

// RankLeaderboard orders entries by points, then progress, then name and
// assigns positions.
func RankLeaderboard(out []LeaderboardEntry) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].Progress != out[j].Progress {
			return out[i].Progress > out[j].Progress
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	for i := range out {
		out[i].Position = i + 1
	}
}

func progressFor(kind ChallengeKind, a weekActivity) int {
	switch kind {
	case KindPlayMatches:
		return len(a.matches)
	case KindWinMatches:
		n := 0
		for _, m := range a.matches {
			if m.Won() {
				n++
			}
		}
		return n
	case KindStraightSets:
		n := 0
		for _, m := range a.matches {
			if m.Won() && !lostASet(m) {
				n++
			}
		}
		return n
	case KindGamesWon:
		n := 0
		for _, m := range a.matches {
			for _, s := range m.Sets {
				n += s[0]
			}
		}
		return n
	case KindNewPartners:
		partners := map[string]bool{}
		for _, m := range a.matches {
			if m.Partner != "" {
				partners[m.Partner] = true
			}
		}
		return len(partners)
	case KindBagel:
		return bagels(a.matches)
	case KindShowUp:
		return a.confirmed
	}
	return 0
}

func lostASet(m PlayedMatch) bool {
	for _, s := range m.Sets {
		if s[1] > s[0] {
			return true
		}
	}
	return false
}

func bagels(matches []PlayedMatch) int {
	n := 0
	for _, m := range matches {
		for _, s := range m.Sets {
			if s[0] == 6 && s[1] == 0 {
				n++
			}
		}
	}
	return n
}

// longestWinRun is the longest run of consecutive wins among decided
// matches.
func longestWinRun(matches []PlayedMatch) int {
	best, run := 0, 0
	for _, m := range matches {
		if !m.Decided() {
			continue
		}
		if m.Won() {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

func hasComeback(matches []PlayedMatch) bool {
	for _, m := range matches {
		if m.Won() && len(m.Sets) > 0 && m.Sets[0][1] > m.Sets[0][0] {
			return true
		}
	}
	return false
}
