package teams

import (
	"math"
	"sort"

	"github.com/mauv0809/padel-weekly/internal/apperr"
)

// ErrNeedFourMessage is returned whenever the roster is not exactly four.
const ErrNeedFourMessage = "need 4 confirmed players"

// Balance splits exactly four players into two teams: after sorting by
// rating, the strongest and weakest play the two middle players.
func Balance(players []PlayerWithElo) (Proposal, error) {
	if len(players) != PlayersPerMatch {
		return Proposal{}, apperr.Precondition(ErrNeedFourMessage)
	}
	sorted := make([]PlayerWithElo, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Elo != sorted[j].Elo {
			return sorted[i].Elo > sorted[j].Elo
		}
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})

	p := Proposal{
		TeamA: Team{Players: []PlayerWithElo{sorted[0], sorted[3]}},
		TeamB: Team{Players: []PlayerWithElo{sorted[1], sorted[2]}},
	}
	p.recompute()
	return p, nil
}

// Score is 100 minus a tenth of the gap between team averages, clamped to
// [0, 100].
func Score(avgA, avgB float64) float64 {
	return math.Max(0, math.Min(100, 100-math.Abs(avgA-avgB)/10))
}

// Move moves a player to another side. Teams hold at most two players, so
// exchanging players between two full teams goes through the bench or Swap.
func (p *Proposal) Move(playerID string, to Side) error {
	dest := p.side(to)
	if dest == nil {
		return apperr.Validation("unknown team %q", to)
	}
	var from *[]PlayerWithElo
	idx := -1
	for _, side := range []Side{SideA, SideB, SideBench} {
		list := p.side(side)
		for i, pl := range *list {
			if pl.ID == playerID {
				from, idx = list, i
			}
		}
	}
	if idx < 0 {
		return apperr.NotFound("player is not part of this split")
	}
	if from == dest {
		return nil
	}
	if to != SideBench && len(*dest) >= MaxPerTeam {
		return apperr.Conflict("team %s already has %d players", to, MaxPerTeam)
	}
	player := (*from)[idx]
	*from = append((*from)[:idx:idx], (*from)[idx+1:]...)
	*dest = append(*dest, player)
	p.recompute()
	return nil
}

// Swap exchanges two players on opposite teams.
func (p *Proposal) Swap(playerA, playerB string) error {
	if err := p.Move(playerA, SideBench); err != nil {
		return err
	}
	onA := false
	for _, pl := range p.TeamA.Players {
		if pl.ID == playerB {
			onA = true
		}
	}
	target := SideB
	if onA {
		target = SideA
	}
	other := SideA
	if onA {
		other = SideB
	}
	if err := p.Move(playerB, other); err != nil {
		return err
	}
	return p.Move(playerA, target)
}

func (p *Proposal) side(s Side) *[]PlayerWithElo {
	switch s {
	case SideA:
		return &p.TeamA.Players
	case SideB:
		return &p.TeamB.Players
	case SideBench:
		return &p.Bench
	}
	return nil
}

// Complete reports whether both sides hold exactly two players.
func (p Proposal) Complete() bool {
	return len(p.TeamA.Players) == MaxPerTeam && len(p.TeamB.Players) == MaxPerTeam && len(p.Bench) == 0
}

// IDs returns the player ids of both sides.
func (p Proposal) IDs() (a, b []string) {
	for _, pl := range p.TeamA.Players {
		a = append(a, pl.ID)
	}
	for _, pl := range p.TeamB.Players {
		b = append(b, pl.ID)
	}
	return a, b
}

func (p *Proposal) recompute() {
	for _, t := range []*Team{&p.TeamA, &p.TeamB} {
		t.SumElo = 0
		for _, pl := range t.Players {
			t.SumElo += pl.Elo
		}
		t.AvgElo = 0
		if n := len(t.Players); n > 0 {
			t.AvgElo = float64(t.SumElo) / float64(n)
		}
	}
	p.BalanceScore = Score(p.TeamA.AvgElo, p.TeamB.AvgElo)
}
