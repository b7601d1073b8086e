package demo

import (
	"sort"
	"time"

	"github.com/mauv0809/padel-weekly/internal/elo"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/gamification"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/stats"
	"github.com/mauv0809/padel-weekly/internal/views"
)

func (d *dataset) player(id string) *group.Player {
	for i := range d.players {
		if d.players[i].ID == id {
			return &d.players[i]
		}
	}
	return nil
}

func (d *dataset) match(id string) *matches.Summary {
	for i := range d.matches {
		if d.matches[i].ID == id {
			m := d.matches[i]
			return &m
		}
	}
	return nil
}

func (d *dataset) rating(playerID string) int {
	h := d.history[playerID]
	if len(h) == 0 {
		return elo.Default
	}
	return h[len(h)-1].Rating
}

func (d *dataset) occurrenceView(o events.Occurrence) *views.OccurrenceView {
	ev := d.event
	summary := *d.attendance[o.ID]
	v := &views.OccurrenceView{Occurrence: o, Event: &ev, Attendance: &summary}
	if o.LoadedMatchID != "" {
		v.Match = d.match(o.LoadedMatchID)
	}
	return v
}

// ranking follows the live ordering: ELO, then win rate, then name.
// Guests without matches are left out.
func (d *dataset) ranking() []stats.RankingEntry {
	out := make([]stats.RankingEntry, 0, len(d.players))
	for _, p := range d.players {
		ps := d.stats[p.ID]
		if p.Status != group.PlayerUsual && ps.MatchesPlayed == 0 {
			continue
		}
		out = append(out, stats.RankingEntry{
			PlayerID:      p.ID,
			Name:          p.Name,
			Status:        p.Status,
			Elo:           d.rating(p.ID),
			MatchesPlayed: ps.MatchesPlayed,
			MatchesWon:    ps.MatchesWon,
			MatchesLost:   ps.MatchesLost,
			WinRate:       ps.WinRate(),
			GamesDiff:     ps.GamesDiff(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Elo != out[j].Elo {
			return out[i].Elo > out[j].Elo
		}
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate > out[j].WinRate
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

func (d *dataset) challenges() []gamification.Challenge {
	defs := gamification.WeeklyDefs(d.weekStart)
	out := make([]gamification.Challenge, 0, len(defs))
	for _, def := range defs {
		out = append(out, gamification.Challenge{
			ID:        id("challenge", d.weekStart.Format(time.DateOnly), string(def.Kind)),
			GroupID:   d.group.ID,
			WeekStart: d.weekStart,
			Kind:      def.Kind,
			Title:     def.Title,
			Target:    def.Target,
			Points:    def.Points,
		})
	}
	return out
}

func (d *dataset) playerChallenges(playerID string, cs []gamification.Challenge, loc *time.Location) []gamification.PlayerChallenge {
	end := d.weekStart.AddDate(0, 0, 7)
	var week []gamification.PlayedMatch
	for _, m := range d.played[playerID] {
		if !m.PlayedAt.Before(d.weekStart) && m.PlayedAt.Before(end) {
			week = append(week, m)
		}
	}
	confirmed := 0
	for _, at := range d.sessions[playerID] {
		if !at.Before(d.weekStart) && at.Before(end) {
			confirmed++
		}
	}
	out := make([]gamification.PlayerChallenge, 0, len(cs))
	for _, c := range cs {
		progress := gamification.ChallengeProgress(c.Kind, week, confirmed)
		pc := gamification.PlayerChallenge{Challenge: c, Progress: progress, Completed: progress >= c.Target}
		if pc.Completed {
			at := d.weekStart.In(loc)
			pc.CompletedAt = &at
		}
		out = append(out, pc)
	}
	return out
}

func (d *dataset) leaderboard(cs []gamification.Challenge, loc *time.Location) []gamification.LeaderboardEntry {
	out := []gamification.LeaderboardEntry{}
	for _, p := range d.players {
		if p.Status != group.PlayerUsual {
			continue
		}
		e := gamification.LeaderboardEntry{PlayerID: p.ID, Name: p.Name}
		for _, pc := range d.playerChallenges(p.ID, cs, loc) {
			e.Progress += pc.Progress
			if pc.Completed {
				e.Completed++
				e.Points += pc.Points
			}
		}
		out = append(out, e)
	}
	gamification.RankLeaderboard(out)
	return out
}
