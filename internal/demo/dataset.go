package demo

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/elo"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/gamification"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/stats"
	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var embedded []byte

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("padel-weekly/demo"))

// id derives a stable uuid so demo links survive restarts.
func id(parts ...string) string {
	return uuid.NewSHA1(namespace, []byte(strings.Join(parts, "/"))).String()
}

func parse(raw []byte) (*fileData, error) {
	var f fileData
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse demo data: %w", err)
	}
	if f.Group.Slug == "" {
		f.Group.Slug = Slug
	}
	if f.Event.Capacity == 0 {
		f.Event.Capacity = 4
	}
	return &f, nil
}

// build materialises f around the week containing now.
func build(f *fileData, now time.Time, loc *time.Location) (*dataset, error) {
	ws := gamification.WeekStart(now, loc)
	d := &dataset{
		weekStart:  ws,
		attendance: map[string]*attendance.Summary{},
		history:    map[string][]elo.Entry{},
		stats:      map[string]stats.PlayerStats{},
		played:     map[string][]gamification.PlayedMatch{},
		badges:     map[string][]gamification.Badge{},
		sessions:   map[string][]time.Time{},
	}
	created := ws.AddDate(0, 0, -7*12).UTC()
	d.group = group.Group{ID: id("group"), Name: f.Group.Name, Slug: f.Group.Slug, CreatedAt: created}
	d.event = events.WeeklyEvent{
		ID:        id("event"),
		GroupID:   d.group.ID,
		Name:      f.Event.Name,
		Weekday:   f.Event.Weekday,
		StartTime: f.Event.StartTime,
		Capacity:  f.Event.Capacity,
		IsActive:  true,
		CreatedAt: created,
	}

	byName := map[string]group.Player{}
	for _, fp := range f.Players {
		status := group.PlayerStatus(fp.Status)
		if status == "" {
			status = group.PlayerUsual
		}
		if !status.Valid() {
			return nil, fmt.Errorf("demo player %s: invalid status %q", fp.Name, fp.Status)
		}
		p := group.Player{ID: id("player", fp.Name), GroupID: d.group.ID, Name: fp.Name, Status: status, CreatedAt: created}
		byName[fp.Name] = p
		d.players = append(d.players, p)
	}
	sort.Slice(d.players, func(i, j int) bool { return strings.ToLower(d.players[i].Name) < strings.ToLower(d.players[j].Name) })
	lookup := func(name string) (group.Player, error) {
		p, ok := byName[name]
		if !ok {
			return group.Player{}, fmt.Errorf("demo data references unknown player %q", name)
		}
		return p, nil
	}

	hour, minute, err := parseClock(f.Event.StartTime)
	if err != nil {
		return nil, err
	}
	dayOffset := (f.Event.Weekday + 6) % 7

	sessions := append([]fileSession(nil), f.Sessions...)
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].Week < sessions[j].Week })

	ratings := map[string]int{}
	var seq int64
	for n, s := range sessions {
		day := ws.AddDate(0, 0, 7*s.Week+dayOffset)
		starts := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc).UTC()
		occ := events.Occurrence{
			ID:            id("occurrence", fmt.Sprint(s.Week)),
			WeeklyEventID: d.event.ID,
			GroupID:       d.group.ID,
			StartsAt:      starts,
			Status:        events.StatusOpen,
		}
		if s.Cancelled {
			occ.Status = events.StatusCancelled
		}
		if s.Court != "" {
			occ.Booking = &events.Booking{Ref: fmt.Sprintf("demo-%d", n+1), Court: s.Court, Price: s.Price}
		}

		var rows []attendance.Attendance
		for _, set := range []struct {
			status attendance.Status
			names  []string
		}{
			{attendance.StatusConfirmed, s.Confirmed},
			{attendance.StatusDeclined, s.Declined},
			{attendance.StatusMaybe, s.Maybe},
			{attendance.StatusWaitlist, s.Waitlist},
		} {
			for _, name := range set.names {
				p, err := lookup(name)
				if err != nil {
					return nil, err
				}
				rows = append(rows, attendance.Attendance{
					ID:           id("attendance", occ.ID, p.ID),
					OccurrenceID: occ.ID,
					GroupID:      d.group.ID,
					PlayerID:     p.ID,
					PlayerName:   p.Name,
					Status:       set.status,
					Source:       attendance.SourceWeb,
					UpdatedAt:    starts.AddDate(0, 0, -2),
				})
				if set.status == attendance.StatusConfirmed {
					d.sessions[p.ID] = append(d.sessions[p.ID], starts)
				}
			}
		}
		summary := attendance.Summarize(occ.ID, f.Event.Capacity, rows)
		d.attendance[occ.ID] = &summary

		if s.Match != nil {
			m, err := d.playMatch(occ, s.Match, lookup, ratings, &seq)
			if err != nil {
				return nil, err
			}
			occ.Status = events.StatusCompleted
			occ.LoadedMatchID = m.ID
			d.matches = append(d.matches, *m)
		}
		d.occurrences = append(d.occurrences, occ)
	}

	sort.SliceStable(d.matches, func(i, j int) bool { return d.matches[i].PlayedAt.After(d.matches[j].PlayedAt) })
	for _, o := range d.occurrences {
		if o.Status != events.StatusCancelled && !o.StartsAt.Before(now) {
			d.event.ActiveOccurrenceID = o.ID
			break
		}
	}
	d.awardBadges(f.Badges, ratings, now, loc)
	return d, nil
}

func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("demo event start_time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// playMatch validates the sets, replays ELO for the four players and
// accumulates stats the way a stats refresh would.
func (d *dataset) playMatch(occ events.Occurrence, fm *fileMatch, lookup func(string) (group.Player, error), ratings map[string]int, seq *int64) (*matches.Summary, error) {
	sets, winner, err := matches.ValidateSets(matches.DefaultBestOf, fm.Sets)
	if err != nil {
		return nil, fmt.Errorf("demo match on %s: %w", occ.StartsAt.Format(time.DateOnly), err)
	}
	m := &matches.Summary{
		ID:           id("match", occ.ID),
		GroupID:      d.group.ID,
		PlayedAt:     occ.StartsAt,
		BestOf:       matches.DefaultBestOf,
		Sets:         sets,
		Score:        matches.ScoreLine(sets),
		Winner:       winner,
		OccurrenceID: occ.ID,
	}

	var teams [2][2]group.Player
	var before [2][]int
	for t, names := range fm.Teams {
		for i, name := range names {
			p, err := lookup(name)
			if err != nil {
				return nil, err
			}
			teams[t][i] = p
			r, ok := ratings[p.ID]
			if !ok {
				r = elo.Default
			}
			before[t] = append(before[t], r)
		}
	}
	after1, after2 := elo.ApplyResult(before[0], before[1], winner)
	after := [2][]int{after1, after2}

	for t := range teams {
		ts := matches.TeamSummary{Number: t + 1, Won: winner == t+1}
		for i, p := range teams[t] {
			a := after[t][i]
			ts.Players = append(ts.Players, matches.PlayerSummary{
				ID: p.ID, Name: p.Name, EloBefore: before[t][i], EloAfter: &a, Delta: a - before[t][i],
			})
			ratings[p.ID] = a
			*seq++
			d.history[p.ID] = append(d.history[p.ID], elo.Entry{
				Seq: *seq, PlayerID: p.ID, Rating: a, AsOfMatchID: m.ID, CreatedAt: m.PlayedAt,
			})

			partner := teams[t][1-i]
			own := make([][2]int, len(sets))
			for k, s := range sets {
				own[k] = [2]int{s.Team1Games, s.Team2Games}
				if t == 1 {
					own[k] = [2]int{s.Team2Games, s.Team1Games}
				}
			}
			d.played[p.ID] = append(d.played[p.ID], gamification.PlayedMatch{
				ID: m.ID, PlayedAt: m.PlayedAt, Team: t + 1, Winner: winner, Partner: partner.ID, Sets: own,
			})
			d.addStats(p.ID, t+1, winner, own)
		}
		d.addPair(teams[t][0], teams[t][1], winner == t+1)
		m.Teams = append(m.Teams, ts)
	}
	return m, nil
}

func (d *dataset) addStats(playerID string, team, winner int, own [][2]int) {
	ps := d.stats[playerID]
	ps.PlayerID = playerID
	ps.GroupID = d.group.ID
	ps.MatchesPlayed++
	if winner == team {
		ps.MatchesWon++
	} else {
		ps.MatchesLost++
	}
	for _, s := range own {
		if s[0] > s[1] {
			ps.SetsWon++
		} else {
			ps.SetsLost++
		}
		ps.GamesWon += s[0]
		ps.GamesLost += s[1]
	}
	d.stats[playerID] = ps
}

func (d *dataset) addPair(a, b group.Player, won bool) {
	if a.ID > b.ID {
		a, b = b, a
	}
	for i := range d.pairs {
		p := &d.pairs[i]
		if p.PlayerA == a.ID && p.PlayerB == b.ID {
			p.MatchesPlayed++
			if won {
				p.MatchesWon++
			}
			p.WinRate = float64(p.MatchesWon) / float64(p.MatchesPlayed)
			return
		}
	}
	p := stats.PairStats{PlayerA: a.ID, NameA: a.Name, PlayerB: b.ID, NameB: b.Name, MatchesPlayed: 1}
	if won {
		p.MatchesWon = 1
		p.WinRate = 1
	}
	d.pairs = append(d.pairs, p)
}

// awardBadges applies the subset of achievement rules the catalogue names.
func (d *dataset) awardBadges(catalogue []fileBadge, ratings map[string]int, now time.Time, loc *time.Location) {
	for _, p := range d.players {
		history := d.played[p.ID]
		ps := d.stats[p.ID]
		played := map[int64]bool{}
		var bagel bool
		var firstAt, firstWinAt, bagelAt time.Time
		for _, m := range history {
			played[gamification.WeekStart(m.PlayedAt, loc).Unix()] = true
			if firstAt.IsZero() {
				firstAt = m.PlayedAt
			}
			if m.Won() && firstWinAt.IsZero() {
				firstWinAt = m.PlayedAt
			}
			if !bagel && gamification.ChallengeProgress(gamification.KindBagel, []gamification.PlayedMatch{m}, 0) > 0 {
				bagel, bagelAt = true, m.PlayedAt
			}
		}
		last := firstAt
		if n := len(history); n > 0 {
			last = history[n-1].PlayedAt
		}
		streak := gamification.ComputeStreak(played, nil, now, loc)

		earned := map[string]time.Time{}
		if ps.MatchesPlayed >= 1 {
			earned[gamification.BadgeFirstMatch] = firstAt
		}
		if ps.MatchesPlayed >= 10 {
			earned[gamification.BadgeMatches10] = last
		}
		if ps.MatchesWon >= 1 {
			earned[gamification.BadgeFirstWin] = firstWinAt
		}
		if ratings[p.ID] >= 1100 {
			earned[gamification.BadgeElo1100] = last
		}
		if streak.Best >= 4 {
			earned[gamification.BadgeStreak4] = last
		}
		if bagel {
			earned[gamification.BadgeBagel] = bagelAt
		}

		var badges []gamification.Badge
		for _, b := range catalogue {
			at, ok := earned[b.Code]
			if !ok {
				continue
			}
			badges = append(badges, gamification.Badge{
				Code: b.Code, Name: b.Name, Description: b.Description, Special: b.Special, AwardedAt: at,
			})
		}
		d.badges[p.ID] = badges
	}
}
