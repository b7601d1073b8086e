package matches

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/database"
	"github.com/mauv0809/padel-weekly/internal/elo"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/metrics"
	"github.com/mauv0809/padel-weekly/internal/tasks"
)

// Deps are the collaborators of the match Service.
type Deps struct {
	Matches     Store
	Occurrences events.Store
	Attendance  attendance.Store
	Groups      group.Store
	Ratings     elo.Store
	Dispatcher  tasks.Dispatcher
	Metrics     metrics.Metrics
	Location    *time.Location
}

// Service creates matches from occurrences and records their results. Core
// rows are written in one transaction; everything else is dispatched as
// best-effort tasks after commit.
type Service struct {
	db *sql.DB
	Deps
}

func NewService(db *sql.DB, deps Deps) *Service {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &Service{db: db, Deps: deps}
}

func validateID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("invalid %s id", what)
	}
	return nil
}

func validateSplit(split Split) error {
	if len(split.TeamA) != 2 || len(split.TeamB) != 2 {
		return apperr.Validation("each team needs exactly 2 players")
	}
	seen := make(map[string]bool, 4)
	for _, id := range split.Players() {
		if err := validateID(id, "player"); err != nil {
			return err
		}
		if seen[id] {
			return apperr.Validation("a player cannot appear twice")
		}
		seen[id] = true
	}
	return nil
}

func (s *Service) requirePlayers(ctx context.Context, groupID string, ids []string) error {
	for _, id := range ids {
		p, err := s.Groups.GetPlayer(ctx, id)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validation("player %s not found", id)
		}
		if err != nil {
			return err
		}
		if p.GroupID != groupID {
			return apperr.Validation("player %s does not belong to this group", p.Name)
		}
	}
	return nil
}

// CreateFromOccurrence stores a match for the split and links it to the
// occurrence, which becomes completed.
func (s *Service) CreateFromOccurrence(ctx context.Context, id auth.Identity, occurrenceID string, in CreateInput) (*Created, error) {
	if err := validateID(occurrenceID, "occurrence"); err != nil {
		return nil, err
	}
	if err := validateSplit(in.Split); err != nil {
		return nil, err
	}
	bestOf := in.BestOf
	if bestOf == 0 {
		bestOf = DefaultBestOf
	}
	if bestOf != 1 && bestOf != 3 && bestOf != 5 {
		return nil, apperr.Validation("best_of must be 1, 3 or 5")
	}

	occ, err := s.Occurrences.GetOccurrence(ctx, nil, occurrenceID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireMember(ctx, s.Groups, id, occ.GroupID); err != nil {
		return nil, err
	}
	if occ.LoadedMatchID != "" {
		return nil, apperr.Conflict("occurrence already has a match")
	}
	if occ.Status == events.StatusCancelled {
		return nil, apperr.Conflict("occurrence was cancelled")
	}
	if err := s.requirePlayers(ctx, occ.GroupID, in.Split.Players()); err != nil {
		return nil, err
	}

	playedAt := in.PlayedAt
	if playedAt.IsZero() {
		playedAt = occ.StartsAt
	}
	m := Match{
		ID:        uuid.NewString(),
		GroupID:   occ.GroupID,
		PlayedAt:  playedAt,
		BestOf:    bestOf,
		CreatedBy: id.UserID,
	}
	err = database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.Matches.Insert(ctx, tx, m, in.Split); err != nil {
			return err
		}
		return s.Occurrences.LinkMatch(ctx, tx, occ.ID, m.ID)
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.IncMatchesCreated()
	log.Info("Created match from occurrence", "match", m.ID, "occurrence", occ.ID, "group", occ.GroupID, "by", id)

	ts := tasks.AfterMatch(ctx, m.GroupID, m.ID, in.Split.Players())
	ts = append(ts,
		tasks.ForMatch(ctx, tasks.KindAutoClose, m.GroupID, m.ID),
		tasks.ForMatch(ctx, tasks.KindNotifyTeams, m.GroupID, m.ID),
	)
	return s.created(ctx, m.ID, ts)
}

// LinkExisting links a match already stored for the group to an occurrence
// held on the same calendar day.
func (s *Service) LinkExisting(ctx context.Context, id auth.Identity, occurrenceID, matchID string) (*Created, error) {
	if err := validateID(occurrenceID, "occurrence"); err != nil {
		return nil, err
	}
	if err := validateID(matchID, "match"); err != nil {
		return nil, err
	}
	occ, err := s.Occurrences.GetOccurrence(ctx, nil, occurrenceID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireMember(ctx, s.Groups, id, occ.GroupID); err != nil {
		return nil, err
	}
	m, err := s.Matches.Get(ctx, nil, matchID)
	if err != nil {
		return nil, err
	}
	if m.GroupID != occ.GroupID {
		return nil, apperr.Validation("match belongs to another group")
	}
	if !sameDay(occ.StartsAt, m.PlayedAt, s.Location) {
		return nil, apperr.Validation("match was not played on the day of the occurrence")
	}

	err = database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.Occurrences.LinkMatch(ctx, tx, occ.ID, m.ID)
	})
	if err != nil {
		return nil, err
	}
	log.Info("Linked match to occurrence", "match", m.ID, "occurrence", occ.ID, "by", id)

	players, err := s.Matches.Players(ctx, nil, m.ID)
	if err != nil {
		return nil, err
	}
	return s.created(ctx, m.ID, tasks.AfterMatch(ctx, m.GroupID, m.ID, playerIDs(players)))
}

// RecordResult stores the sets and winner of a match and appends the new
// ratings of its players. A result is recorded once.
func (s *Service) RecordResult(ctx context.Context, id auth.Identity, matchID string, raw [][2]int) (*Created, error) {
	if err := validateID(matchID, "match"); err != nil {
		return nil, err
	}
	m, err := s.Matches.Get(ctx, nil, matchID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireMember(ctx, s.Groups, id, m.GroupID); err != nil {
		return nil, err
	}
	sets, winner, err := ValidateSets(m.BestOf, raw)
	if err != nil {
		return nil, err
	}
	if m.HasResult() {
		return nil, apperr.Conflict("result already recorded")
	}
	players, err := s.Matches.Players(ctx, nil, m.ID)
	if err != nil {
		return nil, err
	}
	team1, team2 := splitTeams(players)
	if len(team1) != 2 || len(team2) != 2 {
		return nil, apperr.Precondition("match does not have two full teams")
	}

	err = database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		recorded, err := s.Ratings.HasMatch(ctx, tx, m.ID)
		if err != nil {
			return err
		}
		if recorded {
			return apperr.Conflict("result already recorded")
		}
		if err := s.Matches.RecordResult(ctx, tx, m.ID, sets, winner, id.UserID); err != nil {
			return err
		}
		current, err := s.Ratings.CurrentMany(ctx, tx, append(append([]string{}, team1...), team2...))
		if err != nil {
			return err
		}
		new1, new2 := elo.ApplyResult(ratingsOf(current, team1), ratingsOf(current, team2), winner)
		entries := make([]elo.Entry, 0, 4)
		for i, p := range team1 {
			entries = append(entries, elo.Entry{PlayerID: p, Rating: new1[i], AsOfMatchID: m.ID})
		}
		for i, p := range team2 {
			entries = append(entries, elo.Entry{PlayerID: p, Rating: new2[i], AsOfMatchID: m.ID})
		}
		return s.Ratings.Append(ctx, tx, entries)
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.IncResultsRecorded()
	log.Info("Recorded match result", "match", m.ID, "winner", winner, "score", ScoreLine(sets), "by", id)

	ts := tasks.AfterMatch(ctx, m.GroupID, m.ID, playerIDs(players))
	ts = append(ts, tasks.ForMatch(ctx, tasks.KindNotifyResult, m.GroupID, m.ID))
	return s.created(ctx, m.ID, ts)
}

func (s *Service) created(ctx context.Context, matchID string, ts []tasks.Task) (*Created, error) {
	outcome := s.Dispatcher.Dispatch(ctx, ts...)
	out := &Created{Queued: outcome.Queued}
	for _, f := range outcome.Failed {
		log.Warn("Side effect not queued", "task", f.Task.String(), "error", f.Error)
		out.Deferred = append(out.Deferred, string(f.Task.Kind))
	}
	summary, err := s.summary(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("match stored but could not be loaded: %w", err)
	}
	out.Match = summary
	return out, nil
}

// Summary returns the match with its teams, sets and rating changes.
func (s *Service) Summary(ctx context.Context, id auth.Identity, matchID string) (*Summary, error) {
	if err := validateID(matchID, "match"); err != nil {
		return nil, err
	}
	m, err := s.Matches.Get(ctx, nil, matchID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireMember(ctx, s.Groups, id, m.GroupID); err != nil {
		return nil, err
	}
	return s.build(ctx, m)
}

// ListMatches returns the group's most recent matches as summaries.
func (s *Service) ListMatches(ctx context.Context, id auth.Identity, groupID string, limit int) ([]Summary, error) {
	if err := auth.RequireMember(ctx, s.Groups, id, groupID); err != nil {
		return nil, err
	}
	list, err := s.Matches.List(ctx, groupID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(list))
	for i := range list {
		summary, err := s.build(ctx, &list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *summary)
	}
	return out, nil
}

func (s *Service) summary(ctx context.Context, matchID string) (*Summary, error) {
	m, err := s.Matches.Get(ctx, nil, matchID)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, m)
}

func (s *Service) build(ctx context.Context, m *Match) (*Summary, error) {
	players, err := s.Matches.Players(ctx, nil, m.ID)
	if err != nil {
		return nil, err
	}
	sets, err := s.Matches.Sets(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	occID, err := s.Matches.OccurrenceID(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	out := &Summary{
		ID:           m.ID,
		GroupID:      m.GroupID,
		PlayedAt:     m.PlayedAt,
		BestOf:       m.BestOf,
		Teams:        []TeamSummary{{Number: 1, Won: m.WinnerTeam == 1}, {Number: 2, Won: m.WinnerTeam == 2}},
		Sets:         sets,
		Score:        ScoreLine(sets),
		Winner:       m.WinnerTeam,
		OccurrenceID: occID,
	}
	if out.Sets == nil {
		out.Sets = []Set{}
	}
	for _, tp := range players {
		before, err := s.Ratings.RatingBefore(ctx, tp.PlayerID, m.ID)
		if err != nil {
			return nil, err
		}
		ps := PlayerSummary{ID: tp.PlayerID, Name: tp.Name, EloBefore: before}
		after, ok, err := s.Ratings.RatingAfter(ctx, tp.PlayerID, m.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			ps.EloAfter = &after
			ps.Delta = after - before
		}
		team := &out.Teams[tp.Team-1]
		team.Players = append(team.Players, ps)
	}
	return out, nil
}

// AutoCloseSimilar links the match to other unlinked open or locked
// occurrences of its group that start within AutoCloseWindow of played_at
// and whose confirmed players are exactly the match's four. It returns how
// many occurrences were closed.
func (s *Service) AutoCloseSimilar(ctx context.Context, matchID string) (int, error) {
	m, err := s.Matches.Get(ctx, nil, matchID)
	if err != nil {
		return 0, err
	}
	players, err := s.Matches.Players(ctx, nil, m.ID)
	if err != nil {
		return 0, err
	}
	if len(players) != 4 {
		return 0, nil
	}
	want := make(map[string]bool, 4)
	for _, p := range players {
		want[p.PlayerID] = true
	}

	closed := 0
	err = database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		candidates, err := s.Occurrences.ListLinkable(ctx, tx, m.GroupID, m.PlayedAt.Add(-AutoCloseWindow), m.PlayedAt.Add(AutoCloseWindow))
		if err != nil {
			return err
		}
		for _, occ := range candidates {
			confirmed, err := s.Attendance.ConfirmedPlayerIDs(ctx, tx, occ.ID)
			if err != nil {
				return err
			}
			if !sameSet(want, confirmed) {
				continue
			}
			if err := s.Occurrences.LinkMatch(ctx, tx, occ.ID, m.ID); err != nil {
				if errors.Is(err, apperr.ErrConflict) {
					continue
				}
				return err
			}
			closed++
			log.Info("Auto-closed occurrence", "occurrence", occ.ID, "match", m.ID)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("auto-close failed: %w", err)
	}
	return closed, nil
}

func sameSet(want map[string]bool, ids []string) bool {
	if len(ids) != len(want) {
		return false
	}
	for _, id := range ids {
		if !want[id] {
			return false
		}
	}
	return true
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

func playerIDs(players []TeamPlayer) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.PlayerID
	}
	return out
}

func splitTeams(players []TeamPlayer) (team1, team2 []string) {
	for _, p := range players {
		if p.Team == 1 {
			team1 = append(team1, p.PlayerID)
		} else {
			team2 = append(team2, p.PlayerID)
		}
	}
	return team1, team2
}

func ratingsOf(current map[string]int, ids []string) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = current[id]
	}
	return out
}
