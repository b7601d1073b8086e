package matches_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/database"
	"github.com/mauv0809/padel-weekly/internal/elo"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/metrics"
	"github.com/mauv0809/padel-weekly/internal/tasks"
	"github.com/mauv0809/padel-weekly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db         *sql.DB
	svc        *matches.Service
	dispatcher *tasks.Recorder
	metrics    *metrics.Mock
	groupID    string
	eventID    string
	occID      string
	startsAt   time.Time
	players    []string
	member     auth.Identity
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	groupID := testutil.Group(t, db, "padel")
	testutil.Member(t, db, groupID, "user-1")
	eventID := testutil.Event(t, db, groupID, 4, "20:00", 4)
	startsAt := time.Date(2026, 3, 5, 19, 0, 0, 0, time.UTC)
	occID := testutil.Occurrence(t, db, groupID, eventID, startsAt)
	var players []string
	for _, name := range []string{"Ana", "Bea", "Carla", "Dani"} {
		players = append(players, testutil.Player(t, db, groupID, name))
	}

	d := &tasks.Recorder{}
	m := metrics.NewMock()
	svc := matches.NewService(db, matches.Deps{
		Matches:     matches.New(db),
		Occurrences: events.New(db),
		Attendance:  attendance.New(db),
		Groups:      group.New(db),
		Ratings:     elo.New(db),
		Dispatcher:  d,
		Metrics:     m,
	})
	return fixture{db: db, svc: svc, dispatcher: d, metrics: m, groupID: groupID, eventID: eventID,
		occID: occID, startsAt: startsAt, players: players, member: auth.User("user-1")}
}

func (f fixture) split() matches.Split {
	return matches.Split{TeamA: f.players[:2], TeamB: f.players[2:]}
}

func TestCreateFromOccurrence(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreateFromOccurrence(ctx, f.member, f.occID, matches.CreateInput{Split: f.split()})
	require.NoError(t, err)
	require.NotNil(t, created.Match)

	id := created.Match.ID
	assert.Equal(t, 1, testutil.Count(t, f.db, "matches"))
	assert.Equal(t, 2, testutil.Count(t, f.db, "match_teams WHERE match_id = ? AND team_number IN (1, 2)", id))
	assert.Equal(t, 4, testutil.Count(t, f.db,
		"match_team_players mtp JOIN match_teams mt ON mt.id = mtp.match_team_id WHERE mt.match_id = ?", id))

	occ, err := events.New(f.db).GetOccurrence(ctx, nil, f.occID)
	require.NoError(t, err)
	assert.Equal(t, id, occ.LoadedMatchID)
	assert.Equal(t, events.StatusCompleted, occ.Status)

	assert.Equal(t, f.occID, created.Match.OccurrenceID)
	assert.True(t, created.Match.PlayedAt.Equal(f.startsAt))
	assert.Equal(t, matches.DefaultBestOf, created.Match.BestOf)
	require.Len(t, created.Match.Teams, 2)
	assert.Len(t, created.Match.Teams[0].Players, 2)
	assert.Len(t, created.Match.Teams[1].Players, 2)
	assert.Equal(t, 1000, created.Match.Teams[0].Players[0].EloBefore)
	assert.Nil(t, created.Match.Teams[0].Players[0].EloAfter)

	kinds := f.dispatcher.Kinds()
	assert.Equal(t, 1, kinds[tasks.KindRefreshStats])
	assert.Equal(t, 4, kinds[tasks.KindCheckAchievements])
	assert.Equal(t, 4, kinds[tasks.KindCheckSpecialAchievements])
	assert.Equal(t, 1, kinds[tasks.KindAutoClose])
	assert.Equal(t, 1, kinds[tasks.KindNotifyTeams])
	assert.Equal(t, 11, created.Queued)
	assert.Equal(t, 1, f.metrics.MatchesCreated())
}

func TestCreateFromOccurrence_SecondCreationConflicts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateFromOccurrence(ctx, f.member, f.occID, matches.CreateInput{Split: f.split()})
	require.NoError(t, err)

	_, err = f.svc.CreateFromOccurrence(ctx, f.member, f.occID, matches.CreateInput{Split: f.split()})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 1, testutil.Count(t, f.db, "matches"))
}

func TestCreateFromOccurrence_RollsBackWhenLinkFails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Link the occurrence behind the service's back so the in-transaction
	// link is the step that fails.
	other := testutil.Match(t, f.db, f.groupID, f.startsAt, [2]string{f.players[0], f.players[1]}, [2]string{f.players[2], f.players[3]})
	_, err := f.db.Exec(`UPDATE event_occurrences SET loaded_match_id = ? WHERE id = ?`, other, f.occID)
	require.NoError(t, err)

	svc := matches.NewService(f.db, matches.Deps{
		Matches:     matches.New(f.db),
		Occurrences: staleOccurrences{Store: events.New(f.db)},
		Attendance:  attendance.New(f.db),
		Groups:      group.New(f.db),
		Ratings:     elo.New(f.db),
		Dispatcher:  f.dispatcher,
		Metrics:     f.metrics,
	})
	_, err = svc.CreateFromOccurrence(ctx, f.member, f.occID, matches.CreateInput{Split: f.split()})
	require.ErrorIs(t, err, apperr.ErrConflict)

	assert.Equal(t, 1, testutil.Count(t, f.db, "matches"), "the new match row must be rolled back")
	assert.Equal(t, 2, testutil.Count(t, f.db, "match_teams"))
	assert.Empty(t, f.dispatcher.Tasks)
}

// staleOccurrences hides the stored link so the service proceeds to write.
type staleOccurrences struct{ events.Store }

func (s staleOccurrences) GetOccurrence(ctx context.Context, q database.DBTX, id string) (*events.Occurrence, error) {
	occ, err := s.Store.GetOccurrence(ctx, q, id)
	if err != nil {
		return nil, err
	}
	occ.LoadedMatchID = ""
	return occ, nil
}

func TestCreateFromOccurrence_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	stranger := testutil.Player(t, f.db, testutil.Group(t, f.db, "other"), "Zoe")

	tests := []struct {
		name  string
		id    auth.Identity
		occID string
		in    matches.CreateInput
		want  error
	}{
		{"malformed occurrence", f.member, "nope", matches.CreateInput{Split: f.split()}, apperr.ErrValidation},
		{"three players", f.member, f.occID, matches.CreateInput{Split: matches.Split{TeamA: f.players[:2], TeamB: f.players[2:3]}}, apperr.ErrValidation},
		{"duplicate player", f.member, f.occID, matches.CreateInput{Split: matches.Split{TeamA: f.players[:2], TeamB: []string{f.players[2], f.players[0]}}}, apperr.ErrValidation},
		{"player of another group", f.member, f.occID, matches.CreateInput{Split: matches.Split{TeamA: f.players[:2], TeamB: []string{f.players[2], stranger}}}, apperr.ErrValidation},
		{"bad best of", f.member, f.occID, matches.CreateInput{Split: f.split(), BestOf: 2}, apperr.ErrValidation},
		{"anonymous", auth.Identity{}, f.occID, matches.CreateInput{Split: f.split()}, apperr.ErrUnauthenticated},
		{"not a member", auth.User("intruder"), f.occID, matches.CreateInput{Split: f.split()}, apperr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateFromOccurrence(ctx, tt.id, tt.occID, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, testutil.Count(t, f.db, "matches"))
}

func TestCreateFromOccurrence_CancelledOccurrence(t *testing.T) {
	f := setup(t)
	_, err := f.db.Exec(`UPDATE event_occurrences SET status = 'cancelled' WHERE id = ?`, f.occID)
	require.NoError(t, err)

	_, err = f.svc.CreateFromOccurrence(context.Background(), f.member, f.occID, matches.CreateInput{Split: f.split()})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateFromOccurrence_SideEffectFailuresAreSoft(t *testing.T) {
	f := setup(t)
	f.dispatcher.FailKinds = map[tasks.Kind]error{tasks.KindNotifyTeams: errors.New("queue full")}

	created, err := f.svc.CreateFromOccurrence(context.Background(), f.member, f.occID, matches.CreateInput{Split: f.split()})
	require.NoError(t, err)
	assert.Equal(t, []string{string(tasks.KindNotifyTeams)}, created.Deferred)
	assert.Equal(t, 10, created.Queued)
	assert.Equal(t, 1, testutil.Count(t, f.db, "matches"))
}

func TestRecordResult(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.CreateFromOccurrence(ctx, f.member, f.occID, matches.CreateInput{Split: f.split()})
	require.NoError(t, err)
	f.dispatcher.Reset()

	res, err := f.svc.RecordResult(ctx, f.member, created.Match.ID, [][2]int{{6, 4}, {3, 6}, {7, 5}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Match.Winner)
	assert.Equal(t, "6-4 3-6 7-5", res.Match.Score)
	assert.True(t, res.Match.Teams[0].Won)
	assert.Equal(t, 4, testutil.Count(t, f.db, "elo_ratings WHERE as_of_match_id = ?", created.Match.ID))

	for _, p := range res.Match.Teams[0].Players {
		require.NotNil(t, p.EloAfter)
		assert.Equal(t, 1000, p.EloBefore)
		assert.Equal(t, 1016, *p.EloAfter)
		assert.Equal(t, 16, p.Delta)
	}
	for _, p := range res.Match.Teams[1].Players {
		require.NotNil(t, p.EloAfter)
		assert.Equal(t, 984, *p.EloAfter)
	}

	kinds := f.dispatcher.Kinds()
	assert.Equal(t, 1, kinds[tasks.KindRefreshStats])
	assert.Equal(t, 4, kinds[tasks.KindCheckAchievements])
	assert.Equal(t, 1, kinds[tasks.KindNotifyResult])
	assert.Equal(t, 1, f.metrics.ResultsRecorded())

	_, err = f.svc.RecordResult(ctx, f.member, created.Match.ID, [][2]int{{6, 0}, {6, 0}})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 4, testutil.Count(t, f.db, "elo_ratings"))
	assert.Equal(t, 3, testutil.Count(t, f.db, "match_sets"))
}

func TestRecordResult_UsesCurrentRatings(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.Rating(t, f.db, f.players[0], 1200)
	testutil.Rating(t, f.db, f.players[1], 1200)

	created, err := f.svc.CreateFromOccurrence(ctx, f.member, f.occID, matches.CreateInput{Split: f.split()})
	require.NoError(t, err)
	res, err := f.svc.RecordResult(ctx, f.member, created.Match.ID, [][2]int{{2, 6}, {4, 6}})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Match.Winner)
	favourite := res.Match.Teams[0].Players[0]
	assert.Equal(t, 1200, favourite.EloBefore)
	assert.Less(t, favourite.Delta, -16, "an upset costs the favourite more than an even loss")
}

func TestValidateSets(t *testing.T) {
	tests := []struct {
		name   string
		bestOf int
		sets   [][2]int
		winner int
		ok     bool
	}{
		{"straight sets", 3, [][2]int{{6, 3}, {6, 2}}, 1, true},
		{"three sets", 3, [][2]int{{6, 3}, {4, 6}, {5, 7}}, 2, true},
		{"single set", 1, [][2]int{{7, 6}}, 1, true},
		{"one set of three", 3, [][2]int{{6, 2}}, 1, true},
		{"no sets", 3, nil, 0, false},
		{"too many sets", 3, [][2]int{{6, 3}, {4, 6}, {6, 4}, {6, 1}}, 0, false},
		{"tied set", 3, [][2]int{{5, 5}}, 0, false},
		{"too many games", 3, [][2]int{{8, 6}}, 0, false},
		{"negative games", 3, [][2]int{{-1, 6}}, 0, false},
		{"level sets", 3, [][2]int{{6, 3}, {3, 6}}, 0, false},
		{"set after decided", 3, [][2]int{{6, 3}, {6, 3}, {2, 6}}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sets, winner, err := matches.ValidateSets(tt.bestOf, tt.sets)
			if !tt.ok {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.winner, winner)
			assert.Len(t, sets, len(tt.sets))
			assert.Equal(t, 1, sets[0].Number)
		})
	}
}

func TestLinkExisting(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, b := [2]string{f.players[0], f.players[1]}, [2]string{f.players[2], f.players[3]}

	t.Run("different day", func(t *testing.T) {
		matchID := testutil.Match(t, f.db, f.groupID, f.startsAt.Add(-48*time.Hour), a, b)
		_, err := f.svc.LinkExisting(ctx, f.member, f.occID, matchID)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("same day", func(t *testing.T) {
		matchID := testutil.Match(t, f.db, f.groupID, f.startsAt.Add(time.Hour), a, b, [2]int{6, 1}, [2]int{6, 2})
		created, err := f.svc.LinkExisting(ctx, f.member, f.occID, matchID)
		require.NoError(t, err)
		assert.Equal(t, f.occID, created.Match.OccurrenceID)
		assert.Equal(t, 1, f.dispatcher.Kinds()[tasks.KindRefreshStats])

		_, err = f.svc.LinkExisting(ctx, f.member, f.occID, matchID)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})
}

func TestAutoCloseSimilar(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	twin := testutil.Occurrence(t, f.db, f.groupID, testutil.Event(t, f.db, f.groupID, 4, "22:00", 4), f.startsAt.Add(2*time.Hour))
	different := testutil.Occurrence(t, f.db, f.groupID, testutil.Event(t, f.db, f.groupID, 4, "18:00", 4), f.startsAt.Add(-time.Hour))
	farAway := testutil.Occurrence(t, f.db, f.groupID, f.eventID, f.startsAt.Add(7*24*time.Hour))
	for _, p := range f.players {
		testutil.Attend(t, f.db, f.groupID, twin, p, "confirmed")
		testutil.Attend(t, f.db, f.groupID, farAway, p, "confirmed")
	}
	for _, p := range f.players[:3] {
		testutil.Attend(t, f.db, f.groupID, different, p, "confirmed")
	}

	created, err := f.svc.CreateFromOccurrence(ctx, f.member, f.occID, matches.CreateInput{Split: f.split()})
	require.NoError(t, err)

	closed, err := f.svc.AutoCloseSimilar(ctx, created.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	store := events.New(f.db)
	for id, want := range map[string]events.Status{twin: events.StatusCompleted, different: events.StatusOpen, farAway: events.StatusOpen} {
		occ, err := store.GetOccurrence(ctx, nil, id)
		require.NoError(t, err)
		assert.Equal(t, want, occ.Status, id)
	}

	closed, err = f.svc.AutoCloseSimilar(ctx, created.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, closed, "already closed occurrences are skipped")
}

func TestListMatches(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, b := [2]string{f.players[0], f.players[1]}, [2]string{f.players[2], f.players[3]}
	testutil.Match(t, f.db, f.groupID, f.startsAt.Add(-7*24*time.Hour), a, b, [2]int{6, 4})
	latest := testutil.Match(t, f.db, f.groupID, f.startsAt, a, b)

	list, err := f.svc.ListMatches(ctx, f.member, f.groupID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, latest, list[0].ID)
	assert.Equal(t, "6-4", list[1].Score)

	_, err = f.svc.ListMatches(ctx, auth.User("intruder"), f.groupID, 10)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
