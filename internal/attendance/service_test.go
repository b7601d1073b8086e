package attendance_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/metrics"
	"github.com/mauv0809/padel-weekly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu    sync.Mutex
	rooms []string
	last  any
}

func (r *recordingBroadcaster) Broadcast(room string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms = append(r.rooms, room)
	r.last = payload
}

type fixture struct {
	db          *sql.DB
	svc         *attendance.Service
	metrics     *metrics.Mock
	broadcaster *recordingBroadcaster
	groupID     string
	occID       string
	players     []string
	member      auth.Identity
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	groupID := testutil.Group(t, db, "padel")
	testutil.Member(t, db, groupID, "user-1")
	eventID := testutil.Event(t, db, groupID, 4, "20:00", 4)
	occID := testutil.Occurrence(t, db, groupID, eventID, time.Now().Add(48*time.Hour))
	var players []string
	for _, name := range []string{"Ana", "Bea", "Carla", "Dani", "Eva"} {
		players = append(players, testutil.Player(t, db, groupID, name))
	}

	m := metrics.NewMock()
	b := &recordingBroadcaster{}
	svc := attendance.NewService(attendance.New(db), events.New(db), group.New(db), m, b)
	return fixture{db: db, svc: svc, metrics: m, broadcaster: b, groupID: groupID, occID: occID, players: players, member: auth.User("user-1")}
}

func TestSetAttendanceIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.SetAttendance(ctx, f.member, f.occID, f.players[0], attendance.StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, attendance.SourceWeb, first.Source)
	assert.Equal(t, "Ana", first.PlayerName)

	second, err := f.svc.SetAttendance(ctx, f.member, f.occID, f.players[0], attendance.StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, testutil.Count(t, f.db, "attendance WHERE occurrence_id = ?", f.occID))

	changed, err := f.svc.SetAttendance(ctx, f.member, f.occID, f.players[0], attendance.StatusDeclined, attendance.SourceAdmin)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusDeclined, changed.Status)
	assert.Equal(t, attendance.SourceWeb, changed.Source, "the original source is kept on update")
	assert.Equal(t, 1, testutil.Count(t, f.db, "attendance WHERE occurrence_id = ?", f.occID))

	assert.Equal(t, 2, f.metrics.AttendanceUpdates("confirmed"))
	assert.Len(t, f.broadcaster.rooms, 3)
	assert.Equal(t, f.occID, f.broadcaster.rooms[0])
}

func TestSummaryCountsDistinctPlayers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	set := func(i int, s attendance.Status) {
		_, err := f.svc.SetAttendance(ctx, f.member, f.occID, f.players[i], s, "")
		require.NoError(t, err)
	}
	set(0, attendance.StatusConfirmed)
	set(1, attendance.StatusConfirmed)
	set(2, attendance.StatusConfirmed)
	set(3, attendance.StatusWaitlist)
	set(4, attendance.StatusMaybe)
	set(4, attendance.StatusDeclined)

	s, err := f.svc.Summary(ctx, f.member, f.occID)
	require.NoError(t, err)
	assert.Equal(t, 3, s.ConfirmedCount)
	assert.Equal(t, 1, s.WaitlistCount)
	assert.Equal(t, 1, s.DeclinedCount)
	assert.Equal(t, 0, s.MaybeCount)
	assert.Equal(t, 5, s.Total())
	assert.False(t, s.IsFull)
	assert.Equal(t, 1, s.SpotsAvailable)

	set(3, attendance.StatusConfirmed)
	s, err = f.svc.Summary(ctx, f.member, f.occID)
	require.NoError(t, err)
	assert.True(t, s.IsFull)
	assert.Equal(t, 0, s.SpotsAvailable)

	last, ok := f.broadcaster.last.(*attendance.Summary)
	require.True(t, ok)
	assert.Equal(t, 4, last.ConfirmedCount)
}

func TestSetAttendanceRejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		id       auth.Identity
		occID    string
		playerID string
		status   attendance.Status
		source   attendance.Source
		wantErr  error
	}{
		{"malformed occurrence", f.member, "nope", f.players[0], attendance.StatusConfirmed, "", apperr.ErrValidation},
		{"malformed player", f.member, f.occID, "nope", attendance.StatusConfirmed, "", apperr.ErrValidation},
		{"invalid status", f.member, f.occID, f.players[0], "going", "", apperr.ErrValidation},
		{"invalid source", f.member, f.occID, f.players[0], attendance.StatusMaybe, "sms", apperr.ErrValidation},
		{"unknown occurrence", f.member, "0b0c4f4e-7f5e-4c59-9f0e-1f0a3e7d2c11", f.players[0], attendance.StatusMaybe, "", apperr.ErrNotFound},
		{"anonymous", auth.Identity{}, f.occID, f.players[0], attendance.StatusMaybe, "", apperr.ErrUnauthenticated},
		{"not a member", auth.User("stranger"), f.occID, f.players[0], attendance.StatusMaybe, "", apperr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SetAttendance(ctx, tt.id, tt.occID, tt.playerID, tt.status, tt.source)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 0, testutil.Count(t, f.db, "attendance"), "rejected calls never write")

	t.Run("player from another group", func(t *testing.T) {
		other := testutil.Group(t, f.db, "other")
		outsider := testutil.Player(t, f.db, other, "Zoe")
		_, err := f.svc.SetAttendance(ctx, f.member, f.occID, outsider, attendance.StatusConfirmed, "")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestTerminalOccurrenceRejectsConfirmation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.db.Exec(`UPDATE event_occurrences SET status = 'cancelled' WHERE id = ?`, f.occID)
	require.NoError(t, err)

	_, err = f.svc.SetAttendance(ctx, f.member, f.occID, f.players[0], attendance.StatusConfirmed, "")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.svc.SetAttendance(ctx, f.member, f.occID, f.players[0], attendance.StatusDeclined, "")
	require.NoError(t, err, "declining is still recorded")

	occ, err := events.New(f.db).GetOccurrence(ctx, nil, f.occID)
	require.NoError(t, err)
	assert.Equal(t, events.StatusCancelled, occ.Status, "attendance never reopens an occurrence")
}

func TestSetAttendanceSource(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, group.New(f.db).AddMember(ctx, f.groupID, "owner-1", group.RoleOwner))

	tests := []struct {
		name   string
		id     auth.Identity
		player int
		source attendance.Source
		want   attendance.Source
	}{
		{"member defaults to web", f.member, 0, "", attendance.SourceWeb},
		{"member cannot tag admin", f.member, 1, attendance.SourceAdmin, attendance.SourceWeb},
		{"member cannot tag whatsapp", f.member, 2, attendance.SourceWhatsApp, attendance.SourceWeb},
		{"owner tags admin", auth.User("owner-1"), 3, attendance.SourceAdmin, attendance.SourceAdmin},
		{"system import keeps whatsapp", auth.System(), 4, attendance.SourceWhatsApp, attendance.SourceWhatsApp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := f.svc.SetAttendance(ctx, tt.id, f.occID, f.players[tt.player], attendance.StatusConfirmed, tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Source)
		})
	}
}
