package playtomic_test

import (
	"context"
	"testing"
	"time"

	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/playtomic"
	"github.com/mauv0809/padel-weekly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSync(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	g := testutil.Group(t, db, "thursday")
	testutil.PlaytomicPlayer(t, db, g, "Ana", "pt-ana")
	testutil.PlaytomicPlayer(t, db, g, "Bea", "pt-bea")
	ev := testutil.Event(t, db, g, 4, "19:00", 4)
	start := time.Date(2026, 3, 5, 19, 0, 0, 0, time.UTC)
	occ := testutil.Occurrence(t, db, g, ev, start)

	client := playtomic.NewMockClient()
	client.GetMatchesFunc = func(params *playtomic.SearchMatchesParams) ([]playtomic.MatchSummary, error) {
		return []playtomic.MatchSummary{
			{MatchID: "booking-1", OwnerID: strPtr("pt-ana")},
			{MatchID: "stranger", OwnerID: strPtr("pt-someone")},
			{MatchID: "far-away", OwnerID: strPtr("pt-bea")},
			{MatchID: "no-owner"},
		}, nil
	}
	client.GetSpecificMatchFunc = func(id string) (playtomic.PadelMatch, error) {
		m := playtomic.PadelMatch{
			MatchID:      id,
			ResourceName: "Court 3",
			Price:        "24 EUR",
			Start:        start.Add(30 * time.Minute),
			Teams: []playtomic.Team{
				{Players: []playtomic.Player{{UserID: "pt-ana"}, {UserID: "pt-bea"}}},
				{Players: []playtomic.Player{{UserID: "pt-x"}, {UserID: "pt-y"}}},
			},
		}
		if id == "far-away" {
			m.Start = start.Add(3 * time.Hour)
		}
		return m, nil
	}

	occurrences := events.New(db)
	syncer := playtomic.NewSyncer(client, group.New(db), occurrences, "tenant-1").
		WithClock(func() time.Time { return start.Add(-48 * time.Hour) })

	res, err := syncer.Sync(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, playtomic.SyncResult{Checked: 2, Linked: 1}, res)
	assert.ElementsMatch(t, []string{"booking-1", "far-away"}, client.GetSpecificMatchCalls)
	require.Len(t, client.GetMatchesCalls, 1)
	assert.Equal(t, []string{"tenant-1"}, client.GetMatchesCalls[0].TenantIDs)

	got, err := occurrences.GetOccurrence(ctx, nil, occ)
	require.NoError(t, err)
	require.NotNil(t, got.Booking)
	assert.Equal(t, events.Booking{Ref: "booking-1", Court: "Court 3", Price: "24 EUR"}, *got.Booking)

	// A second run finds the booking already stored.
	res, err = syncer.Sync(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Linked)
}

func TestSync_NeedsTwoGroupPlayers(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	g := testutil.Group(t, db, "thursday")
	testutil.PlaytomicPlayer(t, db, g, "Ana", "pt-ana")
	ev := testutil.Event(t, db, g, 4, "19:00", 4)
	start := time.Date(2026, 3, 5, 19, 0, 0, 0, time.UTC)
	testutil.Occurrence(t, db, g, ev, start)

	client := playtomic.NewMockClient()
	client.GetMatchesFunc = func(*playtomic.SearchMatchesParams) ([]playtomic.MatchSummary, error) {
		return []playtomic.MatchSummary{{MatchID: "solo", OwnerID: strPtr("pt-ana")}}, nil
	}
	client.GetSpecificMatchFunc = func(id string) (playtomic.PadelMatch, error) {
		return playtomic.PadelMatch{MatchID: id, Start: start, Teams: []playtomic.Team{
			{Players: []playtomic.Player{{UserID: "pt-ana"}, {UserID: "pt-x"}}},
		}}, nil
	}

	syncer := playtomic.NewSyncer(client, group.New(db), events.New(db), "tenant-1").
		WithClock(func() time.Time { return start.Add(-time.Hour) })
	res, err := syncer.Sync(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)
	assert.Equal(t, 0, res.Linked)
}

func TestSync_NoPlaytomicPlayers(t *testing.T) {
	db := testutil.NewDB(t)
	g := testutil.Group(t, db, "thursday")
	testutil.Player(t, db, g, "Ana")

	client := playtomic.NewMockClient()
	res, err := playtomic.NewSyncer(client, group.New(db), events.New(db), "tenant-1").Sync(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, playtomic.SyncResult{}, res)
	assert.Empty(t, client.GetMatchesCalls)
}
