package playtomic

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/group"
)

const (
	// MatchWindow is how far a booking may start from an occurrence and
	// still belong to it.
	MatchWindow = 90 * time.Minute
	// MinGroupPlayers is the number of known players a booking needs.
	MinGroupPlayers = 2

	lookBehind = 24 * time.Hour
	lookAhead  = 14 * 24 * time.Hour
)

// Syncer links Playtomic court bookings to occurrences.
type Syncer struct {
	client      PlaytomicClient
	groups      group.Store
	occurrences events.Store
	tenantID    string
	now         func() time.Time
}

func NewSyncer(client PlaytomicClient, groups group.Store, occurrences events.Store, tenantID string) *Syncer {
	return &Syncer{client: client, groups: groups, occurrences: occurrences, tenantID: tenantID, now: time.Now}
}

// WithClock replaces the clock used to pick the search window.
func (s *Syncer) WithClock(now func() time.Time) *Syncer {
	s.now = now
	return s
}

// Sync fetches the tenant's bookings owned by players of the group and stores
// each one as the booking of the occurrence it matches. Running it again
// with the same bookings changes nothing.
func (s *Syncer) Sync(ctx context.Context, groupID string) (SyncResult, error) {
	var res SyncResult
	players, err := s.groups.PlayersByPlaytomicID(ctx, groupID)
	if err != nil {
		return res, err
	}
	if len(players) == 0 {
		log.Debug("No Playtomic players in group, skipping sync", "group", groupID)
		return res, nil
	}

	now := s.now().UTC()
	occs, err := s.occurrences.ListOccurrences(ctx, groupID, now.Add(-lookBehind), now.Add(lookAhead))
	if err != nil {
		return res, err
	}
	if len(occs) == 0 {
		return res, nil
	}

	summaries, err := s.client.GetMatches(ctx, &SearchMatchesParams{
		SportID:       "PADEL",
		HasPlayers:    true,
		Sort:          "start_date,ASC",
		TenantIDs:     []string{s.tenantID},
		FromStartDate: now.Add(-lookBehind).Format("2006-01-02") + "T00:00:00",
	})
	if err != nil {
		return res, fmt.Errorf("failed to search bookings: %w", err)
	}

	for _, sum := range summaries {
		if sum.OwnerID == nil {
			continue
		}
		if _, ok := players[*sum.OwnerID]; !ok {
			continue
		}
		res.Checked++
		match, err := s.client.GetSpecificMatch(ctx, sum.MatchID)
		if err != nil {
			log.Warn("Failed to fetch Playtomic match", "match", sum.MatchID, "error", err)
			continue
		}
		if match.GameStatus == GameStatusCanceled {
			continue
		}
		if countKnown(match, players) < MinGroupPlayers {
			continue
		}
		occ := closest(occs, match.Start)
		if occ == nil {
			continue
		}
		if occ.Booking != nil && occ.Booking.Ref == match.MatchID {
			continue
		}
		booking := events.Booking{Ref: match.MatchID, Court: match.ResourceName, Price: match.Price}
		if err := s.occurrences.SetBooking(ctx, occ.ID, booking); err != nil {
			return res, err
		}
		occ.Booking = &booking
		res.Linked++
		log.Info("Linked Playtomic booking", "occurrence", occ.ID, "booking", match.MatchID, "court", match.ResourceName)
	}
	return res, nil
}

func countKnown(m PadelMatch, players map[string]group.Player) int {
	n := 0
	for _, id := range m.PlayerIDs() {
		if _, ok := players[id]; ok {
			n++
		}
	}
	return n
}

// closest returns the non-cancelled occurrence nearest to start within
// MatchWindow.
func closest(occs []events.Occurrence, start time.Time) *events.Occurrence {
	var best *events.Occurrence
	var bestDiff time.Duration
	for i := range occs {
		if occs[i].Status == events.StatusCancelled {
			continue
		}
		diff := occs[i].StartsAt.Sub(start).Abs()
		if diff > MatchWindow {
			continue
		}
		if best == nil || diff < bestDiff {
			best, bestDiff = &occs[i], diff
		}
	}
	return best
}
