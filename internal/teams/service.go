package teams

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/elo"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/group"
)

// Service builds balanced proposals from an occurrence's confirmed players.
type Service struct {
	occurrences events.Store
	attendance  attendance.Store
	groups      group.Store
	ratings     elo.Store
}

func NewService(occurrences events.Store, att attendance.Store, groups group.Store, ratings elo.Store) *Service {
	return &Service{occurrences: occurrences, attendance: att, groups: groups, ratings: ratings}
}

// ConfirmedPlayersWithElo joins the confirmed attendees with their current
// rating. A failed rating lookup falls back to the default for everyone.
func (s *Service) ConfirmedPlayersWithElo(ctx context.Context, occurrenceID string) ([]PlayerWithElo, error) {
	ids, err := s.attendance.ConfirmedPlayerIDs(ctx, nil, occurrenceID)
	if err != nil {
		return nil, err
	}
	ratings, err := s.ratings.CurrentMany(ctx, nil, ids)
	if err != nil {
		log.Warn("Rating lookup failed, using default ratings", "occurrence", occurrenceID, "error", err)
		ratings = nil
	}

	out := make([]PlayerWithElo, 0, len(ids))
	for _, id := range ids {
		p, err := s.groups.GetPlayer(ctx, id)
		if err != nil {
			return nil, err
		}
		rating, ok := ratings[id]
		if !ok {
			rating = elo.Default
		}
		out = append(out, PlayerWithElo{ID: id, Name: p.Name, Elo: rating})
	}
	return out, nil
}

// BalanceForOccurrence proposes teams for an occurrence with exactly four
// confirmed players.
func (s *Service) BalanceForOccurrence(ctx context.Context, id auth.Identity, occurrenceID string) (*Proposal, error) {
	if _, err := uuid.Parse(occurrenceID); err != nil {
		return nil, apperr.Validation("invalid occurrence id")
	}
	occ, err := s.occurrences.GetOccurrence(ctx, nil, occurrenceID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireMember(ctx, s.groups, id, occ.GroupID); err != nil {
		return nil, err
	}
	players, err := s.ConfirmedPlayersWithElo(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	if len(players) != PlayersPerMatch {
		return nil, apperr.Precondition(ErrNeedFourMessage)
	}
	p, err := Balance(players)
	if err != nil {
		return nil, err
	}
	p.OccurrenceID = occurrenceID
	log.Debug("Balanced teams", "occurrence", occurrenceID, "score", p.BalanceScore)
	return &p, nil
}
