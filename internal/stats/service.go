package stats

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/elo"
	"github.com/mauv0809/padel-weekly/internal/gamification"
	"github.com/mauv0809/padel-weekly/internal/group"
)

// BadgeLister returns the badges a player earned.
type BadgeLister interface {
	PlayerBadges(ctx context.Context, playerID string) ([]gamification.Badge, error)
}

type Service struct {
	store   Store
	ratings elo.Store
	groups  group.Store
	badges  BadgeLister
}

func NewService(store Store, ratings elo.Store, groups group.Store, badges BadgeLister) *Service {
	return &Service{store: store, ratings: ratings, groups: groups, badges: badges}
}

// Refresh rebuilds the group's statistics. It runs as a side effect and
// performs no authorization.
func (s *Service) Refresh(ctx context.Context, groupID string) error {
	return s.store.Refresh(ctx, groupID)
}

// Ranking lists the group's usual players and every guest with a decided
// match, ordered by current rating, then win rate, then name.
func (s *Service) Ranking(ctx context.Context, id auth.Identity, groupID string) ([]RankingEntry, error) {
	if err := auth.RequireMember(ctx, s.groups, id, groupID); err != nil {
		return nil, err
	}
	players, err := s.groups.ListPlayers(ctx, groupID, "")
	if err != nil {
		return nil, err
	}
	byPlayer, err := s.store.PlayerStats(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	ratings, err := s.ratings.CurrentMany(ctx, nil, ids)
	if err != nil {
		return nil, err
	}

	out := make([]RankingEntry, 0, len(players))
	for _, p := range players {
		ps := byPlayer[p.ID]
		if p.Status != group.PlayerUsual && ps.MatchesPlayed == 0 {
			continue
		}
		out = append(out, RankingEntry{
			PlayerID:      p.ID,
			Name:          p.Name,
			Status:        p.Status,
			Elo:           ratings[p.ID],
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
	return out, nil
}

func (s *Service) Pairs(ctx context.Context, id auth.Identity, groupID string, minMatches int) ([]PairStats, error) {
	if err := auth.RequireMember(ctx, s.groups, id, groupID); err != nil {
		return nil, err
	}
	if minMatches < 1 {
		minMatches = 1
	}
	return s.store.Pairs(ctx, groupID, minMatches)
}

// PlayerProfile gathers a player's statistics, rating history and badges.
func (s *Service) PlayerProfile(ctx context.Context, id auth.Identity, playerID string) (*Profile, error) {
	if _, err := uuid.Parse(playerID); err != nil {
		return nil, apperr.Validation("invalid player id")
	}
	p, err := s.groups.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireMember(ctx, s.groups, id, p.GroupID); err != nil {
		return nil, err
	}
	ps, err := s.store.Player(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	history, err := s.ratings.History(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	current := elo.Default
	if len(history) > 0 {
		current = history[len(history)-1].Rating
	}
	badges, err := s.badges.PlayerBadges(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []elo.Entry{}
	}
	if badges == nil {
		badges = []gamification.Badge{}
	}
	return &Profile{Player: *p, Elo: current, Stats: ps, WinRate: ps.WinRate(), History: history, Badges: badges}, nil
}
