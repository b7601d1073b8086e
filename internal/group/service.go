package group

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/auth"
)

// Service applies membership checks on top of Store for player management.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Store() Store { return s.store }

// AddPlayer creates a player in groupID on behalf of a member.
func (s *Service) AddPlayer(ctx context.Context, id auth.Identity, groupID string, p NewPlayer) (*Player, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperr.Validation("player name is required")
	}
	if p.Status != "" && !p.Status.Valid() {
		return nil, apperr.Validation("invalid player status %q", p.Status)
	}
	if err := auth.RequireMember(ctx, s.store, id, groupID); err != nil {
		return nil, err
	}
	player, err := s.store.AddPlayer(ctx, groupID, p)
	if err != nil {
		return nil, err
	}
	log.Info("Player added", "group", groupID, "player", player.ID, "by", id)
	return player, nil
}

// PlayerUpdate changes a player's status and/or Playtomic link. Nil fields
// are left untouched; an empty PlaytomicID clears the link.
type PlayerUpdate struct {
	Status      *PlayerStatus `json:"status,omitempty" validate:"omitempty,oneof=usual invite"`
	PlaytomicID *string       `json:"playtomic_id,omitempty" validate:"omitempty,max=64"`
}

func (s *Service) UpdatePlayer(ctx context.Context, id auth.Identity, groupID, playerID string, u PlayerUpdate) (*Player, error) {
	if err := uuid.Validate(playerID); err != nil {
		return nil, apperr.Validation("invalid player id")
	}
	if u.Status != nil && !u.Status.Valid() {
		return nil, apperr.Validation("invalid player status %q", *u.Status)
	}
	if err := auth.RequireMember(ctx, s.store, id, groupID); err != nil {
		return nil, err
	}
	if u.Status != nil {
		if err := s.store.UpdatePlayerStatus(ctx, groupID, playerID, *u.Status); err != nil {
			return nil, err
		}
	}
	if u.PlaytomicID != nil {
		if err := s.store.LinkPlaytomic(ctx, groupID, playerID, strings.TrimSpace(*u.PlaytomicID)); err != nil {
			return nil, err
		}
	}
	p, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if p.GroupID != groupID {
		return nil, apperr.NotFound("player not found")
	}
	log.Info("Player updated", "group", groupID, "player", playerID, "status", p.Status, "by", id)
	return p, nil
}
