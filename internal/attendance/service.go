package attendance

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/metrics"
)

// Service is the attendance register.
type Service struct {
	store       Store
	occurrences events.Store
	groups      group.Store
	metrics     metrics.Metrics
	broadcaster Broadcaster
}

func NewService(store Store, occurrences events.Store, groups group.Store, m metrics.Metrics, b Broadcaster) *Service {
	return &Service{store: store, occurrences: occurrences, groups: groups, metrics: m, broadcaster: b}
}

func (s *Service) Store() Store { return s.store }

// SetAttendance records the player's status for the occurrence. Calling it
// again with the same status leaves a single unchanged row.
func (s *Service) SetAttendance(ctx context.Context, id auth.Identity, occurrenceID, playerID string, status Status, source Source) (*Attendance, error) {
	if _, err := uuid.Parse(occurrenceID); err != nil {
		return nil, apperr.Validation("invalid occurrence id")
	}
	if _, err := uuid.Parse(playerID); err != nil {
		return nil, apperr.Validation("invalid player id")
	}
	if !status.Valid() {
		return nil, apperr.Validation("invalid attendance status %q", status)
	}
	if source == "" {
		source = SourceWeb
	}
	if !source.Valid() {
		return nil, apperr.Validation("invalid attendance source %q", source)
	}

	occ, err := s.occurrences.GetOccurrence(ctx, nil, occurrenceID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireMember(ctx, s.groups, id, occ.GroupID); err != nil {
		return nil, err
	}
	player, err := s.groups.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player.GroupID != occ.GroupID {
		return nil, apperr.Validation("player does not belong to this group")
	}
	if source != SourceWeb && !id.System {
		role, err := s.groups.MemberRole(ctx, occ.GroupID, id.UserID)
		if err != nil {
			return nil, err
		}
		// Only owners may tag an update as coming from another channel.
		if role != group.RoleOwner {
			source = SourceWeb
		}
	}
	if occ.Status.Terminal() && status == StatusConfirmed {
		return nil, apperr.Conflict("occurrence is %s and no longer accepts confirmations", occ.Status)
	}

	saved, err := s.store.Upsert(ctx, Attendance{
		OccurrenceID: occurrenceID,
		GroupID:      occ.GroupID,
		PlayerID:     playerID,
		Status:       status,
		Source:       source,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncAttendanceUpdates(string(status))
	log.Info("Attendance updated", "occurrence", occurrenceID, "player", playerID, "status", status, "by", id)

	if s.broadcaster != nil {
		if summary, err := s.summary(ctx, occurrenceID); err != nil {
			log.Warn("Could not build attendance summary for broadcast", "occurrence", occurrenceID, "error", err)
		} else {
			s.broadcaster.Broadcast(occurrenceID, summary)
		}
	}
	return saved, nil
}

// Summary returns the attendance projection for an occurrence.
func (s *Service) Summary(ctx context.Context, id auth.Identity, occurrenceID string) (*Summary, error) {
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
	return s.summary(ctx, occurrenceID)
}

func (s *Service) summary(ctx context.Context, occurrenceID string) (*Summary, error) {
	capacity, err := s.store.Capacity(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListForOccurrence(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	summary := Summarize(occurrenceID, capacity, rows)
	return &summary, nil
}
