package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/metrics"
)

const insufficientPermissionMessage = "insufficient permission to generate occurrences for this event"

// Service applies authorization and lifecycle rules on top of the Store.
type Service struct {
	store   Store
	members auth.MembershipChecker
	metrics metrics.Metrics
	loc     *time.Location
	now     func() time.Time
}

func NewService(store Store, members auth.MembershipChecker, m metrics.Metrics, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, members: members, metrics: m, loc: loc, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Store() Store { return s.store }

func (s *Service) CreateWeeklyEvent(ctx context.Context, id auth.Identity, groupID string, in NewWeeklyEvent) (*WeeklyEvent, error) {
	if err := auth.RequireMember(ctx, s.members, id, groupID); err != nil {
		return nil, err
	}
	return s.store.CreateWeeklyEvent(ctx, groupID, in)
}

// GenerateOccurrences creates up to weeksAhead future occurrences for the
// event and returns how many were actually created. Repeated calls never
// duplicate an occurrence.
func (s *Service) GenerateOccurrences(ctx context.Context, id auth.Identity, eventID string, weeksAhead int) (int, error) {
	if err := validateID(eventID, "event"); err != nil {
		return 0, err
	}
	if err := ValidateWeeksAhead(weeksAhead); err != nil {
		return 0, err
	}
	ev, err := s.store.GetWeeklyEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if err := auth.RequireMember(ctx, s.members, id, ev.GroupID); err != nil {
		if errors.Is(err, apperr.ErrForbidden) {
			return 0, apperr.InsufficientPermission(insufficientPermissionMessage, err)
		}
		return 0, err
	}

	now := s.now()
	dates, err := NextOccurrences(ev.Weekday, ev.StartTime, weeksAhead, now, s.loc)
	if err != nil {
		return 0, err
	}
	created, err := s.store.InsertOccurrences(ctx, ev, dates)
	if err != nil {
		if isPermissionDenied(err) {
			return 0, apperr.InsufficientPermission(insufficientPermissionMessage, err)
		}
		return 0, fmt.Errorf("failed to generate occurrences: %w", err)
	}
	if err := s.store.RefreshActiveOccurrence(ctx, ev.ID, now); err != nil {
		log.Warn("Could not refresh active occurrence", "event", ev.ID, "error", err)
	}
	s.metrics.AddOccurrencesGenerated(created)
	log.Info("Generated occurrences", "event", ev.ID, "weeks", weeksAhead, "candidates", len(dates), "created", created)
	return created, nil
}

// GenerateAll runs the generator for every active weekly event. Failures are
// logged per event and counted in the returned error.
func (s *Service) GenerateAll(ctx context.Context, weeksAhead int) (int, error) {
	evs, err := s.store.ListActiveWeeklyEvents(ctx)
	if err != nil {
		return 0, err
	}
	total, failed := 0, 0
	for _, ev := range evs {
		n, err := s.GenerateOccurrences(ctx, auth.System(), ev.ID, weeksAhead)
		if err != nil {
			failed++
			log.Error("Failed to generate occurrences", "event", ev.ID, "error", err)
			continue
		}
		total += n
	}
	if failed > 0 {
		return total, fmt.Errorf("%d of %d events failed", failed, len(evs))
	}
	return total, nil
}

// Occurrence loads an occurrence after checking the caller belongs to its
// group.
func (s *Service) Occurrence(ctx context.Context, id auth.Identity, occurrenceID string) (*Occurrence, error) {
	if err := validateID(occurrenceID, "occurrence"); err != nil {
		return nil, err
	}
	occ, err := s.store.GetOccurrence(ctx, nil, occurrenceID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireMember(ctx, s.members, id, occ.GroupID); err != nil {
		return nil, err
	}
	return occ, nil
}

// Lock moves an open occurrence to locked.
func (s *Service) Lock(ctx context.Context, id auth.Identity, occurrenceID string) (*Occurrence, error) {
	return s.transition(ctx, id, occurrenceID, StatusLocked, StatusOpen)
}

// Cancel records that the occurrence did not happen.
func (s *Service) Cancel(ctx context.Context, id auth.Identity, occurrenceID string) (*Occurrence, error) {
	return s.transition(ctx, id, occurrenceID, StatusCancelled, StatusOpen, StatusLocked)
}

// MarkCompleted records that the occurrence was played.
func (s *Service) MarkCompleted(ctx context.Context, id auth.Identity, occurrenceID string) (*Occurrence, error) {
	return s.transition(ctx, id, occurrenceID, StatusCompleted, StatusOpen, StatusLocked)
}

func (s *Service) transition(ctx context.Context, id auth.Identity, occurrenceID string, to Status, from ...Status) (*Occurrence, error) {
	occ, err := s.Occurrence(ctx, id, occurrenceID)
	if err != nil {
		return nil, err
	}
	if occ.Status.Terminal() {
		return nil, apperr.Conflict("occurrence is already %s", occ.Status)
	}
	changed, err := s.store.UpdateStatus(ctx, occurrenceID, to, from...)
	if err != nil {
		return nil, err
	}
	if !changed {
		// The status moved between the read and the update.
		current, err := s.store.GetOccurrence(ctx, nil, occurrenceID)
		if err != nil {
			return nil, err
		}
		return nil, apperr.Conflict("cannot move occurrence from %s to %s", current.Status, to)
	}
	if err := s.store.RefreshActiveOccurrence(ctx, occ.WeeklyEventID, s.now()); err != nil {
		log.Warn("Could not refresh active occurrence", "event", occ.WeeklyEventID, "error", err)
	}
	log.Info("Occurrence status changed", "occurrence", occurrenceID, "from", occ.Status, "to", to, "by", id)
	occ.Status = to
	return occ, nil
}

func validateID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("invalid %s id", what)
	}
	return nil
}

// isPermissionDenied recognises permission failures reported by the
// database driver.
func isPermissionDenied(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"permission denied", "not authorized", "readonly database", "sqlite_auth", "42501"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
