package http

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/gamification"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/http/handlers"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/teams"
)

type transition string

const (
	transitionLock     transition = "lock"
	transitionCancel   transition = "cancel"
	transitionComplete transition = "complete"
)

// write adapts a mutation into a JSON handler answering status on success.
func write[T any](status int, fn func(w http.ResponseWriter, r *http.Request) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := fn(w, r)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		handlers.WriteJSON(w, status, v)
	}
}

// writableGroup resolves the slug of a mutating request. Demo groups and
// servers without a database are read-only.
func (s *Server) writableGroup(r *http.Request, available bool) (*group.Group, error) {
	slug := slugParam(r)
	if !available || s.Views.IsDemo(slug) {
		return nil, apperr.DemoReadOnly()
	}
	return s.Views.Group(r.Context(), identity(r), slug)
}

// groupOccurrence loads the {id} occurrence and hides it unless it belongs to g.
func (s *Server) groupOccurrence(r *http.Request, g *group.Group) (*events.Occurrence, error) {
	occ, err := s.Events.Occurrence(r.Context(), identity(r), idParam(r))
	if err != nil {
		return nil, err
	}
	if occ.GroupID != g.ID {
		return nil, apperr.NotFound("occurrence %s not found", idParam(r))
	}
	return occ, nil
}

// decodeOptional accepts an empty body and validates dst as given.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.ContentLength == 0 {
		return handlers.Validate(s.validate, dst)
	}
	return handlers.DecodeJSON(w, r, s.validate, dst)
}

func (s *Server) CreateEventHandler() http.HandlerFunc {
	return write(http.StatusCreated, func(w http.ResponseWriter, r *http.Request) (*events.WeeklyEvent, error) {
		g, err := s.writableGroup(r, s.Events != nil)
		if err != nil {
			return nil, err
		}
		var in events.NewWeeklyEvent
		if err := handlers.DecodeJSON(w, r, s.validate, &in); err != nil {
			return nil, err
		}
		return s.Events.CreateWeeklyEvent(r.Context(), identity(r), g.ID, in)
	})
}

func (s *Server) GenerateOccurrencesHandler() http.HandlerFunc {
	return write(http.StatusOK, func(w http.ResponseWriter, r *http.Request) (map[string]int, error) {
		g, err := s.writableGroup(r, s.Events != nil)
		if err != nil {
			return nil, err
		}
		var in generateRequest
		if err := s.decodeOptional(w, r, &in); err != nil {
			return nil, err
		}
		if in.WeeksAhead == 0 {
			in.WeeksAhead = s.Cfg.WeeksAhead
		}
		if _, err := uuid.Parse(idParam(r)); err != nil {
			return nil, apperr.Validation("invalid event id")
		}
		ev, err := s.Events.Store().GetWeeklyEvent(r.Context(), idParam(r))
		if err != nil {
			return nil, err
		}
		if ev.GroupID != g.ID {
			return nil, apperr.NotFound("event %s not found", idParam(r))
		}
		n, err := s.Events.GenerateOccurrences(r.Context(), identity(r), ev.ID, in.WeeksAhead)
		if err != nil {
			return nil, err
		}
		return map[string]int{"created": n}, nil
	})
}

type attendanceResponse struct {
	Attendance *attendance.Attendance `json:"attendance"`
	Summary    *attendance.Summary    `json:"summary"`
}

func (s *Server) SetAttendanceHandler() http.HandlerFunc {
	return write(http.StatusOK, func(w http.ResponseWriter, r *http.Request) (*attendanceResponse, error) {
		g, err := s.writableGroup(r, s.Attendance != nil)
		if err != nil {
			return nil, err
		}
		var in attendanceRequest
		if err := handlers.DecodeJSON(w, r, s.validate, &in); err != nil {
			return nil, err
		}
		occ, err := s.groupOccurrence(r, g)
		if err != nil {
			return nil, err
		}
		if in.Source == "" {
			in.Source = attendance.SourceWeb
		}
		a, err := s.Attendance.SetAttendance(r.Context(), identity(r), occ.ID, in.PlayerID, in.Status, in.Source)
		if err != nil {
			return nil, err
		}
		sum, err := s.Attendance.Summary(r.Context(), identity(r), occ.ID)
		if err != nil {
			return nil, err
		}
		return &attendanceResponse{Attendance: a, Summary: sum}, nil
	})
}

func (s *Server) TransitionHandler(kind transition) http.HandlerFunc {
	return write(http.StatusOK, func(w http.ResponseWriter, r *http.Request) (*transitionResponse, error) {
		g, err := s.writableGroup(r, s.Events != nil)
		if err != nil {
			return nil, err
		}
		var apply func(ctx context.Context, id auth.Identity, occurrenceID string) (*events.Occurrence, error)
		switch kind {
		case transitionLock:
			apply = s.Events.Lock
		case transitionCancel:
			apply = s.Events.Cancel
		case transitionComplete:
			apply = s.Events.MarkCompleted
		default:
			return nil, apperr.Validation("unknown transition %q", kind)
		}
		occ, err := s.groupOccurrence(r, g)
		if err != nil {
			return nil, err
		}
		updated, err := apply(r.Context(), identity(r), occ.ID)
		if err != nil {
			return nil, err
		}
		return &transitionResponse{Occurrence: updated}, nil
	})
}

func (s *Server) BalanceHandler() http.HandlerFunc {
	return write(http.StatusOK, func(w http.ResponseWriter, r *http.Request) (*teams.Proposal, error) {
		g, err := s.writableGroup(r, s.Teams != nil)
		if err != nil {
			return nil, err
		}
		occ, err := s.groupOccurrence(r, g)
		if err != nil {
			return nil, err
		}
		return s.Teams.BalanceForOccurrence(r.Context(), identity(r), occ.ID)
	})
}

// MoveHandler applies a manual adjustment to a proposal the client holds.
// Proposals are not stored, so the client posts its current one back.
func (s *Server) MoveHandler() http.HandlerFunc {
	return write(http.StatusOK, func(w http.ResponseWriter, r *http.Request) (*teams.Proposal, error) {
		g, err := s.writableGroup(r, s.Teams != nil)
		if err != nil {
			return nil, err
		}
		var in moveRequest
		if err := handlers.DecodeJSON(w, r, s.validate, &in); err != nil {
			return nil, err
		}
		occ, err := s.groupOccurrence(r, g)
		if err != nil {
			return nil, err
		}
		if in.Proposal.OccurrenceID != "" && in.Proposal.OccurrenceID != occ.ID {
			return nil, apperr.Validation("proposal belongs to another occurrence")
		}
		if err := in.Proposal.Move(in.PlayerID, in.To); err != nil {
			return nil, err
		}
		return &in.Proposal, nil
	})
}

func (s *Server) CreateMatchHandler() http.HandlerFunc {
	return write(http.StatusCreated, func(w http.ResponseWriter, r *http.Request) (*matches.Created, error) {
		g, err := s.writableGroup(r, s.Matches != nil)
		if err != nil {
			return nil, err
		}
		var in matches.CreateInput
		if err := handlers.DecodeJSON(w, r, s.validate, &in); err != nil {
			return nil, err
		}
		occ, err := s.groupOccurrence(r, g)
		if err != nil {
			return nil, err
		}
		return s.Matches.CreateFromOccurrence(r.Context(), identity(r), occ.ID, in)
	})
}

func (s *Server) LinkMatchHandler() http.HandlerFunc {
	return write(http.StatusOK, func(w http.ResponseWriter, r *http.Request) (*matches.Created, error) {
		g, err := s.writableGroup(r, s.Matches != nil)
		if err != nil {
			return nil, err
		}
		var in linkMatchRequest
		if err := handlers.DecodeJSON(w, r, s.validate, &in); err != nil {
			return nil, err
		}
		occ, err := s.groupOccurrence(r, g)
		if err != nil {
			return nil, err
		}
		return s.Matches.LinkExisting(r.Context(), identity(r), occ.ID, in.MatchID)
	})
}

func (s *Server) RecordResultHandler() http.HandlerFunc {
	return write(http.StatusOK, func(w http.ResponseWriter, r *http.Request) (*matches.Created, error) {
		g, err := s.writableGroup(r, s.Matches != nil)
		if err != nil {
			return nil, err
		}
		var in resultRequest
		if err := handlers.DecodeJSON(w, r, s.validate, &in); err != nil {
			return nil, err
		}
		m, err := s.Matches.Summary(r.Context(), identity(r), idParam(r))
		if err != nil {
			return nil, err
		}
		if m.GroupID != g.ID {
			return nil, apperr.NotFound("match %s not found", idParam(r))
		}
		return s.Matches.RecordResult(r.Context(), identity(r), m.ID, in.Sets)
	})
}

func (s *Server) AddPlayerHandler() http.HandlerFunc {
	return write(http.StatusCreated, func(w http.ResponseWriter, r *http.Request) (*group.Player, error) {
		g, err := s.writableGroup(r, s.Groups != nil)
		if err != nil {
			return nil, err
		}
		var in group.NewPlayer
		if err := handlers.DecodeJSON(w, r, s.validate, &in); err != nil {
			return nil, err
		}
		return s.Groups.AddPlayer(r.Context(), identity(r), g.ID, in)
	})
}

func (s *Server) UpdatePlayerHandler() http.HandlerFunc {
	return write(http.StatusOK, func(w http.ResponseWriter, r *http.Request) (*group.Player, error) {
		g, err := s.writableGroup(r, s.Groups != nil)
		if err != nil {
			return nil, err
		}
		var in group.PlayerUpdate
		if err := handlers.DecodeJSON(w, r, s.validate, &in); err != nil {
			return nil, err
		}
		return s.Groups.UpdatePlayer(r.Context(), identity(r), g.ID, idParam(r), in)
	})
}

type skipWeekResponse struct {
	WeekStart string `json:"week_start"`
	Skipped   bool   `json:"newly_skipped"`
}

// SkipWeekHandler is addressed by group id rather than slug.
func (s *Server) SkipWeekHandler() http.HandlerFunc {
	return write(http.StatusOK, func(w http.ResponseWriter, r *http.Request) (*skipWeekResponse, error) {
		if s.Gamification == nil {
			return nil, apperr.DemoReadOnly()
		}
		var in skipWeekRequest
		if err := s.decodeOptional(w, r, &in); err != nil {
			return nil, err
		}
		loc := s.Cfg.Location()
		week := s.Gamification.CurrentWeek()
		if in.WeekStart != "" {
			parsed, err := time.ParseInLocation(time.DateOnly, in.WeekStart, loc)
			if err != nil {
				return nil, apperr.Validation("week_start must be a date")
			}
			week = parsed
		}
		created, err := s.Gamification.SkipWeek(r.Context(), identity(r), idParam(r), week)
		if err != nil {
			return nil, err
		}
		return &skipWeekResponse{
			WeekStart: gamification.WeekStart(week, loc).Format(time.DateOnly),
			Skipped:   created,
		}, nil
	})
}

func (s *Server) PlaytomicSyncHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Bookings == nil || s.Groups == nil {
			http.Error(w, "Playtomic sync is not configured", http.StatusServiceUnavailable)
			return
		}
		var in syncRequest
		if err := handlers.DecodeJSON(w, r, s.validate, &in); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		if err := auth.RequireMember(r.Context(), s.Groups.Store(), identity(r), in.GroupID); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		res, err := s.Bookings.Sync(r.Context(), in.GroupID)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		log.Info("Playtomic sync finished", "group", in.GroupID, "checked", res.Checked, "linked", res.Linked)
		handlers.WriteJSON(w, http.StatusOK, res)
	}
}
