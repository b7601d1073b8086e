package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/config"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/gamification"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/http/handlers"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/playtomic"
	"github.com/mauv0809/padel-weekly/internal/processor"
	"github.com/mauv0809/padel-weekly/internal/realtime"
	"github.com/mauv0809/padel-weekly/internal/teams"
	"github.com/mauv0809/padel-weekly/internal/views"
)

// BookingSyncer links Playtomic bookings to a group's occurrences.
type BookingSyncer interface {
	Sync(ctx context.Context, groupID string) (playtomic.SyncResult, error)
}

// Deps lists everything the server routes to. Write services are nil in
// demo mode; every write then answers ErrDemoReadOnly.
type Deps struct {
	Cfg            config.Config
	DB             handlers.Pinger
	Views          views.Router
	Groups         *group.Service
	Events         *events.Service
	Attendance     *attendance.Service
	Teams          *teams.Service
	Matches        *matches.Service
	Gamification   *gamification.Service
	Bookings       BookingSyncer
	Runner         processor.Runner
	Hub            *realtime.Hub
	Tokens         *auth.Tokens
	MetricsHandler http.Handler
	Inngest        http.Handler
	Now            func() time.Time
}

type Server struct {
	Deps
	Router   chi.Router
	validate *validator.Validate
}

type attendanceRequest struct {
	PlayerID string            `json:"player_id" validate:"required,uuid"`
	Status   attendance.Status `json:"status" validate:"required,oneof=confirmed declined maybe waitlist"`
	Source   attendance.Source `json:"source,omitempty" validate:"omitempty,oneof=web admin whatsapp"`
}

type generateRequest struct {
	WeeksAhead int `json:"weeks_ahead" validate:"omitempty,min=1,max=52"`
}

type moveRequest struct {
	Proposal teams.Proposal `json:"proposal"`
	PlayerID string         `json:"player_id" validate:"required"`
	To       teams.Side     `json:"to" validate:"required,oneof=a b bench"`
}

type linkMatchRequest struct {
	MatchID string `json:"match_id" validate:"required,uuid"`
}

type resultRequest struct {
	Sets [][2]int `json:"sets" validate:"required,min=1,max=5"`
}

type skipWeekRequest struct {
	// WeekStart is a date (2006-01-02); empty means the current week.
	WeekStart string `json:"week_start,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type syncRequest struct {
	GroupID string `json:"group_id" validate:"required,uuid"`
}

type transitionResponse struct {
	Occurrence *events.Occurrence `json:"occurrence"`
}
