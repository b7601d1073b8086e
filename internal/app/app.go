// Package app wires stores, services and side effect backends from a
// Config. The server, the CLI and the seeder share it.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/inngest/inngestgo"
	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/config"
	"github.com/mauv0809/padel-weekly/internal/database"
	"github.com/mauv0809/padel-weekly/internal/demo"
	"github.com/mauv0809/padel-weekly/internal/elo"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/gamification"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/inngest"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/metrics"
	"github.com/mauv0809/padel-weekly/internal/notifier"
	slacknotifier "github.com/mauv0809/padel-weekly/internal/notifier/slack"
	"github.com/mauv0809/padel-weekly/internal/playtomic"
	"github.com/mauv0809/padel-weekly/internal/processor"
	"github.com/mauv0809/padel-weekly/internal/pubsub"
	"github.com/mauv0809/padel-weekly/internal/realtime"
	"github.com/mauv0809/padel-weekly/internal/scheduler"
	"github.com/mauv0809/padel-weekly/internal/stats"
	"github.com/mauv0809/padel-weekly/internal/tasks"
	"github.com/mauv0809/padel-weekly/internal/teams"
	"github.com/mauv0809/padel-weekly/internal/views"
	"github.com/prometheus/client_golang/prometheus"
)

// QueueSize bounds the local side effect queue.
const QueueSize = 256

// Options tune Build for short-lived processes.
type Options struct {
	// InlineSideEffects runs tasks in the caller instead of a backend.
	InlineSideEffects bool
	// Registerer receives the Prometheus collectors; nil uses the default.
	Registerer prometheus.Registerer
}

// App holds everything a process may need. In demo mode only Views, Demo,
// Metrics and Notifier are set.
type App struct {
	Cfg     config.Config
	DB      *sql.DB
	Metrics *metrics.Service

	Groups       *group.Service
	Events       *events.Service
	Attendance   *attendance.Service
	Teams        *teams.Service
	Matches      *matches.Service
	Stats        *stats.Service
	Gamification *gamification.Service

	Demo      *demo.Reader
	Views     views.Router
	Notifier  notifier.Notifier
	Processor *processor.Processor
	// Queue is set when side effects run on local workers.
	Queue *processor.LocalQueue
	// Inngest serves the Inngest function endpoint when that backend is used.
	Inngest   http.Handler
	Bookings  *playtomic.Syncer
	Hub       *realtime.Hub
	Scheduler *scheduler.Service

	closers []func()
}

// Close releases backends in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// DemoMode reports whether the app runs without persistence.
func (a *App) DemoMode() bool { return a.DB == nil }

func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	loc := cfg.Location()
	a := &App{Cfg: cfg}
	if opts.Registerer != nil {
		a.Metrics = metrics.NewService(opts.Registerer)
	} else {
		a.Metrics = metrics.NewService()
	}

	reader, err := demo.New(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to load demo data: %w", err)
	}
	a.Demo = reader
	a.Views = views.Router{DemoSlug: demo.Slug}

	if cfg.SlackEnabled() {
		a.Notifier = slacknotifier.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, a.Metrics, loc)
	} else {
		log.Info("Slack is not configured, notifications are disabled")
		a.Notifier = notifier.Noop{}
	}

	if cfg.DemoMode() {
		a.Views.Demo = reader
		log.Warn("No database configured, serving the read-only demo group", "slug", demo.Slug)
		return a, nil
	}

	start := time.Now()
	db, teardown, err := database.InitDB(cfg.DBPath, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken, cfg.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("Database initialization time recorded", "duration_ms", time.Since(start).Milliseconds())
	a.DB = db
	a.closers = append(a.closers, teardown)

	if err := a.wireServices(loc); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.wireSideEffects(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.wireScheduler(loc); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wireServices(loc *time.Location) error {
	groups := group.New(a.DB)
	occurrences := events.New(a.DB)
	rows := attendance.New(a.DB)
	ratings := elo.New(a.DB)
	badges := gamification.New(a.DB)

	a.Hub = realtime.NewHub(a.Cfg.CORSOrigins)
	a.Groups = group.NewService(groups)
	a.Events = events.NewService(occurrences, groups, a.Metrics, loc)
	a.Attendance = attendance.NewService(rows, occurrences, groups, a.Metrics, a.Hub)
	a.Teams = teams.NewService(occurrences, rows, groups, ratings)
	// The dispatcher is set once the side effect backend exists.
	a.Matches = matches.NewService(a.DB, matches.Deps{
		Matches:     matches.New(a.DB),
		Occurrences: occurrences,
		Attendance:  rows,
		Groups:      groups,
		Ratings:     ratings,
		Metrics:     a.Metrics,
		Location:    loc,
	})
	a.Stats = stats.NewService(stats.New(a.DB), ratings, groups, badges)
	a.Gamification = gamification.NewService(badges, groups, ratings, loc)

	a.Views.Live = views.NewService(views.Deps{
		Groups:       groups,
		Events:       a.Events,
		Attendance:   a.Attendance,
		Matches:      a.Matches,
		Stats:        a.Stats,
		Gamification: a.Gamification,
	})
	a.Processor = processor.New(a.Stats, a.Gamification, a.Matches, a.Notifier, a.Metrics)

	if a.Cfg.PlaytomicEnabled() {
		a.Bookings = playtomic.NewSyncer(playtomic.NewClient(a.Cfg.Playtomic.Timeout), groups, occurrences, a.Cfg.Playtomic.TenantID)
	}
	return nil
}

func (a *App) wireSideEffects(ctx context.Context, opts Options) error {
	var dispatcher tasks.Dispatcher
	backend := a.Cfg.SideEffects.Backend
	if opts.InlineSideEffects {
		backend = "inline"
	}
	switch backend {
	case "inline":
		dispatcher = processor.Inline{Runner: a.Processor}
	case config.BackendPubSub:
		client, err := pubsub.New(ctx, a.Cfg.ProjectID, a.Cfg.SideEffects.Topic)
		if err != nil {
			return fmt.Errorf("failed to create pubsub client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		dispatcher = pubsub.NewDispatcher(client, a.Metrics)
	case config.BackendInngest:
		dev := a.Cfg.Inngest.Dev
		client, err := inngestgo.NewClient(inngestgo.ClientOpts{
			AppID:      a.Cfg.Inngest.AppID,
			SigningKey: &a.Cfg.Inngest.SigningKey,
			EventKey:   &a.Cfg.Inngest.EventKey,
			Dev:        &dev,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize inngest: %w", err)
		}
		ic, err := inngest.New(client, a.Processor)
		if err != nil {
			return err
		}
		a.Inngest = ic.Serve()
		dispatcher = inngest.NewDispatcher(ic, a.Metrics)
	default:
		a.Queue = processor.NewLocalQueue(a.Processor, a.Metrics, QueueSize, a.Cfg.SideEffects.Workers)
		dispatcher = a.Queue
	}
	log.Info("Side effects configured", "backend", backend)
	a.Matches.Dispatcher = dispatcher
	return nil
}

func (a *App) wireScheduler(loc *time.Location) error {
	if !a.Cfg.Scheduler.Enabled {
		return nil
	}
	s, err := scheduler.New(loc, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	jobs := scheduler.Jobs{
		Groups:      a.Groups.Store(),
		Occurrences: a.Events,
		Challenges:  a.Gamification,
		Ranking:     a.Stats,
		WeeksAhead:  a.Cfg.WeeksAhead,
		DryRun:      a.Cfg.DryRun,
	}
	if a.Bookings != nil {
		jobs.Bookings = a.Bookings
	}
	if a.Cfg.SlackEnabled() {
		jobs.Notifier = a.Notifier
	}
	if err := s.Register(jobs); err != nil {
		return err
	}
	a.Scheduler = s
	return nil
}
