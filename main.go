package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/app"
	"github.com/mauv0809/padel-weekly/internal/config"
	server "github.com/mauv0809/padel-weekly/internal/http"
	"github.com/mauv0809/padel-weekly/internal/metrics"
	"golang.org/x/sync/errgroup"
)

func setupLogging(cfg config.Config) {
	if cfg.LogFormat == "text" {
		log.SetFormatter(log.TextFormatter)
	} else {
		log.SetFormatter(log.JSONFormatter)
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn("Unknown log level, using info", "level", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func main() {
	// Start profiling timer
	startTime := time.Now()
	cfg := config.Load()
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatalf("Failed to start: %s", err)
	}
	defer a.Close()

	deps := server.Deps{
		Cfg:            cfg,
		Views:          a.Views,
		Hub:            a.Hub,
		MetricsHandler: metrics.NewMetricsHandler(),
		Inngest:        a.Inngest,
	}
	if !a.DemoMode() {
		deps.DB = a.DB
		deps.Groups = a.Groups
		deps.Events = a.Events
		deps.Attendance = a.Attendance
		deps.Teams = a.Teams
		deps.Matches = a.Matches
		deps.Gamification = a.Gamification
		deps.Runner = a.Processor
		if a.Bookings != nil {
			deps.Bookings = a.Bookings
		}
	}
	s := server.NewServer(deps)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	a.Metrics.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server started", "port", cfg.Port, "demo", a.DemoMode())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if a.Queue != nil {
		g.Go(func() error { return a.Queue.Run(gctx) })
	}
	if a.Scheduler != nil {
		g.Go(func() error { return a.Scheduler.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
			return err
		}
		log.Info("Server gracefully stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Server error", "error", err)
	}
	log.Info("Server process shutting down")
}
