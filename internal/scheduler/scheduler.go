// Package scheduler runs the recurring maintenance jobs on gocron.
package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/metrics"
)

var (
	ErrEmptyJobName  = errors.New("job name is required")
	ErrEmptyCronExpr = errors.New("cron expression is required")
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 5 * time.Minute

// Service wraps a gocron scheduler.
type Service struct {
	scheduler gocron.Scheduler
	metrics   metrics.Metrics
	stopOnce  sync.Once
	stopErr   error
}

// New creates a scheduler evaluating cron expressions in loc.
func New(loc *time.Location, m metrics.Metrics) (*Service, error) {
	if loc == nil {
		loc = time.UTC
	}
	sched, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					m.IncJobRuns(jobName, metrics.OutcomeFailed)
					log.Error("Scheduler job panicked", "job_id", jobID.String(), "job_name", jobName, "panic", recoverData)
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	return &Service{scheduler: sched, metrics: m}, nil
}

// Start begins running scheduled jobs.
func (s *Service) Start() {
	log.Info("Scheduler starting", "jobs", len(s.scheduler.Jobs()))
	s.scheduler.Start()
}

// Stop shuts down the scheduler and waits for running jobs.
func (s *Service) Stop() error {
	s.stopOnce.Do(func() {
		log.Info("Scheduler stopping")
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

// Run starts the scheduler and stops it when ctx is done.
func (s *Service) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	return s.Stop()
}

// AddJob registers a cron-based job. Every run gets its own timeout and is
// counted by outcome.
func (s *Service) AddJob(name, cronExpr string, task func(ctx context.Context) error) (gocron.Job, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyJobName
	}
	if strings.TrimSpace(cronExpr) == "" {
		return nil, ErrEmptyCronExpr
	}

	job, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(s.wrap(name, task)),
		gocron.WithName(name),
	)
	if err != nil {
		log.Error("Failed to register scheduler job", "job_name", name, "cron", cronExpr, "error", err)
		return nil, err
	}
	log.Info("Scheduler job registered", "job_name", name, "cron", cronExpr)
	return job, nil
}

func (s *Service) wrap(name string, task func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		start := time.Now()
		log.Debug("Scheduler job started", "job_name", name)
		if err := task(ctx); err != nil {
			s.metrics.IncJobRuns(name, metrics.OutcomeFailed)
			log.Error("Scheduler job failed", "job_name", name, "error", err)
			return
		}
		s.metrics.IncJobRuns(name, metrics.OutcomeOK)
		log.Debug("Scheduler job completed", "job_name", name, "duration_ms", time.Since(start).Milliseconds())
	}
}
