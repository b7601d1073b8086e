package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		OccurrencesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "padel_occurrences_generated_total",
			Help: "The total number of event occurrences created by the generator.",
		}),
		AttendanceUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "padel_attendance_updates_total",
			Help: "The total number of attendance writes, by status.",
		}, []string{"status"}),
		MatchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "padel_matches_created_total",
			Help: "The total number of matches created or linked from occurrences.",
		}),
		ResultsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "padel_results_recorded_total",
			Help: "The total number of match results recorded.",
		}),
		SideEffects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "padel_side_effects_total",
			Help: "Best-effort side effects by kind and outcome.",
		}, []string{"kind", "outcome"}),
		SideEffectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "padel_side_effect_duration_seconds",
			Help:    "The duration of individual side effect runs.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		NotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "padel_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		NotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "padel_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "padel_scheduled_job_runs_total",
			Help: "Scheduled job runs by job and outcome.",
		}, []string{"job", "outcome"}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "padel_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.OccurrencesGenerated,
		s.AttendanceUpdates,
		s.MatchesCreated,
		s.ResultsRecorded,
		s.SideEffects,
		s.SideEffectDuration,
		s.NotifSent,
		s.NotifFailed,
		s.JobRuns,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) AddOccurrencesGenerated(n int) {
	s.OccurrencesGenerated.Add(float64(n))
}

func (s *Service) IncAttendanceUpdates(status string) {
	s.AttendanceUpdates.WithLabelValues(status).Inc()
}

func (s *Service) IncMatchesCreated() {
	s.MatchesCreated.Inc()
}

func (s *Service) IncResultsRecorded() {
	s.ResultsRecorded.Inc()
}

func (s *Service) IncSideEffect(kind, outcome string) {
	s.SideEffects.WithLabelValues(kind, outcome).Inc()
}

func (s *Service) ObserveSideEffectDuration(duration float64) {
	s.SideEffectDuration.Observe(duration)
}

func (s *Service) IncNotifSent() {
	s.NotifSent.Inc()
}

func (s *Service) IncNotifFailed() {
	s.NotifFailed.Inc()
}

func (s *Service) IncJobRuns(job, outcome string) {
	s.JobRuns.WithLabelValues(job, outcome).Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
