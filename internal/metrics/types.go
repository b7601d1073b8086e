package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	OccurrencesGenerated prometheus.Counter
	AttendanceUpdates    *prometheus.CounterVec
	MatchesCreated       prometheus.Counter
	ResultsRecorded      prometheus.Counter
	SideEffects          *prometheus.CounterVec
	SideEffectDuration   prometheus.Histogram
	NotifSent            prometheus.Counter
	NotifFailed          prometheus.Counter
	JobRuns              *prometheus.CounterVec
	StartupTimeSeconds   prometheus.Gauge
}
