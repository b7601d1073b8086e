package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	AddOccurrencesGenerated(n int)
	IncAttendanceUpdates(status string)
	IncMatchesCreated()
	IncResultsRecorded()
	IncSideEffect(kind, outcome string)
	ObserveSideEffectDuration(duration float64)
	IncNotifSent()
	IncNotifFailed()
	IncJobRuns(job, outcome string)
	SetStartupTime(duration float64)
}

// Outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)
