package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                   sync.Mutex
	occurrencesGenerated int
	attendanceUpdates    map[string]int
	matchesCreated       int
	resultsRecorded      int
	sideEffects          map[string]int
	durations            []float64
	notifSent            int
	notifFailed          int
	jobRuns              map[string]int
	startupTime          float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		attendanceUpdates: make(map[string]int),
		sideEffects:       make(map[string]int),
		jobRuns:           make(map[string]int),
	}
}

func (m *Mock) AddOccurrencesGenerated(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.occurrencesGenerated += n
}

func (m *Mock) IncAttendanceUpdates(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendanceUpdates[status]++
}

func (m *Mock) IncMatchesCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesCreated++
}

func (m *Mock) IncResultsRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultsRecorded++
}

func (m *Mock) IncSideEffect(kind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sideEffects[kind+"/"+outcome]++
}

func (m *Mock) ObserveSideEffectDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = append(m.durations, duration)
}

func (m *Mock) IncNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifSent++
}

func (m *Mock) IncNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifFailed++
}

func (m *Mock) IncJobRuns(job, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobRuns[job+"/"+outcome]++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

func (m *Mock) OccurrencesGenerated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.occurrencesGenerated
}

func (m *Mock) AttendanceUpdates(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attendanceUpdates[status]
}

func (m *Mock) MatchesCreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesCreated
}

func (m *Mock) ResultsRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resultsRecorded
}

// SideEffects returns how often IncSideEffect was called with kind and outcome.
func (m *Mock) SideEffects(kind, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sideEffects[kind+"/"+outcome]
}

func (m *Mock) NotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifSent
}

func (m *Mock) NotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifFailed
}

func (m *Mock) JobRuns(job, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobRuns[job+"/"+outcome]
}
