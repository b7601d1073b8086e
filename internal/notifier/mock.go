package notifier

import (
	"context"
	"sync"

	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/stats"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	TeamsAnnouncedCalls []struct {
		Match  *matches.Summary
		DryRun bool
	}
	ResultRecordedCalls []struct {
		Match  *matches.Summary
		DryRun bool
	}
	WeeklyRankingCalls []struct {
		Group   string
		Ranking []stats.RankingEntry
	}

	// Err is returned by every call when set.
	Err error
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) TeamsAnnounced(_ context.Context, match *matches.Summary, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TeamsAnnouncedCalls = append(m.TeamsAnnouncedCalls, struct {
		Match  *matches.Summary
		DryRun bool
	}{match, dryRun})
	return m.Err
}

func (m *Mock) ResultRecorded(_ context.Context, match *matches.Summary, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResultRecordedCalls = append(m.ResultRecordedCalls, struct {
		Match  *matches.Summary
		DryRun bool
	}{match, dryRun})
	return m.Err
}

func (m *Mock) WeeklyRanking(_ context.Context, groupName string, ranking []stats.RankingEntry, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WeeklyRankingCalls = append(m.WeeklyRankingCalls, struct {
		Group   string
		Ranking []stats.RankingEntry
	}{groupName, ranking})
	return m.Err
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TeamsAnnouncedCalls = nil
	m.ResultRecordedCalls = nil
	m.WeeklyRankingCalls = nil
	m.Err = nil
}
