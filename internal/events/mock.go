package events

import (
	"context"
	"sync"
	"time"

	"github.com/mauv0809/padel-weekly/internal/database"
)

// MockStore is a mock implementation of Store for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	CreateWeeklyEventFunc       func(ctx context.Context, groupID string, in NewWeeklyEvent) (*WeeklyEvent, error)
	GetWeeklyEventFunc          func(ctx context.Context, id string) (*WeeklyEvent, error)
	ListWeeklyEventsFunc        func(ctx context.Context, groupID string) ([]WeeklyEvent, error)
	ListActiveWeeklyEventsFunc  func(ctx context.Context) ([]WeeklyEvent, error)
	SetActiveFunc               func(ctx context.Context, id string, active bool) error
	InsertOccurrencesFunc       func(ctx context.Context, event *WeeklyEvent, startsAt []time.Time) (int, error)
	RefreshActiveOccurrenceFunc func(ctx context.Context, eventID string, now time.Time) error
	GetOccurrenceFunc           func(ctx context.Context, q database.DBTX, id string) (*Occurrence, error)
	ListOccurrencesFunc         func(ctx context.Context, groupID string, from, to time.Time) ([]Occurrence, error)
	ListLinkableFunc            func(ctx context.Context, q database.DBTX, groupID string, from, to time.Time) ([]Occurrence, error)
	UpdateStatusFunc            func(ctx context.Context, id string, to Status, from ...Status) (bool, error)
	LinkMatchFunc               func(ctx context.Context, q database.DBTX, occurrenceID, matchID string) error
	SetBookingFunc              func(ctx context.Context, occurrenceID string, b Booking) error

	InsertOccurrencesCalls [][]time.Time
	UpdateStatusCalls      []struct {
		ID string
		To Status
	}
	SetBookingCalls []struct {
		OccurrenceID string
		Booking      Booking
	}
}

func NewMock() *MockStore {
	return &MockStore{}
}

func (m *MockStore) CreateWeeklyEvent(ctx context.Context, groupID string, in NewWeeklyEvent) (*WeeklyEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateWeeklyEventFunc != nil {
		return m.CreateWeeklyEventFunc(ctx, groupID, in)
	}
	return &WeeklyEvent{GroupID: groupID, Name: in.Name, Weekday: in.Weekday, StartTime: in.StartTime, Capacity: in.Capacity, IsActive: true}, nil
}

func (m *MockStore) GetWeeklyEvent(ctx context.Context, id string) (*WeeklyEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetWeeklyEventFunc != nil {
		return m.GetWeeklyEventFunc(ctx, id)
	}
	return &WeeklyEvent{ID: id, Capacity: 4, StartTime: "20:00", IsActive: true}, nil
}

func (m *MockStore) ListWeeklyEvents(ctx context.Context, groupID string) ([]WeeklyEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListWeeklyEventsFunc != nil {
		return m.ListWeeklyEventsFunc(ctx, groupID)
	}
	return nil, nil
}

func (m *MockStore) ListActiveWeeklyEvents(ctx context.Context) ([]WeeklyEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListActiveWeeklyEventsFunc != nil {
		return m.ListActiveWeeklyEventsFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active)
	}
	return nil
}

func (m *MockStore) InsertOccurrences(ctx context.Context, event *WeeklyEvent, startsAt []time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertOccurrencesCalls = append(m.InsertOccurrencesCalls, startsAt)
	if m.InsertOccurrencesFunc != nil {
		return m.InsertOccurrencesFunc(ctx, event, startsAt)
	}
	return len(startsAt), nil
}

func (m *MockStore) RefreshActiveOccurrence(ctx context.Context, eventID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RefreshActiveOccurrenceFunc != nil {
		return m.RefreshActiveOccurrenceFunc(ctx, eventID, now)
	}
	return nil
}

func (m *MockStore) GetOccurrence(ctx context.Context, q database.DBTX, id string) (*Occurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetOccurrenceFunc != nil {
		return m.GetOccurrenceFunc(ctx, q, id)
	}
	return &Occurrence{ID: id, Status: StatusOpen}, nil
}

func (m *MockStore) ListOccurrences(ctx context.Context, groupID string, from, to time.Time) ([]Occurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListOccurrencesFunc != nil {
		return m.ListOccurrencesFunc(ctx, groupID, from, to)
	}
	return nil, nil
}

func (m *MockStore) ListLinkable(ctx context.Context, q database.DBTX, groupID string, from, to time.Time) ([]Occurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListLinkableFunc != nil {
		return m.ListLinkableFunc(ctx, q, groupID, from, to)
	}
	return nil, nil
}

func (m *MockStore) UpdateStatus(ctx context.Context, id string, to Status, from ...Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateStatusCalls = append(m.UpdateStatusCalls, struct {
		ID string
		To Status
	}{id, to})
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, to, from...)
	}
	return true, nil
}

func (m *MockStore) LinkMatch(ctx context.Context, q database.DBTX, occurrenceID, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LinkMatchFunc != nil {
		return m.LinkMatchFunc(ctx, q, occurrenceID, matchID)
	}
	return nil
}

func (m *MockStore) SetBooking(ctx context.Context, occurrenceID string, b Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetBookingCalls = append(m.SetBookingCalls, struct {
		OccurrenceID string
		Booking      Booking
	}{occurrenceID, b})
	if m.SetBookingFunc != nil {
		return m.SetBookingFunc(ctx, occurrenceID, b)
	}
	return nil
}

// Reset clears all recorded calls.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertOccurrencesCalls = nil
	m.UpdateStatusCalls = nil
	m.SetBookingCalls = nil
}
