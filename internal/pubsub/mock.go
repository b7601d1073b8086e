package pubsub

import (
	"context"
	"sync"

	"github.com/mauv0809/padel-weekly/internal/tasks"
)

// MockPubSubClient is a mock implementation of PubSubClient for testing.
// It is safe for concurrent use.
type MockPubSubClient struct {
	mu sync.Mutex

	// Spies for method calls
	SendMessageFunc func(t tasks.Task) error

	// Call records
	SendMessageCalls    []tasks.Task
	ProcessMessageCalls [][]byte
	Closed              bool
}

// NewMock creates a new mock PubSubClient.
func NewMock() *MockPubSubClient {
	return &MockPubSubClient{}
}

// Reset clears all call records.
func (m *MockPubSubClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMessageCalls = nil
	m.ProcessMessageCalls = nil
}

// SendMessage records the call and executes the mock function if provided.
func (m *MockPubSubClient) SendMessage(_ context.Context, t tasks.Task) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMessageCalls = append(m.SendMessageCalls, t)
	if m.SendMessageFunc != nil {
		if err := m.SendMessageFunc(t); err != nil {
			return "", err
		}
	}
	return "mock-server-id", nil
}

// ProcessMessage records the call and decodes with the real codec.
func (m *MockPubSubClient) ProcessMessage(data []byte) (tasks.Task, error) {
	m.mu.Lock()
	m.ProcessMessageCalls = append(m.ProcessMessageCalls, data)
	m.mu.Unlock()
	return Decode(data)
}

func (m *MockPubSubClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
}
