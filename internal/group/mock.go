package group

import (
	"context"
	"sync"
)

// MockStore is a mock implementation of Store for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	CreateGroupFunc          func(ctx context.Context, name, slug string) (*Group, error)
	GetGroupFunc             func(ctx context.Context, id string) (*Group, error)
	GetGroupBySlugFunc       func(ctx context.Context, slug string) (*Group, error)
	ListGroupsFunc           func(ctx context.Context) ([]Group, error)
	AddMemberFunc            func(ctx context.Context, groupID, userID string, role Role) error
	IsMemberFunc             func(ctx context.Context, groupID, userID string) (bool, error)
	MemberRoleFunc           func(ctx context.Context, groupID, userID string) (Role, error)
	AddPlayerFunc            func(ctx context.Context, groupID string, p NewPlayer) (*Player, error)
	UpdatePlayerStatusFunc   func(ctx context.Context, groupID, playerID string, status PlayerStatus) error
	LinkPlaytomicFunc        func(ctx context.Context, groupID, playerID, playtomicID string) error
	GetPlayerFunc            func(ctx context.Context, playerID string) (*Player, error)
	ListPlayersFunc          func(ctx context.Context, groupID string, status PlayerStatus) ([]Player, error)
	PlayersByPlaytomicIDFunc func(ctx context.Context, groupID string) (map[string]Player, error)

	IsMemberCalls  []struct{ GroupID, UserID string }
	AddPlayerCalls []NewPlayer
}

func NewMock() *MockStore {
	return &MockStore{}
}

func (m *MockStore) CreateGroup(ctx context.Context, name, slug string) (*Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateGroupFunc != nil {
		return m.CreateGroupFunc(ctx, name, slug)
	}
	return &Group{ID: slug, Name: name, Slug: slug}, nil
}

func (m *MockStore) GetGroup(ctx context.Context, id string) (*Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetGroupFunc != nil {
		return m.GetGroupFunc(ctx, id)
	}
	return &Group{ID: id}, nil
}

func (m *MockStore) GetGroupBySlug(ctx context.Context, slug string) (*Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetGroupBySlugFunc != nil {
		return m.GetGroupBySlugFunc(ctx, slug)
	}
	return &Group{ID: slug, Slug: slug}, nil
}

func (m *MockStore) ListGroups(ctx context.Context) ([]Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListGroupsFunc != nil {
		return m.ListGroupsFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) AddMember(ctx context.Context, groupID, userID string, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddMemberFunc != nil {
		return m.AddMemberFunc(ctx, groupID, userID, role)
	}
	return nil
}

// IsMember defaults to true so tests only configure it when checking
// authorization.
func (m *MockStore) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IsMemberCalls = append(m.IsMemberCalls, struct{ GroupID, UserID string }{groupID, userID})
	if m.IsMemberFunc != nil {
		return m.IsMemberFunc(ctx, groupID, userID)
	}
	return true, nil
}

// MemberRole defaults to RoleMember.
func (m *MockStore) MemberRole(ctx context.Context, groupID, userID string) (Role, error) {
	if m.MemberRoleFunc != nil {
		return m.MemberRoleFunc(ctx, groupID, userID)
	}
	return RoleMember, nil
}

func (m *MockStore) AddPlayer(ctx context.Context, groupID string, p NewPlayer) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddPlayerCalls = append(m.AddPlayerCalls, p)
	if m.AddPlayerFunc != nil {
		return m.AddPlayerFunc(ctx, groupID, p)
	}
	return &Player{ID: "player-" + p.Name, GroupID: groupID, Name: p.Name, Status: p.Status}, nil
}

func (m *MockStore) UpdatePlayerStatus(ctx context.Context, groupID, playerID string, status PlayerStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdatePlayerStatusFunc != nil {
		return m.UpdatePlayerStatusFunc(ctx, groupID, playerID, status)
	}
	return nil
}

func (m *MockStore) LinkPlaytomic(ctx context.Context, groupID, playerID, playtomicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LinkPlaytomicFunc != nil {
		return m.LinkPlaytomicFunc(ctx, groupID, playerID, playtomicID)
	}
	return nil
}

func (m *MockStore) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetPlayerFunc != nil {
		return m.GetPlayerFunc(ctx, playerID)
	}
	return &Player{ID: playerID}, nil
}

func (m *MockStore) ListPlayers(ctx context.Context, groupID string, status PlayerStatus) ([]Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListPlayersFunc != nil {
		return m.ListPlayersFunc(ctx, groupID, status)
	}
	return nil, nil
}

func (m *MockStore) PlayersByPlaytomicID(ctx context.Context, groupID string) (map[string]Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PlayersByPlaytomicIDFunc != nil {
		return m.PlayersByPlaytomicIDFunc(ctx, groupID)
	}
	return map[string]Player{}, nil
}

// Reset clears all recorded calls.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IsMemberCalls = nil
	m.AddPlayerCalls = nil
}
