package group

import "context"

// Store manages groups, their members and their players.
type Store interface {
	CreateGroup(ctx context.Context, name, slug string) (*Group, error)
	GetGroup(ctx context.Context, id string) (*Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	AddMember(ctx context.Context, groupID, userID string, role Role) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	// MemberRole returns an empty role for non-members.
	MemberRole(ctx context.Context, groupID, userID string) (Role, error)
	AddPlayer(ctx context.Context, groupID string, p NewPlayer) (*Player, error)
	UpdatePlayerStatus(ctx context.Context, groupID, playerID string, status PlayerStatus) error
	LinkPlaytomic(ctx context.Context, groupID, playerID, playtomicID string) error
	GetPlayer(ctx context.Context, playerID string) (*Player, error)
	ListPlayers(ctx context.Context, groupID string, status PlayerStatus) ([]Player, error)
	PlayersByPlaytomicID(ctx context.Context, groupID string) (map[string]Player, error)
}
