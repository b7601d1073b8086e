package group

import "time"

// Group is the tenant boundary; every other entity belongs to one group.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// PlayerStatus separates regulars from guests.
type PlayerStatus string

const (
	PlayerUsual  PlayerStatus = "usual"
	PlayerInvite PlayerStatus = "invite"
)

func (s PlayerStatus) Valid() bool {
	return s == PlayerUsual || s == PlayerInvite
}

type Player struct {
	ID          string       `json:"id"`
	GroupID     string       `json:"group_id"`
	Name        string       `json:"name"`
	Status      PlayerStatus `json:"status"`
	UserID      string       `json:"user_id,omitempty"`
	PlaytomicID string       `json:"playtomic_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewPlayer is the input for AddPlayer.
type NewPlayer struct {
	Name        string       `json:"name" validate:"required,max=80"`
	Status      PlayerStatus `json:"status" validate:"omitempty,oneof=usual invite"`
	UserID      string       `json:"user_id,omitempty"`
	PlaytomicID string       `json:"playtomic_id,omitempty"`
}
