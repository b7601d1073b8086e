// Package auth carries the caller identity through every data access and
// action call, and checks group membership explicitly.
package auth

import (
	"context"
	"fmt"

	"github.com/mauv0809/padel-weekly/internal/apperr"
)

// Identity is the caller of an operation. The zero value is anonymous.
type Identity struct {
	UserID string
	// System identities are used by the scheduler and queue workers and
	// bypass membership checks.
	System bool
}

// System returns the identity used for background work.
func System() Identity { return Identity{UserID: "system", System: true} }

// User returns the identity of an authenticated user.
func User(id string) Identity { return Identity{UserID: id} }

// Authenticated reports whether a user or system identity is present.
func (i Identity) Authenticated() bool { return i.System || i.UserID != "" }

func (i Identity) String() string {
	if i.System {
		return "system"
	}
	if i.UserID == "" {
		return "anonymous"
	}
	return i.UserID
}

// MembershipChecker resolves group membership.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// Require fails with an unauthenticated error for anonymous identities.
func Require(id Identity) error {
	if !id.Authenticated() {
		return apperr.Unauthenticated()
	}
	return nil
}

// RequireMember checks that id belongs to groupID.
func RequireMember(ctx context.Context, checker MembershipChecker, id Identity, groupID string) error {
	if err := Require(id); err != nil {
		return err
	}
	if id.System {
		return nil
	}
	ok, err := checker.IsMember(ctx, groupID, id.UserID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !ok {
		return apperr.NotMember()
	}
	return nil
}

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored in ctx, or the anonymous identity.
func FromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Identity{}
	}
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}
