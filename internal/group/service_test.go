package group_test

import (
	"context"
	"testing"

	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*group.Service, string) {
	t.Helper()
	store, _ := setupTestDB(t)
	ctx := context.Background()
	g, err := store.CreateGroup(ctx, "Thursday Padel", "thursday-padel")
	require.NoError(t, err)
	require.NoError(t, store.AddMember(ctx, g.ID, "user-1", group.RoleOwner))
	return group.NewService(store), g.ID
}

func TestService_AddPlayer(t *testing.T) {
	svc, groupID := setupService(t)
	ctx := context.Background()
	member := auth.User("user-1")

	p, err := svc.AddPlayer(ctx, member, groupID, group.NewPlayer{Name: " Ana "})
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, group.PlayerUsual, p.Status)

	tests := []struct {
		name string
		id   auth.Identity
		in   group.NewPlayer
		want error
	}{
		{"empty name", member, group.NewPlayer{Name: "  "}, apperr.ErrValidation},
		{"bad status", member, group.NewPlayer{Name: "Bea", Status: "vip"}, apperr.ErrValidation},
		{"anonymous", auth.Identity{}, group.NewPlayer{Name: "Bea"}, apperr.ErrUnauthenticated},
		{"not a member", auth.User("stranger"), group.NewPlayer{Name: "Bea"}, apperr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddPlayer(ctx, tt.id, groupID, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	players, err := svc.Store().ListPlayers(ctx, groupID, "")
	require.NoError(t, err)
	assert.Len(t, players, 1)
}

func TestService_UpdatePlayer(t *testing.T) {
	svc, groupID := setupService(t)
	ctx := context.Background()
	member := auth.User("user-1")

	p, err := svc.AddPlayer(ctx, member, groupID, group.NewPlayer{Name: "Ana"})
	require.NoError(t, err)

	invite := group.PlayerInvite
	ptID := "pt-42"
	updated, err := svc.UpdatePlayer(ctx, member, groupID, p.ID, group.PlayerUpdate{Status: &invite, PlaytomicID: &ptID})
	require.NoError(t, err)
	assert.Equal(t, group.PlayerInvite, updated.Status)
	assert.Equal(t, "pt-42", updated.PlaytomicID)

	empty := ""
	updated, err = svc.UpdatePlayer(ctx, member, groupID, p.ID, group.PlayerUpdate{PlaytomicID: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.PlaytomicID)
	assert.Equal(t, group.PlayerInvite, updated.Status)

	t.Run("invalid id", func(t *testing.T) {
		_, err := svc.UpdatePlayer(ctx, member, groupID, "nope", group.PlayerUpdate{})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
	t.Run("unknown player", func(t *testing.T) {
		_, err := svc.UpdatePlayer(ctx, member, groupID, "6f1c1f4e-6d3e-4a55-9a2b-0d8f1e2c3b4a", group.PlayerUpdate{Status: &invite})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
	t.Run("not a member", func(t *testing.T) {
		_, err := svc.UpdatePlayer(ctx, auth.User("stranger"), groupID, p.ID, group.PlayerUpdate{Status: &invite})
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})
}

func TestService_UsesMockStore(t *testing.T) {
	store := group.NewMock()
	store.IsMemberFunc = func(context.Context, string, string) (bool, error) { return false, nil }
	svc := group.NewService(store)

	_, err := svc.AddPlayer(context.Background(), auth.User("user-1"), "g1", group.NewPlayer{Name: "Ana"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Empty(t, store.AddPlayerCalls)
	assert.Len(t, store.IsMemberCalls, 1)
}
