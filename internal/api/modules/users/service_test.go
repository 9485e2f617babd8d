package users

import (
	"context"
	"testing"

	"github.com/blackai-app/backend/internal/stores/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to the user role", func(t *testing.T) {
		svc := NewService(user.NewInMemoryStore())

		created, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "password", "")
		require.NoError(t, err)
		assert.Equal(t, user.RoleUser, created.Role)
		assert.True(t, created.MatchPassword("password"))
		assert.NotEqual(t, uuid.Nil, created.ID)
	})

	t.Run("keeps an explicit role", func(t *testing.T) {
		svc := NewService(user.NewInMemoryStore())

		created, err := svc.CreateUser(ctx, "Root", "root@example.com", "password", user.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, user.RoleAdmin, created.Role)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := NewService(user.NewInMemoryStore())

		_, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "password", "")
		require.NoError(t, err)

		_, err = svc.CreateUser(ctx, "Other", "alice@example.com", "password", "")
		assert.ErrorIs(t, err, user.ErrEmailTaken)
	})
}

func TestSetBlocked(t *testing.T) {
	ctx := context.Background()

	store := user.NewInMemoryStore()
	svc := NewService(store)

	created, err := svc.CreateUser(ctx, "Bob", "bob@example.com", "password", "")
	require.NoError(t, err)

	updated, err := svc.SetBlocked(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsBlocked)

	stored, err := store.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsBlocked)

	updated, err = svc.SetBlocked(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsBlocked)

	_, err = svc.SetBlocked(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()

	store := user.NewInMemoryStore()
	svc := NewService(store)

	created, err := svc.CreateUser(ctx, "Carol", "carol@example.com", "password", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, created.ID))

	_, err = store.GetUser(ctx, created.ID)
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	assert.ErrorIs(t, svc.DeleteUser(ctx, created.ID), user.ErrUserNotFound)
}
