package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feligres/feligres/app/store/enums"
)

func TestStore_Users(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	u := User{Email: " Admin@Example.com ", PasswordHash: "hash1", FullName: "Admin", Role: enums.RoleAdmin}
	require.NoError(t, s.CreateUser(ctx, &u))
	assert.Equal(t, "admin@example.com", u.Email)

	dup := User{Email: "admin@example.com", PasswordHash: "x", Role: enums.RoleUser}
	assert.ErrorIs(t, s.CreateUser(ctx, &dup), ErrDuplicate)

	got, err := s.GetUserByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.IsAdmin())
	assert.Equal(t, "hash1", got.PasswordHash)

	t.Run("update keeps password when empty", func(t *testing.T) {
		upd := User{ID: u.ID, FullName: "Administrador", Role: enums.RoleUser}
		require.NoError(t, s.UpdateUser(ctx, &upd))
		got, err := s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Administrador", got.FullName)
		assert.Equal(t, enums.RoleUser, got.Role)
		assert.Equal(t, "hash1", got.PasswordHash)
	})

	t.Run("update password", func(t *testing.T) {
		sede, err := s.UpsertSede(ctx, "Central", "")
		require.NoError(t, err)
		upd := User{ID: u.ID, FullName: "Admin", Role: enums.RoleAdmin, PasswordHash: "hash2", SedeID: sede.ID}
		require.NoError(t, s.UpdateUser(ctx, &upd))
		got, err := s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash2", got.PasswordHash)
		assert.Equal(t, sede.ID, got.SedeID)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := s.GetUser(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.UpdateUser(ctx, &User{ID: "nope", Role: enums.RoleUser}), ErrNotFound)
	})

	other := User{Email: "b@example.com", PasswordHash: "x", Role: enums.RoleUser}
	require.NoError(t, s.CreateUser(ctx, &other))
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "admin@example.com", users[0].Email)

	count, err = s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
