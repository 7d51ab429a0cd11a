package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateAndGetUser(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	username := fmt.Sprintf("testuser-%d", time.Now().UnixNano())
	err := store.CreateUser(ctx, User{
		Username:     username,
		PasswordHash: "$2a$10$fakehash",
		Role:         "user",
	})
	require.NoError(t, err)

	got, err := store.GetUser(ctx, username)
	require.NoError(t, err)
	require.Equal(t, username, got.Username)
	require.Equal(t, "$2a$10$fakehash", got.PasswordHash)
	require.Equal(t, "user", got.Role)
	require.False(t, got.CreatedAt.IsZero())

	// Повторная регистрация — ErrUserExists
	err = store.CreateUser(ctx, User{Username: username, PasswordHash: "x", Role: "user"})
	require.ErrorIs(t, err, ErrUserExists)
}

func TestGetUserMissing(t *testing.T) {
	store := testStorage(t)

	_, err := store.GetUser(context.Background(), "no-such-user")
	require.ErrorIs(t, err, ErrUserNotFound)
}
