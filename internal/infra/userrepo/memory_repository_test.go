package userrepo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/userauth/internal/domain/auth"
)

func TestMemoryRepository_UniqueUsernameAndEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	alice, err := repo.Insert(ctx, auth.UserRecord{Username: "alice", Email: "alice@example.com", PasswordHash: "h1"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, alice.ID)

	_, err = repo.Insert(ctx, auth.UserRecord{Username: "alice", Email: "new@example.com", PasswordHash: "h2"})
	require.ErrorIs(t, err, auth.ErrUserExists)
	_, err = repo.Insert(ctx, auth.UserRecord{Username: "bob", Email: "alice@example.com", PasswordHash: "h3"})
	require.ErrorIs(t, err, auth.ErrUserExists)

	stored, found, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "h1", stored.PasswordHash)

	_, found, err = repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	require.False(t, found)

	byID, found, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, alice, byID)

	require.NoError(t, repo.UpdatePasswordHash(ctx, alice.ID, "h4"))
	stored, _, _ = repo.GetByID(ctx, alice.ID)
	require.Equal(t, "h4", stored.PasswordHash)
	require.Error(t, repo.UpdatePasswordHash(ctx, uuid.New(), "h5"))
}
