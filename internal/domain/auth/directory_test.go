package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/userauth/pkg/errors"
)

func TestDirectory_RegisterAndVerifyScenario(t *testing.T) {
	ctx := context.Background()
	hasher := newTestHasher(t, newTestSecrets(t))
	directory := NewDirectory(newMemoryRepo(), hasher)

	user, err := directory.Create(ctx, NewUser{Username: "alice", Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)
	require.NotEmpty(t, user.PasswordHash)
	require.NotEqual(t, "correct-horse", user.PasswordHash)

	found, ok, err := directory.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, user.ID, found.ID)

	match, err := hasher.Verify(ctx, "correct-horse", found.PasswordHash)
	require.NoError(t, err)
	require.True(t, match)

	match, err = hasher.Verify(ctx, "wrong-password", found.PasswordHash)
	require.NoError(t, err)
	require.False(t, match)

	byID, ok, err := directory.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice@example.com", byID.Email)
}

func TestDirectory_DuplicateUsernameKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	directory := NewDirectory(newMemoryRepo(), newTestHasher(t, newTestSecrets(t)))

	original, err := directory.Create(ctx, NewUser{Username: "alice", Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = directory.Create(ctx, NewUser{Username: "alice", Email: "other@example.com", Password: "battery-staple"})
	require.ErrorIs(t, err, ErrUserExists)

	stored, ok, err := directory.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, original, stored)
}

func TestDirectory_LookupMissReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	directory := NewDirectory(newMemoryRepo(), newTestHasher(t, newTestSecrets(t)))

	_, ok, err := directory.FindByUsername(ctx, "nobody")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = directory.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDirectory_ClassifiesRepositoryFailures(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	directory := NewDirectory(repo, newTestHasher(t, newTestSecrets(t)))

	repo.err = errors.New("connection reset")
	_, _, err := directory.FindByUsername(ctx, "alice")
	require.True(t, apperrors.IsCode(err, CodePersistence))

	repo.err = ErrPoolExhausted
	_, err = directory.Create(ctx, NewUser{Username: "alice", Email: "alice@example.com", Password: "correct-horse"})
	require.ErrorIs(t, err, ErrPoolExhausted)
}

type failingHasher struct{}

func (failingHasher) Hash(context.Context, string) (string, error) {
	return "", apperrors.Wrap(CodeHashingFailed, "failed to generate salt", errors.New("entropy exhausted"))
}

func (failingHasher) Verify(context.Context, string, string) (bool, error) { return false, nil }

func TestDirectory_HashingFailureStoresNothing(t *testing.T) {
	repo := newMemoryRepo()
	directory := NewDirectory(repo, failingHasher{})

	_, err := directory.Create(context.Background(), NewUser{Username: "alice", Email: "alice@example.com", Password: "correct-horse"})
	require.True(t, apperrors.IsCode(err, CodeHashingFailed))
	require.Empty(t, repo.users)
}

func TestDirectory_UpgradePassword(t *testing.T) {
	ctx := context.Background()
	secrets := newTestSecrets(t)
	hasher := newTestHasher(t, secrets)
	repo := newMemoryRepo()
	directory := NewDirectory(repo, hasher)

	user, err := directory.Create(ctx, NewUser{Username: "alice", Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, directory.UpgradePassword(ctx, user.ID, "correct-horse"))
	stored := repo.users[user.ID].PasswordHash
	require.NotEqual(t, user.PasswordHash, stored)
	ok, err := hasher.Verify(ctx, "correct-horse", stored)
	require.NoError(t, err)
	require.True(t, ok)

	repo.err = errors.New("connection reset")
	err = directory.UpgradePassword(ctx, user.ID, "correct-horse")
	require.True(t, apperrors.IsCode(err, CodePersistence))
}
