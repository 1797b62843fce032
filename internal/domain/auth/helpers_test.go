package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func newTestSecrets(t *testing.T) *Secrets {
	t.Helper()
	secrets, err := NewSecrets("test-hash-key", "test-signing-key")
	require.NoError(t, err)
	return secrets
}

// fastParams keeps argon2 cheap enough for unit tests.
func fastParams() Argon2Params {
	return Argon2Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func newTestHasher(t *testing.T, secrets *Secrets) *Argon2Hasher {
	t.Helper()
	return NewArgon2Hasher(secrets, HasherConfig{Params: fastParams(), Concurrency: 2})
}

type memoryRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]User
	err   error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[uuid.UUID]User)}
}

func (m *memoryRepo) Insert(_ context.Context, record UserRecord) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return User{}, m.err
	}
	for _, user := range m.users {
		if user.Username == record.Username || user.Email == record.Email {
			return User{}, ErrUserExists
		}
	}
	user := User{
		ID:           uuid.New(),
		Username:     record.Username,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryRepo) GetByUsername(_ context.Context, username string) (User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return User{}, false, m.err
	}
	for _, user := range m.users {
		if user.Username == username {
			return user, true, nil
		}
	}
	return User{}, false, nil
}

func (m *memoryRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	user, ok := m.users[id]
	if !ok {
		return errors.New("user not found")
	}
	user.PasswordHash = hash
	m.users[id] = user
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return User{}, false, m.err
	}
	user, ok := m.users[id]
	return user, ok, nil
}
