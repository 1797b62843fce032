package userrepo

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/yanqian/userauth/internal/domain/auth"
	"github.com/yanqian/userauth/pkg/util"
)

// MemoryRepository provides an in-memory user store for tests/dev.
type MemoryRepository struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]auth.User
	usernameIndex map[string]uuid.UUID
	emailIndex    map[string]uuid.UUID
	now           util.Clock
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:         make(map[uuid.UUID]auth.User),
		usernameIndex: make(map[string]uuid.UUID),
		emailIndex:    make(map[string]uuid.UUID),
		now:           util.NowUTC,
	}
}

// Insert stores the user record unless the username or email is taken.
func (r *MemoryRepository) Insert(_ context.Context, record auth.UserRecord) (auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.usernameIndex[record.Username]; exists {
		return auth.User{}, auth.ErrUserExists
	}
	if _, exists := r.emailIndex[record.Email]; exists {
		return auth.User{}, auth.ErrUserExists
	}
	user := auth.User{
		ID:           uuid.New(),
		Username:     record.Username,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		CreatedAt:    r.now(),
	}
	r.users[user.ID] = user
	r.usernameIndex[user.Username] = user.ID
	r.emailIndex[user.Email] = user.ID
	return user, nil
}

// GetByUsername returns a user by username.
func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (auth.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.usernameIndex[username]; ok {
		return r.users[id], true, nil
	}
	return auth.User{}, false, nil
}

// GetByID fetches by ID.
func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (auth.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	return user, ok, nil
}

// UpdatePasswordHash replaces the stored hash.
func (r *MemoryRepository) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s not found", id)
	}
	user.PasswordHash = hash
	r.users[id] = user
	return nil
}

var _ auth.Repository = (*MemoryRepository)(nil)
