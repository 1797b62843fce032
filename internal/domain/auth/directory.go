package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/userauth/pkg/errors"
)

// UserDirectory creates and looks up users.
type UserDirectory interface {
	Create(ctx context.Context, newUser NewUser) (User, error)
	FindByUsername(ctx context.Context, username string) (User, bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (User, bool, error)
	UpgradePassword(ctx context.Context, id uuid.UUID, password string) error
}

// Directory joins the hashing step and the persistence step. Neither step
// knows about the other, so each can be exercised on its own.
type Directory struct {
	repo   Repository
	hasher PasswordHasher
}

// NewDirectory constructs a Directory.
func NewDirectory(repo Repository, hasher PasswordHasher) *Directory {
	return &Directory{repo: repo, hasher: hasher}
}

// Create hashes the plaintext password and inserts the user atomically.
func (d *Directory) Create(ctx context.Context, newUser NewUser) (User, error) {
	hash, err := d.hasher.Hash(ctx, newUser.Password)
	if err != nil {
		return User{}, err
	}
	user, err := d.repo.Insert(ctx, UserRecord{
		Username:     newUser.Username,
		Email:        newUser.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return User{}, persistenceError("failed to create user", err)
	}
	return user, nil
}

// FindByUsername returns (User{}, false, nil) when no user matches.
func (d *Directory) FindByUsername(ctx context.Context, username string) (User, bool, error) {
	user, found, err := d.repo.GetByUsername(ctx, username)
	if err != nil {
		return User{}, false, persistenceError("failed to look up user", err)
	}
	return user, found, nil
}

// FindByID returns (User{}, false, nil) when no user matches.
func (d *Directory) FindByID(ctx context.Context, id uuid.UUID) (User, bool, error) {
	user, found, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, false, persistenceError("failed to look up user", err)
	}
	return user, found, nil
}

// UpgradePassword re-hashes password with the current parameters and
// replaces the stored hash.
func (d *Directory) UpgradePassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := d.hasher.Hash(ctx, password)
	if err != nil {
		return err
	}
	if err := d.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return persistenceError("failed to update password hash", err)
	}
	return nil
}

// persistenceError keeps classified repository errors as they are and tags
// everything else as a persistence failure.
func persistenceError(message string, err error) error {
	if errors.Is(err, ErrUserExists) || errors.Is(err, ErrPoolExhausted) {
		return err
	}
	return apperrors.Wrap(CodePersistence, message, err)
}

var _ UserDirectory = (*Directory)(nil)
