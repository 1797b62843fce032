package auth

import (
	"context"

	"github.com/google/uuid"
)

// Repository abstracts user persistence. Implementations perform exactly one
// round trip per call and translate duplicate keys into ErrUserExists.
type Repository interface {
	Insert(ctx context.Context, record UserRecord) (User, error)
	GetByUsername(ctx context.Context, username string) (User, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, bool, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}
