package auth

import (
	"context"

	"github.com/google/uuid"
)

// RequestContext carries what an inbound request presents for identity
// resolution: the bearer token and the directory handle injected by the
// transport.
type RequestContext struct {
	BearerToken string
	Directory   UserDirectory
}

// Identity is a verified caller together with a ready-to-use directory.
type Identity struct {
	UserID    uuid.UUID
	Directory UserDirectory
}

// Resolver binds a request to a verified identity. It either fully succeeds
// or returns ErrNotAuthorized.
type Resolver interface {
	Resolve(ctx context.Context, req RequestContext) (Identity, error)
}

type tokenResolver struct {
	tokens TokenValidator
}

// NewResolver builds a Resolver validating bearer tokens with tokens.
func NewResolver(tokens TokenValidator) Resolver {
	return &tokenResolver{tokens: tokens}
}

func (r *tokenResolver) Resolve(ctx context.Context, req RequestContext) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, ErrNotAuthorized
	}
	if req.Directory == nil || req.BearerToken == "" {
		return Identity{}, ErrNotAuthorized
	}
	userID, err := r.tokens.Validate(req.BearerToken)
	if err != nil {
		return Identity{}, ErrNotAuthorized
	}
	return Identity{UserID: userID, Directory: req.Directory}, nil
}
