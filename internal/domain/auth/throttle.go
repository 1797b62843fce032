package auth

import "context"

// LoginThrottle counts failed logins per username.
type LoginThrottle interface {
	// Allowed reports whether another attempt may be made for key.
	Allowed(ctx context.Context, key string) (bool, error)
	// RecordFailure registers one failed attempt for key.
	RecordFailure(ctx context.Context, key string) error
	// Reset clears the failure count after a successful login.
	Reset(ctx context.Context, key string) error
}

type noopThrottle struct{}

// NewNoopThrottle returns a LoginThrottle that never refuses.
func NewNoopThrottle() LoginThrottle { return noopThrottle{} }

func (noopThrottle) Allowed(context.Context, string) (bool, error) { return true, nil }
func (noopThrottle) RecordFailure(context.Context, string) error   { return nil }
func (noopThrottle) Reset(context.Context, string) error           { return nil }
