package auth

import apperrors "github.com/yanqian/userauth/pkg/errors"

// Error codes shared by the auth domain and the transports mapping it.
const (
	CodeConfig             = "config_error"
	CodeInvalidInput       = "invalid_input"
	CodeHashingFailed      = "hashing_failed"
	CodeInvalidHash        = "invalid_hash"
	CodeUserExists         = "user_exists"
	CodePersistence        = "persistence_error"
	CodePoolExhausted      = "pool_exhausted"
	CodeInvalidCredentials = "invalid_credentials"
	CodeTooManyAttempts    = "too_many_attempts"
	CodeNotAuthorized      = "not_authorized"
	CodeTokenError         = "token_error"
)

var (
	// ErrNotAuthorized is returned for every identity resolution failure.
	// Its message is the only one exposed verbatim to callers.
	ErrNotAuthorized = apperrors.New(CodeNotAuthorized, "not authorized")

	// ErrUserExists indicates a duplicate username or email.
	ErrUserExists = apperrors.New(CodeUserExists, "username or email already registered")

	// ErrPoolExhausted is raised when no database connection became available
	// within the configured wait.
	ErrPoolExhausted = apperrors.New(CodePoolExhausted, "database connection pool exhausted")

	// ErrEmptyPassword is returned when attempting to hash an empty password.
	ErrEmptyPassword = apperrors.New(CodeInvalidInput, "password cannot be empty")
)
