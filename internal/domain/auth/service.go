package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	apperrors "github.com/yanqian/userauth/pkg/errors"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 8
	maxPasswordLen = 128
)

// Service exposes authentication workflows.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (UserView, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Profile(ctx context.Context, identity Identity) (UserView, error)
}

type service struct {
	directory UserDirectory
	hasher    PasswordHasher
	tokens    TokenIssuer
	throttle  LoginThrottle
	logger    *slog.Logger

	// dummyHash is verified against when the username is unknown so that
	// login latency does not reveal which usernames exist.
	dummyHash string
}

// NewService constructs a Service instance.
func NewService(directory UserDirectory, hasher PasswordHasher, tokens TokenIssuer, throttle LoginThrottle, logger *slog.Logger) (Service, error) {
	if throttle == nil {
		throttle = NewNoopThrottle()
	}
	dummy, err := hasher.Hash(context.Background(), "userauth-timing-equalizer")
	if err != nil {
		return nil, err
	}
	return &service{
		directory: directory,
		hasher:    hasher,
		tokens:    tokens,
		throttle:  throttle,
		logger:    logger.With("component", "auth.service"),
		dummyHash: dummy,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (UserView, error) {
	username, err := normalizeUsername(req.Username)
	if err != nil {
		return UserView{}, apperrors.Wrap(CodeInvalidInput, err.Error(), nil)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return UserView{}, apperrors.Wrap(CodeInvalidInput, "invalid email address", err)
	}
	if err := validatePassword(req.Password); err != nil {
		return UserView{}, apperrors.Wrap(CodeInvalidInput, err.Error(), nil)
	}
	user, err := s.directory.Create(ctx, NewUser{Username: username, Email: email, Password: req.Password})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return UserView{}, err
		}
		s.logger.Error("user registration failed", "username", username, "error", err)
		return UserView{}, err
	}
	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return toView(user), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	username, err := normalizeUsername(req.Username)
	if err != nil || req.Password == "" {
		return LoginResponse{}, apperrors.Wrap(CodeInvalidCredentials, "invalid username or password", nil)
	}
	allowed, err := s.throttle.Allowed(ctx, username)
	if err != nil {
		s.logger.Warn("login throttle unavailable", "error", err)
	} else if !allowed {
		return LoginResponse{}, apperrors.Wrap(CodeTooManyAttempts, "too many failed login attempts", nil)
	}

	user, found, err := s.directory.FindByUsername(ctx, username)
	if err != nil {
		return LoginResponse{}, err
	}
	hash := s.dummyHash
	if found {
		hash = user.PasswordHash
	}
	ok, err := s.hasher.Verify(ctx, req.Password, hash)
	if err != nil {
		s.logger.Error("password verification failed", "user_id", user.ID, "error", err)
		return LoginResponse{}, err
	}
	if !found || !ok {
		if err := s.throttle.RecordFailure(ctx, username); err != nil {
			s.logger.Warn("failed to record login failure", "error", err)
		}
		return LoginResponse{}, apperrors.Wrap(CodeInvalidCredentials, "invalid username or password", nil)
	}
	if err := s.throttle.Reset(ctx, username); err != nil {
		s.logger.Warn("failed to reset login throttle", "error", err)
	}
	if rehasher, ok := s.hasher.(Rehasher); ok && rehasher.NeedsRehash(user.PasswordHash) {
		// the login still succeeds if the upgrade fails; the next one retries
		if err := s.directory.UpgradePassword(ctx, user.ID, req.Password); err != nil {
			s.logger.Warn("password hash upgrade failed", "user_id", user.ID, "error", err)
		}
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{Token: token.Value, ExpiresAt: token.ExpiresAt, User: toView(user)}, nil
}

func (s *service) Profile(ctx context.Context, identity Identity) (UserView, error) {
	if identity.Directory == nil {
		return UserView{}, ErrNotAuthorized
	}
	user, found, err := identity.Directory.FindByID(ctx, identity.UserID)
	if err != nil {
		return UserView{}, err
	}
	if !found {
		// The token outlived its user.
		return UserView{}, ErrNotAuthorized
	}
	return toView(user), nil
}

func normalizeUsername(raw string) (string, error) {
	username := strings.ToLower(strings.TrimSpace(raw))
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
		default:
			return "", errors.New("username may only contain letters, digits, '.', '_' and '-'")
		}
	}
	return username, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", err
	}
	if addr.Address != email {
		return "", errors.New("email must be a bare address")
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("password cannot exceed %d characters", maxPasswordLen)
	}
	return nil
}
