package auth

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/userauth/pkg/errors"
	"github.com/yanqian/userauth/pkg/util"
)

// TokenConfig drives token issuance.
type TokenConfig struct {
	TTL    time.Duration
	Issuer string
}

// AuthToken is a signed bearer token together with its expiry.
type AuthToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenIssuer issues signed tokens bound to a user id.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (AuthToken, error)
}

// TokenValidator resolves a token back to the user id it was issued for.
type TokenValidator interface {
	Validate(token string) (uuid.UUID, error)
}

// TokenService issues and validates HS256 JWTs. Validity is a function of
// the token, the clock and the signing key only; nothing is stored.
type TokenService struct {
	cfg    TokenConfig
	key    *Secret
	now    util.Clock
	logger *slog.Logger
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for iat/exp and expiry checks.
func WithClock(clock util.Clock) TokenOption {
	return func(s *TokenService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewTokenService constructs a TokenService signing with secrets.SigningKey().
func NewTokenService(secrets *Secrets, cfg TokenConfig, logger *slog.Logger, opts ...TokenOption) *TokenService {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	s := &TokenService{
		cfg:    cfg,
		key:    secrets.SigningKey(),
		now:    util.NowUTC,
		logger: logger.With("component", "auth.tokens"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for userID that expires after the configured TTL.
func (s *TokenService) Issue(userID uuid.UUID) (AuthToken, error) {
	key := s.key.bytes()
	if len(key) == 0 {
		return AuthToken{}, apperrors.Wrap(CodeTokenError, "signing key is not configured", nil)
	}
	now := s.now()
	expiresAt := now.Add(s.cfg.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   userID.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return AuthToken{}, apperrors.Wrap(CodeTokenError, "failed to sign token", err)
	}
	return AuthToken{Value: signed, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Validate verifies signature, algorithm, issuer and expiry. Every failure
// returns ErrNotAuthorized; the underlying reason is only logged.
func (s *TokenService) Validate(token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrNotAuthorized
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
		jwt.WithStrictDecoding(),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return s.key.bytes(), nil
	}, opts...)
	if err != nil || !parsed.Valid {
		s.logger.Debug("token rejected", "error", err)
		return uuid.Nil, ErrNotAuthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		s.logger.Debug("token rejected", "error", "invalid subject")
		return uuid.Nil, ErrNotAuthorized
	}
	return userID, nil
}

var (
	_ TokenIssuer    = (*TokenService)(nil)
	_ TokenValidator = (*TokenService)(nil)
)
