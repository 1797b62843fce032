package auth

import (
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/userauth/pkg/errors"
)

const redacted = "[REDACTED]"

// Secret wraps long-lived key material. Every formatting and encoding path
// renders it as [REDACTED]; the bytes are only reachable inside this package.
type Secret struct {
	value []byte
}

func newSecret(raw string) *Secret {
	return &Secret{value: []byte(raw)}
}

func (s *Secret) bytes() []byte {
	if s == nil {
		return nil
	}
	return s.value
}

// String implements fmt.Stringer.
func (s *Secret) String() string { return redacted }

// GoString implements fmt.GoStringer.
func (s *Secret) GoString() string { return redacted }

// Format implements fmt.Formatter so that no verb (%x, %q, %+v...) leaks the bytes.
func (s *Secret) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(redacted))
}

// MarshalJSON implements json.Marshaler.
func (s *Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// MarshalText implements encoding.TextMarshaler.
func (s *Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// LogValue implements slog.LogValuer.
func (s *Secret) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// Secrets holds the password hash key and the token signing key. It is
// immutable after construction and safe to share between goroutines; copying
// it copies two pointers.
type Secrets struct {
	hashKey    *Secret
	signingKey *Secret
}

// NewSecrets wraps the two configured secrets. Both must be non-blank.
func NewSecrets(hashKey, signingKey string) (*Secrets, error) {
	if strings.TrimSpace(hashKey) == "" {
		return nil, apperrors.Wrap(CodeConfig, "hash key is not configured", nil)
	}
	if strings.TrimSpace(signingKey) == "" {
		return nil, apperrors.Wrap(CodeConfig, "signing key is not configured", nil)
	}
	return &Secrets{hashKey: newSecret(hashKey), signingKey: newSecret(signingKey)}, nil
}

// HashKey returns the keyed input for password hashing.
func (s *Secrets) HashKey() *Secret { return s.hashKey }

// SigningKey returns the token signing key.
func (s *Secrets) SigningKey() *Secret { return s.signingKey }

// LogValue implements slog.LogValuer.
func (s *Secrets) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("hashKey", redacted),
		slog.String("signingKey", redacted),
	)
}
