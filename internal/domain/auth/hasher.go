package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/yanqian/userauth/pkg/errors"
)

const argon2Algorithm = "argon2id"

// PasswordHasher turns plaintext passwords into storable hashes and back.
type PasswordHasher interface {
	// Hash produces a salted, keyed argon2id hash in PHC string format.
	Hash(ctx context.Context, password string) (string, error)

	// Verify returns (true, nil) on match, (false, nil) on mismatch and an
	// error when the stored hash cannot be parsed or hashing is interrupted.
	Verify(ctx context.Context, password, encodedHash string) (bool, error)
}

// Rehasher is implemented by hashers that can tell when a stored hash was
// produced with outdated cost parameters.
type Rehasher interface {
	NeedsRehash(encodedHash string) bool
}

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params follows the OWASP recommendation for argon2id.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// HasherConfig configures the Argon2Hasher.
type HasherConfig struct {
	Params Argon2Params
	// Concurrency bounds how many derivations run at once.
	Concurrency int
}

// Argon2Hasher implements PasswordHasher with argon2id over an HMAC-SHA256
// pre-hash keyed by the hash key, so a leaked users table alone does not
// allow an offline dictionary attack.
type Argon2Hasher struct {
	params  Argon2Params
	key     *Secret
	permits *semaphore.Weighted
	rand    io.Reader
}

// NewArgon2Hasher builds a hasher bound to the hash key in secrets.
func NewArgon2Hasher(secrets *Secrets, cfg HasherConfig) *Argon2Hasher {
	params := cfg.Params
	if params == (Argon2Params{}) {
		params = DefaultArgon2Params()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Argon2Hasher{
		params:  params,
		key:     secrets.HashKey(),
		permits: semaphore.NewWeighted(int64(concurrency)),
		rand:    rand.Reader,
	}
}

// Hash produces an argon2id hash of the password with a fresh random salt.
func (h *Argon2Hasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", apperrors.Wrap(CodeHashingFailed, "failed to generate salt", err)
	}
	derived, err := h.derive(ctx, password, salt, h.params)
	if err != nil {
		return "", err
	}
	// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Algorithm,
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(derived),
	), nil
}

// Verify checks the password against an encoded hash in constant time.
func (h *Argon2Hasher) Verify(ctx context.Context, password, encodedHash string) (bool, error) {
	params, salt, expected, decodeErr := decodeArgon2Hash(encodedHash)
	if decodeErr != nil {
		// Spend the same work as a real comparison before reporting.
		params = h.params
		salt = make([]byte, params.SaltLength)
		expected = make([]byte, params.KeyLength)
	}
	computed, err := h.derive(ctx, password, salt, params)
	if err != nil {
		return false, err
	}
	match := subtle.ConstantTimeCompare(computed, expected) == 1
	if decodeErr != nil {
		return false, apperrors.Wrap(CodeInvalidHash, "stored password hash is malformed", decodeErr)
	}
	return match, nil
}

// NeedsRehash reports whether the hash was produced with other parameters.
// It implements Rehasher.
func (h *Argon2Hasher) NeedsRehash(encodedHash string) bool {
	params, _, _, err := decodeArgon2Hash(encodedHash)
	if err != nil {
		return true
	}
	return params.Memory != h.params.Memory ||
		params.Iterations != h.params.Iterations ||
		params.Parallelism != h.params.Parallelism ||
		params.KeyLength != h.params.KeyLength
}

func (h *Argon2Hasher) derive(ctx context.Context, password string, salt []byte, params Argon2Params) ([]byte, error) {
	if err := h.permits.Acquire(ctx, 1); err != nil {
		return nil, apperrors.Wrap(CodeHashingFailed, "interrupted while waiting for hashing permit", err)
	}
	defer h.permits.Release(1)

	mac := hmac.New(sha256.New, h.key.bytes())
	mac.Write([]byte(password))
	peppered := mac.Sum(nil)
	return argon2.IDKey(peppered, salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength), nil
}

func decodeArgon2Hash(encodedHash string) (Argon2Params, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return Argon2Params{}, nil, nil, fmt.Errorf("invalid hash format")
	}
	if parts[1] != argon2Algorithm {
		return Argon2Params{}, nil, nil, fmt.Errorf("unsupported hash algorithm: %s", parts[1])
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Argon2Params{}, nil, nil, err
	}
	if version != argon2.Version {
		return Argon2Params{}, nil, nil, fmt.Errorf("incompatible argon2 version %d", version)
	}
	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return Argon2Params{}, nil, nil, err
	}
	if threads == 0 || threads > 255 || iterations == 0 || memory == 0 {
		return Argon2Params{}, nil, nil, fmt.Errorf("invalid argon2 parameters")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, nil, err
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Argon2Params{}, nil, nil, err
	}
	if len(salt) == 0 || len(hash) == 0 || len(hash) > 1<<10 {
		return Argon2Params{}, nil, nil, fmt.Errorf("invalid salt or key length")
	}
	return Argon2Params{
		Memory:      memory,
		Iterations:  iterations,
		Parallelism: uint8(threads),
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(hash)),
	}, salt, hash, nil
}

var (
	_ PasswordHasher = (*Argon2Hasher)(nil)
	_ Rehasher       = (*Argon2Hasher)(nil)
)
