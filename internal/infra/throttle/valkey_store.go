package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/userauth/internal/domain/auth"
)

// ValkeyStore counts login failures in a Valkey-compatible database so
// the limit holds across replicas.
type ValkeyStore struct {
	client valkey.Client
	cfg    Config
	prefix string
}

// NewValkeyStore constructs a throttle backed by Valkey.
func NewValkeyStore(client valkey.Client, cfg Config, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "login_failures"
	}
	return &ValkeyStore{client: client, cfg: cfg, prefix: prefix}
}

// Allowed implements auth.LoginThrottle.
func (s *ValkeyStore) Allowed(ctx context.Context, key string) (bool, error) {
	count, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(key)).Build()).AsInt64()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return true, nil
		}
		return false, err
	}
	return count < int64(s.cfg.MaxFailures), nil
}

// RecordFailure increments the counter and arms the expiry in one
// MULTI/EXEC so a counter can never outlive its window. EXPIRE NX keeps the
// window fixed from the first failure.
func (s *ValkeyStore) RecordFailure(ctx context.Context, key string) error {
	k := s.key(key)
	resps := s.client.DoMulti(ctx,
		s.client.B().Multi().Build(),
		s.client.B().Incr().Key(k).Build(),
		s.client.B().Expire().Key(k).Seconds(windowSeconds(s.cfg.Window)).Nx().Build(),
		s.client.B().Exec().Build(),
	)
	for _, resp := range resps {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	return nil
}

// Reset deletes the counter for key.
func (s *ValkeyStore) Reset(ctx context.Context, key string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.key(key)).Build()).Error()
}

func (s *ValkeyStore) key(username string) string {
	return fmt.Sprintf("%s:%s", s.prefix, username)
}

func windowSeconds(window time.Duration) int64 {
	if window < time.Second {
		return 1
	}
	return int64(window / time.Second)
}

var _ auth.LoginThrottle = (*ValkeyStore)(nil)
