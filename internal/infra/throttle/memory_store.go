package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/userauth/internal/domain/auth"
	"github.com/yanqian/userauth/pkg/util"
)

// Config bounds the failures allowed for one key inside a window.
type Config struct {
	MaxFailures int
	Window      time.Duration
}

type failureWindow struct {
	count     int
	expiresAt time.Time
}

// MemoryStore is an in-process login throttle for tests/dev.
type MemoryStore struct {
	mu      sync.Mutex
	cfg     Config
	windows map[string]failureWindow
	now     util.Clock
}

// NewMemoryStore constructs a throttle backed by process memory.
func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{
		cfg:     cfg,
		windows: make(map[string]failureWindow),
		now:     util.NowUTC,
	}
}

// Allowed implements auth.LoginThrottle.
func (s *MemoryStore) Allowed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.current(key)
	if !ok {
		return true, nil
	}
	return w.count < s.cfg.MaxFailures, nil
}

// RecordFailure opens a window on the first failure and counts within it.
func (s *MemoryStore) RecordFailure(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.current(key)
	if !ok {
		w = failureWindow{expiresAt: s.now().Add(s.cfg.Window)}
	}
	w.count++
	s.windows[key] = w
	return nil
}

// Reset drops the window for key.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.windows, key)
	s.mu.Unlock()
	return nil
}

// current must be called with mu held.
func (s *MemoryStore) current(key string) (failureWindow, bool) {
	w, ok := s.windows[key]
	if !ok {
		return failureWindow{}, false
	}
	if !s.now().Before(w.expiresAt) {
		delete(s.windows, key)
		return failureWindow{}, false
	}
	return w, true
}

var _ auth.LoginThrottle = (*MemoryStore)(nil)
