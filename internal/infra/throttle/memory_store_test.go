package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RefusesAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Config{MaxFailures: 2, Window: time.Minute})

	allowed, err := store.Allowed(ctx, "alice")
	require.NoError(t, err)
	require.True(t, allowed)

	require.NoError(t, store.RecordFailure(ctx, "alice"))
	allowed, _ = store.Allowed(ctx, "alice")
	require.True(t, allowed)

	require.NoError(t, store.RecordFailure(ctx, "alice"))
	allowed, _ = store.Allowed(ctx, "alice")
	require.False(t, allowed)

	allowed, _ = store.Allowed(ctx, "bob")
	require.True(t, allowed, "keys are independent")
}

func TestMemoryStore_WindowExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(Config{MaxFailures: 1, Window: time.Minute})
	store.now = func() time.Time { return now }

	require.NoError(t, store.RecordFailure(ctx, "alice"))
	allowed, _ := store.Allowed(ctx, "alice")
	require.False(t, allowed)

	now = now.Add(time.Minute)
	allowed, _ = store.Allowed(ctx, "alice")
	require.True(t, allowed)
}

func TestMemoryStore_ResetClearsFailures(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Config{MaxFailures: 1, Window: time.Minute})

	require.NoError(t, store.RecordFailure(ctx, "alice"))
	require.NoError(t, store.Reset(ctx, "alice"))

	allowed, err := store.Allowed(ctx, "alice")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestWindowSeconds(t *testing.T) {
	require.Equal(t, int64(1), windowSeconds(200*time.Millisecond))
	require.Equal(t, int64(900), windowSeconds(15*time.Minute))
}
