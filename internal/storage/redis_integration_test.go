package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LongNgn204/studykit/internal/config"
)

// newIntegrationRedisKV connects to the Redis named by STUDYKIT_TEST_REDIS
// and skips the test when it is unset.
func newIntegrationRedisKV(t *testing.T) *RedisKV {
	t.Helper()

	addr := os.Getenv("STUDYKIT_TEST_REDIS")
	if addr == "" {
		t.Skip("STUDYKIT_TEST_REDIS not set, skipping Redis integration test")
	}

	kv := NewRedisKV(config.RedisConfig{
		Enabled:          true,
		Address:          addr,
		KeyPrefix:        "studykit-test:",
		DefaultTTL:       time.Minute,
		DialTimeout:      2 * time.Second,
		ReadTimeout:      time.Second,
		WriteTimeout:     time.Second,
		MaxPendingWrites: 100,
	}, nil)
	require.True(t, kv.IsAvailable(), "Redis at %s not reachable", addr)

	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestRedisKVIntegration(t *testing.T) {
	ctx := context.Background()

	t.Run("write applied by background worker", func(t *testing.T) {
		kv := newIntegrationRedisKV(t)
		require.NoError(t, kv.SetItem(ctx, "k", "v"))

		// Writes are queued; give the worker a moment.
		assert.Eventually(t, func() bool {
			got, err := kv.GetItem(ctx, "k")
			return err == nil && got == "v"
		}, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("missing key", func(t *testing.T) {
		kv := newIntegrationRedisKV(t)
		_, err := kv.GetItem(ctx, "definitely-absent")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("remove", func(t *testing.T) {
		kv := newIntegrationRedisKV(t)
		require.NoError(t, kv.SetItem(ctx, "doomed", "v"))
		require.Eventually(t, func() bool {
			_, err := kv.GetItem(ctx, "doomed")
			return err == nil
		}, 2*time.Second, 20*time.Millisecond)

		require.NoError(t, kv.RemoveItem(ctx, "doomed"))
		_, err := kv.GetItem(ctx, "doomed")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("keys strips prefix", func(t *testing.T) {
		kv := newIntegrationRedisKV(t)
		require.NoError(t, kv.SetItem(ctx, "scan:a", "1"))
		require.NoError(t, kv.SetItem(ctx, "scan:b", "2"))

		assert.Eventually(t, func() bool {
			keys, err := kv.Keys(ctx, "scan:")
			return err == nil && len(keys) >= 2
		}, 2*time.Second, 20*time.Millisecond)
	})
}

func TestRedisKVDegradedWithoutServer(t *testing.T) {
	// Points at a port nothing listens on; the backend must start degraded
	// instead of failing construction.
	kv := NewRedisKV(config.RedisConfig{
		Address:          "127.0.0.1:1",
		KeyPrefix:        "studykit-test:",
		DialTimeout:      100 * time.Millisecond,
		ReadTimeout:      100 * time.Millisecond,
		WriteTimeout:     100 * time.Millisecond,
		MaxPendingWrites: 4,
	}, nil)
	defer kv.Close()

	assert.False(t, kv.IsAvailable())

	ctx := context.Background()
	_, err := kv.GetItem(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)

	// Writes still queue without blocking or erroring.
	assert.NoError(t, kv.SetItem(ctx, "k", "v"))
}
