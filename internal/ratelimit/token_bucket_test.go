package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoo-app/scoo-api/internal/config"
)

func newBucket(t *testing.T, capacity int) (*TokenBucket, *miniredis.Miniredis, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	bucket := NewTokenBucket(client, config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillInterval: 10 * time.Second,
		TTL:            time.Minute,
		Prefix:         "rl:login",
	})
	bucket.now = func() time.Time { return now }
	return bucket, mr, &now
}

func TestTokenBucketExhaustsAndRefills(t *testing.T) {
	bucket, _, now := newBucket(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := bucket.Take(ctx, "ip", "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "take %d", i)
		assert.Equal(t, int64(2-i), d.Remaining)
	}

	d, err := bucket.Take(ctx, "ip", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 10*time.Second, d.RetryAfter)
	assert.Equal(t, 10, d.RetryAfterSeconds())

	*now = now.Add(4 * time.Second)
	d, err = bucket.Take(ctx, "ip", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 6*time.Second, d.RetryAfter)

	*now = now.Add(6 * time.Second)
	d, err = bucket.Take(ctx, "ip", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestTokenBucketKeysAreIndependent(t *testing.T) {
	bucket, mr, _ := newBucket(t, 1)
	ctx := context.Background()

	d, err := bucket.Take(ctx, "ip", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = bucket.Take(ctx, "ip", "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	assert.True(t, mr.Exists("rl:login:ip:10.0.0.1"))
	assert.True(t, mr.Exists("rl:login:ip:10.0.0.2"))
	assert.Equal(t, time.Minute, mr.TTL("rl:login:ip:10.0.0.1"))
}

func TestTokenBucketRedisDown(t *testing.T) {
	bucket, mr, _ := newBucket(t, 1)
	mr.Close()

	_, err := bucket.Take(context.Background(), "ip", "10.0.0.1")
	assert.Error(t, err)
}
