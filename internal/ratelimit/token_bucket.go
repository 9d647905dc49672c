// Package ratelimit implements a Redis-backed token bucket shared by all
// API instances.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scoo-app/scoo-api/internal/config"
)

// The bucket state lives in one hash per key so refill and take happen in a
// single atomic script run.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
    tokens = capacity
    last_refill = now_ms
end

local elapsed = math.max(0, now_ms - last_refill)
local intervals = math.floor(elapsed / interval_ms)
if intervals > 0 then
    tokens = math.min(capacity, tokens + intervals)
    last_refill = last_refill + (intervals * interval_ms)
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// Decision is the outcome of taking one token.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// TokenBucket takes tokens from per-key buckets refilled one token per
// interval up to capacity.
type TokenBucket struct {
	client redis.Scripter
	cfg    config.RateLimitConfig
	now    func() time.Time
}

// NewTokenBucket builds a limiter over client.
func NewTokenBucket(client redis.Scripter, cfg config.RateLimitConfig) *TokenBucket {
	return &TokenBucket{client: client, cfg: cfg, now: time.Now}
}

// Capacity reports the bucket size.
func (b *TokenBucket) Capacity() int {
	return b.cfg.Capacity
}

// Take removes one token from the bucket identified by parts.
func (b *TokenBucket) Take(ctx context.Context, parts ...string) (Decision, error) {
	key := b.key(parts...)
	vals, err := bucketScript.Run(ctx, b.client, []string{key},
		b.now().UnixMilli(),
		b.cfg.Capacity,
		b.cfg.RefillInterval.Milliseconds(),
		int64(b.cfg.TTL/time.Second),
	).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected script result %#v", key, vals)
	}
	return Decision{
		Allowed:    asInt64(arr[0]) == 1,
		Remaining:  asInt64(arr[1]),
		RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

func (b *TokenBucket) key(parts ...string) string {
	return strings.Join(append([]string{b.cfg.Prefix}, parts...), ":")
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
