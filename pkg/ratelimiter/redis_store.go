package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript implements the token bucket atomically in Redis. State is a
// hash of fractional tokens plus the last refill timestamp (unix millis);
// refill, consumption, and the retry-after computation happen server-side so
// multiple processes can share one bucket without races.
var consumeScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local n = tonumber(ARGV[4])
local now = tonumber(ARGV[5])
local fire = tonumber(ARGV[6])
local ttl = tonumber(ARGV[7])

local state = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(state[1])
local last = tonumber(state[2])
if tokens == nil then
  if fire == 1 then tokens = capacity else tokens = 0 end
  last = now
end

local elapsed = now - last
if elapsed > 0 then
  tokens = math.min(tokens + (elapsed / interval) * rate, capacity)
  last = now
end

local allowed = 0
local retry = 0
if tokens >= n then
  tokens = tokens - n
  allowed = 1
else
  retry = math.ceil((n - tokens) * interval / rate)
end

redis.call('HMSET', key, 'tokens', tostring(tokens), 'last_refill', tostring(last))
redis.call('PEXPIRE', key, ttl)
return {allowed, tostring(tokens), retry}
`)

// RedisStore implements Store using Redis, sharing bucket state across
// processes. Use it when multiple instances dispatch through the same
// provider quota.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the default "ratelimiter:" key prefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		if prefix != "" {
			rs.keyPrefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed bucket state store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: redis client is required", ErrInvalidConfig)
	}

	rs := &RedisStore{
		client:    client,
		keyPrefix: "ratelimiter:",
	}

	for _, opt := range opts {
		opt(rs)
	}

	return rs, nil
}

// ConsumeTokens delegates the refill-and-consume cycle to the Lua script.
func (rs *RedisStore) ConsumeTokens(ctx context.Context, key string, n int, cfg Config) (bool, int, time.Duration, error) {
	fire := 0
	if cfg.FireImmediately {
		fire = 1
	}

	// State expires after two full refill cycles of inactivity; by then the
	// bucket would be full again anyway.
	ttl := 2 * cfg.RefillInterval.Milliseconds() * int64(cfg.Capacity) / int64(cfg.RefillRate)
	if ttl < cfg.RefillInterval.Milliseconds() {
		ttl = cfg.RefillInterval.Milliseconds()
	}

	res, err := consumeScript.Run(ctx, rs.client, []string{rs.keyPrefix + key},
		cfg.Capacity,
		cfg.RefillRate,
		cfg.RefillInterval.Milliseconds(),
		n,
		time.Now().UnixMilli(),
		fire,
		ttl,
	).Slice()
	if err != nil {
		return false, 0, 0, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 3 {
		return false, 0, 0, fmt.Errorf("%w: unexpected script result", ErrStoreUnavailable)
	}

	allowed := res[0].(int64) == 1
	tokens, err := strconv.ParseFloat(res[1].(string), 64)
	if err != nil {
		return false, 0, 0, errors.Join(ErrStoreUnavailable, err)
	}
	retryAfter := time.Duration(res[2].(int64)) * time.Millisecond

	return allowed, int(tokens), retryAfter, nil
}

// Reset clears the bucket state for the given key.
func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.keyPrefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
