package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/wheelchair-racer/wr_api/clock"
)

// Each key is a hash of count, reset_at and blocked_until in unix
// milliseconds. The current time is passed in so the script follows the
// limiter's clock rather than the Redis server's.
var checkScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local max_attempts = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local block = tonumber(ARGV[4])

local data = redis.call('HMGET', KEYS[1], 'count', 'reset_at', 'blocked_until')
local count = tonumber(data[1])
local reset_at = tonumber(data[2]) or 0
local blocked_until = tonumber(data[3]) or 0

if count and blocked_until > now then
  return 0
end

if not count or reset_at < now then
  redis.call('HSET', KEYS[1], 'count', 1, 'reset_at', now + window, 'blocked_until', 0)
  redis.call('PEXPIRE', KEYS[1], window)
  return 1
end

count = redis.call('HINCRBY', KEYS[1], 'count', 1)
if count > max_attempts then
  if block > 0 then
    redis.call('HSET', KEYS[1], 'blocked_until', now + block)
    local ttl = math.max(reset_at, now + block) - now
    redis.call('PEXPIRE', KEYS[1], ttl)
  end
  return 0
end
return 1
`)

// RedisLimiter shares entries across API instances. Redis failures are
// logged and the request is allowed.
type RedisLimiter struct {
	client  redis.UniversalClient
	clock   clock.Clock
	prefix  string
	timeout time.Duration
}

func NewRedisLimiter(client redis.UniversalClient, opts ...Option) *RedisLimiter {
	o := buildOptions(opts)
	return &RedisLimiter{
		client:  client,
		clock:   o.clock,
		prefix:  o.prefix,
		timeout: o.timeout,
	}
}

type redisEntry struct {
	count        int
	resetAt      int64
	blockedUntil int64
}

func (l *RedisLimiter) key(k string) string {
	return l.prefix + k
}

func (l *RedisLimiter) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), l.timeout)
}

func (l *RedisLimiter) Check(key string, cfg Config) bool {
	cfg = cfg.normalized()

	ctx, cancel := l.ctx()
	defer cancel()

	now := l.clock.Now().UnixMilli()
	allowed, err := checkScript.Run(ctx, l.client, []string{l.key(key)},
		now, cfg.MaxAttempts, cfg.Window.Milliseconds(), cfg.BlockDuration.Milliseconds()).Int()
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("Rate limit check failed, allowing request")
		return true
	}
	return allowed == 1
}

func (l *RedisLimiter) load(ctx context.Context, key string) (*redisEntry, error) {
	vals, err := l.client.HMGet(ctx, l.key(key), "count", "reset_at", "blocked_until").Result()
	if err != nil {
		return nil, err
	}
	if vals[0] == nil {
		return nil, nil
	}

	e := &redisEntry{}
	e.count, _ = strconv.Atoi(asString(vals[0]))
	e.resetAt, _ = strconv.ParseInt(asString(vals[1]), 10, 64)
	e.blockedUntil, _ = strconv.ParseInt(asString(vals[2]), 10, 64)
	return e, nil
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func (l *RedisLimiter) Remaining(key string, cfg Config) int {
	cfg = cfg.normalized()

	ctx, cancel := l.ctx()
	defer cancel()

	e, err := l.load(ctx, key)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("Rate limit lookup failed")
		return cfg.MaxAttempts
	}
	if e == nil || e.resetAt < l.clock.Now().UnixMilli() {
		return cfg.MaxAttempts
	}
	return max(0, cfg.MaxAttempts-e.count)
}

func (l *RedisLimiter) ResetIn(key string) time.Duration {
	ctx, cancel := l.ctx()
	defer cancel()

	e, err := l.load(ctx, key)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("Rate limit lookup failed")
		return 0
	}
	if e == nil {
		return 0
	}

	now := l.clock.Now().UnixMilli()
	if e.blockedUntil > now {
		return time.Duration(e.blockedUntil-now) * time.Millisecond
	}
	return time.Duration(max(0, e.resetAt-now)) * time.Millisecond
}

func (l *RedisLimiter) Clear(key string) {
	ctx, cancel := l.ctx()
	defer cancel()

	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("Failed to clear rate limit")
	}
}

func (l *RedisLimiter) ClearAll() {
	err := l.scan(func(ctx context.Context, keys []string) error {
		return l.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		log.WithError(err).Warn("Failed to clear rate limits")
	}
}

// Cleanup applies the same expiry rule as MemoryLimiter. Redis TTLs usually
// get there first; this catches entries written under a skewed clock.
func (l *RedisLimiter) Cleanup() int {
	now := l.clock.Now().UnixMilli()
	removed := 0

	err := l.scan(func(ctx context.Context, keys []string) error {
		for _, full := range keys {
			e, err := l.load(ctx, full[len(l.prefix):])
			if err != nil {
				return err
			}
			if e == nil || e.resetAt >= now || e.blockedUntil >= now {
				continue
			}
			n, err := l.client.Del(ctx, full).Result()
			if err != nil {
				return err
			}
			removed += int(n)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Rate limit cleanup failed")
	}
	return removed
}

func (l *RedisLimiter) Len() int {
	total := 0
	err := l.scan(func(_ context.Context, keys []string) error {
		total += len(keys)
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Failed to count rate limit entries")
	}
	return total
}

// scan walks every key under the prefix in batches.
func (l *RedisLimiter) scan(fn func(ctx context.Context, keys []string) error) error {
	var cursor uint64
	for {
		ctx, cancel := l.ctx()
		keys, next, err := l.client.Scan(ctx, cursor, l.prefix+"*", 100).Result()
		if err == nil && len(keys) > 0 {
			err = fn(ctx, keys)
		}
		cancel()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return err
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
