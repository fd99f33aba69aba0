package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const redisTimeout = 2 * time.Second

// slidingWindowScript trims entries older than the window, counts the rest
// and records the request only when it is admitted.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

if redis.call('ZCARD', key) >= limit then
	return 1
end

redis.call('ZADD', key, now, ARGV[5])
redis.call('PEXPIRE', key, ttl)
return 0
`)

// RedisRateLimiter enforces a sliding window shared by every instance that
// points at the same Redis.
type RedisRateLimiter struct {
	client    *redis.Client
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
	now       func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, requests int, window time.Duration, logger Logger) *RedisRateLimiter {
	return newRedisRateLimiter((&RateLimitConfig{
		Requests: requests,
		Window:   window,
		Redis:    client,
		Logger:   logger,
	}).normalized())
}

func newRedisRateLimiter(cfg RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    cfg.Redis,
		requests:  cfg.Requests,
		window:    cfg.Window,
		keyPrefix: cfg.KeyPrefix,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

func (r *RedisRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *RedisRateLimiter) key(key string) string {
	if strings.HasPrefix(key, r.keyPrefix) {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisRateLimiter) IsLimited(key string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	fullKey := r.key(key)
	nowMillis := r.now().UnixMilli()

	result, err := slidingWindowScript.Run(ctx, r.client, []string{fullKey},
		nowMillis,
		r.window.Milliseconds(),
		r.requests,
		(2 * r.window).Milliseconds(),
		uuid.NewString(),
	).Int64()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis rate limit script execution failed", "key", fullKey, "error", err)
		}
		return false, fmt.Errorf("rate limiter Redis error: %w", err)
	}
	return result == 1, nil
}

// Close is a no-op; the client belongs to the application config.
func (r *RedisRateLimiter) Close() error {
	return nil
}
