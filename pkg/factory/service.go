package factory

import (
	"context"
	"time"

	"github.com/akeren/waitlist-intake/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type Cache interface {
	Ping(ctx context.Context) error
}

// RedisClientProvider is implemented by caches backed by a go-redis client.
type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RateLimiterFactory interface {
	CreateRateLimiter() ratelimit.RateLimiter
}

type Option func(*ratelimit.RateLimitConfig)

// WithKeyPrefix keeps a route's Redis counters apart from the global limiter.
func WithKeyPrefix(prefix string) Option {
	return func(cfg *ratelimit.RateLimitConfig) {
		cfg.KeyPrefix = prefix
	}
}

type DefaultRateLimiterFactory struct {
	config ratelimit.RateLimitConfig
}

// NewDefaultRateLimiterFactory uses Redis when cache exposes a client and
// in-memory buckets otherwise.
func NewDefaultRateLimiterFactory(requests int, window time.Duration, cache Cache, logger ratelimit.Logger, opts ...Option) *DefaultRateLimiterFactory {
	cfg := ratelimit.RateLimitConfig{
		Requests: requests,
		Window:   window,
		Redis:    redisClientOf(cache),
		Logger:   logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &DefaultRateLimiterFactory{config: cfg}
}

func redisClientOf(cache Cache) *redis.Client {
	if cache == nil {
		return nil
	}
	if provider, ok := cache.(RedisClientProvider); ok {
		return provider.GetClient()
	}
	return nil
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter() ratelimit.RateLimiter {
	cfg := f.config
	return ratelimit.NewRateLimiter(&cfg)
}
