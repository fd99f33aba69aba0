package ratelimit

import (
	"time"

	"github.com/go-redis/redis/v8"
)

type Logger interface {
	Error(msg string, args ...interface{})
}

// RateLimiter reports whether a key has exhausted its allowance for the
// current window.
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	IsLimited(key string) (bool, error)
	Close() error
}

const defaultKeyPrefix = "ratelimit:"

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// Redis is optional; nil selects the in-memory limiter.
	Redis *redis.Client
	// KeyPrefix namespaces Redis keys. Defaults to "ratelimit:".
	KeyPrefix string
	Logger    Logger
}

func (c *RateLimitConfig) normalized() RateLimitConfig {
	out := *c
	if out.Requests <= 0 {
		out.Requests = 1
	}
	if out.Window <= 0 {
		out.Window = time.Minute
	}
	if out.KeyPrefix == "" {
		out.KeyPrefix = defaultKeyPrefix
	}
	return out
}

func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	cfg := config.normalized()
	if cfg.Redis != nil {
		return newRedisRateLimiter(cfg)
	}
	return NewInMemoryRateLimiter(cfg.Requests, cfg.Window)
}
