package config

import (
	"context"
	"errors"

	"github.com/akeren/waitlist-intake/internal/log"
	pkgredis "github.com/akeren/waitlist-intake/pkg/redis"
	"github.com/akeren/waitlist-intake/pkg/retry"
	"github.com/akeren/waitlist-intake/pkg/utils"
)

type Cache interface {
	Ping(ctx context.Context) error
	Close() error
}

var ErrCacheNotConfigured = errors.New("cache host is not configured")

// CacheConfig is read from REDIS_HOST, REDIS_PORT, REDIS_PASSWORD and REDIS_DB.
type CacheConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Host:     envValue("REDIS_HOST"),
		Port:     utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379"),
		Password: envValue("REDIS_PASSWORD"),
		DB:       utils.GetEnvPositiveInt("REDIS_DB", 0),
	}
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

func (cc *CacheConfig) redisConfig() *pkgredis.Config {
	return &pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
		DB:       cc.DB,
	}
}

func (cc *CacheConfig) NewCache(logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		logger.Error("Cache (Redis) configuration is missing")
		return nil, ErrCacheNotConfigured
	}

	cfg := cc.redisConfig()

	var cache *pkgredis.RedisCache
	err := retry.NewExponentialBackoff(nil).Execute(func() error {
		var connectErr error
		cache, connectErr = pkgredis.NewRedisCache(cfg)
		return connectErr
	})
	if err != nil {
		logger.Error("Failed to create Cache (Redis)", "addr", cfg.Addr(), "error", err)
		return nil, err
	}

	logger.Info("Cache (Redis) connected successfully", "addr", cfg.Addr(), "db", cfg.DB)
	return cache, nil
}

// NewCacheOrNil degrades to no cache, so rate limiting falls back to
// in-memory buckets.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Cache (Redis) is not configured; proceeding without external cache")
		return nil
	}

	cache, err := cc.NewCache(logger)
	if err != nil {
		logger.Warn("Continuing without Redis", "error", err)
		return nil
	}

	return cache
}

func CloseCache(cache Cache, logger *log.Logger) error {
	if cache == nil {
		logger.Info("No cache provided; skipping cache close")
		return nil
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return err
	}

	logger.Info("Cache connection closed")
	return nil
}
