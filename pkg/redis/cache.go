package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-redis/redis/v8"
)

const connectTimeout = 5 * time.Second

type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// RedisCache owns the go-redis client shared by the rate limiter and the
// health checks.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects and pings before returning.
func NewRedisCache(cfg *Config) (*RedisCache, error) {
	if cfg == nil || cfg.Host == "" {
		return nil, errors.New("redis: host is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: connectTimeout,
	})

	cache := &RedisCache{client: client}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := cache.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return cache, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetClient() *redis.Client {
	return c.client
}
