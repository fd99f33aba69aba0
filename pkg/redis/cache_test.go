package redis

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Addr(t *testing.T) {
	assert.Equal(t, "localhost:6379", (&Config{Host: "localhost", Port: "6379"}).Addr())
	assert.Equal(t, "[::1]:6380", (&Config{Host: "::1", Port: "6380"}).Addr())
}

func TestNewRedisCache_RequiresHost(t *testing.T) {
	cache, err := NewRedisCache(&Config{Port: "6379"})

	require.Error(t, err)
	assert.Nil(t, cache)

	cache, err = NewRedisCache(nil)
	require.Error(t, err)
	assert.Nil(t, cache)
}

func TestNewRedisCache_UnreachableHost(t *testing.T) {
	// Port 1 on loopback refuses connections immediately.
	cache, err := NewRedisCache(&Config{Host: "127.0.0.1", Port: "1"})

	require.Error(t, err)
	assert.Nil(t, cache)
}

func TestRedisCache_UnreachableClient(t *testing.T) {
	cache := &RedisCache{client: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})}
	defer cache.Close()

	err := cache.Ping(context.Background())

	assert.ErrorContains(t, err, "redis ping")
	assert.NotNil(t, cache.GetClient())
}
