package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumiya-kume/cra/pkg/errors"
)

const testPrefix = "cra-test:"

func getRedisCache(t *testing.T) *RedisCache {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Skipf("invalid redis URL: %v", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		_ = client.Close()
		t.Skipf("redis not available: %v", pingErr)
	}

	c := NewRedisCacheFromClient(client)
	t.Cleanup(func() {
		_, _ = c.ClearPattern(context.Background(), testPrefix+"*")
		_ = c.Close()
	})
	return c
}

func TestRedisCache(t *testing.T) {
	c := getRedisCache(t)
	ctx := context.Background()

	want := cachedReview{Score: 70, Issues: []string{"Var Usage"}}
	require.NoError(t, c.Set(ctx, testPrefix+"a", want, time.Minute))
	require.NoError(t, c.Set(ctx, testPrefix+"b", want, time.Minute))

	var got cachedReview
	found, err := c.Get(ctx, testPrefix+"a", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	found, err = c.Get(ctx, testPrefix+"missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	n, err := c.ClearPattern(ctx, testPrefix+"*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.NoError(t, c.Ping(ctx))
}

func TestNewRedisCacheInvalidURL(t *testing.T) {
	_, err := NewRedisCache("not-a-url://")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
}

func TestRedisCacheUnreachable(t *testing.T) {
	c, err := NewRedisCache("redis://127.0.0.1:1/0")
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err = c.Ping(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCache))
	assert.True(t, errors.IsRecoverable(err))
}
