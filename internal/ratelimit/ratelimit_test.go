package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExportLimiterDisabled(t *testing.T) {
	limiter, err := NewExportLimiter(config.Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	res, err := limiter.AllowSession(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	token, ok, err := limiter.TryLockSession(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, token)
	assert.NoError(t, limiter.ReleaseSession(context.Background(), "1", token))
}

func TestNewExportLimiterValidates(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	t.Cleanup(func() { _ = client.Close() })

	_, err := NewExportLimiter(config.Config{RateLimit: config.RateLimitConfig{Enabled: true}}, client)
	assert.Error(t, err)

	_, err = NewExportLimiter(config.Config{RateLimit: config.RateLimitConfig{
		Enabled: true, ExportRate: 1, ExportBurst: 1,
	}}, client)
	assert.Error(t, err)

	_, err = NewExportLimiter(config.Config{RateLimit: config.RateLimitConfig{
		Enabled: true, ExportRate: 1, ExportBurst: 1, ExportConcurrencyTTLSeconds: 5,
	}}, nil)
	assert.Error(t, err)
}

func TestExportLockKey(t *testing.T) {
	key, err := exportLockKey(" 1789 ")
	require.NoError(t, err)
	assert.Equal(t, "export:lock:1789", key)

	_, err = exportLockKey("  ")
	assert.ErrorIs(t, err, errEmptySessionID)
}

func TestNewExportLockValidates(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	t.Cleanup(func() { _ = client.Close() })

	_, err := newExportLock(nil, time.Second)
	assert.Error(t, err)
	_, err = newExportLock(client, 0)
	assert.Error(t, err)

	lock, err := newExportLock(client, time.Second)
	require.NoError(t, err)
	assert.NoError(t, lock.Release(context.Background(), "1789", ""), "empty token is a no-op")

	_, _, err = lock.Acquire(context.Background(), "")
	assert.ErrorIs(t, err, errEmptySessionID)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, time.Second, bucketTTL(0, 1))
	assert.Equal(t, 50*time.Second, bucketTTL(0.2, 5))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
}

func TestParseBucketResponse(t *testing.T) {
	res, err := parseBucketResponse([]interface{}{int64(1), "2.5"}, 0.5)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2.5, res.Remaining)
	assert.Zero(t, res.RetryAfter)

	res, err = parseBucketResponse([]interface{}{int64(0), "0.75"}, 0.5)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 500*time.Millisecond, res.RetryAfter)

	_, err = parseBucketResponse([]interface{}{int64(1)}, 1)
	assert.ErrorIs(t, err, errBucketResponse)
	_, err = parseBucketResponse([]interface{}{"yes", "1"}, 1)
	assert.ErrorIs(t, err, errBucketResponse)
}

func TestExportLimiterAgainstRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 14})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	require.NoError(t, client.FlushDB(ctx).Err())

	limiter, err := NewExportLimiter(config.Config{RateLimit: config.RateLimitConfig{
		Enabled: true, ExportRate: 0.01, ExportBurst: 2, ExportConcurrencyTTLSeconds: 5,
	}}, client)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		res, err := limiter.AllowSession(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := limiter.AllowSession(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	token, ok, err := limiter.TryLockSession(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = limiter.TryLockSession(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, limiter.ReleaseSession(ctx, "s1", token))
	newer, ok, err := limiter.TryLockSession(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, limiter.ReleaseSession(ctx, "s1", token), "stale token")
	_, ok, err = limiter.TryLockSession(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok, "stale token must not free the newer lock")
	require.NoError(t, limiter.ReleaseSession(ctx, "s1", newer))
}
