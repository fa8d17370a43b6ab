package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mandarons/wapar/internal/config"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestLockerSingleHolder(t *testing.T) {
	_, client := newRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "wapar:scheduler:geo_enrichment", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, "wapar:scheduler:geo_enrichment", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, release(ctx))

	_, ok, err = locker.TryLock(ctx, "wapar:scheduler:geo_enrichment", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockerReleaseKeepsForeignToken(t *testing.T) {
	srv, client := newRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "job", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	srv.FastForward(2 * time.Second)
	_, ok, err = locker.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// the stale holder must not drop the new holder's lock
	require.NoError(t, release(ctx))
	assert.True(t, srv.Exists("job"))
}

func TestNilLockerReportsNotConfigured(t *testing.T) {
	var locker *Locker
	_, ok, err := locker.TryLock(context.Background(), "job", time.Minute)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrLockNotConfigured)
	assert.Nil(t, NewLocker(nil))
}

func TestIngestLimiterExhaustsBurst(t *testing.T) {
	_, client := newRedis(t)
	limiter, err := NewIngestLimiter(config.Config{
		RateLimit: config.RateLimitConfig{Enabled: true, IngestRate: 0.001, IngestBurst: 2},
	}, client)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := limiter.AllowIP(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := limiter.AllowIP(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	other, err := limiter.AllowIP(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestIngestLimiterDisabled(t *testing.T) {
	limiter, err := NewIngestLimiter(config.Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	res, err := limiter.AllowIP(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestIngestLimiterRequiresRedis(t *testing.T) {
	_, err := NewIngestLimiter(config.Config{
		RateLimit: config.RateLimitConfig{Enabled: true, IngestRate: 1, IngestBurst: 1},
	}, nil)
	require.Error(t, err)
}

func TestSchedulerLockerAdapter(t *testing.T) {
	assert.Nil(t, schedulerLocker(nil))

	_, client := newRedis(t)
	assert.NotNil(t, schedulerLocker(NewLocker(client)))
}

func TestTokenBucketKeepsFractionalTokens(t *testing.T) {
	_, client := newRedis(t)
	bucket, err := newTokenBucket(client, 0.5, 3)
	require.NoError(t, err)

	d, err := bucket.take(context.Background(), "wapar:test:bucket")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.InDelta(t, 2.0, d.Remaining, 0.01)
	assert.Zero(t, d.RetryAfter)

	assert.Equal(t, 12*time.Second, refillTTL(0.5, 3))
	assert.Equal(t, time.Second, refillTTL(100, 1))

	_, err = newTokenBucket(client, 0, 3)
	require.Error(t, err)
}
