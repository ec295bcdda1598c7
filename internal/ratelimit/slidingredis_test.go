package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowAllow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := SlidingWindow{Client: client, Prefix: "test:"}

	ctx := context.Background()
	window := 2 * time.Second
	limit := 2

	for i := 0; i < limit; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "key", window, limit)
		require.NoError(t, err)
		require.True(t, allowed, "request %d", i)
		require.Equal(t, limit-(i+1), remaining)
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "key", window, limit)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)

	mr.FastForward(window)

	allowed, _, _, err = limiter.Allow(ctx, "key", window, limit)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestSlidingWindowWithoutClientAllows(t *testing.T) {
	allowed, remaining, _, err := SlidingWindow{}.Allow(context.Background(), "k", time.Second, 3)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 3, remaining)
}

func TestSlidingWindowRejectedHitsDoNotCount(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := time.Unix(1_700_000_000, 0)
	limiter := SlidingWindow{Client: client, Prefix: "rl:", Now: func() time.Time { return clock }}
	ctx := context.Background()

	allowed, _, reset, err := limiter.Allow(ctx, "cart", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, clock.Add(time.Minute), reset)

	clock = clock.Add(30 * time.Second)
	for range 3 {
		allowed, _, reset, err = limiter.Allow(ctx, "cart", time.Minute, 1)
		require.NoError(t, err)
		require.False(t, allowed)
		require.Equal(t, time.Unix(1_700_000_000, 0).Add(time.Minute), reset)
	}
	n, err := client.ZCard(ctx, "rl:cart").Result()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	clock = clock.Add(31 * time.Second)
	allowed, remaining, _, err := limiter.Allow(ctx, "cart", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Zero(t, remaining)
}
