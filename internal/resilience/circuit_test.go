package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-dyntax/internal/resilience"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestBreakerOpensAndRecovers(t *testing.T) {
	resilience.MustRegisterMetrics("toko_test", prometheus.NewRegistry())
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	b := resilience.NewBreaker(2, 0.5, time.Minute).WithTarget("settings_test").WithClock(c.now)
	ctx := context.Background()
	boom := errors.New("boom")
	fail := func(context.Context) error { return boom }
	ok := func(context.Context) error { return nil }

	require.ErrorIs(t, b.Do(ctx, fail), boom)
	require.ErrorIs(t, b.Do(ctx, fail), boom)
	require.Equal(t, resilience.Open, b.State())
	require.ErrorIs(t, b.Do(ctx, ok), resilience.ErrOpenCircuit)
	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerState.WithLabelValues("settings_test")))

	c.t = c.t.Add(time.Minute)
	require.NoError(t, b.Do(ctx, ok))
	require.Equal(t, resilience.Closed, b.State())
	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerTransitions.WithLabelValues("settings_test", "open", "half_open")))
	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerTransitions.WithLabelValues("settings_test", "half_open", "closed")))
}

func TestBreakerFailedTrialReopens(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	b := resilience.NewBreaker(1, 1, time.Second).WithClock(c.now)
	ctx := context.Background()

	b.Report(ctx, false)
	require.Equal(t, resilience.Open, b.State())

	c.t = c.t.Add(time.Second)
	require.True(t, b.Allow(ctx))
	require.Equal(t, resilience.HalfOpen, b.State())
	b.Report(ctx, false)
	require.Equal(t, resilience.Open, b.State())
	require.False(t, b.Allow(ctx))
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	b := resilience.NewBreaker(1, 0.5, time.Minute)
	ctx := context.Background()
	for range 3 {
		require.ErrorIs(t, b.Do(ctx, func(context.Context) error { return context.Canceled }), context.Canceled)
	}
	require.Equal(t, resilience.Closed, b.State())
}

func TestBreakerToleratesOccasionalFailures(t *testing.T) {
	b := resilience.NewBreaker(4, 0.5, time.Minute)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		b.Report(ctx, i%4 != 0)
	}
	require.Equal(t, resilience.Closed, b.State())
}

func TestBreakerHalfOpenAdmitsOneCaller(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	b := resilience.NewBreaker(1, 1, time.Second).WithClock(c.now)
	ctx := context.Background()

	b.Report(ctx, false)
	c.t = c.t.Add(time.Second)

	admitted := 0
	for range 5 {
		if b.Allow(ctx) {
			admitted++
		}
	}
	require.Equal(t, 1, admitted)
	require.Equal(t, resilience.HalfOpen, b.State())

	b.Report(ctx, true)
	require.Equal(t, resilience.Closed, b.State())
	require.True(t, b.Allow(ctx))
	require.True(t, b.Allow(ctx))
}

func TestBreakerCancelledTrialFreesSlot(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	b := resilience.NewBreaker(1, 1, time.Second).WithClock(c.now)
	ctx := context.Background()

	b.Report(ctx, false)
	c.t = c.t.Add(time.Second)

	require.ErrorIs(t, b.Do(ctx, func(context.Context) error { return context.Canceled }), context.Canceled)
	require.Equal(t, resilience.HalfOpen, b.State())
	require.NoError(t, b.Do(ctx, func(context.Context) error { return nil }))
	require.Equal(t, resilience.Closed, b.State())
}
