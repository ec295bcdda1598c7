package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrBusy means another holder kept the key for longer than MaxWait.
var ErrBusy = errors.New("lock: busy")

const (
	defaultTTL   = 30 * time.Second
	defaultRetry = 50 * time.Millisecond
)

// compare-and-delete so an expired holder never frees a successor's lease
var releaseLease = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker hands out exclusive leases on Redis keys.
type Locker struct {
	R            *redis.Client
	Prefix       string
	RetryBackoff time.Duration
	// MaxWait bounds how long Acquire polls; zero polls until ctx ends.
	MaxWait time.Duration
}

// Lease is a held lock. It expires on its own after the TTL it was taken with.
type Lease struct {
	rdb   *redis.Client
	key   string
	token string
}

// Key returns the fully prefixed Redis key.
func (l *Lease) Key() string { return l.key }

// Release frees the lease if this holder still owns it and reports whether it did.
func (l *Lease) Release(ctx context.Context) (bool, error) {
	n, err := releaseLease.Run(ctx, l.rdb, []string{l.key}, l.token).Int()
	if err != nil {
		return false, fmt.Errorf("lock: release %s: %w", l.key, err)
	}
	return n == 1, nil
}

// Acquire polls SET NX until it wins the key, ctx ends, or MaxWait elapses.
func (l Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	if l.R == nil {
		return nil, errors.New("lock: redis client not configured")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	backoff := l.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetry
	}
	waitCtx := ctx
	if l.MaxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeoutCause(ctx, l.MaxWait, ErrBusy)
		defer cancel()
	}

	lease := &Lease{rdb: l.R, key: l.Prefix + key, token: uuid.NewString()}
	ticker := time.NewTicker(backoff)
	defer ticker.Stop()
	for {
		won, err := l.R.SetNX(waitCtx, lease.key, lease.token, ttl).Result()
		if err == nil && won {
			return lease, nil
		}
		if err != nil && waitCtx.Err() == nil {
			return nil, fmt.Errorf("lock: acquire %s: %w", lease.key, err)
		}
		select {
		case <-waitCtx.Done():
		case <-ticker.C:
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s", ErrBusy, lease.key)
	}
}

// WithLock runs fn while holding key. The lease is released when fn returns,
// whether or not it failed, even if ctx was cancelled meanwhile.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	lease, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer func() { _, _ = lease.Release(context.WithoutCancel(ctx)) }()
	return fn(ctx)
}
