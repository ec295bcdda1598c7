package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SlidingWindow counts hits per key in a Redis sorted set scored by
// microsecond timestamps. Rejected hits are not recorded, so a client that
// keeps retrying regains capacity as soon as its oldest accepted hit ages out.
type SlidingWindow struct {
	Client *redis.Client
	Prefix string
	// Now defaults to time.Now.
	Now func() time.Time
}

var _ Allower = SlidingWindow{}

func (l SlidingWindow) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Allow records a hit for key and reports whether it fits in limit hits per window.
// reset is when the oldest hit in the window expires.
func (l SlidingWindow) Allow(ctx context.Context, key string, window time.Duration, limit int) (bool, int, time.Time, error) {
	now := l.now()
	if l.Client == nil || limit <= 0 || window <= 0 {
		return true, limit, now.Add(window), nil
	}

	zkey := l.Prefix + key
	member := uuid.NewString()
	stale := strconv.FormatInt(now.Add(-window).UnixMicro(), 10)

	var (
		card   *redis.IntCmd
		oldest *redis.ZSliceCmd
	)
	_, err := l.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, zkey, "-inf", "("+stale)
		p.ZAdd(ctx, zkey, redis.Z{Score: float64(now.UnixMicro()), Member: member})
		card = p.ZCard(ctx, zkey)
		oldest = p.ZRangeWithScores(ctx, zkey, 0, 0)
		p.PExpire(ctx, zkey, window)
		return nil
	})
	if err != nil {
		return false, 0, now.Add(window), err
	}

	reset := now.Add(window)
	if first := oldest.Val(); len(first) > 0 {
		reset = time.UnixMicro(int64(first[0].Score)).Add(window)
	}

	count := int(card.Val())
	if count > limit {
		if err := l.Client.ZRem(ctx, zkey, member).Err(); err != nil {
			return false, 0, reset, err
		}
		return false, 0, reset, nil
	}
	return true, limit - count, reset, nil
}
