package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache keeps serialised catalog reads in Redis. The zero value and a nil
// *Cache both behave as an always-miss cache.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache returns a cache storing entries for ttl. Passing a nil client disables it.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) off() bool {
	return c == nil || c.rdb == nil
}

// Forget removes key.
func (c *Cache) Forget(ctx context.Context, key string) error {
	if c.off() {
		return nil
	}
	return c.rdb.Del(ctx, key).Err()
}

// readThrough returns the cached value under key, or calls load and stores its
// result. Cache failures are logged and never fail the read.
func readThrough[T any](ctx context.Context, c *Cache, log zerolog.Logger, key string, load func(context.Context) (T, error)) (T, error) {
	if !c.off() {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var hit T
			jsonErr := json.Unmarshal(raw, &hit)
			if jsonErr == nil {
				return hit, nil
			}
			log.Warn().Err(jsonErr).Str("key", key).Msg("discarding undecodable cache entry")
		case !errors.Is(err, redis.Nil):
			log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
	}

	fresh, err := load(ctx)
	if err != nil || c.off() {
		return fresh, err
	}
	if payload, mErr := json.Marshal(fresh); mErr != nil {
		log.Warn().Err(mErr).Str("key", key).Msg("cache encode failed")
	} else if sErr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); sErr != nil {
		log.Warn().Err(sErr).Str("key", key).Msg("cache write failed")
	}
	return fresh, nil
}
