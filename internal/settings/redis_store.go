package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "option:"

// RedisStore keeps each settings record as a Redis hash.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a Redis-backed Store. An empty prefix defaults to "option:".
func NewRedisStore(client *redis.Client, prefix string) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("settings: redis client is required")
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, name string) (map[string]string, bool, error) {
	values, err := s.client.HGetAll(ctx, s.key(name)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("settings: hgetall %s: %w", name, err)
	}
	if len(values) == 0 {
		return nil, false, nil
	}
	return values, true, nil
}

// Put implements Store. The hash is rewritten atomically so removed fields do not linger.
func (s *RedisStore) Put(ctx context.Context, name string, values map[string]string) error {
	key := s.key(name)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("settings: write %s: %w", name, err)
	}
	return nil
}
