package settings

import (
	"context"
	"errors"

	"github.com/noah-isme/toko-dyntax/internal/resilience"
)

// GuardedStore wraps a Store with a circuit breaker so an unreachable backend
// fails fast instead of stalling every cart fee recalculation.
type GuardedStore struct {
	inner   Store
	breaker *resilience.Breaker
}

// NewGuardedStore wraps inner with breaker.
func NewGuardedStore(inner Store, breaker *resilience.Breaker) (*GuardedStore, error) {
	if inner == nil {
		return nil, errors.New("settings: store is required")
	}
	if breaker == nil {
		return nil, errors.New("settings: breaker is required")
	}
	return &GuardedStore{inner: inner, breaker: breaker}, nil
}

func (s *GuardedStore) Get(ctx context.Context, name string) (values map[string]string, found bool, err error) {
	err = s.breaker.Do(ctx, func(ctx context.Context) error {
		var getErr error
		values, found, getErr = s.inner.Get(ctx, name)
		return getErr
	})
	return values, found, err
}

func (s *GuardedStore) Put(ctx context.Context, name string, values map[string]string) error {
	return s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.inner.Put(ctx, name, values)
	})
}
