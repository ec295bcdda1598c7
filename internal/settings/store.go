package settings

import (
	"context"
)

// Store persists named settings records as flat string maps. A Put replaces the
// whole record; concurrent writers resolve last write wins.
type Store interface {
	// Get returns the record and whether it exists.
	Get(ctx context.Context, name string) (map[string]string, bool, error)
	Put(ctx context.Context, name string, values map[string]string) error
}
