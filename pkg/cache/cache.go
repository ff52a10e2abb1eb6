// Package cache provides content-addressed storage for encoded variants and
// placeholders.
//
// Entries are keyed by the hash of the source file contents plus the encode
// parameters, so a source that has not changed is never decoded or encoded
// twice. Three backends are provided:
//
//   - [FileCache]: entries as files under a directory (CLI default)
//   - [RedisCache]: entries in a shared Redis instance
//   - [NullCache]: stores nothing (--no-cache)
//
// Keys are built by a [Keyer]; [ScopedKeyer] prefixes every key so several
// projects can share one backend.
package cache

import (
	"context"
	"errors"
	"time"
)

// Default TTLs for cached entries.
const (
	// TTLVariant is the lifetime of an encoded variant.
	TTLVariant = 30 * 24 * time.Hour

	// TTLPlaceholder is the lifetime of a placeholder data URI.
	TTLPlaceholder = 30 * 24 * time.Hour
)

// ErrCacheMiss is returned by helpers that treat a miss as an error.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores opaque byte values by key.
//
// Get reports a miss with ok == false and a nil error. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// MustGet is like Get but returns ErrCacheMiss when the key is absent.
func MustGet(ctx context.Context, c Cache, key string) ([]byte, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCacheMiss
	}
	return data, nil
}
