// Package cache provides the compute-if-absent cache the provider clients sit
// behind. Values cross the store boundary JSON-encoded, so any typed record
// (including a nil pointer for a known miss) can be cached.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Store is a byte-oriented key/value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored value and true, or false when the key is
	// absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ComputeFunc produces a value on a cache miss together with the TTL to
// store it for. Returning an error skips caching.
type ComputeFunc[T any] func(ctx context.Context) (T, time.Duration, error)

// Cache wraps a Store and logs its failures instead of failing lookups.
type Cache struct {
	store  Store
	logger *slog.Logger
}

// New creates a Cache over store.
func New(store Store, logger *slog.Logger) *Cache {
	return &Cache{
		store:  store,
		logger: logger.With(slog.String("component", "cache")),
	}
}

// Remember returns the cached value for key or, on a miss, runs compute and
// caches its result for the TTL compute chose. Store failures degrade to a
// miss; compute errors are returned and nothing is cached. Concurrent misses
// for the same key each run compute.
func Remember[T any](ctx context.Context, c *Cache, key string, compute ComputeFunc[T]) (T, error) {
	if data, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	} else if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		c.logger.Warn("discarding undecodable cache entry", slog.String("key", key))
	}

	v, ttl, err := compute(ctx)
	if err != nil {
		return v, err
	}
	if ttl <= 0 {
		return v, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return v, nil
	}
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		c.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return v, nil
}
