// Package cache provides the pluggable stats cache store for statsbridge.
//
// The enricher treats the store as strictly best-effort: every read error is
// a miss and every write error is a no-op, so none of the backends may ever
// be load-bearing for correctness. Four backends are supported:
//   - Redis mode: networked key-value store addressed by a connection URL
//   - HA mode (Olric): distributed cache shared across bridge instances
//   - Single mode (Ristretto): local in-memory cache
//   - Disabled mode (Noop): passthrough when caching is turned off
//
// All implementations are safe for concurrent use.
package cache

import (
	"context"
	"time"
)

// Cache defines the interface for stats cache operations.
// All implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns ErrNotFound if the key does not exist or has expired.
	// Returns ErrClosed if the cache has been closed.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with no expiration.
	Set(ctx context.Context, key string, value []byte) error

	// SetWithTTL stores a value with a time-to-live. After the TTL expires
	// the key is indistinguishable from absent.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a nonexistent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases resources associated with the cache.
	// After Close, all operations return ErrClosed. Close is idempotent.
	Close() error
}

// Pinger is an optional interface for backends that can validate
// connectivity to a remote store. Local backends always succeed.
//
//	if p, ok := c.(cache.Pinger); ok {
//		err := p.Ping(ctx)
//	}
type Pinger interface {
	// Ping verifies the store connection is alive.
	Ping(ctx context.Context) error
}
