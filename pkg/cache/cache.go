// Package cache provides the response store used by the HTTP gate.
//
// # Backends
//
// Every backend implements [Cache], a byte-oriented key/value store with
// per-entry TTL:
//
//   - [NullCache]: stores nothing (caching disabled)
//   - [MemoryCache]: process-local map, the default for a single instance
//   - [FileCache]: JSON files under a directory, for the CLI and single hosts
//   - [RedisCache]: shared store for multi-instance deployments
//   - [MongoCache]: shared store backed by a TTL-indexed collection
//
// [Open] selects a backend from a URL such as "memory", "file:///var/cache/rb",
// "redis://localhost:6379/0" or "mongodb://localhost:27017".
//
// # Keys
//
// A [Keyer] turns a normalized request URL into a store key. [DefaultKeyer]
// prefixes keys with "response:"; [ScopedKeyer] adds a namespace on top so
// several boards can share one store.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store for rendered responses.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored value and true, or nil and false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl means no expiry.
	// Writing an existing key replaces it (last write wins).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Keyer generates cache keys.
type Keyer interface {
	// ResponseKey returns the key for a rendered response identified by its
	// normalized request URL.
	ResponseKey(normalizedURL string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResponseKey returns "response:" followed by the URL.
func (DefaultKeyer) ResponseKey(normalizedURL string) string {
	return "response:" + normalizedURL
}
