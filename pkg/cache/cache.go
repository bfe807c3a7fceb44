// Package cache stores rendered layouts, reconstructed series and other
// derived artifacts so repeated CLI runs and API requests skip recomputation.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// the HTTP server and [NullCache] when caching is disabled. Keys are built by
// a [Keyer] from content hashes and the options that influence the output.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. A miss is not
	// an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Default time-to-live values per artifact kind. Workflow files do not change
// once written, while a session may still be receiving log entries.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	SessionTTL  = 30 * time.Second
	ArtifactTTL = 24 * time.Hour
)
