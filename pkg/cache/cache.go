// Package cache provides pluggable byte caches and key derivation for the
// normalization and layout pipeline. Backends: file (CLI), Redis (server),
// and null (disabled).
package cache

import (
	"context"
	"time"
)

// Default TTLs per cached artifact class. Frames are immutable once
// recorded, so they keep the longest TTL; renders are cheap to recompute.
const (
	// TTLFrame is the TTL for normalized frame data.
	TTLFrame = 24 * time.Hour

	// TTLUnion is the TTL for serialized union layouts.
	TTLUnion = 6 * time.Hour

	// TTLRender is the TTL for rendered frame output.
	TTLRender = 30 * time.Minute
)

// Cache is a byte-oriented cache with TTL support.
//
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
