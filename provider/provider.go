// Package provider defines the storage abstraction used by cacheproxy.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key. If a store keeps
// metadata next to the value (e.g. an expiration header), it MUST strip it
// before returning from Get.
//
// A miss is reported as (nil, false, nil). Any non-nil error is a store
// failure and is surfaced to cacheproxy callers unchanged, so adapters must
// never return "not found" as an error.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs and prefix removal.
// Must be safe for concurrent use. A Set that returned must be observable by
// the next Get for the same key; buffered stores have to flush before
// returning.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL; ttl <= 0 means no expiry.
	// May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Missing keys are not an error.
	Del(ctx context.Context, key string) error

	// DelPrefix removes every key that starts with prefix.
	DelPrefix(ctx context.Context, prefix string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
