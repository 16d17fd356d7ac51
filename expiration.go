package cacheproxy

import "time"

// ExpirationFunc picks the TTL for a value about to be cached. It may ignore
// the value (constant policy) or inspect it, e.g. to cap the TTL at the
// value's own natural expiry. A zero result means DefaultExpiration.
type ExpirationFunc[T any] func(T) time.Duration

// Fixed is the constant policy.
func Fixed[T any](d time.Duration) ExpirationFunc[T] {
	return func(T) time.Duration { return d }
}

// resolveExpiration picks fn over ttl and falls back to DefaultExpiration for
// zero results. Negative durations pass through; providers read them as
// "no expiry".
func resolveExpiration[T any](fn ExpirationFunc[T], ttl time.Duration) ExpirationFunc[T] {
	if fn == nil {
		fn = Fixed[T](ttl)
	}
	return func(v T) time.Duration {
		return coalesce(fn(v), DefaultExpiration)
	}
}
