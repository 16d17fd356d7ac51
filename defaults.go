package cacheproxy

import "time"

const (
	// DefaultExpiration is used when the expiration policy yields zero.
	DefaultExpiration = 2 * time.Hour

	// KeySeparator joins a collection prefix and the encoded params.
	KeySeparator = "_"

	// NullToken stands in for nil params so they never collide with "".
	NullToken = "null"
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
