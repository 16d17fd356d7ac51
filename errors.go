package cacheproxy

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyKey    = errors.New("cacheproxy: key is required")
	ErrEmptyPrefix = errors.New("cacheproxy: key prefix is required")
	ErrNilProvider = errors.New("cacheproxy: provider is required")
	ErrNilCodec    = errors.New("cacheproxy: codec is required")
	ErrNilLoader   = errors.New("cacheproxy: load function is required")
)

// KeyError reports that params could not be turned into a cache key.
type KeyError struct {
	Prefix string
	Err    error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("cacheproxy: derive key under %q: %v", e.Prefix, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }
