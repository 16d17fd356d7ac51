package cacheproxy

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/cacheproxy/codec"
	pr "github.com/unkn0wn-root/cacheproxy/provider"
)

// LoadFunc fetches the value from its original source on a miss.
// The library never cancels a running load; build timeouts into the function.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// ParamsLoadFunc loads the value identified by params.
type ParamsLoadFunc[T, P any] func(ctx context.Context, params P) (T, error)

// ArgsLoadFunc loads the value identified by positional args, in the order
// they were passed to the collection.
type ArgsLoadFunc[T any] func(ctx context.Context, args []any) (T, error)

// SetCostFunc reports the cost of an entry to cost-aware providers (Ristretto).
type SetCostFunc func(key string, raw []byte) int64

// Options configure an Item or a Proxy.
// Key, Provider and Codec are required; others have sensible defaults.
type Options[T any] struct {
	// Required
	Key      string
	Provider pr.Provider
	Codec    c.Codec[T]

	TTL            time.Duration     // constant policy; 0 => DefaultExpiration
	Expiration     ExpirationFunc[T] // overrides TTL when set
	Logger         Logger            // if nil, NopLogger is used
	Hooks          Hooks             // if nil, NopHooks is used
	Locks          *KeyLocks         // nil => ProcessLocks()
	ComputeSetCost SetCostFunc       // default 1
	Disabled       bool              // loads bypass the store entirely
}

// CollectionOptions configure a Collection or a LoadingCollection.
type CollectionOptions[T, P any] struct {
	// Required
	Prefix   string
	Provider pr.Provider
	Codec    c.Codec[T]

	Keys           KeyEncoder[P] // nil => JSONKeys[P]()
	MaxKeyLen      int           // encoded params longer than this are hashed; 0 => never
	TTL            time.Duration
	Expiration     ExpirationFunc[T]
	Logger         Logger
	Hooks          Hooks
	Locks          *KeyLocks
	ComputeSetCost SetCostFunc
	Disabled       bool
}

// ArgsOptions configure an ArgsCollection.
type ArgsOptions[T any] struct {
	// Required
	Prefix   string
	Provider pr.Provider
	Codec    c.Codec[T]

	MaxKeyLen      int
	TTL            time.Duration
	Expiration     ExpirationFunc[T]
	Logger         Logger
	Hooks          Hooks
	Locks          *KeyLocks
	ComputeSetCost SetCostFunc
	Disabled       bool
}

// binding is the immutable part shared by every Item a proxy hands out.
type binding[T any] struct {
	provider pr.Provider
	codec    c.Codec[T]
	expire   ExpirationFunc[T]
	log      Logger
	hooks    Hooks
	locks    *KeyLocks
	cost     SetCostFunc
	enabled  bool
}

type settings[T any] struct {
	provider   pr.Provider
	codec      c.Codec[T]
	ttl        time.Duration
	expiration ExpirationFunc[T]
	logger     Logger
	hooks      Hooks
	locks      *KeyLocks
	cost       SetCostFunc
	disabled   bool
}

func newBinding[T any](s settings[T]) (*binding[T], error) {
	if s.provider == nil {
		return nil, ErrNilProvider
	}
	if s.codec == nil {
		return nil, ErrNilCodec
	}

	b := &binding[T]{
		provider: s.provider,
		codec:    s.codec,
		enabled:  !s.disabled,
	}

	// defaults
	b.expire = resolveExpiration(s.expiration, s.ttl)
	b.log = coalesce[Logger](s.logger, NopLogger{})
	b.hooks = coalesce[Hooks](s.hooks, NopHooks{})
	b.locks = coalesce(s.locks, processLocks)

	if s.cost != nil {
		b.cost = s.cost
	} else {
		b.cost = func(string, []byte) int64 { return 1 }
	}
	return b, nil
}

func (o Options[T]) settings() settings[T] {
	return settings[T]{
		provider:   o.Provider,
		codec:      o.Codec,
		ttl:        o.TTL,
		expiration: o.Expiration,
		logger:     o.Logger,
		hooks:      o.Hooks,
		locks:      o.Locks,
		cost:       o.ComputeSetCost,
		disabled:   o.Disabled,
	}
}

func (o CollectionOptions[T, P]) settings() settings[T] {
	return settings[T]{
		provider:   o.Provider,
		codec:      o.Codec,
		ttl:        o.TTL,
		expiration: o.Expiration,
		logger:     o.Logger,
		hooks:      o.Hooks,
		locks:      o.Locks,
		cost:       o.ComputeSetCost,
		disabled:   o.Disabled,
	}
}

func (o ArgsOptions[T]) settings() settings[T] {
	return settings[T]{
		provider:   o.Provider,
		codec:      o.Codec,
		ttl:        o.TTL,
		expiration: o.Expiration,
		logger:     o.Logger,
		hooks:      o.Hooks,
		locks:      o.Locks,
		cost:       o.ComputeSetCost,
		disabled:   o.Disabled,
	}
}
