package cacheproxy

import "context"

// Collection multiplexes many items of the same type under one prefix and
// expiration policy. Each params value maps to the key
//
//	<prefix>_<encode(params)>
//
// and is served through an Item built for that key.
type Collection[T, P any] struct {
	b    *binding[T]
	ks   keyspace
	keys KeyEncoder[P]
}

func NewCollection[T, P any](opts CollectionOptions[T, P]) (*Collection[T, P], error) {
	ks, err := newKeyspace(opts.Prefix, opts.MaxKeyLen)
	if err != nil {
		return nil, err
	}
	b, err := newBinding(opts.settings())
	if err != nil {
		return nil, err
	}
	keys := opts.Keys
	if keys == nil {
		keys = JSONKeys[P]()
	}
	return &Collection[T, P]{b: b, ks: ks, keys: keys}, nil
}

func (c *Collection[T, P]) Prefix() string { return c.ks.prefix }

// Key derives the cache key for params.
func (c *Collection[T, P]) Key(params P) (string, error) {
	part, err := paramsPart(c.keys, params)
	if err != nil {
		return "", &KeyError{Prefix: c.ks.prefix, Err: err}
	}
	return c.ks.key(part), nil
}

// Item is stateless, so a fresh one per call is equivalent to a cached one.
func (c *Collection[T, P]) item(params P) (*Item[T], error) {
	k, err := c.Key(params)
	if err != nil {
		return nil, err
	}
	return &Item[T]{b: c.b, key: k}, nil
}

func (c *Collection[T, P]) GetData(ctx context.Context, params P, load ParamsLoadFunc[T, P]) (T, error) {
	return c.GetDataWith(ctx, params, load, nil)
}

// GetDataWith is GetData with load guarded by locker (may be nil).
func (c *Collection[T, P]) GetDataWith(ctx context.Context, params P, load ParamsLoadFunc[T, P], locker Locker) (T, error) {
	var zero T
	if load == nil {
		return zero, ErrNilLoader
	}
	it, err := c.item(params)
	if err != nil {
		return zero, err
	}
	return it.GetDataWith(ctx, func(ctx context.Context) (T, error) {
		return load(ctx, params)
	}, locker)
}

func (c *Collection[T, P]) SetData(ctx context.Context, params P, value T) error {
	it, err := c.item(params)
	if err != nil {
		return err
	}
	return it.SetData(ctx, value)
}

// Clear removes the entry for params only.
func (c *Collection[T, P]) Clear(ctx context.Context, params P) error {
	it, err := c.item(params)
	if err != nil {
		return err
	}
	return it.Clear(ctx)
}

// ClearAll removes every entry under "<prefix>_" in one provider call.
func (c *Collection[T, P]) ClearAll(ctx context.Context) error {
	return clearScope(ctx, c.b, c.ks)
}

func clearScope[T any](ctx context.Context, b *binding[T], ks keyspace) error {
	if !b.enabled {
		return nil
	}
	scope := ks.scope()
	if err := b.provider.DelPrefix(ctx, scope); err != nil {
		b.hooks.StoreError("del_prefix", scope, err)
		return err
	}
	b.hooks.ClearedPrefix(scope)
	b.log.Debug("cleared prefix", Fields{"prefix": scope})
	return nil
}

// LoadingCollection is a Collection with its loader and optional locker bound
// at construction.
type LoadingCollection[T, P any] struct {
	coll   *Collection[T, P]
	load   ParamsLoadFunc[T, P]
	locker Locker
}

// NewLoadingCollection binds load to the collection in opts. locker may be nil.
func NewLoadingCollection[T, P any](opts CollectionOptions[T, P], load ParamsLoadFunc[T, P], locker Locker) (*LoadingCollection[T, P], error) {
	if load == nil {
		return nil, ErrNilLoader
	}
	coll, err := NewCollection(opts)
	if err != nil {
		return nil, err
	}
	return &LoadingCollection[T, P]{coll: coll, load: load, locker: locker}, nil
}

func (l *LoadingCollection[T, P]) GetData(ctx context.Context, params P) (T, error) {
	return l.coll.GetDataWith(ctx, params, l.load, l.locker)
}

func (l *LoadingCollection[T, P]) SetData(ctx context.Context, params P, value T) error {
	return l.coll.SetData(ctx, params, value)
}

func (l *LoadingCollection[T, P]) Clear(ctx context.Context, params P) error {
	return l.coll.Clear(ctx, params)
}

func (l *LoadingCollection[T, P]) ClearAll(ctx context.Context) error { return l.coll.ClearAll(ctx) }
func (l *LoadingCollection[T, P]) Key(params P) (string, error)       { return l.coll.Key(params) }
func (l *LoadingCollection[T, P]) Prefix() string                     { return l.coll.Prefix() }
