package cacheproxy

import (
	"context"
)

// Item is cache-aside access to one key. It holds no data itself: every read
// goes to the provider, and concurrent misses for the key are collapsed into a
// single load by the per-key lock.
//
// Item is stateless apart from its binding, so it is cheap to construct and
// safe for concurrent use.
type Item[T any] struct {
	b   *binding[T]
	key string
}

func NewItem[T any](opts Options[T]) (*Item[T], error) {
	if opts.Key == "" {
		return nil, ErrEmptyKey
	}
	b, err := newBinding(opts.settings())
	if err != nil {
		return nil, err
	}
	return &Item[T]{b: b, key: opts.Key}, nil
}

func (it *Item[T]) Key() string { return it.key }

// GetData returns the cached value, or runs load and caches its result.
func (it *Item[T]) GetData(ctx context.Context, load LoadFunc[T]) (T, error) {
	return it.GetDataWith(ctx, load, nil)
}

// GetDataWith is GetData with load guarded by locker (may be nil).
//
// The per-key lock is held across the store read, the load and the store
// write, so racing callers for the same key run load at most once per miss
// and the losers read the winner's value. Errors from the provider, the codec
// or load are returned unchanged and nothing is cached on failure.
func (it *Item[T]) GetDataWith(ctx context.Context, load LoadFunc[T], locker Locker) (T, error) {
	var zero T
	if load == nil {
		return zero, ErrNilLoader
	}
	if !it.b.enabled {
		return withLocker(ctx, load, locker)
	}

	lk := it.b.locks.For(it.key)
	if err := lk.Lock(ctx); err != nil {
		return zero, err
	}
	defer lk.Unlock()

	if v, ok, err := it.get(ctx); err != nil || ok {
		return v, err
	}

	it.b.hooks.Miss(it.key)
	it.b.log.Debug("cache miss; loading", Fields{"key": it.key})

	v, err := withLocker(ctx, load, locker)
	if err != nil {
		it.b.hooks.LoadFailed(it.key, err)
		it.b.log.Warn("load failed; nothing cached", Fields{"key": it.key, "err": err})
		return zero, err
	}
	if err := it.set(ctx, v); err != nil {
		return zero, err
	}
	return v, nil
}

// SetData writes value unconditionally (last write wins). Use it to seed the
// cache right after creating or updating the underlying data.
func (it *Item[T]) SetData(ctx context.Context, value T) error {
	if !it.b.enabled {
		return nil
	}
	return it.set(ctx, value)
}

// Clear removes the entry. Missing entries are not an error.
func (it *Item[T]) Clear(ctx context.Context) error {
	if !it.b.enabled {
		return nil
	}
	if err := it.b.provider.Del(ctx, it.key); err != nil {
		it.b.hooks.StoreError("del", it.key, err)
		return err
	}
	it.b.hooks.Cleared(it.key)
	it.b.log.Debug("cleared key", Fields{"key": it.key})
	return nil
}

func (it *Item[T]) get(ctx context.Context) (T, bool, error) {
	var zero T
	raw, ok, err := it.b.provider.Get(ctx, it.key)
	if err != nil {
		it.b.hooks.StoreError("get", it.key, err)
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}
	v, err := it.b.codec.Decode(raw)
	if err != nil {
		it.b.hooks.StoreError("decode", it.key, err)
		return zero, false, err
	}
	it.b.hooks.Hit(it.key)
	return v, true, nil
}

func (it *Item[T]) set(ctx context.Context, value T) error {
	raw, err := it.b.codec.Encode(value)
	if err != nil {
		it.b.hooks.StoreError("encode", it.key, err)
		return err
	}
	ttl := it.b.expire(value)
	ok, err := it.b.provider.Set(ctx, it.key, raw, it.b.cost(it.key, raw), ttl)
	if err != nil {
		it.b.hooks.StoreError("set", it.key, err)
		return err
	}
	if !ok {
		it.b.hooks.SetRejected(it.key)
		it.b.log.Debug("set rejected by provider (pressure)", Fields{"key": it.key})
	}
	return nil
}
