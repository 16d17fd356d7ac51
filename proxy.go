package cacheproxy

import "context"

// Proxy is an Item with its loader and optional locker bound at construction.
type Proxy[T any] struct {
	item   *Item[T]
	load   LoadFunc[T]
	locker Locker
}

// NewProxy binds load to the key in opts. locker may be nil.
func NewProxy[T any](opts Options[T], load LoadFunc[T], locker Locker) (*Proxy[T], error) {
	if load == nil {
		return nil, ErrNilLoader
	}
	it, err := NewItem(opts)
	if err != nil {
		return nil, err
	}
	return &Proxy[T]{item: it, load: load, locker: locker}, nil
}

func (p *Proxy[T]) GetData(ctx context.Context) (T, error) {
	return p.item.GetDataWith(ctx, p.load, p.locker)
}

func (p *Proxy[T]) SetData(ctx context.Context, value T) error { return p.item.SetData(ctx, value) }
func (p *Proxy[T]) Clear(ctx context.Context) error            { return p.item.Clear(ctx) }
func (p *Proxy[T]) Key() string                                { return p.item.Key() }
