package cacheproxy

import "context"

// ArgsCollection keys entries by positional arguments:
//
//	<prefix>_<arg1>_<arg2>...
//
// Each argument is stringified on its own (nil => "null"). Arity is not
// checked; pass arguments in the order the loader expects them.
type ArgsCollection[T any] struct {
	b  *binding[T]
	ks keyspace
}

func NewArgsCollection[T any](opts ArgsOptions[T]) (*ArgsCollection[T], error) {
	ks, err := newKeyspace(opts.Prefix, opts.MaxKeyLen)
	if err != nil {
		return nil, err
	}
	b, err := newBinding(opts.settings())
	if err != nil {
		return nil, err
	}
	return &ArgsCollection[T]{b: b, ks: ks}, nil
}

func (c *ArgsCollection[T]) Prefix() string { return c.ks.prefix }

func (c *ArgsCollection[T]) Key(args ...any) (string, error) {
	part, err := joinArgs(args)
	if err != nil {
		return "", &KeyError{Prefix: c.ks.prefix, Err: err}
	}
	return c.ks.key(part), nil
}

func (c *ArgsCollection[T]) item(args []any) (*Item[T], error) {
	k, err := c.Key(args...)
	if err != nil {
		return nil, err
	}
	return &Item[T]{b: c.b, key: k}, nil
}

func (c *ArgsCollection[T]) GetData(ctx context.Context, load ArgsLoadFunc[T], args ...any) (T, error) {
	return c.GetDataWith(ctx, load, nil, args...)
}

// GetDataWith is GetData with load guarded by locker (may be nil).
func (c *ArgsCollection[T]) GetDataWith(ctx context.Context, load ArgsLoadFunc[T], locker Locker, args ...any) (T, error) {
	var zero T
	if load == nil {
		return zero, ErrNilLoader
	}
	it, err := c.item(args)
	if err != nil {
		return zero, err
	}
	return it.GetDataWith(ctx, func(ctx context.Context) (T, error) {
		return load(ctx, args)
	}, locker)
}

func (c *ArgsCollection[T]) SetData(ctx context.Context, value T, args ...any) error {
	it, err := c.item(args)
	if err != nil {
		return err
	}
	return it.SetData(ctx, value)
}

func (c *ArgsCollection[T]) Clear(ctx context.Context, args ...any) error {
	it, err := c.item(args)
	if err != nil {
		return err
	}
	return it.Clear(ctx)
}

func (c *ArgsCollection[T]) ClearAll(ctx context.Context) error {
	return clearScope(ctx, c.b, c.ks)
}
