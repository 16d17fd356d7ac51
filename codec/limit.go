package codec

import "fmt"

// ErrTooLarge is wrapped by LimitCodec when a payload exceeds its bound.
var ErrTooLarge = fmt.Errorf("codec: payload too large")

// LimitCodec wraps another codec and bounds payload sizes in both directions.
// MaxEncode guards the store against oversized loaded values; MaxDecode guards
// the process against oversized entries coming back from a shared store.
// A bound <= 0 disables that side.
type LimitCodec[V any] struct {
	Inner     Codec[V]
	MaxEncode int
	MaxDecode int
}

func (c LimitCodec[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.MaxEncode > 0 && len(b) > c.MaxEncode {
		return nil, fmt.Errorf("%w: encode %d > %d", ErrTooLarge, len(b), c.MaxEncode)
	}
	return b, nil
}

func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("%w: decode %d > %d", ErrTooLarge, len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
