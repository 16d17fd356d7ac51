package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
)

var errNoProtoCtor = errors.New("codec: protobuf codec built without a message constructor")

// Protobuf serializes proto messages. Encoding is deterministic so the codec
// can also back key derivation for message-typed params.
type Protobuf[T proto.Message] struct {
	new func() T // e.g. func() *mypb.User { return &mypb.User{} }
}

// NewProtobuf returns a codec that allocates decode targets with ctor.
func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	if c.new == nil {
		var zero T
		return zero, errNoProtoCtor
	}
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}
