package cacheproxy

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	c "github.com/unkn0wn-root/cacheproxy/codec"
	"github.com/unkn0wn-root/cacheproxy/internal/util"
)

// KeyEncoder turns params into the variable part of a cache key.
// It must be deterministic: equal params, equal output.
type KeyEncoder[P any] interface {
	EncodeKey(params P) (string, error)
}

// KeyEncoderFunc adapts a function to KeyEncoder.
type KeyEncoderFunc[P any] func(params P) (string, error)

func (f KeyEncoderFunc[P]) EncodeKey(p P) (string, error) { return f(p) }

type codecKeys[P any] struct {
	codec c.Codec[P]
	text  bool
}

func (k codecKeys[P]) EncodeKey(p P) (string, error) {
	b, err := k.codec.Encode(p)
	if err != nil {
		return "", err
	}
	if k.text {
		return string(b), nil
	}
	return hex.EncodeToString(b), nil
}

// JSONKeys encodes params as JSON text: 1, {"a":1}, ["x","y"].
// Map keys come out sorted; struct fields in declaration order.
func JSONKeys[P any]() KeyEncoder[P] {
	return codecKeys[P]{codec: c.JSON[P]{}, text: true}
}

// CodecKeys encodes params with any codec and hex-encodes the bytes. The codec
// must be deterministic, e.g. codec.MustCBOR[P](true) or codec.Msgpack[P]{}.
func CodecKeys[P any](codec c.Codec[P]) KeyEncoder[P] {
	return codecKeys[P]{codec: codec}
}

// keyspace owns a prefix and builds keys under it.
type keyspace struct {
	prefix    string
	maxKeyLen int
}

func newKeyspace(prefix string, maxKeyLen int) (keyspace, error) {
	if prefix == "" {
		return keyspace{}, ErrEmptyPrefix
	}
	return keyspace{prefix: prefix, maxKeyLen: maxKeyLen}, nil
}

// scope is what ClearAll removes.
func (k keyspace) scope() string { return k.prefix + KeySeparator }

// With hashing on, parts that already look like a hash are hashed too, so a
// literal param can never pose as the digest of another one.
func (k keyspace) key(part string) string {
	if k.maxKeyLen > 0 && (len(part) > k.maxKeyLen || strings.HasPrefix(part, util.HashPrefix)) {
		part = util.HashKey(part)
	}
	return k.scope() + part
}

// paramsPart applies the string and nil rules before falling back to enc.
func paramsPart[P any](enc KeyEncoder[P], p P) (string, error) {
	switch v := any(p).(type) {
	case nil:
		return NullToken, nil
	case string:
		return literal(v), nil
	}
	if isNil(any(p)) {
		return NullToken, nil
	}
	return enc.EncodeKey(p)
}

// argPart stringifies one positional argument.
func argPart(a any) (string, error) {
	if a == nil || isNil(a) {
		return NullToken, nil
	}
	switch v := a.(type) {
	case string:
		return literal(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case time.Time:
		// String() carries the monotonic reading; equal instants must match.
		return v.UTC().Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return JSONKeys[any]().EncodeKey(a)
}

// literal keeps strings verbatim. The null token and anything that starts
// with a quote are Go-quoted instead: quoted output always starts with '"'
// and verbatim output never does, so distinct strings keep distinct parts.
func literal(s string) string {
	if s == NullToken || strings.HasPrefix(s, `"`) {
		return strconv.Quote(s)
	}
	return s
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func joinArgs(args []any) (string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		p, err := argPart(a)
		if err != nil {
			return "", fmt.Errorf("arg %d: %w", i, err)
		}
		parts[i] = p
	}
	return strings.Join(parts, KeySeparator), nil
}
