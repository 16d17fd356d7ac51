// Package codec holds the value serializers used by cacheproxy to turn a
// loaded value into the bytes handed to a provider, and back.
//
// Codecs are also reused for cache key derivation (see cacheproxy.CodecKeys);
// for that use the encoding must be deterministic: equal values must encode
// to equal bytes. JSON, deterministic CBOR and Msgpack satisfy this.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
