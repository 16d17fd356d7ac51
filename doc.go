// Package cacheproxy is a cache-aside access layer over a provider-agnostic
// byte store. It serves a value from the store, or runs the caller's load
// function on a miss and writes the result back, with at most one in-flight
// load per key inside the process.
//
// Components:
//   - Provider: byte store with TTL and prefix removal (Redis, BigCache,
//     Ristretto, bbolt).
//   - Codec[T]: (de)serializes T <-> []byte.
//   - KeyLocks: process-wide registry of per-key locks, created on first use
//     and never removed.
//
// Shapes:
//
//	Item[T]                 one key, loader passed per call
//	Proxy[T]                one key, loader bound at construction
//	Collection[T, P]        <prefix>_<encode(P)>, loader passed per call
//	LoadingCollection[T, P] <prefix>_<encode(P)>, loader bound at construction
//	ArgsCollection[T]       <prefix>_<arg1>_<arg2>..., positional arguments
//
// Read path (the per-key lock covers both the check and the load):
//
//	lock(key)
//	v, ok := provider.Get(key)
//	if !ok { v = load(); provider.Set(key, v, expiration(v)) }
//	unlock(key)
//
// Params encoding: strings are used verbatim, nil params become "null", and
// everything else goes through a deterministic KeyEncoder (JSON by default).
// ClearAll removes <prefix>_* through Provider.DelPrefix.
package cacheproxy
