package cacheproxy

// Hooks are lightweight callbacks for cache events.
// Implementations MUST be cheap and non-blocking: Hit, Miss and LoadFailed
// run while the per-key lock is held.
type Hooks interface {
	// A read was served from the store.
	Hit(key string)
	// A read found nothing and the loader is about to run.
	Miss(key string)
	// The loader returned an error; nothing was cached.
	LoadFailed(key string, err error)
	// Provider returned ok=false on Set (backpressure/eviction).
	SetRejected(key string)
	// A provider or codec call failed.
	// op ∈ {"get", "set", "del", "del_prefix", "encode", "decode"}
	StoreError(op, key string, err error)
	// Clear removed a single entry.
	Cleared(key string)
	// ClearAll removed every entry under prefix.
	ClearedPrefix(prefix string)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) Hit(string)                       {}
func (NopHooks) Miss(string)                      {}
func (NopHooks) LoadFailed(string, error)         {}
func (NopHooks) SetRejected(string)               {}
func (NopHooks) StoreError(string, string, error) {}
func (NopHooks) Cleared(string)                   {}
func (NopHooks) ClearedPrefix(string)             {}
