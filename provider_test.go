package cacheproxy

import (
	"context"
	"strings"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/cacheproxy/provider"
)

type memEntry struct {
	v   []byte
	ttl time.Duration
}

// memProvider is an in-memory store that records what the proxies asked of it.
type memProvider struct {
	mu     sync.Mutex
	m      map[string]memEntry
	gets   int
	sets   int
	getErr error
	setErr error
	reject bool // Set returns ok=false and stores nothing
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gets++
	if p.getErr != nil {
		return nil, false, p.getErr
	}
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets++
	if p.setErr != nil {
		return false, p.setErr
	}
	if p.reject {
		return false, nil
	}
	p.m[key] = memEntry{v: append([]byte(nil), value...), ttl: ttl}
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, key)
	return nil
}

func (p *memProvider) DelPrefix(_ context.Context, prefix string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.m {
		if strings.HasPrefix(k, prefix) {
			delete(p.m, k)
		}
	}
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

func (p *memProvider) has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.m[key]
	return ok
}

func (p *memProvider) entry(key string) (memEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	return e, ok
}

func (p *memProvider) counts() (gets, sets int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gets, p.sets
}

func (p *memProvider) put(key string, raw []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[key] = memEntry{v: raw}
}

type recordingHooks struct {
	NopHooks
	mu       sync.Mutex
	hits     int
	misses   int
	failed   int
	rejected int
	storeOps []string
	prefixes []string
}

func (h *recordingHooks) Hit(string)  { h.mu.Lock(); h.hits++; h.mu.Unlock() }
func (h *recordingHooks) Miss(string) { h.mu.Lock(); h.misses++; h.mu.Unlock() }
func (h *recordingHooks) LoadFailed(string, error) {
	h.mu.Lock()
	h.failed++
	h.mu.Unlock()
}
func (h *recordingHooks) SetRejected(string) { h.mu.Lock(); h.rejected++; h.mu.Unlock() }
func (h *recordingHooks) StoreError(op, _ string, _ error) {
	h.mu.Lock()
	h.storeOps = append(h.storeOps, op)
	h.mu.Unlock()
}
func (h *recordingHooks) ClearedPrefix(p string) {
	h.mu.Lock()
	h.prefixes = append(h.prefixes, p)
	h.mu.Unlock()
}
