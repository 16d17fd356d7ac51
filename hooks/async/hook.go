// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    HitEvery:  100, // sample: ~every 100th hit
//	    MissEvery: 1,   // log every miss
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	users, _ := cacheproxy.NewCollection[User, int](cacheproxy.CollectionOptions[User, int]{
//	    Prefix:   "user",
//	    Provider: provider,
//	    Codec:    codec.JSON[User]{},
//	    Hooks:    hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/cacheproxy"
)

// Hooks moves event delivery off the caller's goroutine. Events that do not
// fit in the queue are dropped and counted.
type Hooks struct {
	inner   cacheproxy.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed vs. sends on q
	closed  bool
	dropped atomic.Uint64
}

var _ cacheproxy.Hooks = (*Hooks)(nil)

func New(inner cacheproxy.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Later events are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped is the number of events lost to a full queue or a closed hook.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) Hit(k string)                 { h.try(func() { h.inner.Hit(k) }) }
func (h *Hooks) Miss(k string)                { h.try(func() { h.inner.Miss(k) }) }
func (h *Hooks) SetRejected(k string)         { h.try(func() { h.inner.SetRejected(k) }) }
func (h *Hooks) Cleared(k string)             { h.try(func() { h.inner.Cleared(k) }) }
func (h *Hooks) ClearedPrefix(p string)       { h.try(func() { h.inner.ClearedPrefix(p) }) }
func (h *Hooks) LoadFailed(k string, e error) { h.try(func() { h.inner.LoadFailed(k, e) }) }
func (h *Hooks) StoreError(op, k string, e error) {
	h.try(func() { h.inner.StoreError(op, k, e) })
}
