package cacheproxy

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Locker guards load calls that must not run concurrently, e.g. loads that
// share a single non-thread-safe upstream session. Unlike the per-key lock it
// is shared across keys: every load passed the same Locker is serialized.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock()
}

type mutexLocker struct{ l sync.Locker }

// MutexLocker adapts a sync.Locker. Lock ignores ctx and always succeeds.
func MutexLocker(l sync.Locker) Locker { return mutexLocker{l: l} }

func (m mutexLocker) Lock(context.Context) error { m.l.Lock(); return nil }
func (m mutexLocker) Unlock()                    { m.l.Unlock() }

// Semaphore lets at most n loads run at once. n=1 is a ctx-aware mutex.
type Semaphore struct {
	sem *semaphore.Weighted
}

func NewSemaphore(n int64) *Semaphore {
	if n <= 0 {
		n = 1
	}
	return &Semaphore{sem: semaphore.NewWeighted(n)}
}

func (s *Semaphore) Lock(ctx context.Context) error { return s.sem.Acquire(ctx, 1) }
func (s *Semaphore) Unlock()                        { s.sem.Release(1) }

// withLocker runs load, holding locker around it when one is given.
func withLocker[T any](ctx context.Context, load LoadFunc[T], locker Locker) (T, error) {
	if locker == nil {
		return load(ctx)
	}
	if err := locker.Lock(ctx); err != nil {
		var zero T
		return zero, err
	}
	defer locker.Unlock()
	return load(ctx)
}
