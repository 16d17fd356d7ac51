package cacheproxy

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// KeyLock serializes the check-then-load sequence for one cache key.
// It also satisfies Locker.
type KeyLock struct {
	sem *semaphore.Weighted
}

// Lock blocks until the lock is held or ctx is done.
func (l *KeyLock) Lock(ctx context.Context) error { return l.sem.Acquire(ctx, 1) }

func (l *KeyLock) Unlock() { l.sem.Release(1) }

// KeyLocks maps cache keys to locks. Entries are created on first use and
// never removed; the key space is bounded by distinct cache entries, not by
// request volume. Safe for concurrent use.
type KeyLocks struct {
	m sync.Map // string -> *KeyLock
	n atomic.Int64
}

func NewKeyLocks() *KeyLocks { return &KeyLocks{} }

var processLocks = NewKeyLocks()

// ProcessLocks is the registry used when no KeyLocks is configured. Every
// Item in the process shares it, so two proxies bound to the same key
// serialize against each other.
func ProcessLocks() *KeyLocks { return processLocks }

// For returns the lock registered for key, creating it if needed.
// It does not lock it.
func (r *KeyLocks) For(key string) *KeyLock {
	if v, ok := r.m.Load(key); ok {
		return v.(*KeyLock)
	}
	v, loaded := r.m.LoadOrStore(key, &KeyLock{sem: semaphore.NewWeighted(1)})
	if !loaded {
		r.n.Add(1)
	}
	return v.(*KeyLock)
}

// Len is the number of keys that ever had a lock.
func (r *KeyLocks) Len() int { return int(r.n.Load()) }
