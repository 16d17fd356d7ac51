// Package sloghooks reports cacheproxy events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/cacheproxy"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery  uint64
	MissEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr  atomic.Uint64
	missCtr atomic.Uint64
}

var _ cacheproxy.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Hit(key string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("cacheproxy.hit", "key", h.redact(key))
}

func (h *Hooks) Miss(key string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("cacheproxy.miss", "key", h.redact(key))
}

func (h *Hooks) LoadFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cacheproxy.load_failed",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) SetRejected(key string) {
	if h.l == nil {
		return
	}
	h.l.Warn("cacheproxy.set_rejected", "key", h.redact(key))
}

func (h *Hooks) StoreError(op, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("cacheproxy.store_error",
		"op", op,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) Cleared(key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("cacheproxy.cleared", "key", h.redact(key))
}

// Prefixes name whole collections, so they are logged unredacted.
func (h *Hooks) ClearedPrefix(prefix string) {
	if h.l == nil {
		return
	}
	h.l.Info("cacheproxy.cleared_prefix", "prefix", prefix)
}
