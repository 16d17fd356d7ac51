// Package promhooks counts cacheproxy events with Prometheus.
//
// Keys are unbounded, so no metric is labelled by key. Collections are
// distinguished by the constant "cache" label given to New.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/cacheproxy"
)

type Hooks struct {
	hits         prometheus.Counter
	misses       prometheus.Counter
	loadFailures prometheus.Counter
	setRejected  prometheus.Counter
	storeErrors  *prometheus.CounterVec
	clears       prometheus.Counter
	prefixClears prometheus.Counter
}

var _ cacheproxy.Hooks = (*Hooks)(nil)

// New registers the counters on reg under namespace "cacheproxy".
func New(reg prometheus.Registerer, cache string) (*Hooks, error) {
	labels := prometheus.Labels{"cache": cache}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cacheproxy",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	h := &Hooks{
		hits:         counter("hits_total", "Reads served from the store."),
		misses:       counter("misses_total", "Reads that ran the loader."),
		loadFailures: counter("load_failures_total", "Loader calls that returned an error."),
		setRejected:  counter("set_rejected_total", "Writes the provider refused under pressure."),
		clears:       counter("clears_total", "Single entries cleared."),
		prefixClears: counter("prefix_clears_total", "Whole collections cleared."),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "cacheproxy",
			Name:        "store_errors_total",
			Help:        "Provider and codec failures by operation.",
			ConstLabels: labels,
		}, []string{"op"}),
	}

	for _, c := range []prometheus.Collector{
		h.hits, h.misses, h.loadFailures, h.setRejected, h.clears, h.prefixClears, h.storeErrors,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) Hit(string)                              { h.hits.Inc() }
func (h *Hooks) Miss(string)                             { h.misses.Inc() }
func (h *Hooks) LoadFailed(string, error)                { h.loadFailures.Inc() }
func (h *Hooks) SetRejected(string)                      { h.setRejected.Inc() }
func (h *Hooks) StoreError(op string, _ string, _ error) { h.storeErrors.WithLabelValues(op).Inc() }
func (h *Hooks) Cleared(string)                          { h.clears.Inc() }
func (h *Hooks) ClearedPrefix(string)                    { h.prefixClears.Inc() }
