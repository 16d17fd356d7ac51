package ristretto

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/cacheproxy/provider"
)

// entry is what ristretto stores. Ristretto only keeps key hashes, so the
// original key rides along with the value for index upkeep on eviction.
type entry struct {
	key string
	val []byte
}

// Provider stores values in Ristretto. Ristretto cannot enumerate keys, so a
// side index of live keys backs DelPrefix; evicted and rejected entries are
// dropped from it through ristretto's callbacks.
type Provider struct {
	c *rc.Cache

	mu    sync.Mutex
	index map[string]*entry
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
	// Cost in Ristretto is provided by the caller (cacheproxy passes cost per Set).
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	p := &Provider{index: make(map[string]*entry)}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
		OnEvict:     p.forget,
		OnReject:    p.forget,
	})
	if err != nil {
		return nil, err
	}
	p.c = c
	return p, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	e, _ := v.(*entry)
	if e == nil || e.key != key {
		// self-heal: drop unexpected entry shape or a hash collision
		p.c.Del(key)
		return nil, false, nil
	}
	return e.val, true, nil
}

// Set waits for ristretto's write buffer so the value is visible to the next
// Get; without it a racing loader could miss and load twice. Admission runs
// during that wait, so a write the policy drops reports ok=false.
func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0 // ristretto refuses negative TTLs; ours mean "no expiry"
	}
	e := &entry{key: key, val: value}

	p.mu.Lock()
	p.index[key] = e
	p.mu.Unlock()

	ok := p.c.SetWithTTL(key, e, cost, ttl)
	if !ok {
		p.drop(e)
		return false, nil
	}
	p.c.Wait()

	// OnReject/OnEvict have run by now and unlinked e if it was dropped
	p.mu.Lock()
	kept := p.index[key] == e
	p.mu.Unlock()
	return kept, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	p.mu.Lock()
	delete(p.index, key)
	p.mu.Unlock()
	return nil
}

func (p *Provider) DelPrefix(ctx context.Context, prefix string) error {
	p.mu.Lock()
	var doomed []string
	for k := range p.index {
		if strings.HasPrefix(k, prefix) {
			doomed = append(doomed, k)
		}
	}
	p.mu.Unlock()

	for _, k := range doomed {
		_ = p.Del(ctx, k)
	}
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes ristretto's counters (nil unless Config.Metrics).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }

func (p *Provider) forget(item *rc.Item) {
	if e, ok := item.Value.(*entry); ok {
		p.drop(e)
	}
}

// drop removes e from the index unless a newer Set replaced it.
func (p *Provider) drop(e *entry) {
	p.mu.Lock()
	if p.index[e.key] == e {
		delete(p.index, e.key)
	}
	p.mu.Unlock()
}
