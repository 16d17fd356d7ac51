package bolt

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/unkn0wn-root/cacheproxy/internal/wire"
	pr "github.com/unkn0wn-root/cacheproxy/provider"
)

// Provider is a persistent store on a single bbolt file. Values are framed
// with their deadline; expired entries read as misses and are removed by an
// optional background sweep. Prefix removal is a cursor range delete inside
// one write transaction, so it is atomic with respect to concurrent Sets.
type Provider struct {
	db     *bolt.DB
	bucket []byte
	now    func() time.Time

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	Path          string
	Bucket        string        // "" => "cacheproxy"
	OpenTimeout   time.Duration // file lock wait; 0 => 1s
	SweepInterval time.Duration // 0 => no background sweep (lazy expiry only)
}

func Open(cfg Config) (*Provider, error) {
	if cfg.Path == "" {
		return nil, errors.New("bolt provider: path is required")
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	bucket := []byte("cacheproxy")
	if cfg.Bucket != "" {
		bucket = []byte(cfg.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	p := &Provider{db: db, bucket: bucket, now: time.Now}
	if cfg.SweepInterval > 0 {
		p.ticker = time.NewTicker(cfg.SweepInterval)
		p.stopCh = make(chan struct{})
		p.wg.Add(1)
		go p.sweepLoop()
	}
	return p, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	var (
		out     []byte
		found   bool
		expired bool
	)
	err := p.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(p.bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		exp, payload, err := wire.DecodeEntry(v)
		if err != nil {
			return err
		}
		if wire.Expired(exp, p.now()) {
			expired = true
			return nil
		}
		// v is only valid inside the transaction
		out = append([]byte(nil), payload...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if expired {
		_ = p.deleteIfExpired(key)
	}
	return out, found, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	frame := wire.EncodeEntry(wire.ExpiresAt(p.now(), ttl), value)
	err := p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).Put([]byte(key), frame)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).Delete([]byte(key))
	})
}

func (p *Provider) DelPrefix(_ context.Context, prefix string) error {
	pfx := []byte(prefix)
	return p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(p.bucket)
		var doomed [][]byte
		c := b.Cursor()
		for k, _ := c.Seek(pfx); k != nil && bytes.HasPrefix(k, pfx); k, _ = c.Next() {
			doomed = append(doomed, append([]byte(nil), k...))
		}
		return deleteAll(b, doomed)
	})
}

// Sweep removes every expired entry and reports how many were dropped.
func (p *Provider) Sweep() (int, error) {
	now := p.now()
	var removed int
	err := p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(p.bucket)
		var doomed [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			exp, _, err := wire.DecodeEntry(v)
			if err != nil || !wire.Expired(exp, now) {
				continue
			}
			doomed = append(doomed, append([]byte(nil), k...))
		}
		removed = len(doomed)
		return deleteAll(b, doomed)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (p *Provider) Close(_ context.Context) error {
	p.closeOnce.Do(func() {
		if p.stopCh != nil {
			close(p.stopCh)
			p.ticker.Stop()
			p.wg.Wait()
		}
	})
	return p.db.Close()
}

func (p *Provider) deleteIfExpired(key string) error {
	return p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(p.bucket)
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		// re-check: a Set may have landed since the read
		if exp, _, err := wire.DecodeEntry(v); err != nil || !wire.Expired(exp, p.now()) {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// deleteAll runs after iteration ends; deleting under a live cursor can skip keys.
func deleteAll(b *bolt.Bucket, keys [][]byte) error {
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) sweepLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ticker.C:
			_, _ = p.Sweep()
		case <-p.stopCh:
			return
		}
	}
}
