package cache

import (
	"context"
	"sync"
	"time"

	"budget/internal/core"

	"golang.org/x/sync/singleflight"
)

// LoadFunc reads a ledger document from the backing store.
type LoadFunc func(ctx context.Context, user string) (core.LedgerDocument, error)

// LedgerCache fronts ledger reads. Concurrent misses for the same user share
// one store read. Documents are cloned on the way in and out so callers never
// share entry slices with the cache.
//
// Writers call Put or Invalidate after a successful save; each call bumps the
// user's generation so a load that started before the write cannot store its
// older result.
type LedgerCache struct {
	lru   *LRUCache[core.LedgerDocument]
	group singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64
}

func NewLedgerCache(maxSize int, ttl time.Duration) *LedgerCache {
	return &LedgerCache{
		lru:  NewLRUCache[core.LedgerDocument](maxSize, ttl),
		gens: make(map[string]uint64),
	}
}

// Load returns the cached document or reads it through load.
func (c *LedgerCache) Load(ctx context.Context, user string, load LoadFunc) (core.LedgerDocument, error) {
	if doc, ok := c.lru.Get(user); ok {
		return doc.Clone(), nil
	}

	v, err, _ := c.group.Do(user, func() (any, error) {
		gen := c.generation(user)
		doc, err := load(ctx, user)
		if err != nil {
			return core.LedgerDocument{}, err
		}
		c.mu.Lock()
		if c.gens[user] == gen {
			c.lru.Set(user, doc.Clone())
		}
		c.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return core.LedgerDocument{}, err
	}
	return v.(core.LedgerDocument).Clone(), nil
}

// Put stores the document just written for user.
func (c *LedgerCache) Put(user string, doc core.LedgerDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[user]++
	c.lru.Set(user, doc.Clone())
}

// Invalidate drops the user's cached document.
func (c *LedgerCache) Invalidate(user string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[user]++
	c.lru.Delete(user)
}

func (c *LedgerCache) generation(user string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[user]
}

// CleanExpired implements Cleaner.
func (c *LedgerCache) CleanExpired() int {
	return c.lru.CleanExpired()
}

// Size returns the number of cached documents.
func (c *LedgerCache) Size() int {
	return c.lru.Size()
}
