// Package cache memoizes index reads in a bounded, time-limited LRU.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

const (
	DefaultSize = 1024
	DefaultTTL  = 300 * time.Second
)

// Key identifies one call: the operation name plus its arguments.
type Key struct {
	Op   string
	Args string
}

func NewKey(op string, args ...any) Key {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%#v", a)
	}
	return Key{Op: op, Args: strings.Join(parts, "\x1f")}
}

type entry struct {
	value     any
	expiresAt time.Time
}

type Stats struct {
	Size   int    `json:"size"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// Cache is safe for concurrent use; a read that populates the cache is a
// write, so every operation takes the lock.
type Cache struct {
	mu     sync.Mutex
	lru    *lru.Cache
	ttl    time.Duration
	now    func() time.Time
	hits   uint64
	misses uint64
}

// New builds a cache; non-positive arguments fall back to the defaults.
func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{lru: lru.New(size), ttl: ttl, now: time.Now}
}

func (c *Cache) Get(k Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(k)
	if !ok {
		c.misses++
		return nil, false
	}
	e := v.(entry)
	if !c.now().Before(e.expiresAt) {
		c.lru.Remove(k)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

func (c *Cache) Add(k Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(k, entry{value: v, expiresAt: c.now().Add(c.ttl)})
}

// Clear drops every entry and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
	c.hits, c.misses = 0, 0
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: c.lru.Len(), Hits: c.hits, Misses: c.misses}
}

// Do returns the cached result for k, computing and storing it on a miss.
// fn runs without the lock held, so two concurrent misses may both compute;
// the later Add wins, which is harmless for deterministic reads.
func Do[T any](c *Cache, k Key, fn func() T) T {
	if c == nil {
		return fn()
	}
	if v, ok := c.Get(k); ok {
		return v.(T)
	}
	v := fn()
	c.Add(k, v)
	return v
}
