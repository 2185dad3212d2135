// Package routecache caches routing results keyed by the request
// fingerprint (text plus the last three context lines).
package routecache

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/layermem/layermem/internal/model"
)

const (
	// DefaultCapacity bounds the number of cached routing results.
	DefaultCapacity = 1000
	// DefaultTTL is how long a cached result stays valid.
	DefaultTTL = 30 * time.Minute
)

type entry struct {
	result     model.RoutingResult
	insertedAt time.Time
}

// Cache is a bounded, TTL'd LRU of routing results. The TTL check is layered
// on top of the LRU so expiry is driven by the injectable clock.
type Cache struct {
	lru *lru.Cache[string, entry]
	ttl time.Duration
	now func() time.Time
}

// New creates a cache. capacity <= 0 and ttl <= 0 take the defaults.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	l, _ := lru.New[string, entry](capacity)
	return &Cache{lru: l, ttl: ttl, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (c *Cache) SetClock(now func() time.Time) { c.now = now }

// Key builds the cache fingerprint from text and up to the last three
// context lines.
func Key(text string, recent []string) string {
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	if len(recent) == 0 {
		return text
	}
	return text + "|" + strings.Join(recent, "|")
}

// Get returns the cached result for key. Expired entries are evicted and
// reported as a miss; hits are promoted to most recently used.
func (c *Cache) Get(key string) (model.RoutingResult, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return model.RoutingResult{}, false
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		c.lru.Remove(key)
		return model.RoutingResult{}, false
	}
	return e.result, true
}

// Set stores a result under key, resetting its position and timestamp.
func (c *Cache) Set(key string, res model.RoutingResult) {
	c.lru.Add(key, entry{result: res, insertedAt: c.now()})
}

// Clear drops every cached result. Called whenever the router learns.
func (c *Cache) Clear() { c.lru.Purge() }

// Len returns the number of cached entries, expired or not.
func (c *Cache) Len() int { return c.lru.Len() }
