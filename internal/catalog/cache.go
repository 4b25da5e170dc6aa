package catalog

import (
	"encoding/json"
	"sync"
	"time"
)

type cacheEntry struct {
	data     any
	storedAt time.Time
	ttl      time.Duration
}

func (e *cacheEntry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// Cache is an in-memory TTL cache. Expired entries are evicted when the
// client looks them up for a refetch; there is no background sweep.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

// CacheKey derives the key for an endpoint and its parameters as
// endpoint + "_" + JSON(params). encoding/json sorts map keys, so equal
// parameter sets always produce the same key.
func CacheKey(endpoint string, params map[string]string) string {
	if params == nil {
		params = map[string]string{}
	}
	b, err := json.Marshal(params)
	if err != nil {
		return endpoint + "_{}"
	}
	return endpoint + "_" + string(b)
}

// lookup returns the data for a fresh entry. An expired entry is removed and
// handed back as stale so the caller can restore it if the refetch fails.
func (c *Cache) lookup(key string) (data any, fresh bool, stale *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false, e
	}
	return e.data, true, nil
}

// Get returns fresh data for key. Expired entries are left in place.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.expired(c.now()) {
		return nil, false
	}
	return e.data, true
}

// Set stores data under key with the default TTL.
func (c *Cache) Set(key string, data any) {
	c.SetWithTTL(key, data, c.ttl)
}

func (c *Cache) SetWithTTL(key string, data any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry{data: data, storedAt: c.now(), ttl: ttl}
}

// restore puts an evicted entry back unless a newer one has been stored.
func (c *Cache) restore(key string, e *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = e
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}
