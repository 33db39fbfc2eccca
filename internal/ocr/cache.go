package ocr

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// DefaultCacheSize bounds the result cache. Well above any realistic page
// count for a single run, so within a run the cache behaves as if unbounded.
const DefaultCacheSize = 256

// Cache holds recognition results for the lifetime of the process, keyed by
// image content and page index. It is bounded: once full, the oldest
// inserted entry is evicted.
type Cache struct {
	mu      sync.Mutex
	max     int
	entries map[string]Result
	order   []string
}

// NewCache creates a cache holding at most max entries. A non-positive max
// falls back to DefaultCacheSize.
func NewCache(max int) *Cache {
	if max <= 0 {
		max = DefaultCacheSize
	}
	return &Cache{
		max:     max,
		entries: make(map[string]Result, max),
	}
}

// Key derives the cache key for an image/page pair.
func Key(image []byte, pageIndex int) string {
	sum := sha256.Sum256(image)
	return fmt.Sprintf("%s:%d", hex.EncodeToString(sum[:]), pageIndex)
}

// Get returns the cached result for key, if present.
func (c *Cache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.entries[key]
	return res, ok
}

// Put stores a result, evicting the oldest entry when the cache is full.
// Re-putting an existing key refreshes its value without growing the cache.
func (c *Cache) Put(key string, res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = res
		return
	}
	for len(c.entries) >= c.max && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = res
	c.order = append(c.order, key)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
