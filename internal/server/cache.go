package server

import (
	"crypto/sha256"
	"sync"
	"time"
)

// cacheKey identifies one scan request: page URL, markup and render flag.
type cacheKey [sha256.Size]byte

// cacheEntry holds a rendered tool response with its timestamp.
type cacheEntry struct {
	text      string
	timestamp time.Time
}

// ReportCache provides a TTL-based cache for scan tool responses, so an
// agent re-checking the same page does not re-parse it.
type ReportCache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	ttl     time.Duration
}

// NewReportCache creates a new cache. A ttl of 0 disables caching.
func NewReportCache(ttl time.Duration) *ReportCache {
	return &ReportCache{
		entries: make(map[cacheKey]cacheEntry),
		ttl:     ttl,
	}
}

func keyFor(pageURL, markup string, render bool) cacheKey {
	h := sha256.New()
	h.Write([]byte(pageURL))
	h.Write([]byte{0})
	h.Write([]byte(markup))
	if render {
		h.Write([]byte{1})
	}
	var k cacheKey
	copy(k[:], h.Sum(nil))
	return k
}

// Get returns the cached response if within TTL, otherwise computes a fresh
// one with fn. Errors are not cached.
func (c *ReportCache) Get(pageURL, markup string, render bool, fn func() (string, error)) (string, error) {
	if c.ttl == 0 {
		return fn()
	}

	key := keyFor(pageURL, markup, render)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && time.Since(entry.timestamp) < c.ttl {
		text := entry.text
		c.mu.Unlock()
		return text, nil
	}
	c.mu.Unlock()

	text, err := fn()
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.prune()
	c.entries[key] = cacheEntry{text: text, timestamp: time.Now()}
	c.mu.Unlock()

	return text, nil
}

// InvalidateAll clears the entire cache.
func (c *ReportCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]cacheEntry)
}

// Len returns the number of cached entries.
func (c *ReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// prune drops expired entries. Callers hold c.mu.
func (c *ReportCache) prune() {
	for k, e := range c.entries {
		if time.Since(e.timestamp) >= c.ttl {
			delete(c.entries, k)
		}
	}
}
