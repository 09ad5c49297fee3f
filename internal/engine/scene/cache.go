package scene

import (
	"sync"
	"sync/atomic"
)

// CacheStats counts proxy cache hits and misses. It is reset once per frame.
type CacheStats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// Hits returns the hit count since the last Reset.
func (s *CacheStats) Hits() int64 { return s.hits.Load() }

// Misses returns the miss count since the last Reset.
func (s *CacheStats) Misses() int64 { return s.misses.Load() }

// Reset zeroes both counters.
func (s *CacheStats) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
}

// ProxyCache memoizes the proxies a binding built for a set of inputs. K
// should be a struct of the tracked input values; it is compared with ==,
// so every field counts.
//
// The render thread reads the cache while the input thread may
// Invalidate it after changing a property.
type ProxyCache[K comparable] struct {
	mu      sync.Mutex
	valid   bool
	key     K
	proxies []Proxy
}

// Get returns the cached proxies if key equals the last key, otherwise it
// calls build and caches the result. A build error is not cached.
func (c *ProxyCache[K]) Get(key K, stats *CacheStats, build func() ([]Proxy, error)) ([]Proxy, error) {
	c.mu.Lock()
	if c.valid && c.key == key {
		out := c.proxies
		c.mu.Unlock()
		if stats != nil {
			stats.hits.Add(1)
		}
		return out, nil
	}
	c.mu.Unlock()

	if stats != nil {
		stats.misses.Add(1)
	}
	proxies, err := build()
	if err != nil {
		c.Invalidate()
		return nil, err
	}

	c.mu.Lock()
	c.valid = true
	c.key = key
	c.proxies = proxies
	c.mu.Unlock()
	return proxies, nil
}

// Invalidate forces the next Get to rebuild.
func (c *ProxyCache[K]) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.proxies = nil
	c.mu.Unlock()
}
