package dict

import (
	"slices"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/pior/dict/protocol"
)

// resultCache keeps the answers of recent requests, keyed by the hash of
// the request line. Oldest entries are evicted first once size is reached.
type resultCache struct {
	mu      sync.Mutex
	size    int
	ttl     time.Duration
	entries map[uint64]cacheEntry
	order   []uint64 // insertion order, ring of len size
	next    int
}

type cacheEntry struct {
	value   any
	expires time.Time // zero means no expiry
}

// newResultCache returns nil when size is not positive; a nil cache is a no-op.
func newResultCache(size int, ttl time.Duration) *resultCache {
	if size <= 0 {
		return nil
	}
	return &resultCache{
		size:    size,
		ttl:     ttl,
		entries: make(map[uint64]cacheEntry, size),
		order:   make([]uint64, 0, size),
	}
}

func cacheKey(requestLine string) uint64 {
	return xxh3.HashString(requestLine)
}

func (c *resultCache) get(key uint64) (any, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	// expired entries stay in place until put or eviction replaces them
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (c *resultCache) put(key uint64, value any) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := cacheEntry{value: value}
	if c.ttl > 0 {
		e.expires = time.Now().Add(c.ttl)
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = e
		return
	}

	if len(c.order) < c.size {
		c.order = append(c.order, key)
	} else {
		delete(c.entries, c.order[c.next])
		c.order[c.next] = key
		c.next = (c.next + 1) % c.size
	}
	c.entries[key] = e
}

func (c *resultCache) len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cloneDefinitions copies defs and their text lines, so cached answers
// never share memory with the caller.
func cloneDefinitions(defs []protocol.Definition) []protocol.Definition {
	if defs == nil {
		return nil
	}
	out := make([]protocol.Definition, len(defs))
	for i, d := range defs {
		out[i] = protocol.Definition{Source: d.Source, Text: slices.Clone(d.Text)}
	}
	return out
}
