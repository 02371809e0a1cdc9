package dispatch

import "sync"

// Artifact is a produced audio file plus the metadata needed to replay it
// from cache.
type Artifact struct {
	Path       string
	Container  string
	ProducedBy string
	Cost       float64
}

// resultCache maps fingerprints to produced artifacts. Entries live for
// the process lifetime; there is no eviction.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]Artifact
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]Artifact)}
}

func (c *resultCache) lookup(fingerprint string) (Artifact, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.entries[fingerprint]
	return a, ok
}

func (c *resultCache) store(fingerprint string, a Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = a
}

func (c *resultCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
