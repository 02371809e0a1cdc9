// Package tracker tracks synthesis statistics per tier.
package tracker

import (
	"sync"
	"sync/atomic"
)

// Tracker tracks dispatch statistics per tier.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*TierStats
}

// TierStats holds metrics for a specific tier.
// Fields are accessed atomically.
type TierStats struct {
	CacheHits   int64
	CacheMisses int64
	Synthesized int64
	Failures    int64
	Fallbacks   int64
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*TierStats),
	}
}

// getStats returns the stats object for a tier, creating it if needed.
func (t *Tracker) getStats(tier string) *TierStats {
	t.mu.RLock()
	s, ok := t.stats[tier]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[tier]; ok {
		return s
	}
	s = &TierStats{}
	t.stats[tier] = s
	return s
}

// TrackCacheHit increments the cache hit counter.
func (t *Tracker) TrackCacheHit(tier string) {
	atomic.AddInt64(&t.getStats(tier).CacheHits, 1)
}

// TrackCacheMiss increments the cache miss counter.
func (t *Tracker) TrackCacheMiss(tier string) {
	atomic.AddInt64(&t.getStats(tier).CacheMisses, 1)
}

// TrackSynthesis increments the successful synthesis counter.
func (t *Tracker) TrackSynthesis(tier string) {
	atomic.AddInt64(&t.getStats(tier).Synthesized, 1)
}

// TrackFailure increments the failure counter.
func (t *Tracker) TrackFailure(tier string) {
	atomic.AddInt64(&t.getStats(tier).Failures, 1)
}

// TrackFallback increments the counter of requests served by the
// silent placeholder after this tier failed.
func (t *Tracker) TrackFallback(tier string) {
	atomic.AddInt64(&t.getStats(tier).Fallbacks, 1)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]TierStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]TierStats)
	for k, v := range t.stats {
		result[k] = TierStats{
			CacheHits:   atomic.LoadInt64(&v.CacheHits),
			CacheMisses: atomic.LoadInt64(&v.CacheMisses),
			Synthesized: atomic.LoadInt64(&v.Synthesized),
			Failures:    atomic.LoadInt64(&v.Failures),
			Fallbacks:   atomic.LoadInt64(&v.Fallbacks),
		}
	}
	return result
}
