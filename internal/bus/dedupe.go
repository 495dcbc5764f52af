package bus

import (
	"sync"
	"time"
)

// Defaults for channel message deduplication.
const (
	DefaultDedupeTTL  = 20 * time.Minute
	DefaultDedupeSize = 5000
)

// DedupeCache remembers recently seen message keys so redelivered updates
// are answered once. Entries expire after ttl and are pruned lazily.
type DedupeCache struct {
	mu      sync.Mutex
	entries map[string]int64 // key → unix millis
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// NewDedupeCache creates a cache. Zero ttl or maxSize selects the defaults.
func NewDedupeCache(ttl time.Duration, maxSize int) *DedupeCache {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultDedupeSize
	}
	return &DedupeCache{
		entries: make(map[string]int64, 256),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// IsDuplicate reports whether key was seen within the TTL window, and
// records it otherwise. Empty keys are never duplicates.
func (d *DedupeCache) IsDuplicate(key string) bool {
	if key == "" {
		return false
	}
	now := d.now().UnixMilli()
	cutoff := now - d.ttl.Milliseconds()

	d.mu.Lock()
	defer d.mu.Unlock()

	if ts, ok := d.entries[key]; ok && ts >= cutoff {
		return true
	}
	d.prune(cutoff)
	d.entries[key] = now
	return false
}

// Len returns the number of tracked keys.
func (d *DedupeCache) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// prune drops expired keys, then the oldest keys while at capacity.
// Must be called with d.mu held.
func (d *DedupeCache) prune(cutoff int64) {
	for k, ts := range d.entries {
		if ts < cutoff {
			delete(d.entries, k)
		}
	}

	for len(d.entries) >= d.maxSize {
		var oldestKey string
		oldest := int64(-1)
		for k, ts := range d.entries {
			if oldest < 0 || ts < oldest {
				oldestKey, oldest = k, ts
			}
		}
		delete(d.entries, oldestKey)
	}
}
