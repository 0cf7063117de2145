// Package cache holds precomputed ephemeris results.
//
// SkyCache keeps snapshots of every body for [now, now+horizon]. A background
// worker generates new snapshots at the leading edge and evicts expired
// entries from the trailing edge. RiseSetCache memoizes horizon crossing
// searches in a bounded LRU.
package cache

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/sky-map-team/stardroid-sub001/internal/ephemeris"
	"github.com/sky-map-team/stardroid-sub001/internal/metrics"
)

const skyCacheName = "sky"

// Config holds sky cache configuration loaded from environment variables.
type Config struct {
	Step    time.Duration // Snapshot interval (default: 60s)
	Horizon time.Duration // How far ahead to cache (default: 1h)
	Buffer  time.Duration // Keep entries this long past expiration (default: 5m)
}

// Entry wraps a snapshot with generation metadata.
type Entry struct {
	Snapshot    *ephemeris.Snapshot
	GeneratedAt time.Time
}

// SkyCache is an in-memory cache of sky snapshots with a rolling window.
// Safe for concurrent use by multiple goroutines.
type SkyCache struct {
	mu      sync.RWMutex
	entries map[time.Time]*Entry

	config   Config
	generate func(time.Time) *ephemeris.Snapshot
	logger   *slog.Logger

	// Counters (lock-free).
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	ready atomic.Bool
}

// NewSkyCache creates a sky cache that fills itself with ephemeris.NewSnapshot.
func NewSkyCache(config Config, logger *slog.Logger) *SkyCache {
	logger.Info("sky cache initialized",
		"step_seconds", config.Step.Seconds(),
		"horizon_seconds", config.Horizon.Seconds(),
		"buffer_seconds", config.Buffer.Seconds(),
	)

	return &SkyCache{
		entries:  make(map[time.Time]*Entry),
		config:   config,
		generate: ephemeris.NewSnapshot,
		logger:   logger,
	}
}

// Step returns the snapshot interval.
func (c *SkyCache) Step() time.Duration { return c.config.Step }

// Ready reports whether the initial warmup has completed.
func (c *SkyCache) Ready() bool { return c.ready.Load() }

// RoundToStep rounds a timestamp down to the nearest step boundary in UTC.
func (c *SkyCache) RoundToStep(t time.Time) time.Time {
	return t.UTC().Truncate(c.config.Step)
}

// Get returns the snapshot for the given timestamp, or nil if not cached.
// The timestamp is rounded to the step boundary.
func (c *SkyCache) Get(t time.Time) *ephemeris.Snapshot {
	key := c.RoundToStep(t)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
		metrics.IncCacheHits(skyCacheName)
		return entry.Snapshot
	}

	c.misses.Add(1)
	metrics.IncCacheMisses(skyCacheName)
	return nil
}

// GetOrCompute returns the cached snapshot for t's step, or computes one for
// t itself on a miss. Computed snapshots are not stored.
func (c *SkyCache) GetOrCompute(t time.Time) *ephemeris.Snapshot {
	if s := c.Get(t); s != nil {
		return s
	}
	return c.generate(t)
}

// GetRange returns the cached snapshots in [from, to], ordered oldest-first.
// Steps missing from the cache are skipped.
func (c *SkyCache) GetRange(from, to time.Time) []*ephemeris.Snapshot {
	start, end := c.RoundToStep(from), c.RoundToStep(to)
	if end.Before(start) {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []*ephemeris.Snapshot
	for ts := start; !ts.After(end); ts = ts.Add(c.config.Step) {
		if entry, ok := c.entries[ts]; ok {
			result = append(result, entry.Snapshot)
		}
	}
	return result
}

// GetLatest returns the snapshot closest to (but not after) the current time.
func (c *SkyCache) GetLatest() *ephemeris.Snapshot {
	now := c.RoundToStep(time.Now())

	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := 0; i < 10; i++ {
		key := now.Add(-time.Duration(i) * c.config.Step)
		if entry, ok := c.entries[key]; ok {
			c.hits.Add(1)
			metrics.IncCacheHits(skyCacheName)
			return entry.Snapshot
		}
	}

	c.misses.Add(1)
	metrics.IncCacheMisses(skyCacheName)
	return nil
}

// put stores a snapshot under its step-rounded time. Caller must not hold mu.
func (c *SkyCache) put(s *ephemeris.Snapshot) {
	key := c.RoundToStep(s.Time)
	entry := &Entry{
		Snapshot:    s,
		GeneratedAt: time.Now(),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	c.updateMetrics()
}

// contains reports whether key is cached without touching hit counters.
func (c *SkyCache) contains(key time.Time) bool {
	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()
	return ok
}

// evictExpired removes entries older than now - buffer.
func (c *SkyCache) evictExpired() int {
	cutoff := time.Now().Add(-c.config.Buffer)
	var removed int

	c.mu.Lock()
	for ts := range c.entries {
		if ts.Before(cutoff) {
			delete(c.entries, ts)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.evictions.Add(int64(removed))
		metrics.AddCacheEvictions(skyCacheName, removed)
		c.updateMetrics()
		c.logger.Debug("sky cache eviction", "entries_removed", removed)
	}

	return removed
}

// Stats returns current cache statistics.
func (c *SkyCache) Stats() Stats {
	c.mu.RLock()
	count := len(c.entries)

	var oldest, newest time.Time
	for ts := range c.entries {
		if oldest.IsZero() || ts.Before(oldest) {
			oldest = ts
		}
		if newest.IsZero() || ts.After(newest) {
			newest = ts
		}
	}
	c.mu.RUnlock()

	return Stats{
		Entries:         count,
		SizeBytes:       c.estimateSizeBytes(),
		OldestTimestamp: oldest,
		NewestTimestamp: newest,
		Hits:            c.hits.Load(),
		Misses:          c.misses.Load(),
		Evictions:       c.evictions.Load(),
		Ready:           c.ready.Load(),
	}
}

// Stats holds sky cache statistics for the stats endpoint.
type Stats struct {
	Entries         int       `json:"entries"`
	SizeBytes       int64     `json:"size_bytes"`
	OldestTimestamp time.Time `json:"oldest"`
	NewestTimestamp time.Time `json:"newest"`
	Hits            int64     `json:"hits"`
	Misses          int64     `json:"misses"`
	Evictions       int64     `json:"evictions"`
	Ready           bool      `json:"ready"`
}

// estimateSizeBytes returns a rough estimate of the cache memory footprint.
func (c *SkyCache) estimateSizeBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total int64
	for _, entry := range c.entries {
		if entry.Snapshot == nil {
			continue
		}
		bodies := int64(len(entry.Snapshot.Bodies)) * int64(unsafe.Sizeof(ephemeris.BodyState{}))
		snapOverhead := int64(unsafe.Sizeof(ephemeris.Snapshot{}))
		// Entry: pointer(8) + GeneratedAt(24).
		entryOverhead := int64(32)
		total += bodies + snapOverhead + entryOverhead
	}

	// Map overhead (rough: 8 bytes per bucket).
	total += int64(len(c.entries)) * 8

	return total
}

// updateMetrics publishes current cache size to Prometheus.
func (c *SkyCache) updateMetrics() {
	c.mu.RLock()
	count := len(c.entries)
	c.mu.RUnlock()

	metrics.SetCacheEntries(skyCacheName, count)
	metrics.SetCacheSizeBytes(skyCacheName, c.estimateSizeBytes())
}
