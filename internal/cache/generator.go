package cache

import (
	"context"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/metrics"
)

// Start begins the background cache maintenance loop. It performs an initial
// warmup (filling the full [now, now+horizon] window), marks the cache ready,
// then on every step:
//   - generates the snapshot at the leading edge
//   - evicts expired entries from the trailing edge
//
// Blocks until ctx is cancelled.
func (c *SkyCache) Start(ctx context.Context) {
	if !c.warmup(ctx) {
		return
	}
	c.ready.Store(true)

	ticker := time.NewTicker(c.config.Step)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("sky cache generator stopped")
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// warmup fills the cache with snapshots for [now, now+horizon]. It returns
// false if ctx was cancelled first.
func (c *SkyCache) warmup(ctx context.Context) bool {
	now := c.RoundToStep(time.Now())
	numFrames := int(c.config.Horizon/c.config.Step) + 1

	c.logger.Info("sky cache warmup starting",
		"frames", numFrames,
		"from", now.Format(time.RFC3339),
		"to", now.Add(c.config.Horizon).Format(time.RFC3339),
	)

	start := time.Now()
	for i := 0; i < numFrames; i++ {
		select {
		case <-ctx.Done():
			metrics.IncCacheGenerationErrors()
			c.logger.Warn("sky cache warmup cancelled", "generated", i)
			return false
		default:
		}

		c.put(c.generate(now.Add(time.Duration(i) * c.config.Step)))
	}

	duration := time.Since(start)
	metrics.ObserveCacheGenerationDuration(duration)
	c.logger.Info("sky cache warmup complete",
		"generated", numFrames,
		"duration_ms", duration.Milliseconds(),
	)
	return true
}

// tick runs one iteration of the maintenance loop.
func (c *SkyCache) tick() {
	c.generateLeadingEdge()
	c.evictExpired()
}

// generateLeadingEdge generates the snapshot at the leading edge of the window.
func (c *SkyCache) generateLeadingEdge() {
	target := c.RoundToStep(time.Now().Add(c.config.Horizon))
	if c.contains(target) {
		return
	}

	start := time.Now()
	c.put(c.generate(target))
	duration := time.Since(start)
	metrics.ObserveCacheGenerationDuration(duration)

	c.logger.Debug("leading edge generated",
		"timestamp", target.Format(time.RFC3339),
		"duration_ms", duration.Milliseconds(),
	)
}
