package cache

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/sky-map-team/stardroid-sub001/internal/ephemeris"
	"github.com/sky-map-team/stardroid-sub001/internal/metrics"
	"github.com/sky-map-team/stardroid-sub001/internal/riseset"
	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

const riseSetCacheName = "riseset"

// riseSetKey identifies one search. The observer is rounded to 0.01° and the
// start time to the minute.
type riseSetKey struct {
	body      ephemeris.Body
	direction riseset.Direction
	lat, lon  int32
	minute    int64
}

type riseSetAnswer struct {
	at time.Time
	ok bool
}

// RiseSetCache memoizes NextRiseSetTime answers in a fixed-size LRU.
// Safe for concurrent use.
type RiseSetCache struct {
	lru   *lru.Cache
	calcs map[ephemeris.Body]*riseset.Calculator
	size  int

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewRiseSetCache creates a cache holding up to size answers, searching with
// cfg on a miss.
func NewRiseSetCache(size int, cfg riseset.Config) (*RiseSetCache, error) {
	c := &RiseSetCache{
		calcs: make(map[ephemeris.Body]*riseset.Calculator, len(ephemeris.Bodies)),
		size:  size,
	}
	for _, b := range ephemeris.Bodies {
		calc, err := riseset.NewCalculator(b, cfg)
		if err != nil {
			return nil, fmt.Errorf("calculator for %s: %w", b, err)
		}
		c.calcs[b] = calc
	}

	l, err := lru.NewWithEvict(size, func(_, _ interface{}) {
		c.evictions.Add(1)
		metrics.AddCacheEvictions(riseSetCacheName, 1)
	})
	if err != nil {
		return nil, fmt.Errorf("rise/set lru: %w", err)
	}
	c.lru = l
	return c, nil
}

func newRiseSetKey(b ephemeris.Body, start time.Time, loc transform.LatLong, dir riseset.Direction) riseSetKey {
	minute := start.Unix() / 60
	if start.Unix()%60 < 0 {
		minute--
	}
	return riseSetKey{
		body:      b,
		direction: dir,
		lat:       int32(math.Round(loc.Latitude * 100)),
		lon:       int32(math.Round(loc.Longitude * 100)),
		minute:    minute,
	}
}

// NextRiseSetTime behaves like riseset.Calculator.NextRiseSetTime for b.
// Searches sharing a key run from the start of that minute; an answer that
// falls before start is recomputed exactly and not cached.
func (c *RiseSetCache) NextRiseSetTime(b ephemeris.Body, start time.Time, loc transform.LatLong, dir riseset.Direction) (time.Time, bool, error) {
	calc, ok := c.calcs[b]
	if !ok {
		return time.Time{}, false, fmt.Errorf("body %d: %w", int(b), ephemeris.ErrUnknownBody)
	}

	key := newRiseSetKey(b, start, loc, dir)
	if v, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		metrics.IncCacheHits(riseSetCacheName)
		ans := v.(riseSetAnswer)
		if !ans.ok || !ans.at.Before(start) {
			return ans.at.In(start.Location()), ans.ok, nil
		}
		at, found := calc.NextRiseSetTime(start, loc, dir)
		return at, found, nil
	}

	c.misses.Add(1)
	metrics.IncCacheMisses(riseSetCacheName)

	keyStart := time.Unix(key.minute*60, 0).UTC()
	at, found := calc.NextRiseSetTime(keyStart, loc, dir)
	c.lru.Add(key, riseSetAnswer{at: at, ok: found})
	metrics.SetCacheEntries(riseSetCacheName, c.lru.Len())

	if found && at.Before(start) {
		at, found = calc.NextRiseSetTime(start, loc, dir)
		return at, found, nil
	}
	if !found {
		return time.Time{}, false, nil
	}
	return at.In(start.Location()), true, nil
}

// RiseSetStats holds rise/set cache statistics for the stats endpoint.
type RiseSetStats struct {
	Entries   int   `json:"entries"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// Stats returns current cache statistics.
func (c *RiseSetCache) Stats() RiseSetStats {
	return RiseSetStats{
		Entries:   c.lru.Len(),
		Capacity:  c.size,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
