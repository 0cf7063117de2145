// Package riseset finds the times at which a body crosses an observer's
// horizon.
//
// A search first classifies the body as circumpolar or never visible from its
// declination at the start time; either case yields no event without scanning.
// Otherwise altitude is sampled on a coarse grid to bracket a sign change and
// the bracket is bisected down to the configured tolerance. Every loop is
// bounded by Config.
package riseset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/ephemeris"
	"github.com/sky-map-team/stardroid-sub001/internal/metrics"
	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

// Direction selects a rising or a setting crossing.
type Direction int

const (
	Rise Direction = iota
	Set
)

func (d Direction) String() string {
	if d == Set {
		return "set"
	}
	return "rise"
}

// MarshalText encodes the direction as "rise" or "set".
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ParseDirection accepts "rise" or "set", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rise":
		return Rise, nil
	case "set":
		return Set, nil
	}
	return 0, fmt.Errorf("direction %q: want rise or set", s)
}

// Visibility is the degeneracy class of a body for one observer.
type Visibility int

const (
	Normal Visibility = iota
	Circumpolar
	NeverVisible
)

func (v Visibility) String() string {
	switch v {
	case Circumpolar:
		return "circumpolar"
	case NeverVisible:
		return "never_visible"
	}
	return "normal"
}

// MarshalText encodes the class by name.
func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Classify reports whether pos never sets, never rises, or does both for an
// observer at loc.
func Classify(pos transform.RaDec, loc transform.LatLong) Visibility {
	switch {
	case pos.IsCircumpolarFor(loc):
		return Circumpolar
	case pos.IsNeverVisible(loc):
		return NeverVisible
	}
	return Normal
}

// Config bounds the search. Zero fields take the defaults.
type Config struct {
	CoarseStep    time.Duration // scan interval
	Window        time.Duration // how far past start to scan
	Tolerance     time.Duration // bracket width at which bisection stops
	MaxBisections int
}

// DefaultConfig scans every 10 minutes over one day plus one step and refines
// to one second.
func DefaultConfig() Config {
	return Config{
		CoarseStep:    10 * time.Minute,
		Window:        24*time.Hour + 10*time.Minute,
		Tolerance:     time.Second,
		MaxBisections: 40,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CoarseStep <= 0 {
		c.CoarseStep = d.CoarseStep
	}
	if c.Window <= 0 {
		c.Window = c.CoarseStep + 24*time.Hour
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.MaxBisections <= 0 {
		c.MaxBisections = d.MaxBisections
	}
	return c
}

// Calculator searches for horizon crossings of one body.
type Calculator struct {
	position func(time.Time) transform.RaDec
	horizon  float64
	cfg      Config
}

// NewCalculator binds a calculator to b with the body's standard horizon.
func NewCalculator(b ephemeris.Body, cfg Config) (*Calculator, error) {
	pos, err := ephemeris.PositionFunc(b)
	if err != nil {
		return nil, err
	}
	return NewCalculatorFunc(pos, ephemeris.BodySize(b), cfg), nil
}

// NewCalculatorFunc builds a calculator over an arbitrary position function.
// horizonDeg is the altitude that counts as the horizon.
func NewCalculatorFunc(pos func(time.Time) transform.RaDec, horizonDeg float64, cfg Config) *Calculator {
	return &Calculator{
		position: pos,
		horizon:  horizonDeg,
		cfg:      cfg.withDefaults(),
	}
}

// Config returns the effective search bounds.
func (c *Calculator) Config() Config { return c.cfg }

// Horizon returns the altitude threshold in degrees.
func (c *Calculator) Horizon() float64 { return c.horizon }

// Visibility classifies the body for loc at t.
func (c *Calculator) Visibility(t time.Time, loc transform.LatLong) Visibility {
	return Classify(c.position(t), loc)
}

// NextRiseSetTime returns the first crossing in direction dir at or after
// start, expressed in start's location. The bool is false when the body is
// circumpolar or never visible at start, or when no crossing falls inside the
// search window.
func (c *Calculator) NextRiseSetTime(start time.Time, loc transform.LatLong, dir Direction) (time.Time, bool) {
	begin := time.Now()
	t, outcome := c.next(context.Background(), start, loc, dir)
	metrics.ObserveRiseSetDuration(time.Since(begin))
	metrics.IncRiseSetSearch(outcome)
	if outcome != "found" {
		return time.Time{}, false
	}
	return t.In(start.Location()), true
}

func (c *Calculator) next(ctx context.Context, start time.Time, loc transform.LatLong, dir Direction) (time.Time, string) {
	switch c.Visibility(start, loc) {
	case Circumpolar:
		return time.Time{}, "circumpolar"
	case NeverVisible:
		return time.Time{}, "never_visible"
	}

	end := start.Add(c.cfg.Window)
	lo, hi, ok := c.bracket(ctx, start, end, loc, dir)
	if !ok {
		return time.Time{}, "not_found"
	}
	return c.refine(lo, hi, loc, dir), "found"
}

// offset is the body's altitude above the horizon threshold in degrees.
func (c *Calculator) offset(t time.Time, loc transform.LatLong) float64 {
	return transform.Altitude(c.position(t), loc, t) - c.horizon
}

// crosses reports whether moving from prev to cur is a crossing in dir.
func crosses(prev, cur float64, dir Direction) bool {
	if dir == Rise {
		return prev < 0 && cur >= 0
	}
	return prev >= 0 && cur < 0
}

// bracket scans [from, to] in coarse steps and returns the first interval
// that contains a crossing in dir.
func (c *Calculator) bracket(ctx context.Context, from, to time.Time, loc transform.LatLong, dir Direction) (time.Time, time.Time, bool) {
	prev := c.offset(from, loc)
	for t := from; ; {
		next := t.Add(c.cfg.CoarseStep)
		if next.After(to) || ctx.Err() != nil {
			return time.Time{}, time.Time{}, false
		}
		cur := c.offset(next, loc)
		if crosses(prev, cur, dir) {
			return t, next, true
		}
		prev, t = cur, next
	}
}

// refine bisects [lo, hi], which must contain a crossing in dir, and returns
// its midpoint once narrower than the tolerance.
func (c *Calculator) refine(lo, hi time.Time, loc transform.LatLong, dir Direction) time.Time {
	for i := 0; i < c.cfg.MaxBisections && hi.Sub(lo) > c.cfg.Tolerance; i++ {
		mid := lo.Add(hi.Sub(lo) / 2)
		below := c.offset(mid, loc) < 0
		// Before a rise the body is below; before a set it is above.
		if below == (dir == Rise) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo.Add(hi.Sub(lo) / 2)
}
