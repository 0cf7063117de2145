package riseset

import (
	"context"
	"math"
	"testing"
	"time"

	sunrise "github.com/nathan-osman/go-sunrise"

	"github.com/sky-map-team/stardroid-sub001/internal/ephemeris"
	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

var est = time.FixedZone("EST", -5*3600)

func sunCalculator(t *testing.T) *Calculator {
	t.Helper()
	c, err := NewCalculator(ephemeris.Sun, Config{})
	if err != nil {
		t.Fatalf("NewCalculator(Sun): %v", err)
	}
	return c
}

// TestSunRiseSetWindows starts at local noon on the equinox and both
// solstices; sunset falls the same day and sunrise the next, within the
// listed local hours.
func TestSunRiseSetWindows(t *testing.T) {
	tests := []struct {
		name     string
		loc      transform.LatLong
		zone     *time.Location
		month    time.Month
		setHour  int // sunset between setHour:00 and setHour+1:59
		riseHour int
	}{
		{"shetland equinox", transform.NewLatLong(60, 0), time.UTC, time.March, 17, 5},
		{"shetland midsummer", transform.NewLatLong(60, 0), time.UTC, time.June, 20, 2},
		{"shetland midwinter", transform.NewLatLong(60, 0), time.UTC, time.December, 14, 8},
		{"quebec equinox", transform.NewLatLong(60, -75), est, time.March, 17, 5},
		{"quebec midsummer", transform.NewLatLong(60, -75), est, time.June, 20, 2},
		{"quebec midwinter", transform.NewLatLong(60, -75), est, time.December, 14, 8},
	}

	c := sunCalculator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Date(2010, tt.month, 21, 12, 0, 0, 0, tt.zone)

			set, ok := c.NextRiseSetTime(start, tt.loc, Set)
			if !ok {
				t.Fatal("no sunset found")
			}
			if set.Location() != tt.zone {
				t.Errorf("sunset location = %v, want %v", set.Location(), tt.zone)
			}
			if set.Day() != 21 || set.Hour() < tt.setHour || set.Hour() > tt.setHour+1 {
				t.Errorf("sunset = %v, want 21st between %02d:00 and %02d:59", set, tt.setHour, tt.setHour+1)
			}

			rise, ok := c.NextRiseSetTime(start, tt.loc, Rise)
			if !ok {
				t.Fatal("no sunrise found")
			}
			if rise.Day() != 22 || rise.Hour() < tt.riseHour || rise.Hour() > tt.riseHour+1 {
				t.Errorf("sunrise = %v, want 22nd between %02d:00 and %02d:59", rise, tt.riseHour, tt.riseHour+1)
			}
			t.Logf("%s: set %s, rise %s", tt.name, set.Format(time.DateTime), rise.Format(time.DateTime))
		})
	}
}

// TestSunMatchesGoSunrise cross-checks against the go-sunrise package, which
// uses the same -0.833° solar horizon.
func TestSunMatchesGoSunrise(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		date     time.Time
	}{
		{"paris summer", 48.8566, 2.3522, time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"paris winter", 48.8566, 2.3522, time.Date(2010, 12, 1, 0, 0, 0, 0, time.UTC)},
		{"quito", -0.1807, -78.4678, time.Date(2009, 9, 20, 6, 0, 0, 0, time.UTC)},
		{"sydney", -33.8688, 151.2093, time.Date(2010, 3, 10, 12, 0, 0, 0, time.UTC)},
	}

	c := sunCalculator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := transform.NewLatLong(tt.lat, tt.lon)
			for _, dir := range []Direction{Rise, Set} {
				got, ok := c.NextRiseSetTime(tt.date, loc, dir)
				if !ok {
					t.Fatalf("no %v found", dir)
				}
				// Ask go-sunrise for the UTC day of our answer.
				r, s := sunrise.SunriseSunset(tt.lat, tt.lon, got.Year(), got.Month(), got.Day())
				want := r
				if dir == Set {
					want = s
				}
				diff := got.Sub(want)
				t.Logf("%v: ours %v, go-sunrise %v (diff %v)", dir, got.Format(time.DateTime), want.Format(time.DateTime), diff)
				// A day either side covers go-sunrise pairing events across
				// the UTC day boundary.
				if diff.Abs() > 10*time.Minute &&
					(diff-24*time.Hour).Abs() > 10*time.Minute &&
					(diff+24*time.Hour).Abs() > 10*time.Minute {
					t.Errorf("%v differs from go-sunrise by %v", dir, diff)
				}
			}
		})
	}
}

func TestCrossingIsOnHorizon(t *testing.T) {
	loc := transform.NewLatLong(40.44, -79.99)
	start := time.Date(2010, 12, 25, 12, 0, 0, 0, time.UTC)

	for _, b := range []ephemeris.Body{ephemeris.Sun, ephemeris.Moon, ephemeris.Mars, ephemeris.Jupiter} {
		c, err := NewCalculator(b, Config{})
		if err != nil {
			t.Fatal(err)
		}
		pos, _ := ephemeris.PositionFunc(b)
		for _, dir := range []Direction{Rise, Set} {
			got, ok := c.NextRiseSetTime(start, loc, dir)
			if !ok {
				t.Errorf("%v %v: no event", b, dir)
				continue
			}
			if got.Before(start) || got.After(start.Add(c.Config().Window)) {
				t.Errorf("%v %v = %v, outside search window", b, dir, got)
			}
			alt := transform.Altitude(pos(got), loc, got)
			if math.Abs(alt-ephemeris.BodySize(b)) > 0.02 {
				t.Errorf("%v %v: altitude at crossing = %.4f°, want %.2f°", b, dir, alt, ephemeris.BodySize(b))
			}
			// Just before a rise the body is lower; just before a set it is higher.
			before := transform.Altitude(pos(got.Add(-5*time.Minute)), loc, got.Add(-5*time.Minute))
			if (dir == Rise) != (before < alt) {
				t.Errorf("%v %v: altitude 5m earlier %.3f° vs %.3f° has the wrong trend", b, dir, before, alt)
			}
		}
	}
}

func TestDegenerateCases(t *testing.T) {
	c := sunCalculator(t)
	tests := []struct {
		name string
		loc  transform.LatLong
		time time.Time
		want Visibility
	}{
		{"arctic summer", transform.NewLatLong(80, 15), time.Date(2010, 6, 21, 0, 0, 0, 0, time.UTC), Circumpolar},
		{"arctic winter", transform.NewLatLong(80, 15), time.Date(2010, 12, 21, 0, 0, 0, 0, time.UTC), NeverVisible},
		{"antarctic winter", transform.NewLatLong(-78, 166), time.Date(2010, 6, 21, 0, 0, 0, 0, time.UTC), NeverVisible},
		{"antarctic summer", transform.NewLatLong(-78, 166), time.Date(2010, 12, 21, 0, 0, 0, 0, time.UTC), Circumpolar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if v := c.Visibility(tt.time, tt.loc); v != tt.want {
				t.Fatalf("Visibility = %v, want %v", v, tt.want)
			}
			for _, dir := range []Direction{Rise, Set} {
				if got, ok := c.NextRiseSetTime(tt.time, tt.loc, dir); ok {
					t.Errorf("%v: got %v, want no event", dir, got)
				}
			}
		})
	}
}

func TestClassifyBoundaries(t *testing.T) {
	north := transform.NewLatLong(60, 0)
	south := transform.NewLatLong(-60, 0)
	tests := []struct {
		dec  float64
		loc  transform.LatLong
		want Visibility
	}{
		{40, north, Circumpolar},
		{30, north, Normal},
		{-30, north, Normal},
		{-40, north, NeverVisible},
		{-40, south, Circumpolar},
		{-30, south, Normal},
		{30, south, Normal},
		{40, south, NeverVisible},
	}
	for _, tt := range tests {
		if got := Classify(transform.NewRaDec(100, tt.dec), tt.loc); got != tt.want {
			t.Errorf("Classify(dec=%v, lat=%v) = %v, want %v", tt.dec, tt.loc.Latitude, got, tt.want)
		}
	}
}

func TestNoEventInShortWindow(t *testing.T) {
	c, err := NewCalculator(ephemeris.Sun, Config{Window: 30 * time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	// Local noon in London: the Sun is nowhere near the horizon.
	start := time.Date(2010, 6, 21, 12, 0, 0, 0, time.UTC)
	if got, ok := c.NextRiseSetTime(start, transform.NewLatLong(51.5, 0), Set); ok {
		t.Errorf("got %v, want no event", got)
	}
}

func TestIdempotent(t *testing.T) {
	c := sunCalculator(t)
	loc := transform.NewLatLong(60, -75)
	start := time.Date(2010, 3, 21, 12, 0, 0, 0, est)

	first, ok1 := c.NextRiseSetTime(start, loc, Rise)
	second, ok2 := c.NextRiseSetTime(start, loc, Rise)
	if ok1 != ok2 || !first.Equal(second) {
		t.Errorf("repeated search differs: (%v, %v) vs (%v, %v)", first, ok1, second, ok2)
	}
}

func TestCustomPositionFunc(t *testing.T) {
	// A fixed point on the celestial equator rises due east and sets due west.
	fixed := func(time.Time) transform.RaDec { return transform.NewRaDec(90, 0) }
	c := NewCalculatorFunc(fixed, 0, Config{CoarseStep: 5 * time.Minute})
	if c.Config().CoarseStep != 5*time.Minute || c.Config().Tolerance != time.Second {
		t.Errorf("config defaults not applied: %+v", c.Config())
	}

	loc := transform.NewLatLong(0, 0)
	start := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	events := c.Events(context.Background(), start, start.Add(48*time.Hour), loc, 10)
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4: %+v", len(events), events)
	}
	for _, e := range events {
		want := 90.0
		if e.Type == Set {
			want = 270
		}
		if math.Abs(e.AzimuthDeg-want) > 0.1 {
			t.Errorf("%v azimuth = %.3f, want %v", e.Type, e.AzimuthDeg, want)
		}
	}
	for i := 1; i < len(events); i++ {
		if events[i].Type == events[i-1].Type {
			t.Errorf("events %d and %d are both %v", i-1, i, events[i].Type)
		}
		if !events[i].Time.After(events[i-1].Time) {
			t.Errorf("events out of order at %d", i)
		}
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"rise": Rise, "SET": Set, " Rise ": Rise} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseDirection("transit"); err == nil {
		t.Error("ParseDirection(transit) should fail")
	}
}

func BenchmarkNextRiseSetTime(b *testing.B) {
	c, _ := NewCalculator(ephemeris.Moon, Config{})
	loc := transform.NewLatLong(40.44, -79.99)
	start := time.Date(2010, 12, 25, 12, 0, 0, 0, time.UTC)
	for i := 0; i < b.N; i++ {
		c.NextRiseSetTime(start, loc, Rise)
	}
}
