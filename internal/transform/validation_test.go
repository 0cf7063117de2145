package transform

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/soniakeys/meeus/v3/julian"
)

// TestJulianDate verifies our Julian Date calculation against known values.
func TestJulianDate(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
	}{
		{
			name:     "J2000.0 epoch",
			time:     time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: 2451545.0,
		},
		{
			name:     "Unix epoch",
			time:     time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2440587.5,
		},
		{
			name:     "start of 2000",
			time:     time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2451544.5,
		},
		{
			name:     "2009 new year noon",
			time:     time.Date(2009, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: 2454833.0,
		},
		{
			name:     "2009 independence day",
			time:     time.Date(2009, 7, 4, 12, 0, 0, 0, time.UTC),
			expected: 2455017.0,
		},
		{
			name:     "2010 christmas",
			time:     time.Date(2010, 12, 25, 12, 0, 0, 0, time.UTC),
			expected: 2455556.0,
		},
		{
			name:     "non-UTC zone is converted",
			time:     time.Date(2010, 12, 25, 7, 0, 0, 0, time.FixedZone("EST", -5*3600)),
			expected: 2455556.0,
		},
		{
			// Vallado Example 3-15: April 6, 2004, 07:51:28.386 UTC
			name:     "Vallado example date",
			time:     time.Date(2004, 4, 6, 7, 51, 28, 386009000, time.UTC),
			expected: 2453101.827411875,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDate(tt.time)
			diff := math.Abs(got - tt.expected)
			if diff > 1e-6 {
				t.Errorf("JulianDate(%v) = %.10f, want %.10f (diff=%.2e)", tt.time, got, tt.expected, diff)
			}
		})
	}
}

// TestJulianDateMatchesMeeus cross-checks against the meeus julian package.
func TestJulianDateMatchesMeeus(t *testing.T) {
	start := time.Date(1950, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		tm := start.Add(time.Duration(i) * 97 * 24 * time.Hour).Add(time.Duration(i) * 13 * time.Minute)
		ours := JulianDate(tm)
		ref := julian.TimeToJD(tm)
		if math.Abs(ours-ref) > 1e-6 {
			t.Errorf("JulianDate(%v) = %.8f, meeus = %.8f", tm, ours, ref)
		}
	}
}

func TestJulianCenturies(t *testing.T) {
	tests := []struct {
		time time.Time
		want float64
	}{
		{time.Date(2009, 1, 1, 12, 0, 0, 0, time.UTC), 0.09002},
		{time.Date(2009, 7, 4, 12, 0, 0, 0, time.UTC), 0.09506},
		{time.Date(2009, 9, 20, 12, 0, 0, 0, time.UTC), 0.09719},
		{time.Date(2010, 12, 25, 12, 0, 0, 0, time.UTC), 0.10982},
	}
	for _, tt := range tests {
		if got := JulianCenturies(tt.time); math.Abs(got-tt.want) > 1e-4 {
			t.Errorf("JulianCenturies(%v) = %.5f, want %.5f", tt.time, got, tt.want)
		}
	}
}

func TestGregorianDate(t *testing.T) {
	want := time.Date(2009, 9, 20, 12, 0, 0, 0, time.UTC)
	got := GregorianDate(JulianDate(want))
	if d := got.Sub(want); d < -time.Second || d > time.Second {
		t.Errorf("GregorianDate(JulianDate(%v)) = %v", want, got)
	}
	if got.Location() != time.UTC {
		t.Errorf("GregorianDate location = %v, want UTC", got.Location())
	}
}

// TestGMST validates our GMST calculation against the go-satellite library's
// GSTimeFromDate function, which uses the same IAU-82 model.
func TestGMST(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
	}{
		{
			name: "J2000.0 epoch",
			time: time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "Vallado example date",
			time: time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC), // integer seconds for library compat
		},
		{
			name: "spring equinox 2010",
			time: time.Date(2010, 3, 21, 18, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			our := GMST(tt.time)
			// go-satellite's GSTimeFromDate returns GMST in radians.
			ref := satellite.GSTimeFromDate(
				tt.time.Year(), int(tt.time.Month()), tt.time.Day(),
				tt.time.Hour(), tt.time.Minute(), tt.time.Second(),
			)

			diff := math.Abs(our - ref)
			// 1e-8 radians ≈ 0.002 arcsec.
			if diff > 1e-8 {
				t.Errorf("GMST(%v) = %.12f rad, go-satellite = %.12f rad (diff=%.2e)", tt.time, our, ref, diff)
			}
		})
	}
}

// TestMeanSiderealTime checks local sidereal time for three cities. Expected
// values are hours; the tolerance is 0.15 degrees.
func TestMeanSiderealTime(t *testing.T) {
	const (
		pittsburgh = -79.97
		london     = -0.13
		tokyo      = 139.77
	)
	tests := []struct {
		time  time.Time
		lon   float64
		hours float64
	}{
		{time.Date(2009, 1, 1, 12, 0, 0, 0, time.UTC), pittsburgh, 13.42},
		{time.Date(2009, 1, 1, 12, 0, 0, 0, time.UTC), london, 18.74},
		{time.Date(2009, 1, 1, 12, 0, 0, 0, time.UTC), tokyo, 4.07},
		{time.Date(2009, 9, 20, 12, 0, 0, 0, time.UTC), pittsburgh, 6.64},
		{time.Date(2009, 9, 20, 12, 0, 0, 0, time.UTC), london, 11.96},
		{time.Date(2009, 9, 20, 12, 0, 0, 0, time.UTC), tokyo, 21.29},
		{time.Date(2010, 12, 25, 12, 0, 0, 0, time.UTC), pittsburgh, 12.92815},
		{time.Date(2010, 12, 25, 12, 0, 0, 0, time.UTC), london, 18.25},
		{time.Date(2010, 12, 25, 12, 0, 0, 0, time.UTC), tokyo, 3.58},
	}
	for _, tt := range tests {
		got := MeanSiderealTime(tt.time, tt.lon)
		if got < 0 || got >= 360 {
			t.Errorf("MeanSiderealTime out of range: %v", got)
		}
		if diff := math.Abs(got - tt.hours*15); diff > 0.15 {
			t.Errorf("MeanSiderealTime(%v, %v) = %.4fh, want %.4fh", tt.time.Format(time.DateOnly), tt.lon, got/15, tt.hours)
		}
	}
}

// TestMeanSiderealTimeLinear compares against the linear form
// 280.461 + 360.98564737·(JD − 2451545) from 1990 to 2035.
func TestMeanSiderealTimeLinear(t *testing.T) {
	for year := 1990; year <= 2035; year += 5 {
		tm := time.Date(year, 3, 1, 6, 30, 0, 0, time.UTC)
		linear := NormalizeDegrees(280.461 + 360.98564737*(JulianDate(tm)-2451545) + 10)
		got := MeanSiderealTime(tm, 10)
		diff := math.Abs(math.Mod(got-linear+540, 360) - 180)
		if diff > 0.01 {
			t.Errorf("%d: MeanSiderealTime = %.5f°, linear = %.5f° (diff %.5f°)", year, got, linear, diff)
		}
	}
}

func BenchmarkMeanSiderealTime(b *testing.B) {
	tm := time.Date(2010, 12, 25, 12, 0, 0, 0, time.UTC)
	for i := 0; i < b.N; i++ {
		MeanSiderealTime(tm, -79.97)
	}
}
