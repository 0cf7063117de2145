package ephemeris

import (
	"math"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/orbit"
)

// synodicMonth is the mean length of a lunar cycle in days.
const synodicMonth = 29.530588853

// maxFullMoonRefinements bounds the NextFullMoon correction loop.
const maxFullMoonRefinements = 8

// PhaseAngle returns the Sun-body-Earth angle in degrees: 0 when the lit face
// points at the Earth, 180 when it points away.
func PhaseAngle(b Body, t time.Time) (float64, error) {
	switch {
	case b == Sun:
		return 0, nil
	case b == Moon:
		sun, _ := GeocentricCoordinates(Sun, t)
		moon, _ := GeocentricCoordinates(Moon, t)
		return 180 - sun.AngleTo(moon)*180/math.Pi, nil
	}

	helio, err := Heliocentric(b, t)
	if err != nil {
		return 0, err
	}
	earth := earthHeliocentric(t)
	geo := helio.Subtract(earth)

	// Law of cosines on the Sun-planet-Earth triangle.
	d, p, e := geo.Radius, helio.Radius, earth.Radius
	c := (d*d + p*p - e*e) / (2 * d * p)
	return math.Acos(math.Max(-1, math.Min(1, c))) * 180 / math.Pi, nil
}

// PercentIlluminated returns the lit fraction of the visible disc, 0-100.
func PercentIlluminated(b Body, t time.Time) (float64, error) {
	phase, err := PhaseAngle(b, t)
	if err != nil {
		return 0, err
	}
	return 50 * (1 + math.Cos(phase*math.Pi/180)), nil
}

// Magnitude returns the approximate visual magnitude of b at t.
func Magnitude(b Body, t time.Time) (float64, error) {
	switch b {
	case Sun:
		return -27, nil
	case Moon:
		return -10, nil
	}

	phase, err := PhaseAngle(b, t)
	if err != nil {
		return 0, err
	}
	helio, _ := Heliocentric(b, t)
	geo := helio.Subtract(earthHeliocentric(t))

	p := phase / 100
	var m float64
	switch b {
	case Mercury:
		m = -0.42 + (3.80-(2.73-2.00*p)*p)*p
	case Venus:
		m = -4.40 + (0.09+(2.39-0.65*p)*p)*p
	case Mars:
		m = -1.52 + 1.6*p
	case Jupiter:
		m = -9.40 + 0.5*p
	case Saturn:
		m = -8.75
	case Uranus:
		m = -7.19
	case Neptune:
		m = -6.87
	case Pluto:
		m = -1.0
	}
	return m + 5*math.Log10(helio.Radius*geo.Radius), nil
}

// LunarPhase names one eighth of the lunar cycle.
type LunarPhase int

const (
	NewMoon LunarPhase = iota
	WaxingCrescent
	FirstQuarter
	WaxingGibbous
	FullMoon
	WaningGibbous
	LastQuarter
	WaningCrescent
)

var lunarPhaseNames = [...]string{
	"new moon",
	"waxing crescent",
	"first quarter",
	"waxing gibbous",
	"full moon",
	"waning gibbous",
	"last quarter",
	"waning crescent",
}

func (p LunarPhase) String() string {
	if p < 0 || int(p) >= len(lunarPhaseNames) {
		return "unknown"
	}
	return lunarPhaseNames[p]
}

// MarshalText encodes the phase by name.
func (p LunarPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// moonElongation returns the Moon's ecliptic longitude minus the Sun's, in
// degrees [0, 360): 0 at new moon, 180 at full moon.
func moonElongation(t time.Time) float64 {
	lambda, _, _ := moonEcliptic(t)
	sun := earthHeliocentric(t).Negate()
	sunLambda := math.Atan2(sun.Y, sun.X)
	return orbit.Normalize(lambda-sunLambda) * 180 / math.Pi
}

// LunarPhaseAt returns the named phase of the Moon at t.
func LunarPhaseAt(t time.Time) LunarPhase {
	d := moonElongation(t)
	return LunarPhase(int(math.Mod(d+22.5, 360)/45) % 8)
}

// IsWaxing reports whether the lit fraction of the Moon grows over the hour
// following t.
func IsWaxing(t time.Time) bool {
	now, _ := PercentIlluminated(Moon, t)
	later, _ := PercentIlluminated(Moon, t.Add(time.Hour))
	return later > now
}

// NextFullMoon returns the first full moon at or after t, accurate to about
// an hour given the precision of the lunar series.
func NextFullMoon(t time.Time) time.Time {
	daysAhead := math.Mod(180-moonElongation(t)+360, 360) / 360 * synodicMonth
	est := refineFullMoon(t.Add(days(daysAhead)))
	if est.Before(t) {
		// Refinement walked back to the opposition just passed.
		est = refineFullMoon(est.Add(days(synodicMonth)))
	}
	return est
}

// refineFullMoon moves est to the nearest opposition.
func refineFullMoon(est time.Time) time.Time {
	for i := 0; i < maxFullMoonRefinements; i++ {
		// Signed distance from opposition in (-180, 180].
		off := 180 - moonElongation(est)
		off = math.Mod(off+540, 360) - 180
		corr := days(off / 360 * synodicMonth)
		est = est.Add(corr)
		if corr.Abs() < time.Minute {
			break
		}
	}
	return est
}

func days(d float64) time.Duration {
	return time.Duration(d * 24 * float64(time.Hour))
}
