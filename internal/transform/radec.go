package transform

import (
	"fmt"
	"math"

	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"

	"github.com/sky-map-team/stardroid-sub001/internal/vecmath"
)

// RaDec is an equatorial position: right ascension in [0, 360) and
// declination in [-90, 90], both in degrees.
type RaDec struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

// NewRaDec normalizes ra into [0, 360) and clamps dec to [-90, 90].
func NewRaDec(ra, dec float64) RaDec {
	return RaDec{RA: NormalizeDegrees(ra), Dec: math.Max(-90, math.Min(90, dec))}
}

// RaDegreesFromHMS converts hours, minutes and seconds of right ascension to
// degrees. Components need not be in range: 6h 0m 1800s is 97.5°.
func RaDegreesFromHMS(h, m, s float64) float64 {
	return 15 * (h + m/60 + s/3600)
}

// DecDegreesFromDMS converts degrees, arcminutes and arcseconds of declination
// to degrees. The sign of d applies to the whole value.
func DecDegreesFromDMS(d, m, s float64) float64 {
	if d < 0 {
		return d - m/60 - s/3600
	}
	return d + m/60 + s/3600
}

// RaDecFromSexagesimal builds a RaDec from H:M:S and D:M:S components.
func RaDecFromSexagesimal(raH, raM, raS, decD, decM, decS float64) RaDec {
	return NewRaDec(RaDegreesFromHMS(raH, raM, raS), DecDegreesFromDMS(decD, decM, decS))
}

// RaDecFromCartesian converts a geocentric equatorial vector to RA/Dec.
// The vector need not be normalized.
func RaDecFromCartesian(v vecmath.Vector3) RaDec {
	ra := math.Atan2(v.Y, v.X) * 180 / math.Pi
	dec := math.Atan2(v.Z, math.Hypot(v.X, v.Y)) * 180 / math.Pi
	return NewRaDec(ra, dec)
}

// UnitVector returns the geocentric direction of r as a unit vector in the
// equatorial frame.
func (r RaDec) UnitVector() vecmath.Vector3 {
	ra := r.RA * math.Pi / 180
	dec := r.Dec * math.Pi / 180
	sinRA, cosRA := math.Sincos(ra)
	sinDec, cosDec := math.Sincos(dec)
	return vecmath.New(cosDec*cosRA, cosDec*sinRA, sinDec)
}

// IsCircumpolarFor reports whether an object at r never sets for an observer
// at loc.
func (r RaDec) IsCircumpolarFor(loc LatLong) bool {
	if loc.Latitude > 0 {
		return r.Dec > 90-loc.Latitude
	}
	return r.Dec < -90-loc.Latitude
}

// IsNeverVisible reports whether an object at r never rises for an observer
// at loc.
func (r RaDec) IsNeverVisible(loc LatLong) bool {
	if loc.Latitude > 0 {
		return r.Dec < loc.Latitude-90
	}
	return r.Dec > 90+loc.Latitude
}

// SeparationFrom returns the angular distance to o in degrees.
func (r RaDec) SeparationFrom(o RaDec) float64 {
	return r.UnitVector().AngleTo(o.UnitVector()) * 180 / math.Pi
}

// String formats r as sexagesimal hours and degrees for display.
func (r RaDec) String() string {
	return fmt.Sprintf("%v %v",
		sexa.FmtRA(unit.RAFromDeg(r.RA)),
		sexa.FmtAngle(unit.AngleFromDeg(r.Dec)),
	)
}
