package transform

import (
	"fmt"
	"math"

	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"

	"github.com/sky-map-team/stardroid-sub001/internal/vecmath"
)

// LatLong is an observer location in degrees. Latitude is clamped to
// [-90, 90] and longitude (east positive) wrapped to [-180, 180).
type LatLong struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// NewLatLong builds a normalized location.
func NewLatLong(lat, lon float64) LatLong {
	return LatLong{
		Latitude:  math.Max(-90, math.Min(90, lat)),
		Longitude: NormalizeDegrees(lon+180) - 180,
	}
}

// unitVector returns the direction of l on the unit sphere.
func (l LatLong) unitVector() vecmath.Vector3 {
	lat := l.Latitude * math.Pi / 180
	lon := l.Longitude * math.Pi / 180
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	return vecmath.New(cosLat*cosLon, cosLat*sinLon, sinLat)
}

// DistanceFrom returns the great-circle angle between l and o in degrees.
func (l LatLong) DistanceFrom(o LatLong) float64 {
	return l.unitVector().AngleTo(o.unitVector()) * 180 / math.Pi
}

func (l LatLong) String() string {
	return fmt.Sprintf("%v, %v",
		sexa.FmtAngle(unit.AngleFromDeg(l.Latitude)),
		sexa.FmtAngle(unit.AngleFromDeg(l.Longitude)),
	)
}
