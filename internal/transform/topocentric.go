package transform

import (
	"math"
	"time"
)

// LookAngles holds where an equatorial position appears in an observer's sky.
type LookAngles struct {
	AzimuthDeg   float64 `json:"azimuth"`    // 0 = North, clockwise
	ElevationDeg float64 `json:"elevation"`  // 0 = horizon, 90 = zenith
	HourAngleDeg float64 `json:"hour_angle"` // (-180, 180], positive west of the meridian
}

// HourAngle returns the local hour angle of pos in degrees, in (-180, 180].
func HourAngle(pos RaDec, loc LatLong, t time.Time) float64 {
	h := NormalizeDegrees(MeanSiderealTime(t, loc.Longitude) - pos.RA)
	if h > 180 {
		h -= 360
	}
	return h
}

// Altitude returns the elevation of pos above the observer's horizon in degrees:
//
//	alt = asin(sin δ sin φ + cos δ cos φ cos H)
func Altitude(pos RaDec, loc LatLong, t time.Time) float64 {
	return altitude(pos.Dec, loc.Latitude, HourAngle(pos, loc, t))
}

func altitude(decDeg, latDeg, hourAngleDeg float64) float64 {
	const rad = math.Pi / 180
	sinDec, cosDec := math.Sincos(decDeg * rad)
	sinLat, cosLat := math.Sincos(latDeg * rad)
	s := sinDec*sinLat + cosDec*cosLat*math.Cos(hourAngleDeg*rad)
	return math.Asin(math.Max(-1, math.Min(1, s))) / rad
}

// ToLookAngles converts an equatorial position to azimuth/elevation for an
// observer at loc at time t.
func ToLookAngles(pos RaDec, loc LatLong, t time.Time) LookAngles {
	const rad = math.Pi / 180
	h := HourAngle(pos, loc, t)

	sinDec, cosDec := math.Sincos(pos.Dec * rad)
	sinLat, cosLat := math.Sincos(loc.Latitude * rad)
	sinH, cosH := math.Sincos(h * rad)

	// Azimuth measured from north through east.
	az := math.Atan2(-cosDec*sinH, sinDec*cosLat-cosDec*sinLat*cosH) / rad

	return LookAngles{
		AzimuthDeg:   NormalizeDegrees(az),
		ElevationDeg: altitude(pos.Dec, loc.Latitude, h),
		HourAngleDeg: h,
	}
}

// ZenithRaDec returns the equatorial position directly overhead: RA equals
// local sidereal time and Dec equals the observer's latitude.
func ZenithRaDec(t time.Time, loc LatLong) RaDec {
	return NewRaDec(MeanSiderealTime(t, loc.Longitude), loc.Latitude)
}
