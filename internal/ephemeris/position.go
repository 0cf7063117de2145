package ephemeris

import (
	"fmt"
	"math"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/metrics"
	"github.com/sky-map-team/stardroid-sub001/internal/orbit"
	"github.com/sky-map-team/stardroid-sub001/internal/transform"
	"github.com/sky-map-team/stardroid-sub001/internal/vecmath"
)

// earthRadiusAU converts lunar distances from Earth radii.
const earthRadiusAU = 6378.14 / 149597870.7

// provider supplies the geocentric ecliptic position of one kind of body.
// Implementations are the closed set below; there is no registration.
type provider interface {
	eclipticGeocentric(t time.Time) vecmath.Vector3
}

type sunProvider struct{}

type moonProvider struct{}

type planetProvider struct {
	body  Body
	rates elementRates
}

func providerFor(b Body) (provider, error) {
	switch {
	case b == Sun:
		return sunProvider{}, nil
	case b == Moon:
		return moonProvider{}, nil
	case b.IsPlanet():
		return planetProvider{body: b, rates: planetRates[b]}, nil
	default:
		return nil, fmt.Errorf("body %d: %w", int(b), ErrUnknownBody)
	}
}

// The Sun sits at the heliocentric origin, so its geocentric position is the
// Earth's heliocentric position reversed.
func (sunProvider) eclipticGeocentric(t time.Time) vecmath.Vector3 {
	return earthHeliocentric(t).Negate().Vector()
}

func (moonProvider) eclipticGeocentric(t time.Time) vecmath.Vector3 {
	lambda, beta, dist := moonEcliptic(t)
	sinL, cosL := math.Sincos(lambda)
	sinB, cosB := math.Sincos(beta)
	return vecmath.New(cosB*cosL, cosB*sinL, sinB).Scale(dist)
}

func (p planetProvider) eclipticGeocentric(t time.Time) vecmath.Vector3 {
	return p.heliocentric(t).Subtract(earthHeliocentric(t)).Vector()
}

func (p planetProvider) heliocentric(t time.Time) orbit.HeliocentricCoordinates {
	el := p.rates.at(t)
	if !el.Converged {
		metrics.IncKeplerNonConverged(p.body.String())
	}
	return orbit.FromElements(el)
}

func earthHeliocentric(t time.Time) orbit.HeliocentricCoordinates {
	el := earthRates.at(t)
	if !el.Converged {
		metrics.IncKeplerNonConverged("earth")
	}
	return orbit.FromElements(el)
}

// EarthElements returns the Earth's orbital elements at t.
func EarthElements(t time.Time) orbit.Elements {
	return earthRates.at(t)
}

// Elements returns the orbital elements of planet b at t.
func Elements(b Body, t time.Time) (orbit.Elements, error) {
	if !b.IsPlanet() {
		return orbit.Elements{}, fmt.Errorf("%s has no heliocentric elements: %w", b, ErrUnknownBody)
	}
	return planetRates[b].at(t), nil
}

// Heliocentric returns the heliocentric ecliptic position of b in AU. The Sun
// is the origin; the Moon is approximated by the Earth plus its geocentric
// offset.
func Heliocentric(b Body, t time.Time) (orbit.HeliocentricCoordinates, error) {
	switch {
	case b == Sun:
		return orbit.HeliocentricCoordinates{}, nil
	case b == Moon:
		return orbit.FromVector(earthHeliocentric(t).Vector().Add(moonProvider{}.eclipticGeocentric(t))), nil
	case b.IsPlanet():
		return planetProvider{body: b, rates: planetRates[b]}.heliocentric(t), nil
	}
	return orbit.HeliocentricCoordinates{}, fmt.Errorf("body %d: %w", int(b), ErrUnknownBody)
}

// GeocentricCoordinates returns the geocentric equatorial position of b in AU.
func GeocentricCoordinates(b Body, t time.Time) (vecmath.Vector3, error) {
	p, err := providerFor(b)
	if err != nil {
		return vecmath.Vector3{}, err
	}
	return orbit.EclipticToEquatorial(p.eclipticGeocentric(t)), nil
}

// Position returns the apparent geocentric RA/Dec of b at t.
func Position(b Body, t time.Time) (transform.RaDec, error) {
	v, err := GeocentricCoordinates(b, t)
	if err != nil {
		return transform.RaDec{}, err
	}
	return transform.RaDecFromCartesian(v), nil
}

// PositionFunc binds b so callers can sample its RA/Dec over time without
// re-resolving the body on every call.
func PositionFunc(b Body) (func(time.Time) transform.RaDec, error) {
	p, err := providerFor(b)
	if err != nil {
		return nil, err
	}
	return func(t time.Time) transform.RaDec {
		return transform.RaDecFromCartesian(orbit.EclipticToEquatorial(p.eclipticGeocentric(t)))
	}, nil
}

// moonEcliptic evaluates the low-precision lunar series of the Astronomical
// Almanac. It returns ecliptic longitude and latitude in radians and the
// distance in AU.
func moonEcliptic(t time.Time) (lambda, beta, dist float64) {
	T := transform.JulianCenturies(t)
	s := func(d float64) float64 { return math.Sin(d * math.Pi / 180) }
	c := func(d float64) float64 { return math.Cos(d * math.Pi / 180) }

	l := 218.32 + 481267.881*T +
		6.29*s(135.0+477198.87*T) -
		1.27*s(259.3-413335.36*T) +
		0.66*s(235.7+890534.22*T) +
		0.21*s(269.9+954397.74*T) -
		0.19*s(357.5+35999.05*T) -
		0.11*s(186.5+966404.03*T)

	b := 5.13*s(93.3+483202.02*T) +
		0.28*s(228.2+960400.89*T) -
		0.28*s(318.3+6003.15*T) -
		0.17*s(217.6-407332.21*T)

	// Horizontal parallax, degrees.
	hp := 0.9508 +
		0.0518*c(134.9+477198.85*T) +
		0.0095*c(259.2-413335.38*T) +
		0.0078*c(235.7+890534.23*T) +
		0.0028*c(269.9+954397.70*T)

	return orbit.Normalize(l * math.Pi / 180), b * math.Pi / 180, earthRadiusAU / s(hp)
}
