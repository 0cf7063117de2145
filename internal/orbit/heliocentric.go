package orbit

import (
	"math"

	"github.com/sky-map-team/stardroid-sub001/internal/vecmath"
)

// Obliquity is the obliquity of the ecliptic at J2000.0, in degrees.
const Obliquity = 23.439281

// HeliocentricCoordinates is a Cartesian position relative to the Sun in AU,
// in the ecliptic frame unless it has been passed through ToEquatorial.
type HeliocentricCoordinates struct {
	Radius float64
	X, Y, Z float64
}

// OrbitalPlanePosition places the body in its own orbital plane: the x axis
// points at the ascending node and the body sits at the argument of latitude.
func OrbitalPlanePosition(e Elements) vecmath.Vector3 {
	r := e.Radius()
	u := e.ArgumentOfLatitude()
	return vecmath.New(r*math.Cos(u), r*math.Sin(u), 0)
}

// PlaneToEcliptic rotates an orbital-plane position by the inclination about
// the node line and then by the ascending node about the ecliptic pole.
func PlaneToEcliptic(p vecmath.Vector3, inclination, ascendingNode float64) vecmath.Vector3 {
	sinI, cosI := math.Sincos(inclination)
	sinO, cosO := math.Sincos(ascendingNode)

	// Tilt out of the ecliptic.
	y := p.Y * cosI
	z := p.Y * sinI

	return vecmath.New(
		p.X*cosO-y*sinO,
		p.X*sinO+y*cosO,
		z,
	)
}

// FromElements runs the orbital-plane and rotation stages for an element set.
func FromElements(e Elements) HeliocentricCoordinates {
	p := PlaneToEcliptic(OrbitalPlanePosition(e), e.Inclination, e.AscendingNode)
	return HeliocentricCoordinates{Radius: e.Radius(), X: p.X, Y: p.Y, Z: p.Z}
}

// FromVector wraps a Cartesian position, deriving the radius from its length.
func FromVector(v vecmath.Vector3) HeliocentricCoordinates {
	return HeliocentricCoordinates{Radius: v.Length(), X: v.X, Y: v.Y, Z: v.Z}
}

// Vector returns the position as a Vector3.
func (h HeliocentricCoordinates) Vector() vecmath.Vector3 {
	return vecmath.New(h.X, h.Y, h.Z)
}

// Subtract returns h - o. With o set to Earth's heliocentric position the
// result is the geocentric position of h.
func (h HeliocentricCoordinates) Subtract(o HeliocentricCoordinates) HeliocentricCoordinates {
	return FromVector(h.Vector().Sub(o.Vector()))
}

// Negate returns the position seen from the other end of the vector. Applied to
// Earth's heliocentric position it yields the Sun's geocentric position.
func (h HeliocentricCoordinates) Negate() HeliocentricCoordinates {
	return HeliocentricCoordinates{Radius: h.Radius, X: -h.X, Y: -h.Y, Z: -h.Z}
}

// ToEquatorial rotates an ecliptic position about the x axis by Obliquity.
func (h HeliocentricCoordinates) ToEquatorial() HeliocentricCoordinates {
	return FromVector(EclipticToEquatorial(h.Vector()))
}

// EclipticToEquatorial rotates v from the ecliptic to the equatorial frame.
func EclipticToEquatorial(v vecmath.Vector3) vecmath.Vector3 {
	sinE, cosE := math.Sincos(Obliquity * math.Pi / 180)
	return vecmath.New(
		v.X,
		v.Y*cosE-v.Z*sinE,
		v.Y*sinE+v.Z*cosE,
	)
}
