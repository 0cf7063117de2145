// Package orbit holds Keplerian orbital elements and the first stages of the
// coordinate pipeline: orbital plane to heliocentric ecliptic, heliocentric to
// geocentric, and ecliptic to equatorial.
package orbit

import "math"

// Kepler solver bounds. Realistic solar-system eccentricities converge in a
// handful of iterations, so hitting the cap means the input is unusual rather
// than that the answer is wrong.
const (
	KeplerTolerance     = 1e-6 // radians
	MaxKeplerIterations = 100
)

// Elements is a snapshot of the six classical elements of a body at one
// instant. Angles are radians, Distance is the semi-major axis in AU.
type Elements struct {
	Distance      float64
	Eccentricity  float64
	Inclination   float64
	AscendingNode float64
	Perihelion    float64 // longitude of perihelion
	MeanLongitude float64

	// Anomaly is the true anomaly in [0, 2π), solved on construction.
	Anomaly float64
	// Iterations is the number of Newton steps the solve took.
	Iterations int
	// Converged is false when the solve stopped at MaxKeplerIterations.
	Converged bool
}

// NewElements builds an element set and solves Kepler's equation for it.
func NewElements(distance, eccentricity, inclination, ascendingNode, perihelion, meanLongitude float64) Elements {
	e := Elements{
		Distance:      distance,
		Eccentricity:  eccentricity,
		Inclination:   inclination,
		AscendingNode: ascendingNode,
		Perihelion:    perihelion,
		MeanLongitude: meanLongitude,
	}
	e.Anomaly, e.Iterations, e.Converged = TrueAnomaly(e.MeanAnomaly(), eccentricity)
	return e
}

// MeanAnomaly returns meanLongitude - perihelion normalized to (-π, π].
func (e Elements) MeanAnomaly() float64 {
	return NormalizeSigned(e.MeanLongitude - e.Perihelion)
}

// ArgumentOfLatitude is the angle from the ascending node to the body,
// measured in the orbital plane.
func (e Elements) ArgumentOfLatitude() float64 {
	return e.Anomaly + e.Perihelion - e.AscendingNode
}

// Radius is the heliocentric distance at the current anomaly.
func (e Elements) Radius() float64 {
	ecc := e.Eccentricity
	return e.Distance * (1 - ecc*ecc) / (1 + ecc*math.Cos(e.Anomaly))
}

// EccentricAnomaly solves E - e·sin(E) = m by Newton iteration from E₀ = m.
// It returns the estimate, the number of iterations used, and whether the
// correction dropped below KeplerTolerance before MaxKeplerIterations.
func EccentricAnomaly(m, ecc float64) (float64, int, bool) {
	E := m
	for i := 1; i <= MaxKeplerIterations; i++ {
		delta := (E - ecc*math.Sin(E) - m) / (1 - ecc*math.Cos(E))
		E -= delta
		if math.Abs(delta) < KeplerTolerance {
			return E, i, true
		}
	}
	return E, MaxKeplerIterations, false
}

// TrueAnomaly converts mean anomaly m to the true anomaly in [0, 2π) using the
// half-angle relation tan(v/2) = √((1+e)/(1−e))·tan(E/2).
func TrueAnomaly(m, ecc float64) (float64, int, bool) {
	E, n, ok := EccentricAnomaly(m, ecc)
	v := 2 * math.Atan2(math.Sqrt(1+ecc)*math.Sin(E/2), math.Sqrt(1-ecc)*math.Cos(E/2))
	return Normalize(v), n, ok
}

// Normalize maps an angle in radians to [0, 2π).
func Normalize(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// NormalizeSigned maps an angle in radians to (-π, π].
func NormalizeSigned(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}
