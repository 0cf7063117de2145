// Package vecmath provides the 3-D vector type used by the coordinate pipeline.
//
// Vector3 is a value type: every operation returns a new vector and leaves the
// receiver untouched. Assign is the single exception and is documented as an
// in-place mutator.
package vecmath

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is returned when a vector is built from malformed input.
var ErrInvalidArgument = errors.New("invalid argument")

// Vector3 is a Cartesian triple.
type Vector3 struct {
	X, Y, Z float64
}

// New returns the vector (x, y, z).
func New(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// FromSlice builds a vector from exactly three components.
func FromSlice(c []float64) (Vector3, error) {
	if len(c) != 3 {
		return Vector3{}, fmt.Errorf("vector3 needs 3 components, got %d: %w", len(c), ErrInvalidArgument)
	}
	return Vector3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// Assign overwrites the receiver with o. It mutates the receiver and must only
// be used on an instance the caller owns.
func (v *Vector3) Assign(o Vector3) {
	v.X, v.Y, v.Z = o.X, o.Y, o.Z
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// Negate returns -v.
func (v Vector3) Negate() Vector3 {
	return Vector3{-v.X, -v.Y, -v.Z}
}

// Dot returns the dot product v · o.
func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product v × o.
func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Length2 returns the squared Euclidean length.
func (v Vector3) Length2() float64 {
	return v.Dot(v)
}

// Length returns the Euclidean length.
func (v Vector3) Length() float64 {
	return math.Sqrt(v.Length2())
}

// Normalize returns the unit vector along v.
// The zero vector normalizes to itself.
func (v Vector3) Normalize() Vector3 {
	n := v.Length()
	if n == 0 {
		return Vector3{}
	}
	return v.Scale(1 / n)
}

// DistanceFrom returns the Euclidean distance between v and o.
func (v Vector3) DistanceFrom(o Vector3) float64 {
	return v.Sub(o).Length()
}

// CosineSimilarity returns cos of the angle between v and o, or 0 when either
// vector has zero length.
func (v Vector3) CosineSimilarity(o Vector3) float64 {
	d := v.Length() * o.Length()
	if d == 0 {
		return 0
	}
	return v.Dot(o) / d
}

// AngleTo returns the angle between v and o in radians, in [0, π].
func (v Vector3) AngleTo(o Vector3) float64 {
	c := v.CosineSimilarity(o)
	// Rounding can push |c| slightly past 1.
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// ProjectOnto returns the component of v along onto.
func (v Vector3) ProjectOnto(onto Vector3) Vector3 {
	l2 := onto.Length2()
	if l2 == 0 {
		return Vector3{}
	}
	return onto.Scale(v.Dot(onto) / l2)
}

// Equal reports exact component equality.
func (v Vector3) Equal(o Vector3) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}

// Slice returns the components as a [3]float64, the shape used in JSON payloads.
func (v Vector3) Slice() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}
