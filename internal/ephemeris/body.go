// Package ephemeris computes geocentric positions of the Sun, the Moon and the
// planets from low-precision orbital elements and series.
//
// Bodies form a closed set. The Sun is the negated heliocentric position of the
// Earth, the Moon uses a direct geocentric series, and every planet goes
// through the shared Kepler + coordinate pipeline. All functions are pure and
// safe for concurrent use.
package ephemeris

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownBody is returned when a body name cannot be resolved.
var ErrUnknownBody = errors.New("unknown body")

// Body identifies a solar-system body that can be positioned.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
)

// Bodies lists every supported body in display order.
var Bodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

var bodyNames = [...]string{
	Sun:     "sun",
	Moon:    "moon",
	Mercury: "mercury",
	Venus:   "venus",
	Mars:    "mars",
	Jupiter: "jupiter",
	Saturn:  "saturn",
	Uranus:  "uranus",
	Neptune: "neptune",
	Pluto:   "pluto",
}

func (b Body) String() string {
	if b < 0 || int(b) >= len(bodyNames) {
		return fmt.Sprintf("body(%d)", int(b))
	}
	return bodyNames[b]
}

// Valid reports whether b is one of the supported bodies.
func (b Body) Valid() bool {
	return b >= Sun && b <= Pluto
}

// MarshalText encodes the body by name.
func (b Body) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("marshal %d: %w", int(b), ErrUnknownBody)
	}
	return []byte(b.String()), nil
}

// UnmarshalText decodes a body name.
func (b *Body) UnmarshalText(text []byte) error {
	v, err := ParseBody(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ParseBody resolves a case-insensitive body name.
func ParseBody(name string) (Body, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range bodyNames {
		if s == n {
			return Body(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownBody)
}

// IsPlanet reports whether b is positioned by the Kepler pipeline.
func (b Body) IsPlanet() bool {
	return b >= Mercury && b <= Pluto
}

// sunMoonHorizon is the altitude of the centre of the Sun or Moon at the
// moment its upper limb touches the horizon, including standard refraction.
const sunMoonHorizon = -0.83

// BodySize returns the horizon altitude in degrees at which b is considered
// to rise or set.
func BodySize(b Body) float64 {
	if b == Sun || b == Moon {
		return sunMoonHorizon
	}
	return 0
}

// UpdateInterval is how long a computed position stays visually accurate.
func UpdateInterval(b Body) time.Duration {
	if b == Moon {
		return time.Minute
	}
	return time.Hour
}
