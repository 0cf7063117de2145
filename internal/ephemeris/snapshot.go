package ephemeris

import (
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

// BodyState is everything the service reports about one body at one instant.
type BodyState struct {
	Body         Body            `json:"body"`
	RaDec        transform.RaDec `json:"radec"`
	Direction    [3]float64      `json:"direction"` // geocentric equatorial unit vector
	DistanceAU   float64         `json:"distance_au"`
	Magnitude    float64         `json:"magnitude"`
	PhaseAngle   float64         `json:"phase_angle"`
	Illumination float64         `json:"illumination"` // percent of disc lit
}

// Snapshot holds the state of every body at one instant.
type Snapshot struct {
	Time      time.Time   `json:"time"`
	Bodies    []BodyState `json:"bodies"`
	MoonPhase LunarPhase  `json:"moon_phase"`
}

// State computes the full state of a single body.
func State(b Body, t time.Time) (BodyState, error) {
	geo, err := GeocentricCoordinates(b, t)
	if err != nil {
		return BodyState{}, err
	}
	phase, err := PhaseAngle(b, t)
	if err != nil {
		return BodyState{}, err
	}
	mag, err := Magnitude(b, t)
	if err != nil {
		return BodyState{}, err
	}
	illum, err := PercentIlluminated(b, t)
	if err != nil {
		return BodyState{}, err
	}

	return BodyState{
		Body:         b,
		RaDec:        transform.RaDecFromCartesian(geo),
		Direction:    geo.Normalize().Slice(),
		DistanceAU:   geo.Length(),
		Magnitude:    mag,
		PhaseAngle:   phase,
		Illumination: illum,
	}, nil
}

// NewSnapshot computes every body in Bodies at t.
func NewSnapshot(t time.Time) *Snapshot {
	t = t.UTC()
	s := &Snapshot{
		Time:      t,
		Bodies:    make([]BodyState, 0, len(Bodies)),
		MoonPhase: LunarPhaseAt(t),
	}
	for _, b := range Bodies {
		// Every member of Bodies is valid, so State cannot fail here.
		st, _ := State(b, t)
		s.Bodies = append(s.Bodies, st)
	}
	return s
}

// Find returns the state of b in the snapshot.
func (s *Snapshot) Find(b Body) (BodyState, bool) {
	for _, st := range s.Bodies {
		if st.Body == b {
			return st, true
		}
	}
	return BodyState{}, false
}
