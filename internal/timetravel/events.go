// Package timetravel resolves named sky events to the instant they happen.
//
// Relative events (next sunset, next sunrise, next full moon) are computed
// from a reference time; fixed events carry their own timestamp. Each event
// may name the body worth looking at once there.
package timetravel

import (
	"errors"
	"fmt"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/ephemeris"
	"github.com/sky-map-team/stardroid-sub001/internal/riseset"
	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

var (
	ErrUnknownEvent     = errors.New("unknown event")
	ErrObserverRequired = errors.New("event needs an observer location")
	ErrNoOccurrence     = errors.New("event does not occur within the search window")
)

// Kind says how an event's instant is found.
type Kind int

const (
	Fixed Kind = iota
	NextSunset
	NextSunrise
	NextFullMoon
)

var kindNames = [...]string{
	Fixed:        "fixed",
	NextSunset:   "next_sunset",
	NextSunrise:  "next_sunrise",
	NextFullMoon: "next_full_moon",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is one entry in the catalog.
type Event struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Kind   Kind            `json:"kind"`
	At     *time.Time      `json:"at,omitempty"`     // set for Fixed events only
	Target *ephemeris.Body `json:"target,omitempty"` // body to look at, if any
}

// NeedsObserver reports whether Resolve requires a location for e.
func (e Event) NeedsObserver() bool {
	return e.Kind == NextSunset || e.Kind == NextSunrise
}

func relative(id, name string, k Kind, target ephemeris.Body) Event {
	return Event{ID: id, Name: name, Kind: k, Target: &target}
}

func fixed(id, name string, ms int64, target ephemeris.Body) Event {
	at := time.UnixMilli(ms).UTC()
	return Event{ID: id, Name: name, Kind: Fixed, At: &at, Target: &target}
}

func fixedNoTarget(id, name string, ms int64) Event {
	at := time.UnixMilli(ms).UTC()
	return Event{ID: id, Name: name, Kind: Fixed, At: &at}
}

// Catalog lists every event in display order.
var Catalog = []Event{
	relative("next-sunset", "Next sunset", NextSunset, ephemeris.Sun),
	relative("next-sunrise", "Next sunrise", NextSunrise, ephemeris.Sun),
	relative("next-full-moon", "Next full moon", NextFullMoon, ephemeris.Moon),

	fixed("planet-parade-2026", "Six-planet parade (Feb 2026)", 1772321400000, ephemeris.Saturn),
	fixed("lunar-eclipse-2026", "Total lunar eclipse (Mar 2026)", 1772537400000, ephemeris.Moon),
	fixedNoTarget("lyrids-2026", "Lyrid meteor shower peak (Apr 2026)", 1776816000000),
	fixed("venus-jupiter-2026", "Venus-Jupiter conjunction (Jun 2026)", 1781035200000, ephemeris.Venus),
	fixed("mars-uranus-2026", "Mars-Uranus conjunction (Jul 2026)", 1783206000000, ephemeris.Mars),
	fixed("solar-eclipse-2026", "Total solar eclipse (Aug 2026)", 1786558200000, ephemeris.Sun),
	fixedNoTarget("perseids-2026", "Perseid meteor shower peak (Aug 2026)", 1786579200000),
	fixed("jupiter-occultation-2026", "Lunar occultation of Jupiter (Oct 2026)", 1791293400000, ephemeris.Jupiter),
	fixedNoTarget("geminids-2026", "Geminid meteor shower peak (Dec 2026)", 1797206400000),
	fixed("supermoon-2026", "Supermoon (Dec 2026)", 1798149000000, ephemeris.Moon),

	fixed("mercury-transit-2016", "Transit of Mercury (May 2016)", 1462805846000, ephemeris.Mercury),
	fixed("solar-eclipse-2024", "Total solar eclipse (Apr 2024)", 1712604000000, ephemeris.Sun),
	fixed("apollo-11", "Apollo 11 landing (Jul 1969)", -14182953622, ephemeris.Moon),
	fixed("jupiter-saturn-2020", "Great conjunction of Jupiter and Saturn (Dec 2020)", 1608574800000, ephemeris.Jupiter),
}

// Lookup finds an event by ID.
func Lookup(id string) (Event, error) {
	for _, e := range Catalog {
		if e.ID == id {
			return e, nil
		}
	}
	return Event{}, fmt.Errorf("%q: %w", id, ErrUnknownEvent)
}

// RiseSetFinder answers horizon crossing queries; *cache.RiseSetCache
// satisfies it.
type RiseSetFinder interface {
	NextRiseSetTime(b ephemeris.Body, start time.Time, loc transform.LatLong, dir riseset.Direction) (time.Time, bool, error)
}

// Resolve returns the instant of e as seen from "from". loc may be nil for
// events that do not need an observer.
func Resolve(e Event, from time.Time, loc *transform.LatLong, finder RiseSetFinder) (time.Time, error) {
	switch e.Kind {
	case Fixed:
		return *e.At, nil

	case NextFullMoon:
		return ephemeris.NextFullMoon(from), nil

	case NextSunset, NextSunrise:
		if loc == nil {
			return time.Time{}, fmt.Errorf("%s: %w", e.ID, ErrObserverRequired)
		}
		dir := riseset.Set
		if e.Kind == NextSunrise {
			dir = riseset.Rise
		}
		at, ok, err := finder.NextRiseSetTime(ephemeris.Sun, from, *loc, dir)
		if err != nil {
			return time.Time{}, err
		}
		if !ok {
			return time.Time{}, fmt.Errorf("%s at %v: %w", e.ID, *loc, ErrNoOccurrence)
		}
		return at, nil
	}
	return time.Time{}, fmt.Errorf("%s kind %d: %w", e.ID, int(e.Kind), ErrUnknownEvent)
}
