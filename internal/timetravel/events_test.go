package timetravel

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/cache"
	"github.com/sky-map-team/stardroid-sub001/internal/ephemeris"
	"github.com/sky-map-team/stardroid-sub001/internal/riseset"
	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

type stubFinder struct {
	at    time.Time
	ok    bool
	err   error
	calls []riseset.Direction
}

func (s *stubFinder) NextRiseSetTime(_ ephemeris.Body, _ time.Time, _ transform.LatLong, dir riseset.Direction) (time.Time, bool, error) {
	s.calls = append(s.calls, dir)
	return s.at, s.ok, s.err
}

func TestCatalogIDsUnique(t *testing.T) {
	seen := make(map[string]bool, len(Catalog))
	for _, e := range Catalog {
		if seen[e.ID] {
			t.Errorf("duplicate id %q", e.ID)
		}
		seen[e.ID] = true
		if e.Name == "" {
			t.Errorf("%s has no name", e.ID)
		}
		if (e.Kind == Fixed) != (e.At != nil) {
			t.Errorf("%s: kind %s with At=%v", e.ID, e.Kind, e.At)
		}
		if e.Target != nil && !e.Target.Valid() {
			t.Errorf("%s targets invalid body %d", e.ID, int(*e.Target))
		}
	}
}

func TestLookup(t *testing.T) {
	e, err := Lookup("apollo-11")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(1969, 7, 20, 20, 17, 26, 378e6, time.UTC)
	if !e.At.Equal(want) {
		t.Errorf("apollo-11 at %v, want %v", e.At, want)
	}
	if *e.Target != ephemeris.Moon {
		t.Errorf("apollo-11 target = %s, want moon", e.Target)
	}

	if _, err := Lookup("nope"); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("Lookup(nope) error = %v, want ErrUnknownEvent", err)
	}
}

func TestResolveFixed(t *testing.T) {
	e, _ := Lookup("solar-eclipse-2024")
	got, err := Resolve(e, time.Now(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, 4, 8, 19, 20, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveSunEvents(t *testing.T) {
	loc := transform.NewLatLong(60, 0)
	from := time.Date(2010, 3, 21, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		id      string
		wantDir riseset.Direction
	}{
		{"next-sunset", riseset.Set},
		{"next-sunrise", riseset.Rise},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			at := from.Add(6 * time.Hour)
			f := &stubFinder{at: at, ok: true}
			e, _ := Lookup(tt.id)
			got, err := Resolve(e, from, &loc, f)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(at) {
				t.Errorf("Resolve = %v, want %v", got, at)
			}
			if len(f.calls) != 1 || f.calls[0] != tt.wantDir {
				t.Errorf("finder calls = %v, want [%s]", f.calls, tt.wantDir)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	sunset, _ := Lookup("next-sunset")
	loc := transform.NewLatLong(80, 0)
	boom := errors.New("boom")

	tests := []struct {
		name   string
		loc    *transform.LatLong
		finder *stubFinder
		want   error
	}{
		{"no observer", nil, &stubFinder{}, ErrObserverRequired},
		{"no crossing", &loc, &stubFinder{ok: false}, ErrNoOccurrence},
		{"finder error", &loc, &stubFinder{err: boom}, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(sunset, time.Now(), tt.loc, tt.finder)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestResolveAgainstCache(t *testing.T) {
	finder, err := cache.NewRiseSetCache(16, riseset.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	loc := transform.NewLatLong(60, 0)
	from := time.Date(2010, 3, 21, 12, 0, 0, 0, time.UTC)

	sunset, _ := Lookup("next-sunset")
	set, err := Resolve(sunset, from, &loc, finder)
	if err != nil {
		t.Fatal(err)
	}
	if set.Hour() != 18 {
		t.Errorf("sunset at %v, want around 18:15 UTC", set)
	}

	sunrise, _ := Lookup("next-sunrise")
	rise, err := Resolve(sunrise, set, &loc, finder)
	if err != nil {
		t.Fatal(err)
	}
	if rise.Day() != 22 || rise.Hour() != 5 {
		t.Errorf("sunrise at %v, want around 05:56 UTC next day", rise)
	}

	// Summer at 80°N: the sun never sets.
	arctic := transform.NewLatLong(80, 0)
	_, err = Resolve(sunset, time.Date(2010, 6, 21, 0, 0, 0, 0, time.UTC), &arctic, finder)
	if !errors.Is(err, ErrNoOccurrence) {
		t.Errorf("arctic sunset error = %v, want ErrNoOccurrence", err)
	}
}

func TestResolveFullMoon(t *testing.T) {
	e, _ := Lookup("next-full-moon")
	from := time.Date(2010, 1, 23, 10, 0, 0, 0, time.UTC)
	got, err := Resolve(e, from, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2010, 1, 30, 6, 18, 0, 0, time.UTC)
	if d := got.Sub(want); d < -2*time.Hour || d > 2*time.Hour {
		t.Errorf("next full moon = %v, want near %v", got, want)
	}
}

func TestEventJSON(t *testing.T) {
	lyrids, _ := Lookup("lyrids-2026")
	sunset, _ := Lookup("next-sunset")

	b, err := json.Marshal([]Event{lyrids, sunset})
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, want := range []string{
		`"id":"lyrids-2026"`,
		`"kind":"fixed"`,
		`"at":"2026-04-22T00:00:00Z"`,
		`"kind":"next_sunset"`,
		`"target":"sun"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON missing %s: %s", want, s)
		}
	}
	if strings.Count(s, `"target"`) != 1 {
		t.Errorf("lyrids should omit target: %s", s)
	}
}

func TestKindString(t *testing.T) {
	if got := Kind(99).String(); got != "unknown" {
		t.Errorf("Kind(99) = %q", got)
	}
	if got := NextFullMoon.String(); got != "next_full_moon" {
		t.Errorf("NextFullMoon = %q", got)
	}
}
