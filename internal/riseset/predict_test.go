package riseset

import (
	"context"
	"testing"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/ephemeris"
	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

// Pittsburgh observer.
var pittsburgh = transform.NewLatLong(40.44, -79.99)

func TestPredictAllBodies(t *testing.T) {
	req := Request{
		Observer: pittsburgh,
		Bodies:   ephemeris.Bodies,
		Start:    time.Date(2010, 12, 25, 12, 0, 0, 0, time.UTC),
		Days:     3,
	}

	results := Predict(context.Background(), req)
	if len(results) != len(ephemeris.Bodies) {
		t.Fatalf("got %d results, want %d", len(results), len(ephemeris.Bodies))
	}

	end := req.Start.Add(72 * time.Hour)
	for i, r := range results {
		if r.Body != ephemeris.Bodies[i] {
			t.Errorf("result %d is %v, want %v", i, r.Body, ephemeris.Bodies[i])
		}
		if r.Error != "" {
			t.Errorf("%v: unexpected error %q", r.Body, r.Error)
		}
		// Every body rises and sets at mid-northern latitudes over three days.
		if len(r.Events) < 4 {
			t.Errorf("%v: %d events in 3 days, want at least 4", r.Body, len(r.Events))
		}
		for j, e := range r.Events {
			if e.Time.Before(req.Start) || e.Time.After(end) {
				t.Errorf("%v event %d at %v outside range", r.Body, j, e.Time)
			}
			if e.AzimuthDeg < 0 || e.AzimuthDeg >= 360 {
				t.Errorf("%v event %d azimuth %.2f out of range", r.Body, j, e.AzimuthDeg)
			}
			// Rises happen in the eastern half of the sky, sets in the western.
			east := e.AzimuthDeg > 0 && e.AzimuthDeg < 180
			if east != (e.Type == Rise) {
				t.Errorf("%v %v at azimuth %.1f", r.Body, e.Type, e.AzimuthDeg)
			}
			if j > 0 && !e.Time.After(r.Events[j-1].Time) {
				t.Errorf("%v events out of order at %d", r.Body, j)
			}
		}
	}
}

func TestPredictMatchesNextRiseSetTime(t *testing.T) {
	start := time.Date(2010, 3, 21, 12, 0, 0, 0, time.UTC)
	loc := transform.NewLatLong(60, 0)
	results := Predict(context.Background(), Request{
		Observer: loc,
		Bodies:   []ephemeris.Body{ephemeris.Sun},
		Start:    start,
		Days:     1,
	})

	c := sunCalculator(t)
	for _, e := range results[0].Events {
		want, ok := c.NextRiseSetTime(start, loc, e.Type)
		if !ok {
			t.Fatalf("NextRiseSetTime found no %v", e.Type)
		}
		if d := e.Time.Sub(want).Abs(); d > 2*time.Second {
			t.Errorf("Predict %v at %v, NextRiseSetTime %v", e.Type, e.Time, want)
		}
	}
}

func TestPredictMaxEvents(t *testing.T) {
	results := Predict(context.Background(), Request{
		Observer:  pittsburgh,
		Bodies:    []ephemeris.Body{ephemeris.Sun},
		Start:     time.Date(2010, 12, 25, 12, 0, 0, 0, time.UTC),
		Days:      10,
		MaxEvents: 3,
	})
	if n := len(results[0].Events); n != 3 {
		t.Errorf("got %d events, want 3", n)
	}
}

func TestPredictCircumpolar(t *testing.T) {
	results := Predict(context.Background(), Request{
		Observer: transform.NewLatLong(80, 15),
		Bodies:   []ephemeris.Body{ephemeris.Sun},
		Start:    time.Date(2010, 6, 21, 0, 0, 0, 0, time.UTC),
		Days:     2,
	})
	r := results[0]
	if r.Visibility != Circumpolar {
		t.Errorf("visibility = %v, want circumpolar", r.Visibility)
	}
	if len(r.Events) != 0 {
		t.Errorf("midnight sun produced events: %+v", r.Events)
	}
	if r.Events == nil {
		t.Error("events should be an empty slice, not nil")
	}
}

func TestPredictCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Predict(ctx, Request{
		Observer: pittsburgh,
		Bodies:   []ephemeris.Body{ephemeris.Sun, ephemeris.Moon},
		Start:    time.Date(2010, 12, 25, 12, 0, 0, 0, time.UTC),
	})
	for _, r := range results {
		if r.Error != "cancelled" {
			t.Errorf("%v: error = %q, want cancelled", r.Body, r.Error)
		}
	}
}

func TestPredictUnknownBody(t *testing.T) {
	results := Predict(context.Background(), Request{
		Observer: pittsburgh,
		Bodies:   []ephemeris.Body{ephemeris.Body(99)},
		Start:    time.Date(2010, 12, 25, 12, 0, 0, 0, time.UTC),
	})
	if results[0].Error == "" {
		t.Error("expected an error for an unknown body")
	}
}

func BenchmarkPredict(b *testing.B) {
	req := Request{
		Observer: pittsburgh,
		Bodies:   ephemeris.Bodies,
		Start:    time.Date(2010, 12, 25, 12, 0, 0, 0, time.UTC),
		Days:     1,
	}
	for i := 0; i < b.N; i++ {
		Predict(context.Background(), req)
	}
}
