package riseset

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/sky-map-team/stardroid-sub001/internal/ephemeris"
	"github.com/sky-map-team/stardroid-sub001/internal/metrics"
	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

// Event is one horizon crossing.
type Event struct {
	Type       Direction `json:"type"`
	Time       time.Time `json:"time"`
	AzimuthDeg float64   `json:"azimuth"`
}

// BodyEvents holds the crossings found for one body.
type BodyEvents struct {
	Body       ephemeris.Body `json:"body"`
	Visibility Visibility     `json:"visibility"`
	Events     []Event        `json:"events"`
	Error      string         `json:"error,omitempty"`
}

// Request holds the parameters for a batch event search.
type Request struct {
	Observer  transform.LatLong
	Bodies    []ephemeris.Body
	Start     time.Time
	Days      float64
	MaxEvents int // per body
	Config    Config
}

const (
	defaultDays      = 1
	maxDays          = 31
	defaultMaxEvents = 100
)

// Predict finds every rise and set of each requested body between Start and
// Start+Days. Bodies are searched concurrently, at most one per CPU. Results
// keep the order of req.Bodies.
func Predict(ctx context.Context, req Request) []BodyEvents {
	ctx, span := otel.Tracer("skyephem/riseset").Start(ctx, "riseset.Predict")
	defer span.End()

	if req.Days <= 0 {
		req.Days = defaultDays
	}
	if req.Days > maxDays {
		req.Days = maxDays
	}
	if req.MaxEvents <= 0 {
		req.MaxEvents = defaultMaxEvents
	}
	span.SetAttributes(
		attribute.Int("riseset.bodies", len(req.Bodies)),
		attribute.Float64("riseset.days", req.Days),
		attribute.Float64("observer.lat", req.Observer.Latitude),
		attribute.Float64("observer.lon", req.Observer.Longitude),
	)

	start := time.Now()
	results := make([]BodyEvents, len(req.Bodies))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, b := range req.Bodies {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = BodyEvents{Body: b, Error: "cancelled"}
				return nil
			}
			results[i] = predictBody(ctx, req, b)
			return nil
		})
	}
	_ = g.Wait()

	metrics.ObserveComputation("predict", metrics.AllBodies, time.Since(start))
	return results
}

func predictBody(ctx context.Context, req Request, b ephemeris.Body) BodyEvents {
	c, err := NewCalculator(b, req.Config)
	if err != nil {
		return BodyEvents{Body: b, Error: err.Error()}
	}

	out := BodyEvents{
		Body:       b,
		Visibility: c.Visibility(req.Start, req.Observer),
		Events:     []Event{},
	}
	end := req.Start.Add(time.Duration(req.Days * float64(24*time.Hour)))
	out.Events = append(out.Events, c.Events(ctx, req.Start, end, req.Observer, req.MaxEvents)...)
	if ctx.Err() != nil {
		out.Error = "cancelled"
	}
	return out
}

// Events returns up to limit crossings in either direction between from and
// to. There is no degeneracy check; a body that stays up or stays down yields
// no events.
func (c *Calculator) Events(ctx context.Context, from, to time.Time, loc transform.LatLong, limit int) []Event {
	var events []Event
	prev := c.offset(from, loc)
	for t := from; len(events) < limit; {
		if ctx.Err() != nil {
			break
		}
		next := t.Add(c.cfg.CoarseStep)
		if next.After(to) {
			break
		}
		cur := c.offset(next, loc)
		for _, dir := range []Direction{Rise, Set} {
			if !crosses(prev, cur, dir) {
				continue
			}
			at := c.refine(t, next, loc, dir)
			la := transform.ToLookAngles(c.position(at), loc, at)
			events = append(events, Event{
				Type:       dir,
				Time:       at.In(from.Location()),
				AzimuthDeg: la.AzimuthDeg,
			})
		}
		prev, t = cur, next
	}
	return events
}
