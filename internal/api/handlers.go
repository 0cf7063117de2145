package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sky-map-team/stardroid-sub001/internal/cache"
	"github.com/sky-map-team/stardroid-sub001/internal/ephemeris"
	"github.com/sky-map-team/stardroid-sub001/internal/httputil"
	"github.com/sky-map-team/stardroid-sub001/internal/metrics"
	"github.com/sky-map-team/stardroid-sub001/internal/riseset"
	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

var tracer = otel.Tracer("skyephem/api")

type handlers struct {
	opts   Options
	logger *slog.Logger
}

// fail records msg on the span and writes it as a JSON error.
func fail(w http.ResponseWriter, span trace.Span, status int, msg string) {
	span.SetStatus(codes.Error, msg)
	httputil.WriteError(w, status, msg)
}

// pathBody resolves the {body} path segment.
func pathBody(r *http.Request) (ephemeris.Body, error) {
	return ephemeris.ParseBody(r.PathValue("body"))
}

type bodyInfo struct {
	Name           ephemeris.Body `json:"name"`
	Planet         bool           `json:"planet"`
	SizeDeg        float64        `json:"size_deg"`
	UpdateInterval int            `json:"update_interval_seconds"`
}

// GET /api/v1/bodies
func (h *handlers) bodies(w http.ResponseWriter, r *http.Request) {
	out := make([]bodyInfo, len(ephemeris.Bodies))
	for i, b := range ephemeris.Bodies {
		out[i] = bodyInfo{
			Name:           b,
			Planet:         b.IsPlanet(),
			SizeDeg:        ephemeris.BodySize(b),
			UpdateInterval: int(ephemeris.UpdateInterval(b) / time.Second),
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"bodies": out})
}

type keplerInfo struct {
	Eccentricity float64 `json:"eccentricity"`
	TrueAnomaly  float64 `json:"true_anomaly"` // radians
	Iterations   int     `json:"iterations"`
	Converged    bool    `json:"converged"`
}

type positionResponse struct {
	Time time.Time `json:"time"`
	ephemeris.BodyState
	Display    string                `json:"display"`
	Kepler     *keplerInfo           `json:"kepler,omitempty"`
	Look       *transform.LookAngles `json:"look,omitempty"`
	Visibility *riseset.Visibility   `json:"visibility,omitempty"`
}

// GET /api/v1/position/{body}?t=&lat=&lon=
func (h *handlers) position(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "api.position")
	defer span.End()

	b, err := pathBody(r)
	if err != nil {
		fail(w, span, http.StatusNotFound, err.Error())
		return
	}
	q := r.URL.Query()
	t, err := httputil.ParseTime(q, time.Now())
	if err != nil {
		fail(w, span, http.StatusBadRequest, err.Error())
		return
	}
	loc, hasObserver, err := httputil.ParseObserver(q, false)
	if err != nil {
		fail(w, span, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(attribute.String("body", b.String()), attribute.Bool("observer", hasObserver))

	start := time.Now()
	st, err := ephemeris.State(b, t)
	if err != nil {
		fail(w, span, http.StatusInternalServerError, err.Error())
		return
	}
	resp := positionResponse{
		Time:      t.UTC(),
		BodyState: st,
		Display:   st.RaDec.String(),
	}
	if b.IsPlanet() {
		el, err := ephemeris.Elements(b, t)
		if err == nil {
			resp.Kepler = &keplerInfo{
				Eccentricity: el.Eccentricity,
				TrueAnomaly:  el.Anomaly,
				Iterations:   el.Iterations,
				Converged:    el.Converged,
			}
		}
	}
	if hasObserver {
		look := transform.ToLookAngles(st.RaDec, loc, t)
		vis := riseset.Classify(st.RaDec, loc)
		resp.Look = &look
		resp.Visibility = &vis
	}
	metrics.ObserveComputation("position", b.String(), time.Since(start))

	httputil.WriteJSON(w, http.StatusOK, resp)
}

type crossing struct {
	Found bool       `json:"found"`
	Time  *time.Time `json:"time,omitempty"`
}

type riseSetResponse struct {
	Body       ephemeris.Body     `json:"body"`
	Observer   transform.LatLong  `json:"observer"`
	Start      time.Time          `json:"start"`
	Visibility riseset.Visibility `json:"visibility"`
	Rise       *crossing          `json:"rise,omitempty"`
	Set        *crossing          `json:"set,omitempty"`
}

// GET /api/v1/riseset/{body}?lat=&lon=&t=&direction=rise|set
func (h *handlers) riseSet(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "api.riseset")
	defer span.End()

	b, err := pathBody(r)
	if err != nil {
		fail(w, span, http.StatusNotFound, err.Error())
		return
	}
	q := r.URL.Query()
	loc, _, err := httputil.ParseObserver(q, true)
	if err != nil {
		fail(w, span, http.StatusBadRequest, err.Error())
		return
	}
	start, err := httputil.ParseTime(q, time.Now())
	if err != nil {
		fail(w, span, http.StatusBadRequest, err.Error())
		return
	}
	dirs := []riseset.Direction{riseset.Rise, riseset.Set}
	if v := q.Get("direction"); v != "" {
		d, err := riseset.ParseDirection(v)
		if err != nil {
			fail(w, span, http.StatusBadRequest, "invalid direction parameter, must be rise or set")
			return
		}
		dirs = []riseset.Direction{d}
	}
	span.SetAttributes(
		attribute.String("body", b.String()),
		attribute.Float64("observer.lat", loc.Latitude),
		attribute.Float64("observer.lon", loc.Longitude),
	)

	pos, err := ephemeris.Position(b, start)
	if err != nil {
		fail(w, span, http.StatusInternalServerError, err.Error())
		return
	}
	resp := riseSetResponse{
		Body:       b,
		Observer:   loc,
		Start:      start,
		Visibility: riseset.Classify(pos, loc),
	}
	for _, d := range dirs {
		at, ok, err := h.opts.RiseSets.NextRiseSetTime(b, start, loc, d)
		if err != nil {
			fail(w, span, http.StatusInternalServerError, err.Error())
			return
		}
		c := &crossing{Found: ok}
		if ok {
			c.Time = &at
		}
		if d == riseset.Rise {
			resp.Rise = c
		} else {
			resp.Set = c
		}
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// parseBodies reads a comma-separated body list, defaulting to every body.
func parseBodies(v string) ([]ephemeris.Body, error) {
	if strings.TrimSpace(v) == "" {
		return ephemeris.Bodies, nil
	}
	seen := make(map[ephemeris.Body]bool)
	var out []ephemeris.Body
	for _, name := range strings.Split(v, ",") {
		b, err := ephemeris.ParseBody(name)
		if err != nil {
			return nil, err
		}
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	return out, nil
}

type eventsResponse struct {
	Observer transform.LatLong    `json:"observer"`
	Start    time.Time            `json:"start"`
	Days     float64              `json:"days"`
	Bodies   []riseset.BodyEvents `json:"bodies"`
}

// GET /api/v1/events?lat=&lon=&t=&days=&bodies=
func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "api.events")
	defer span.End()

	q := r.URL.Query()
	loc, _, err := httputil.ParseObserver(q, true)
	if err != nil {
		fail(w, span, http.StatusBadRequest, err.Error())
		return
	}
	start, err := httputil.ParseTime(q, time.Now())
	if err != nil {
		fail(w, span, http.StatusBadRequest, err.Error())
		return
	}
	days, err := httputil.ParseFloat(q, "days", 0.01, 31, 1)
	if err != nil {
		fail(w, span, http.StatusBadRequest, err.Error())
		return
	}
	bodies, err := parseBodies(q.Get("bodies"))
	if err != nil {
		fail(w, span, http.StatusBadRequest, err.Error())
		return
	}

	results := riseset.Predict(ctx, riseset.Request{
		Observer: loc,
		Bodies:   bodies,
		Start:    start,
		Days:     days,
		Config:   h.opts.RiseSet,
	})
	if ctx.Err() != nil {
		h.logger.Debug("events request cancelled", "request_id", RequestID(ctx))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, eventsResponse{
		Observer: loc,
		Start:    start,
		Days:     days,
		Bodies:   results,
	})
}

// snapshot serves t from the sky cache when one is configured.
func (h *handlers) snapshot(t time.Time) *ephemeris.Snapshot {
	if h.opts.SkyCache == nil {
		return ephemeris.NewSnapshot(t)
	}
	return h.opts.SkyCache.GetOrCompute(t)
}

// GET /api/v1/sky?t=
func (h *handlers) sky(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "api.sky")
	defer span.End()

	t, err := httputil.ParseTime(r.URL.Query(), time.Now())
	if err != nil {
		fail(w, span, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	snap := h.snapshot(t)
	metrics.ObserveComputation("snapshot", metrics.AllBodies, time.Since(start))
	httputil.WriteJSON(w, http.StatusOK, snap)
}

type zenithResponse struct {
	Time     time.Time         `json:"time"`
	Observer transform.LatLong `json:"observer"`
	LSTDeg   float64           `json:"lst_deg"`
	Zenith   transform.RaDec   `json:"zenith"`
	Display  string            `json:"display"`
}

// GET /api/v1/zenith?lat=&lon=&t=
func (h *handlers) zenith(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc, _, err := httputil.ParseObserver(q, true)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, err := httputil.ParseTime(q, time.Now())
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	z := transform.ZenithRaDec(t, loc)
	httputil.WriteJSON(w, http.StatusOK, zenithResponse{
		Time:     t.UTC(),
		Observer: loc,
		LSTDeg:   transform.MeanSiderealTime(t, loc.Longitude),
		Zenith:   z,
		Display:  z.String(),
	})
}

type cacheStatsResponse struct {
	Sky           *cache.Stats        `json:"sky,omitempty"`
	RiseSet       *cache.RiseSetStats `json:"riseset,omitempty"`
	StreamsActive int                 `json:"streams_active"`
}

// GET /api/v1/cache/stats
func (h *handlers) cacheStats(w http.ResponseWriter, r *http.Request) {
	var resp cacheStatsResponse
	if h.opts.SkyCache != nil {
		s := h.opts.SkyCache.Stats()
		resp.Sky = &s
	}
	if h.opts.RiseSets != nil {
		s := h.opts.RiseSets.Stats()
		resp.RiseSet = &s
	}
	if h.opts.Stream != nil {
		resp.StreamsActive = h.opts.Stream.Active()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
