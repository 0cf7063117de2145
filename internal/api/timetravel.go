package api

import (
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sky-map-team/stardroid-sub001/internal/ephemeris"
	"github.com/sky-map-team/stardroid-sub001/internal/httputil"
	"github.com/sky-map-team/stardroid-sub001/internal/timetravel"
	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

// GET /api/v1/timetravel
func (h *handlers) timeTravelList(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": timetravel.Catalog})
}

type timeTravelResponse struct {
	Event  timetravel.Event      `json:"event"`
	From   time.Time             `json:"from"`
	Time   time.Time             `json:"time"`
	Target *ephemeris.BodyState  `json:"target,omitempty"`
	Look   *transform.LookAngles `json:"look,omitempty"`
}

// GET /api/v1/timetravel/{event}?t=&lat=&lon=
func (h *handlers) timeTravel(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "api.timetravel")
	defer span.End()

	ev, err := timetravel.Lookup(r.PathValue("event"))
	if err != nil {
		fail(w, span, http.StatusNotFound, err.Error())
		return
	}
	q := r.URL.Query()
	from, err := httputil.ParseTime(q, time.Now())
	if err != nil {
		fail(w, span, http.StatusBadRequest, err.Error())
		return
	}
	loc, hasObserver, err := httputil.ParseObserver(q, false)
	if err != nil {
		fail(w, span, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(attribute.String("event", ev.ID), attribute.Bool("observer", hasObserver))

	var locp *transform.LatLong
	if hasObserver {
		locp = &loc
	}
	at, err := timetravel.Resolve(ev, from, locp, h.opts.RiseSets)
	switch {
	case errors.Is(err, timetravel.ErrObserverRequired):
		fail(w, span, http.StatusBadRequest, "lat and lon parameters are required for this event")
		return
	case errors.Is(err, timetravel.ErrNoOccurrence):
		fail(w, span, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		fail(w, span, http.StatusInternalServerError, err.Error())
		return
	}

	resp := timeTravelResponse{Event: ev, From: from, Time: at}
	if ev.Target != nil {
		st, err := ephemeris.State(*ev.Target, at)
		if err != nil {
			fail(w, span, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Target = &st
		if hasObserver {
			look := transform.ToLookAngles(st.RaDec, loc, at)
			resp.Look = &look
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
