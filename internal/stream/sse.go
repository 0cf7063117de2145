// Package stream implements Server-Sent Events (SSE) streaming of sky
// snapshots. Clients connect via GET /api/v1/stream/sky and receive the
// state of every body at a fixed cadence from the sky cache.
//
// SSE message format:
//
//	data: {"type":"sky_batch","t":"2026-02-06T04:00:00Z","moon_phase":"waxing gibbous","bodies":[...]}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","step_seconds":60,"bodies":["sun",...],"server_time":"..."}\n\n
//
// When lat and lon are given every body also carries azimuth and elevation
// for that observer. Keep-alive comments (:\n\n) are sent every
// KeepaliveInterval without a batch.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/cache"
	"github.com/sky-map-team/stardroid-sub001/internal/ephemeris"
	"github.com/sky-map-team/stardroid-sub001/internal/httputil"
	"github.com/sky-map-team/stardroid-sub001/internal/metrics"
	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

// Config holds streaming configuration loaded from environment variables.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	MaxTotal           int           // Max concurrent streams overall (default: 1000).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	TrustProxy         bool          // Take the client IP from X-Forwarded-For.
}

const maxStepSeconds = 3600

// Handler manages SSE streaming connections.
type Handler struct {
	cache   *cache.SkyCache
	config  Config
	limiter *connLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(skyCache *cache.SkyCache, config Config, logger *slog.Logger) *Handler {
	return &Handler{
		cache:   skyCache,
		config:  config,
		limiter: newConnLimiter(config.MaxConcurrentPerIP, config.MaxTotal),
		logger:  logger,
	}
}

// Active returns the number of open streams.
func (h *Handler) Active() int { return h.limiter.active() }

// HandleSky serves the SSE sky stream.
// GET /api/v1/stream/sky?step=60&lat=40.4&lon=-80
func (h *Handler) HandleSky(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	step := int(h.cache.Step() / time.Second)
	if step < 1 {
		step = 1
	}
	if v := q.Get("step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxStepSeconds {
			httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid step parameter, must be 1-%d", maxStepSeconds))
			return
		}
		step = n
	}

	observer, hasObserver, err := httputil.ParseObserver(q, false)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ip := httputil.ClientIP(r, h.config.TrustProxy)
	release, why := h.limiter.admit(ip)
	if why != admitted {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream limit reached",
			"remote_ip", ip,
			"cap", string(why),
			"open_for_ip", h.limiter.held(ip),
		)
		w.Header().Set("Retry-After", "30")
		httputil.WriteError(w, http.StatusTooManyRequests, "too many concurrent streams")
		return
	}
	defer release()

	ew, err := openEventStream(w, ip, h.logger)
	if ew == nil {
		httputil.WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	if err != nil {
		h.logger.Warn("stream open failed", "remote_ip", ip, "error", err)
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()
	opened := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"step", step,
		"observer", hasObserver,
	)
	defer func() {
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(opened).Seconds()),
			"messages", ew.messages,
			"bytes", ew.bytes,
		)
	}()

	var loc *transform.LatLong
	if hasObserver {
		loc = &observer
	}

	meta := metadataMessage{
		Type:        "metadata",
		StepSeconds: step,
		Bodies:      ephemeris.Bodies,
		Observer:    loc,
		ServerTime:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := ew.message(meta); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
		return
	}

	if err := h.sendBatch(ew, time.Now(), loc); err != nil {
		return
	}

	ticker := time.NewTicker(time.Duration(step) * time.Second)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case t := <-ticker.C:
			if err := h.sendBatch(ew, t, loc); err != nil {
				return
			}
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := ew.ping(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// sendBatch writes the snapshot for t. Marshal failures are logged and
// skipped; only write failures are returned.
func (h *Handler) sendBatch(ew *eventWriter, t time.Time, loc *transform.LatLong) error {
	snap := h.cache.Get(t)
	if snap == nil {
		metrics.IncStreamErrors("cache_miss")
		h.logger.Debug("stream cache miss",
			"timestamp", h.cache.RoundToStep(t).Format(time.RFC3339),
			"remote_ip", ew.ip,
		)
		snap = ephemeris.NewSnapshot(h.cache.RoundToStep(t))
	}

	data, err := json.Marshal(buildBatchMessage(snap, loc))
	if err != nil {
		metrics.IncStreamErrors("marshal_error")
		h.logger.Warn("stream marshal error", "remote_ip", ew.ip, "error", err)
		return nil
	}
	if err := ew.data(data); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error", "remote_ip", ew.ip, "error", err)
		return err
	}
	return nil
}

// buildBatchMessage formats a snapshot into the SSE batch payload. A non-nil
// loc adds look angles for that observer.
func buildBatchMessage(s *ephemeris.Snapshot, loc *transform.LatLong) skyBatchMessage {
	bodies := make([]bodyPayload, len(s.Bodies))
	for i, st := range s.Bodies {
		bodies[i] = bodyPayload{
			Body:  st.Body,
			RA:    st.RaDec.RA,
			Dec:   st.RaDec.Dec,
			Dist:  st.DistanceAU,
			Mag:   st.Magnitude,
			Illum: st.Illumination,
		}
		if loc != nil {
			la := transform.ToLookAngles(st.RaDec, *loc, s.Time)
			bodies[i].Az = &la.AzimuthDeg
			bodies[i].Alt = &la.ElevationDeg
		}
	}
	return skyBatchMessage{
		Type:      "sky_batch",
		T:         s.Time.UTC().Format(time.RFC3339),
		MoonPhase: s.MoonPhase,
		Bodies:    bodies,
	}
}

// SSE message payload types.

type metadataMessage struct {
	Type        string             `json:"type"`
	StepSeconds int                `json:"step_seconds"`
	Bodies      []ephemeris.Body   `json:"bodies"`
	Observer    *transform.LatLong `json:"observer,omitempty"`
	ServerTime  string             `json:"server_time"`
}

type skyBatchMessage struct {
	Type      string               `json:"type"`
	T         string               `json:"t"`
	MoonPhase ephemeris.LunarPhase `json:"moon_phase"`
	Bodies    []bodyPayload        `json:"bodies"`
}

type bodyPayload struct {
	Body  ephemeris.Body `json:"body"`
	RA    float64        `json:"ra"`
	Dec   float64        `json:"dec"`
	Dist  float64        `json:"dist"`
	Mag   float64        `json:"mag"`
	Illum float64        `json:"illum"`
	Az    *float64       `json:"az,omitempty"`
	Alt   *float64       `json:"alt,omitempty"`
}
