// Package api wires the HTTP routes and middleware of the ephemeris service.
package api

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/auth"
	"github.com/sky-map-team/stardroid-sub001/internal/cache"
	"github.com/sky-map-team/stardroid-sub001/internal/health"
	"github.com/sky-map-team/stardroid-sub001/internal/httputil"
	"github.com/sky-map-team/stardroid-sub001/internal/metrics"
	"github.com/sky-map-team/stardroid-sub001/internal/riseset"
	"github.com/sky-map-team/stardroid-sub001/internal/stream"
)

// Options carries the server's dependencies. Any field may be left zero; a
// nil RiseSets gets a private cache and other nil parts are skipped.
type Options struct {
	Auth       auth.Config
	SkyCache   *cache.SkyCache
	RiseSets   *cache.RiseSetCache
	Stream     *stream.Handler
	Ready      *health.Checker
	Limiter    *httputil.IPRateLimiter
	RiseSet    riseset.Config
	TrustProxy bool
	Web        fs.FS
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

const defaultRiseSetCacheSize = 1024

// rateLimitExempt paths bypass the per-IP request limiter.
var rateLimitExempt = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, opts Options) *Server {
	if opts.RiseSets == nil {
		// Only a non-positive size can fail.
		opts.RiseSets, _ = cache.NewRiseSetCache(defaultRiseSetCacheSize, opts.RiseSet)
	}

	mux := http.NewServeMux()
	h := &handlers{opts: opts, logger: logger}

	ready := opts.Ready
	if ready == nil {
		ready = &health.Checker{}
	}

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", ready.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/bodies", h.bodies)
	mux.HandleFunc("GET /api/v1/position/{body}", h.position)
	mux.HandleFunc("GET /api/v1/riseset/{body}", h.riseSet)
	mux.HandleFunc("GET /api/v1/events", h.events)
	mux.HandleFunc("GET /api/v1/sky", h.sky)
	mux.HandleFunc("GET /api/v1/zenith", h.zenith)
	mux.HandleFunc("GET /api/v1/cache/stats", h.cacheStats)
	mux.HandleFunc("GET /api/v1/timetravel", h.timeTravelList)
	mux.HandleFunc("GET /api/v1/timetravel/{event}", h.timeTravel)
	if opts.Stream != nil {
		mux.HandleFunc("GET /api/v1/stream/sky", opts.Stream.HandleSky)
	}
	if opts.Web != nil {
		mux.Handle("GET /", http.FileServerFS(opts.Web))
	}

	// Build middleware chain: metrics -> request id -> logging -> rate limit -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(opts.Auth)(handler)
	if opts.Limiter != nil {
		handler = opts.Limiter.Middleware(opts.TrustProxy, rateLimitExempt, metrics.IncRateLimited)(handler)
	}
	handler = loggingMiddleware(logger, opts.TrustProxy)(handler)
	handler = requestIDMiddleware(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so SSE works through the chain.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"request_id", RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
