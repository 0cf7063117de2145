// Package metrics owns every Prometheus collector the service exports.
// Callers go through the small helper functions below so that label sets stay
// consistent.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyephem_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skyephem_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	keplerNonConvergedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyephem_kepler_nonconverged_total",
			Help: "Kepler solves that hit the iteration cap before reaching tolerance.",
		},
		[]string{"body"},
	)

	computationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skyephem_computation_duration_seconds",
			Help:    "Time spent computing ephemeris results, by operation and body.",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
		[]string{"operation", "body"},
	)

	riseSetSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyephem_riseset_searches_total",
			Help: "Rise/set searches by outcome.",
		},
		[]string{"outcome"},
	)

	riseSetSearchDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skyephem_riseset_search_duration_seconds",
			Help:    "Duration of a single rise/set search.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyephem_cache_hits_total",
			Help: "Cache lookups that returned a stored result.",
		},
		[]string{"cache"},
	)

	cacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyephem_cache_misses_total",
			Help: "Cache lookups that found nothing.",
		},
		[]string{"cache"},
	)

	cacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyephem_cache_evictions_total",
			Help: "Entries removed from a cache.",
		},
		[]string{"cache"},
	)

	cacheEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skyephem_cache_entries",
			Help: "Entries currently held in a cache.",
		},
		[]string{"cache"},
	)

	cacheSizeBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skyephem_cache_size_bytes",
			Help: "Estimated memory held by a cache.",
		},
		[]string{"cache"},
	)

	cacheGenerationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skyephem_cache_generation_duration_seconds",
			Help:    "Time to generate one batch of sky snapshots.",
			Buckets: prometheus.DefBuckets,
		},
	)

	cacheGenerationErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skyephem_cache_generation_errors_total",
			Help: "Snapshot generation batches that failed or were cancelled.",
		},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyephem_stream_connections_total",
			Help: "SSE connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "skyephem_streams_active",
			Help: "Currently open SSE streams.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skyephem_stream_messages_total",
			Help: "SSE data messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skyephem_stream_bytes_total",
			Help: "Bytes written to SSE clients.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyephem_stream_errors_total",
			Help: "SSE errors by reason.",
		},
		[]string{"reason"},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skyephem_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		keplerNonConvergedTotal,
		computationDurationSeconds,
		riseSetSearchesTotal,
		riseSetSearchDurationSeconds,
		cacheHitsTotal,
		cacheMissesTotal,
		cacheEvictionsTotal,
		cacheEntries,
		cacheSizeBytes,
		cacheGenerationDurationSeconds,
		cacheGenerationErrorsTotal,
		streamConnectionsTotal,
		streamsActive,
		streamMessagesTotal,
		streamBytesTotal,
		streamErrorsTotal,
		rateLimitedTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func IncKeplerNonConverged(body string) { keplerNonConvergedTotal.WithLabelValues(body).Inc() }

// AllBodies labels computations that cover every requested body at once.
const AllBodies = "all"

// ObserveComputation records how long one named operation took for body.
func ObserveComputation(operation, body string, d time.Duration) {
	computationDurationSeconds.WithLabelValues(operation, body).Observe(d.Seconds())
}

// IncRiseSetSearch counts a search by outcome: found, circumpolar,
// never_visible or not_found.
func IncRiseSetSearch(outcome string) { riseSetSearchesTotal.WithLabelValues(outcome).Inc() }

func ObserveRiseSetDuration(d time.Duration) { riseSetSearchDurationSeconds.Observe(d.Seconds()) }

func IncCacheHits(cache string)   { cacheHitsTotal.WithLabelValues(cache).Inc() }
func IncCacheMisses(cache string) { cacheMissesTotal.WithLabelValues(cache).Inc() }

func AddCacheEvictions(cache string, n int) {
	cacheEvictionsTotal.WithLabelValues(cache).Add(float64(n))
}

func SetCacheEntries(cache string, n int) { cacheEntries.WithLabelValues(cache).Set(float64(n)) }

func SetCacheSizeBytes(cache string, n int64) {
	cacheSizeBytes.WithLabelValues(cache).Set(float64(n))
}

func ObserveCacheGenerationDuration(d time.Duration) {
	cacheGenerationDurationSeconds.Observe(d.Seconds())
}

func IncCacheGenerationErrors() { cacheGenerationErrorsTotal.Inc() }

func IncStreamConnections(event string) { streamConnectionsTotal.WithLabelValues(event).Inc() }
func IncStreamsActive()                 { streamsActive.Inc() }
func DecStreamsActive()                 { streamsActive.Dec() }
func IncStreamMessages()                { streamMessagesTotal.Inc() }
func AddStreamBytes(n int64)            { streamBytesTotal.Add(float64(n)) }
func IncStreamErrors(reason string)     { streamErrorsTotal.WithLabelValues(reason).Inc() }

func IncRateLimited() { rateLimitedTotal.Inc() }

// knownRoutes are reported verbatim. Any other path collapses to a route
// template or to "other".
var knownRoutes = map[string]bool{
	"/":                   true,
	"/healthz":            true,
	"/readyz":             true,
	"/metrics":            true,
	"/api/v1/bodies":      true,
	"/api/v1/events":      true,
	"/api/v1/sky":         true,
	"/api/v1/zenith":      true,
	"/api/v1/cache/stats": true,
	"/api/v1/stream/sky":  true,
	"/api/v1/timetravel":  true,
}

// parameterizedRoutes map a path prefix to the label used for every
// segment beneath it.
var parameterizedRoutes = []struct {
	prefix string
	label  string
}{
	{"/api/v1/position/", "/api/v1/position/{body}"},
	{"/api/v1/riseset/", "/api/v1/riseset/{body}"},
	{"/api/v1/timetravel/", "/api/v1/timetravel/{event}"},
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	for _, r := range parameterizedRoutes {
		if rest, ok := strings.CutPrefix(path, r.prefix); ok && rest != "" && !strings.Contains(rest, "/") {
			return r.label
		}
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush passes through so SSE handlers still see an http.Flusher.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
