package main

import (
	"errors"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/auth"
	"github.com/sky-map-team/stardroid-sub001/internal/cache"
	"github.com/sky-map-team/stardroid-sub001/internal/observability"
	"github.com/sky-map-team/stardroid-sub001/internal/riseset"
	"github.com/sky-map-team/stardroid-sub001/internal/stream"
)

// envInt reads key as an integer >= floor. Unset or invalid values yield
// def; invalid ones are logged.
func envInt(logger *slog.Logger, key string, def, floor int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < floor {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", def)
		return def
	}
	return n
}

// envSeconds reads key as a whole number of seconds >= 1.
func envSeconds(logger *slog.Logger, key string, def time.Duration) time.Duration {
	return time.Duration(envInt(logger, key, int(def/time.Second), 1)) * time.Second
}

func envBool(logger *slog.Logger, key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", def)
		return def
	}
	return b
}

func loadLogLevel() slog.Level {
	level := slog.LevelInfo
	if v := os.Getenv("SKYEPHEM_LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return slog.LevelInfo
		}
	}
	return level
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	if v := os.Getenv("SKYEPHEM_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, errors.New("SKYEPHEM_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		for _, tok := range strings.Split(os.Getenv("SKYEPHEM_AUTH_TOKENS"), ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				cfg.Tokens = append(cfg.Tokens, tok)
			}
		}
		if len(cfg.Tokens) == 0 {
			return cfg, errors.New("SKYEPHEM_AUTH_TOKENS is required when auth is enabled")
		}
		logger.Info("auth enabled", "tokens", len(cfg.Tokens))
	}

	return cfg, nil
}

func loadCacheConfig(logger *slog.Logger) cache.Config {
	cfg := cache.Config{
		Step:    envSeconds(logger, "SKYEPHEM_CACHE_STEP", 60*time.Second),
		Horizon: envSeconds(logger, "SKYEPHEM_CACHE_HORIZON", time.Hour),
		Buffer:  envSeconds(logger, "SKYEPHEM_CACHE_BUFFER", 5*time.Minute),
	}
	if cfg.Horizon < cfg.Step {
		logger.Warn("SKYEPHEM_CACHE_HORIZON shorter than step, using step", "horizon_seconds", cfg.Horizon.Seconds())
		cfg.Horizon = cfg.Step
	}

	logger.Info("cache config",
		"step_seconds", cfg.Step.Seconds(),
		"horizon_seconds", cfg.Horizon.Seconds(),
		"buffer_seconds", cfg.Buffer.Seconds(),
	)

	return cfg
}

// riseSetSettings bundles the search bounds with the answer cache size.
type riseSetSettings struct {
	Search    riseset.Config
	CacheSize int
}

func loadRiseSetConfig(logger *slog.Logger) riseSetSettings {
	def := riseset.DefaultConfig()
	cfg := riseSetSettings{
		Search: riseset.Config{
			CoarseStep:    envSeconds(logger, "SKYEPHEM_RISESET_STEP", def.CoarseStep),
			Tolerance:     envSeconds(logger, "SKYEPHEM_RISESET_TOLERANCE", def.Tolerance),
			MaxBisections: envInt(logger, "SKYEPHEM_RISESET_MAX_BISECTIONS", def.MaxBisections, 1),
		},
		CacheSize: envInt(logger, "SKYEPHEM_RISESET_CACHE_SIZE", 1024, 1),
	}

	logger.Info("rise/set config",
		"coarse_step_seconds", cfg.Search.CoarseStep.Seconds(),
		"tolerance_seconds", cfg.Search.Tolerance.Seconds(),
		"max_bisections", cfg.Search.MaxBisections,
		"cache_size", cfg.CacheSize,
	)

	return cfg
}

func loadStreamConfig(logger *slog.Logger) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: envInt(logger, "SKYEPHEM_STREAM_MAX_CONCURRENT", 10, 1),
		MaxTotal:           envInt(logger, "SKYEPHEM_STREAM_MAX_TOTAL", 1000, 1),
		KeepaliveInterval:  envSeconds(logger, "SKYEPHEM_STREAM_KEEPALIVE_INTERVAL", 30*time.Second),
	}

	logger.Info("stream config",
		"max_concurrent_per_ip", cfg.MaxConcurrentPerIP,
		"max_total", cfg.MaxTotal,
		"keepalive_interval_seconds", cfg.KeepaliveInterval.Seconds(),
	)

	return cfg
}

// rateLimitConfig controls the per-IP request limiter.
type rateLimitConfig struct {
	Enabled    bool
	PerSecond  float64
	Burst      int
	TTL        time.Duration
	TrustProxy bool
}

func loadRateLimitConfig(logger *slog.Logger) rateLimitConfig {
	cfg := rateLimitConfig{
		Enabled:    envBool(logger, "SKYEPHEM_RATE_LIMIT_ENABLED", true),
		PerSecond:  10,
		Burst:      envInt(logger, "SKYEPHEM_RATE_LIMIT_BURST", 20, 1),
		TTL:        envSeconds(logger, "SKYEPHEM_RATE_LIMIT_TTL", 10*time.Minute),
		TrustProxy: envBool(logger, "SKYEPHEM_TRUST_PROXY", false),
	}

	if v := os.Getenv("SKYEPHEM_RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			logger.Warn("invalid SKYEPHEM_RATE_LIMIT_RPS value, using default", "value", v, "default", cfg.PerSecond)
		} else {
			cfg.PerSecond = f
		}
	}

	logger.Info("rate limit config",
		"enabled", cfg.Enabled,
		"rps", cfg.PerSecond,
		"burst", cfg.Burst,
		"trust_proxy", cfg.TrustProxy,
	)

	return cfg
}

func loadTracingConfig(logger *slog.Logger) observability.TracingConfig {
	cfg := observability.TracingConfig{
		Enabled:     envBool(logger, "SKYEPHEM_TRACING_ENABLED", false),
		ServiceName: "skyephem",
		SampleRatio: 1.0,
	}

	if v := os.Getenv("SKYEPHEM_TRACING_SERVICE_NAME"); v != "" {
		cfg.ServiceName = v
	}

	if v := os.Getenv("SKYEPHEM_TRACING_SAMPLE_RATIO"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || f < 0 || f > 1 {
			logger.Warn("invalid SKYEPHEM_TRACING_SAMPLE_RATIO value, using default", "value", v, "default", cfg.SampleRatio)
		} else {
			cfg.SampleRatio = f
		}
	}

	return cfg
}
