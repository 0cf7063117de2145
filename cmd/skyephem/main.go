package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/api"
	"github.com/sky-map-team/stardroid-sub001/internal/cache"
	"github.com/sky-map-team/stardroid-sub001/internal/health"
	"github.com/sky-map-team/stardroid-sub001/internal/httputil"
	"github.com/sky-map-team/stardroid-sub001/internal/observability"
	"github.com/sky-map-team/stardroid-sub001/internal/stream"
	"github.com/sky-map-team/stardroid-sub001/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: loadLogLevel(),
	}))

	addr := os.Getenv("SKYEPHEM_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, loadTracingConfig(logger), logger)
	if err != nil {
		logger.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	skyCache := cache.NewSkyCache(loadCacheConfig(logger), logger.With("component", "cache"))

	rsCfg := loadRiseSetConfig(logger)
	riseSets, err := cache.NewRiseSetCache(rsCfg.CacheSize, rsCfg.Search)
	if err != nil {
		logger.Error("rise/set cache setup failed", "error", err)
		os.Exit(1)
	}

	rlCfg := loadRateLimitConfig(logger)
	var limiter *httputil.IPRateLimiter
	if rlCfg.Enabled {
		limiter = httputil.NewIPRateLimiter(rlCfg.PerSecond, rlCfg.Burst, rlCfg.TTL)
	}

	streamCfg := loadStreamConfig(logger)
	streamCfg.TrustProxy = rlCfg.TrustProxy
	streamHandler := stream.NewHandler(skyCache, streamCfg, logger.With("component", "stream"))

	ready := &health.Checker{}
	ready.Add("sky_cache", skyCache.Ready)

	srv := api.NewServer(addr, logger, api.Options{
		Auth:       authCfg,
		SkyCache:   skyCache,
		RiseSets:   riseSets,
		Stream:     streamHandler,
		Ready:      ready,
		Limiter:    limiter,
		RiseSet:    rsCfg.Search,
		TrustProxy: rlCfg.TrustProxy,
		Web:        web.Content,
	})

	// Start cache background worker.
	go skyCache.Start(ctx)

	// Drop idle rate-limit buckets.
	if limiter != nil {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if removed := limiter.Cleanup(); removed > 0 {
						logger.Debug("rate limiter cleanup", "visitors_removed", removed, "visitors", limiter.Len())
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled, "rate_limit_enabled", rlCfg.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
