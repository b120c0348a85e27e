// Command routeplan serves the delivery planning API.
//
// Configuration is read from ROUTEPLAN_* environment variables, after
// loading a .env file from the working directory if one exists.
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

	"github.com/bpnn/routeplan"
	"github.com/bpnn/routeplan/geocode"
	"github.com/bpnn/routeplan/internal/httpapi"
	"github.com/bpnn/routeplan/metric"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("Failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("Failed to read configuration", "error", err)
		os.Exit(1)
	}
	if err := ValidateConfig(&cfg); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(&cfg)
	slog.SetDefault(logger.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &cfg, logger); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *Config) *routeplan.Logger {
	level, _ := parseLevel(cfg.LogLevel)
	if cfg.LogFormat == "text" {
		return routeplan.NewTextLogger(level)
	}
	return routeplan.NewJSONLogger(level)
}

func run(ctx context.Context, cfg *Config, logger *routeplan.Logger) error {
	metrics, err := metric.NewPrometheus(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	cache, err := newCache(ctx, cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer flushCache(cache, cfg.ShutdownTimeout, logger)

	deliverers, closeDeliverers, err := newDelivererStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDeliverers(); err != nil {
			logger.Warn("Failed to close deliverer store", "error", err)
		}
	}()

	planner, err := newPlanner(cfg, cache, logger, metrics)
	if err != nil {
		return err
	}

	api := httpapi.New(httpapi.Config{
		Planner:        planner,
		Deliverers:     deliverers,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Gatherer:       prometheus.DefaultGatherer,
		Logger:         logger.Logger,
	})
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go flushPeriodically(ctx, cache, cfg.CacheFlushInterval, logger)

	errc := make(chan error, 1)
	go func() {
		logger.Info("routeplan server starting",
			"address", cfg.ListenAddr,
			"cache_backend", cfg.CacheBackend,
			"deliverer_backend", cfg.DelivererBackend,
			"cached_addresses", cache.Len(),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func flushPeriodically(ctx context.Context, cache *geocode.Cache, every time.Duration, logger *routeplan.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := cache.Flush(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Failed to flush geocode cache", "error", err)
			}
		}
	}
}

func flushCache(cache *geocode.Cache, timeout time.Duration, logger *routeplan.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := cache.Flush(ctx); err != nil {
		logger.Error("Failed to flush geocode cache", "error", err)
		return
	}
	logger.Info("Geocode cache flushed", "addresses", cache.Len())
}
