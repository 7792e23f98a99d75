package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/ticker-proxy/internal/api"
	"github.com/onnwee/ticker-proxy/internal/config"
	"github.com/onnwee/ticker-proxy/internal/errorreporting"
	"github.com/onnwee/ticker-proxy/internal/governor"
	"github.com/onnwee/ticker-proxy/internal/logger"
	"github.com/onnwee/ticker-proxy/internal/tracing"
	"github.com/onnwee/ticker-proxy/internal/upstream"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Fine in containers; config falls back to system env
		logger.Info("No .env file found, using system environment")
	}

	cfg := config.Load()

	logger.Init(cfg.LogLevel)
	logger.Info("Initializing ticker proxy", "log_level", cfg.LogLevel, "port", cfg.Port)

	// Initialize error reporting
	if err := errorreporting.Init(cfg); err != nil {
		logger.Warn("Failed to initialize error reporting", "error", err)
	} else if errorreporting.IsSentryEnabled() {
		logger.Info("Error reporting initialized", "environment", cfg.SentryEnvironment)
		defer func() {
			logger.Info("Flushing error reports...")
			errorreporting.Flush(2 * time.Second)
		}()
	}

	// Initialize tracing
	shutdownTracing, err := tracing.Init(cfg, "ticker-proxy")
	if err != nil {
		logger.Warn("Failed to initialize tracing", "error", err)
	} else if cfg.OTELEnabled {
		logger.Info("Tracing initialized", "endpoint", cfg.OTELEndpoint, "sample_rate", cfg.OTELSampleRate)
		defer func() {
			logger.Info("Shutting down tracer...")
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Error("Failed to shutdown tracer", "error", err)
			}
		}()
	}

	// Assemble the governor from the per-namespace configuration
	table := make(map[governor.Namespace]governor.Limits, len(cfg.Namespaces))
	for name, nc := range cfg.Namespaces {
		table[governor.Namespace(name)] = governor.Limits{
			TTL:      nc.TTL,
			Capacity: nc.Capacity,
			Quota:    nc.Quota,
			Window:   nc.Window,
		}
		logger.Info("Namespace configured",
			"namespace", name,
			"ttl", nc.TTL,
			"capacity", nc.Capacity,
			"quota", nc.Quota,
			"window", nc.Window,
		)
	}
	gov := governor.New(table)

	client := upstream.NewClient(cfg)
	router := api.NewRouter(cfg, gov, client)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received shutdown signal")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("Server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server exited", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
