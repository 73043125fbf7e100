package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/cadence/internal/app"
	"github.com/felixgeelhaar/cadence/pkg/config"
)

// Version is set during build
var Version = "dev"

func main() {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, Version, false)
	logger.Info("starting cadence worker", "version", Version, "env", cfg.AppEnv)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	worker, err := app.NewWorker(container)
	if err != nil {
		logger.Error("failed to configure worker", "error", err)
		os.Exit(1)
	}
	if err := worker.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	if cfg.WorkerHealthAddr != "" {
		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           worker.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("shutting down worker")

	worker.Stop()
	logger.Info("worker stopped")
}

// loadConfig reads CADENCE_CONFIG as a YAML file when set.
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CADENCE_CONFIG"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
