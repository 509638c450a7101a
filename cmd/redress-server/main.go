package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/rewired-gh/redress-analyzer/internal/analysis"
	"github.com/rewired-gh/redress-analyzer/internal/config"
	"github.com/rewired-gh/redress-analyzer/internal/ingest"
	"github.com/rewired-gh/redress-analyzer/internal/logger"
	"github.com/rewired-gh/redress-analyzer/internal/server"
	"github.com/rewired-gh/redress-analyzer/internal/storage"
)

func main() {
	flags := pflag.NewFlagSet("redress-server", pflag.ExitOnError)
	configPath := flags.String("config", "configs/config.yaml", "Path to configuration file")
	flags.String("addr", ":8080", "HTTP listen address")
	flags.String("source-dir", "", "Directory holding campaign workbooks")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup logging with level support
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	overrides, err := cfg.Analysis.Overrides()
	if err != nil {
		logger.Fatal("Invalid anchor overrides: %v", err)
	}
	src, err := ingest.NewSource(ctx, cfg.Source)
	if err != nil {
		logger.Fatal("Failed to open source: %v", err)
	}
	reload := func(ctx context.Context) (*ingest.Result, error) {
		return ingest.Load(ctx, src, overrides)
	}

	// Initial load
	result, err := reload(ctx)
	if err != nil {
		logger.Fatal("Failed to load campaigns: %v", err)
	}
	catalog := storage.New(result)

	weighting, err := analysis.ParseWeighting(cfg.Analysis.Weighting)
	if err != nil {
		logger.Fatal("Invalid weighting: %v", err)
	}
	srv := server.New(catalog, server.Defaults{
		Filter:    cfg.Analysis.Filter(),
		View:      cfg.Analysis.View(),
		Weighting: weighting,
	}, cfg.Server.AllowedOrigins, reload)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Serving %d campaigns from %s on %s", catalog.Len(), src, cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, cleaning up...")
	case err := <-errChan:
		logger.Error("HTTP server failed: %v", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
