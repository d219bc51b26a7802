// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

// Package main is the entry point for the PriceLens server.
//
// PriceLens estimates used car prices by delegating to an external model
// server and enriches every estimate with comparable listings from a local
// DuckDB catalog.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Initialize DuckDB and optionally seed the listings catalog from CSV
//  3. Model Client: HTTP client for the model server, wrapped in a circuit breaker
//  4. Schema Probe: Fetch the model's expected feature set (optional, degrades to pass-through)
//  5. Transaction Log: Asynchronous fire-and-forget request recording
//  6. HTTP Server: REST API under /api/v1 plus Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables
//   - Config file (config.yaml)
//   - Built-in defaults
//
// Required settings:
//   - MODEL_URL: Base URL of the model server (e.g., http://model:8501)
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Drains the transaction log buffer
//   - Checkpoints and closes the database
//
// # Example Usage
//
//	export MODEL_URL=http://localhost:8501
//	export DUCKDB_PATH=/data/pricelens.duckdb
//	export LISTINGS_CSV_PATH=/data/used_cars.csv
//	./pricelens
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

	"github.com/tomtom215/pricelens/internal/api"
	"github.com/tomtom215/pricelens/internal/config"
	"github.com/tomtom215/pricelens/internal/database"
	"github.com/tomtom215/pricelens/internal/logging"
	"github.com/tomtom215/pricelens/internal/pipeline"
	"github.com/tomtom215/pricelens/internal/predict"
	"github.com/tomtom215/pricelens/internal/supervisor"
	"github.com/tomtom215/pricelens/internal/supervisor/services"
	"github.com/tomtom215/pricelens/internal/txlog"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting PriceLens with supervisor tree")
	logging.Info().
		Str("model_url", cfg.Model.URL).
		Str("db_path", cfg.Database.Path).
		Bool("txlog_enabled", cfg.TxLog.Enabled).
		Msg("Configuration loaded")

	// Initialize DuckDB; this also seeds the listings catalog from CSV
	// when LISTINGS_CSV_PATH points at an existing file.
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Model client with circuit breaker for fault tolerance. A down model
	// server degrades the estimation endpoint but never stops the server:
	// listing search and dropdown options work without it.
	predictor := predict.NewCircuitBreakerClient(cfg.Model.URL, cfg.Model.Timeout)
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := predictor.Ping(startupCtx); err != nil {
		logging.Warn().Err(err).Msg("Failed to connect to model server (will retry per request)")
	} else {
		logging.Info().Msg("Connected to model server successfully")
	}

	// Probe the model's expected feature set once at startup. When the
	// probe fails, records are sent to the model unchanged.
	expectedFields, err := predictor.ExpectedFields(startupCtx)
	startupCancel()
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to fetch model feature set - records pass through unchanged")
		expectedFields = nil
	} else {
		logging.Info().Int("fields", len(expectedFields)).Msg("Model feature set loaded")
	}

	pipe := pipeline.New(predictor, expectedFields)

	// Transaction log: asynchronous, fire-and-forget. Failures here are
	// logged and dropped, never surfaced to clients.
	var txLogger *txlog.Logger
	if cfg.TxLog.Enabled {
		store, err := txlog.NewDuckDBStore(db.Conn())
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to create predictions table - transaction log disabled")
		} else {
			txLogger = txlog.NewLogger(store, &txlog.Config{
				Enabled:      true,
				BufferSize:   cfg.TxLog.BufferSize,
				WriteTimeout: cfg.TxLog.WriteTimeout,
			})
			defer func() {
				if err := txLogger.Close(); err != nil {
					logging.Error().Err(err).Msg("Error closing transaction log")
				}
			}()
			logging.Info().Int("buffer_size", cfg.TxLog.BufferSize).Msg("Transaction log initialized")
		}
	} else {
		logging.Info().Msg("Transaction log disabled (TXLOG_ENABLED=false)")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	handler := api.NewHandler(db, pipe, predictor, txLogger, cfg)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Security))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Data layer services
	tree.AddDataService(services.NewCheckpointService(db, 0))
	logging.Info().Msg("Database checkpoint service added to supervisor tree")

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
