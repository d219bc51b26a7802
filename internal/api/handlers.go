// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

// Package api implements the HTTP layer: handlers, the Chi router and
// the middleware factories wired around it.
package api

import (
	"time"

	"github.com/tomtom215/pricelens/internal/cache"
	"github.com/tomtom215/pricelens/internal/config"
	"github.com/tomtom215/pricelens/internal/database"
	"github.com/tomtom215/pricelens/internal/logging"
	"github.com/tomtom215/pricelens/internal/pipeline"
	"github.com/tomtom215/pricelens/internal/predict"
	"github.com/tomtom215/pricelens/internal/txlog"
)

// defaultOptionsTTL is used when the cache TTL is not configured.
const defaultOptionsTTL = 5 * time.Minute

// Handler contains dependencies for API handlers.
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: shared response helpers
//   - handlers_predict.go: price estimation endpoint
//   - handlers_cars.go: listing search and dropdown options endpoints
//   - handlers_health.go: health and probe endpoints
type Handler struct {
	db        *database.DB
	pipeline  *pipeline.Pipeline
	predictor predict.Predictor
	txlog     *txlog.Logger
	config    *config.Config
	cache     *cache.Cache
	startTime time.Time
}

// NewHandler creates a new API handler with all required dependencies.
//
// The transaction logger may be nil when transaction logging is disabled;
// every other dependency is required.
func NewHandler(db *database.DB, pipe *pipeline.Pipeline, predictor predict.Predictor, txLogger *txlog.Logger, cfg *config.Config) *Handler {
	ttl := cfg.Cache.OptionsTTL
	if ttl <= 0 {
		ttl = defaultOptionsTTL
	}

	return &Handler{
		db:        db,
		pipeline:  pipe,
		predictor: predictor,
		txlog:     txLogger,
		config:    cfg,
		cache:     cache.New(ttl),
		startTime: time.Now(),
	}
}

// ClearCache invalidates all cached dropdown options.
//
// Called after the listings table changes so clients receive fresh
// distinct values on the next request.
func (h *Handler) ClearCache() {
	if h.cache != nil {
		h.cache.Clear()
		logging.Info().Msg("Options cache cleared")
	}
}
