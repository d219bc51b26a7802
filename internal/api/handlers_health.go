// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/pricelens/internal/logging"
	"github.com/tomtom215/pricelens/internal/models"
)

const version = "1.0.0"

// Health handles health check requests.
//
// Reports database and model server connectivity plus the current listings
// count. A missing model server degrades the status but never fails the
// request: estimation requests will return 503 individually while listing
// search and options continue to work.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil
	modelConnected := h.predictor != nil && h.predictor.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected || !modelConnected {
		status = "degraded"
	}

	var listings int64
	if dbConnected {
		count, err := h.db.CountListings(r.Context())
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to count listings for health check")
		} else {
			listings = count
		}
	}

	health := models.HealthStatus{
		Status:            status,
		Version:           version,
		Environment:       h.config.Server.Environment,
		DatabaseConnected: dbConnected,
		ModelConnected:    modelConnected,
		ListingsCount:     listings,
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   health,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive handles liveness probe requests (Kubernetes-style).
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
//
// Readiness requires only the database: a down model server degrades the
// estimation endpoint but listing search and options remain serviceable,
// so the instance stays in rotation.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil
	modelConnected := h.predictor != nil && h.predictor.Ping(r.Context()) == nil

	statusCode := http.StatusOK
	status := "ready"
	if !dbConnected {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": dbConnected,
			"model_connected":    modelConnected,
			"ready_to_serve":     dbConnected,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
