// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/pricelens/internal/metrics"
	"github.com/tomtom215/pricelens/internal/models"
)

// optionsCacheKey is the single cache key for dropdown options.
const optionsCacheKey = "options:all"

// FindCarsByBody handles exact-body listing searches.
//
// Matching listings share the requested body type and fall inside a fixed
// absolute price band around the given price, ordered by price proximity.
func (h *Handler) FindCarsByBody(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.FindByBodyRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body is not valid JSON", err)
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	cars, err := h.db.FindByBody(r.Context(), req.Body, req.Price)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to search listings", err)
		return
	}

	respondSuccess(w, models.FindByBodyResult{MatchingCars: cars}, start, false)
}

// CarOptions handles dropdown option requests.
//
// Distinct values are read from the listings table and cached; dimensions
// with no stored values fall back to hardcoded defaults so the UI always
// has something to render.
func (h *Handler) CarOptions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if cached, ok := h.cache.Get(optionsCacheKey); ok {
		metrics.RecordCacheHit("options")
		respondSuccess(w, cached, start, true)
		return
	}
	metrics.RecordCacheMiss("options")

	options, err := h.db.DistinctOptions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load car options", err)
		return
	}

	h.cache.Set(optionsCacheKey, options)
	respondSuccess(w, options, start, false)
}
