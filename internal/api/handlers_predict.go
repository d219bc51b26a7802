// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/pricelens/internal/logging"
	"github.com/tomtom215/pricelens/internal/models"
	"github.com/tomtom215/pricelens/internal/pipeline"
	"github.com/tomtom215/pricelens/internal/predict"
)

// Predict handles price estimation requests.
//
// The request body is a flat JSON object of raw feature fields. The record
// is normalized, reconciled against the model's expected feature set and
// sent to the model server. When the model yields a usable price, comparable
// listings are attached; when it does not, the response carries a null
// predicted_price and an empty similar_cars list rather than an error.
//
// Every accepted request is recorded to the transaction log, whether or not
// an estimate was produced. Log failures never affect the response.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var input map[string]interface{}
	if err := decodeJSONBody(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body is not valid JSON", err)
		return
	}

	record, estimate, err := h.pipeline.Run(r.Context(), input)
	if err != nil {
		h.respondPredictError(w, err)
		return
	}

	result := models.PredictionResult{
		PredictedPrice: estimate.Value,
		SimilarCars:    []models.SimilarCar{},
	}

	if estimate.Present() {
		body, _ := record["body"].(string)
		result.SimilarCars = h.db.FindComparables(r.Context(), body, *estimate.Value)
	}

	if h.txlog != nil {
		h.txlog.Log(record, estimate.Value)
	}

	respondSuccess(w, result, start, false)
}

// respondPredictError maps pipeline errors onto the API error taxonomy.
//
// Malformed client input maps to 400 with machine-readable details, a
// record that cannot satisfy the model's schema is a server-side 500, and
// an unreachable model server is a 503.
func (h *Handler) respondPredictError(w http.ResponseWriter, err error) {
	var missingErr *pipeline.MissingFieldsError
	if errors.As(err, &missingErr) {
		respondErrorDetails(w, http.StatusBadRequest, "MISSING_FIELDS",
			"Required fields are missing from the request",
			map[string]interface{}{"fields": missingErr.Fields}, nil)
		return
	}

	var invalidErr *pipeline.InvalidNumericFieldsError
	if errors.As(err, &invalidErr) {
		respondErrorDetails(w, http.StatusBadRequest, "INVALID_NUMERIC_FIELDS",
			"Numerical fields contain non-numeric values",
			map[string]interface{}{"fields": invalidErr.Fields}, nil)
		return
	}

	var schemaErr *pipeline.SchemaMismatchError
	if errors.As(err, &schemaErr) {
		logging.Error().Strs("fields", schemaErr.Fields).Msg("Record cannot satisfy model feature set")
		respondError(w, http.StatusInternalServerError, "SCHEMA_MISMATCH",
			"Record cannot satisfy the model's expected feature set", err)
		return
	}

	if errors.Is(err, predict.ErrModelUnavailable) {
		respondError(w, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE",
			"Model server is unavailable", err)
		return
	}

	respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
		"An internal error occurred", err)
}
