// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package models

import (
	"time"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
// It provides consistent structure for both successful and error responses, with metadata
// for observability and caching information.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"predicted_price": 745000, "similar_cars": [...]},
//	  "metadata": {
//	    "timestamp": "2026-08-30T12:00:00Z",
//	    "query_time_ms": 45,
//	    "cached": false
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "MISSING_FIELDS",
//	    "message": "Required fields are missing from the request",
//	    "details": {"fields": ["body", "fuel"]}
//	  },
//	  "metadata": {"timestamp": "2026-08-30T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability and performance tracking.
//
// Fields:
//   - Timestamp: Server time when response was generated (RFC3339 format)
//   - QueryTimeMS: Request processing time in milliseconds (0 if cached)
//   - Cached: Whether response was served from cache (omitted if false)
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
// Provides consistent error format across all API endpoints for better client handling.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid request body or parameters
//   - MISSING_FIELDS: Required feature fields absent from the record
//   - INVALID_NUMERIC_FIELDS: Numerical fields carry non-numeric values
//   - SCHEMA_MISMATCH: Record cannot satisfy the model's expected feature set
//   - MODEL_UNAVAILABLE: Model server unreachable or circuit breaker open
//   - DATABASE_ERROR: Query execution failure
//   - RATE_LIMIT_EXCEEDED: Too many requests
//
// Example:
//
//	{
//	  "code": "INVALID_NUMERIC_FIELDS",
//	  "message": "Numerical fields contain non-numeric values",
//	  "details": {
//	    "fields": {"km": "a lot", "seats": "five"}
//	  }
//	}
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus describes overall service health.
//
// Status is "healthy" when both the database and the model server respond,
// "degraded" otherwise. A degraded service still serves listing searches
// and dropdown options.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	Environment       string  `json:"environment"`
	DatabaseConnected bool    `json:"database_connected"`
	ModelConnected    bool    `json:"model_connected"`
	ListingsCount     int64   `json:"listings_count"`
	Uptime            float64 `json:"uptime"`
}
