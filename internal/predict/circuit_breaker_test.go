// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package predict

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerPassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/predict":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"listed_price_prediction": 950000.0})
		case "/schema":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"fields": []string{"body", "km"}})
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	cbc := NewCircuitBreakerClient(server.URL, 5*time.Second)

	output, err := cbc.Predict(context.Background(), map[string]interface{}{"body": "suv"})
	require.NoError(t, err)
	assert.InDelta(t, 950000.0, output["listed_price_prediction"], 0.001)

	fields, err := cbc.ExpectedFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"body", "km"}, fields)

	require.NoError(t, cbc.Ping(context.Background()))
	assert.Equal(t, gobreaker.StateClosed, cbc.State())
}

func TestCircuitBreakerWrapsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cbc := NewCircuitBreakerClient(server.URL, 5*time.Second)

	_, err := cbc.Predict(context.Background(), map[string]interface{}{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelUnavailable))
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cbc := NewCircuitBreakerClient(server.URL, 5*time.Second)

	// Trip threshold is 60% failures over at least 10 requests
	for i := 0; i < 12; i++ {
		_, _ = cbc.Predict(context.Background(), map[string]interface{}{})
	}

	assert.Equal(t, gobreaker.StateOpen, cbc.State())

	// Requests while open are rejected without reaching the server
	_, err := cbc.Predict(context.Background(), map[string]interface{}{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelUnavailable))
}

func TestCastResult(t *testing.T) {
	got, err := castResult[[]string]([]string{"a"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	_, err = castResult[[]string]("wrong type", nil)
	assert.Error(t, err)

	_, err = castResult[[]string](nil, errors.New("upstream failed"))
	assert.Error(t, err)
}

func TestStateConversions(t *testing.T) {
	assert.Equal(t, 0.0, stateToFloat(gobreaker.StateClosed))
	assert.Equal(t, 1.0, stateToFloat(gobreaker.StateHalfOpen))
	assert.Equal(t, 2.0, stateToFloat(gobreaker.StateOpen))

	assert.Equal(t, "closed", stateToString(gobreaker.StateClosed))
	assert.Equal(t, "half-open", stateToString(gobreaker.StateHalfOpen))
	assert.Equal(t, "open", stateToString(gobreaker.StateOpen))
}

func TestCircuitBreakerName(t *testing.T) {
	cbc := NewCircuitBreakerClient("http://model:5000", time.Second)
	assert.Equal(t, "model-server", cbc.Name())
	assert.Equal(t, uint32(0), cbc.Counts().Requests)
}
