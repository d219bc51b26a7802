// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/pricelens/internal/logging"
	"github.com/tomtom215/pricelens/internal/metrics"
)

// Ensure CircuitBreakerClient implements Predictor
var _ Predictor = (*CircuitBreakerClient)(nil)

// ErrModelUnavailable reports that the model server cannot currently be
// reached, either because the circuit is open or the request failed.
var ErrModelUnavailable = errors.New("model server unavailable")

// CircuitBreakerClient wraps Client with circuit breaker pattern.
// Prevents cascading failures when the model server is unavailable or slow.
//
// DETERMINISM NOTE: The circuit breaker uses real time (via sony/gobreaker)
// for its interval and timeout calculations. This is intentional for
// production resilience; unit tests should exercise the wrapped client
// directly.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient creates a model server client with circuit breaker.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(baseURL string, timeout time.Duration) *CircuitBreakerClient {
	client := NewClient(baseURL, timeout)
	cbName := "model-server"

	// Initialize circuit breaker state metrics
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,               // Allow 3 concurrent requests in half-open state
		Interval:    time.Minute,     // Reset counts after 1 minute in closed state
		Timeout:     2 * time.Minute, // Wait 2 minutes before transitioning from open to half-open

		// Opens when failure rate >= 60% with minimum 10 requests
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false // Need at least 10 requests for statistical significance
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening model server circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] Model server state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			// Reset consecutive failures when transitioning to closed
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps a model server call with circuit breaker protection
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(func() (interface{}, error) {
		return fn()
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Model request rejected")
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}

		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		counts := cbc.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)

	return result, nil
}

// castResult safely type-casts the circuit breaker result with error checking
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Predict requests a price estimate with circuit breaker protection.
func (cbc *CircuitBreakerClient) Predict(ctx context.Context, record map[string]interface{}) (map[string]interface{}, error) {
	return castResult[map[string]interface{}](cbc.execute(func() (interface{}, error) {
		return cbc.client.Predict(ctx, record)
	}))
}

// ExpectedFields retrieves the model's feature names with circuit breaker protection.
func (cbc *CircuitBreakerClient) ExpectedFields(ctx context.Context) ([]string, error) {
	return castResult[[]string](cbc.execute(func() (interface{}, error) {
		return cbc.client.ExpectedFields(ctx)
	}))
}

// Ping verifies connectivity to the model server with circuit breaker protection.
func (cbc *CircuitBreakerClient) Ping(ctx context.Context) error {
	_, err := cbc.execute(func() (interface{}, error) {
		return nil, cbc.client.Ping(ctx)
	})
	return err
}

// State returns the current circuit breaker state
func (cbc *CircuitBreakerClient) State() gobreaker.State {
	return cbc.cb.State()
}

// Counts returns the current circuit breaker counts
func (cbc *CircuitBreakerClient) Counts() gobreaker.Counts {
	return cbc.cb.Counts()
}

// Name returns the circuit breaker name
func (cbc *CircuitBreakerClient) Name() string {
	return cbc.name
}
