// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

// Package predict provides the HTTP client for the external model server
// that produces price estimates, plus a circuit breaker wrapper for it.
package predict

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/pricelens/internal/logging"
	"github.com/tomtom215/pricelens/internal/metrics"
)

// Predictor is the model server surface the prediction pipeline depends on.
// Implementations: Client (direct HTTP) and CircuitBreakerClient.
type Predictor interface {
	// Predict sends one feature record and returns the model's raw output
	// map. Keys and value types are model-dependent; callers interpret them.
	Predict(ctx context.Context, record map[string]interface{}) (map[string]interface{}, error)

	// ExpectedFields returns the feature names the served model was trained
	// on, in no particular order.
	ExpectedFields(ctx context.Context) ([]string, error)

	// Ping verifies the model server is reachable and healthy.
	Ping(ctx context.Context) error
}

// Client is a direct HTTP client for the model server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a model server client.
// baseURL should be like "http://model:5000" (no trailing slash needed).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: trimTrailingSlash(baseURL),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func trimTrailingSlash(url string) string {
	for len(url) > 0 && url[len(url)-1] == '/' {
		url = url[:len(url)-1]
	}
	return url
}

// Predict sends the feature record to POST /predict and decodes the raw
// output map. The model returns its outputs as a flat JSON object, e.g.
// {"log_listed_price_prediction": 13.2}.
func (c *Client) Predict(ctx context.Context, record map[string]interface{}) (map[string]interface{}, error) {
	start := time.Now()

	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode prediction request: %w", err)
	}

	var output map[string]interface{}
	err = c.doRequest(ctx, http.MethodPost, "/predict", body, &output)
	metrics.RecordModelRequest("predict", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return output, nil
}

// ExpectedFields retrieves the model's feature names from GET /schema.
func (c *Client) ExpectedFields(ctx context.Context) ([]string, error) {
	start := time.Now()

	var resp struct {
		Fields []string `json:"fields"`
	}
	err := c.doRequest(ctx, http.MethodGet, "/schema", nil, &resp)
	metrics.RecordModelRequest("schema", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return resp.Fields, nil
}

// Ping checks the model server health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()
	err := c.doRequest(ctx, http.MethodGet, "/health", nil, nil)
	metrics.RecordModelRequest("health", time.Since(start), err)
	return err
}

// doRequest performs an HTTP request against the model server and decodes
// the JSON response into result when result is non-nil.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, result interface{}) error {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create model request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Failed to close model response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		// Read a bounded amount of the body for diagnostics
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("model server returned status %d: %s", resp.StatusCode, string(errBody))
	}

	if result == nil {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode model response: %w", err)
	}

	return nil
}
