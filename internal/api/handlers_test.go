// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/pricelens/internal/config"
	"github.com/tomtom215/pricelens/internal/database"
	"github.com/tomtom215/pricelens/internal/pipeline"
	"github.com/tomtom215/pricelens/internal/predict"
	"github.com/tomtom215/pricelens/internal/txlog"
)

// fakePredictor is an in-memory Predictor for handler tests.
type fakePredictor struct {
	output  map[string]interface{}
	err     error
	fields  []string
	pingErr error
}

func (f *fakePredictor) Predict(_ context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func (f *fakePredictor) ExpectedFields(_ context.Context) ([]string, error) {
	return f.fields, nil
}

func (f *fakePredictor) Ping(_ context.Context) error {
	return f.pingErr
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		Path:                   filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory:              "512MB",
		Threads:                2,
		PreserveInsertionOrder: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func insertListing(t *testing.T, db *database.DB, model, body, imageURL string, price float64) {
	t.Helper()

	_, err := db.Conn().Exec(
		`INSERT INTO car_listings (id, model, listed_price, myear, fuel, variant, km, state, body, image_url)
		 VALUES (nextval('car_listings_id_seq'), ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		model, price, 2020, "Petrol", "Base", 45000.0, "Karnataka", body, imageURL,
	)
	require.NoError(t, err)
}

func newTestServer(t *testing.T, predictor predict.Predictor) (*httptest.Server, *database.DB) {
	t.Helper()

	db := newTestDB(t)

	return newTestServerWithTxLog(t, db, predictor, nil), db
}

func newTestServerWithTxLog(t *testing.T, db *database.DB, predictor predict.Predictor, txLogger *txlog.Logger) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Server:   config.ServerConfig{Environment: "test"},
		Cache:    config.CacheConfig{OptionsTTL: time.Minute},
		Security: config.SecurityConfig{RateLimitDisabled: true},
	}

	handler := NewHandler(db, pipeline.New(predictor, nil), predictor, txLogger, cfg)
	router := NewRouter(handler, NewChiMiddlewareFromConfig(&cfg.Security))

	srv := httptest.NewServer(router.SetupChi())
	t.Cleanup(srv.Close)

	return srv
}

// validInput returns a raw request body with all registered fields present.
func validInput() map[string]interface{} {
	return map[string]interface{}{
		"body":           "SUV",
		"drive_type":     "FWD",
		"engine_type":    "In-Line Engine",
		"fuel":           "Petrol",
		"owner_type":     "First Owner",
		"state":          "Karnataka",
		"steering_type":  "Power",
		"transmission":   "Manual",
		"utype":          "Dealer",
		"myear":          2020.0,
		"km":             45000.0,
		"no_of_cylinder": 4.0,
		"length":         3845.0,
		"width":          1735.0,
		"height":         1530.0,
		"wheel_base":     2450.0,
		"kerb_weight":    875.0,
		"gear_box":       5.0,
		"seats":          5.0,
		"max_torque_at":  4400.0,
	}
}

func postJSON(t *testing.T, url string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body)) //nolint:noctx
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]interface{}) {
	t.Helper()

	resp, err := http.Get(url) //nolint:noctx
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestPredictReturnsEstimateWithComparables(t *testing.T) {
	predictor := &fakePredictor{output: map[string]interface{}{"listed_price_prediction": 500000.0}}
	srv, db := newTestServer(t, predictor)

	insertListing(t, db, "Maruti Brezza", "SUV", "https://img.example/1.jpg", 480000)
	insertListing(t, db, "Hyundai Creta", "SUV", "https://img.example/2.jpg", 550000)
	insertListing(t, db, "Honda City", "Sedan", "https://img.example/3.jpg", 500000)

	resp, body := postJSON(t, srv.URL+"/api/v1/predict", validInput())

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, 500000.0, data["predicted_price"])

	similar := data["similar_cars"].([]interface{})
	require.Len(t, similar, 2)
	for _, item := range similar {
		assert.Equal(t, "SUV", item.(map[string]interface{})["body"])
	}
}

func TestPredictMissingFields(t *testing.T) {
	srv, _ := newTestServer(t, &fakePredictor{output: map[string]interface{}{"listed_price": 1.0}})

	input := validInput()
	delete(input, "body")
	delete(input, "km")

	resp, body := postJSON(t, srv.URL+"/api/v1/predict", input)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", body["status"])

	apiErr := body["error"].(map[string]interface{})
	assert.Equal(t, "MISSING_FIELDS", apiErr["code"])

	fields := apiErr["details"].(map[string]interface{})["fields"].([]interface{})
	assert.ElementsMatch(t, []interface{}{"body", "km"}, fields)
}

func TestPredictInvalidNumericFields(t *testing.T) {
	srv, _ := newTestServer(t, &fakePredictor{output: map[string]interface{}{"listed_price": 1.0}})

	input := validInput()
	input["km"] = "a lot"

	resp, body := postJSON(t, srv.URL+"/api/v1/predict", input)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	apiErr := body["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_NUMERIC_FIELDS", apiErr["code"])

	fields := apiErr["details"].(map[string]interface{})["fields"].(map[string]interface{})
	assert.Equal(t, "a lot", fields["km"])
}

func TestPredictModelUnavailable(t *testing.T) {
	predictor := &fakePredictor{err: fmt.Errorf("%w: connection refused", predict.ErrModelUnavailable)}
	srv, _ := newTestServer(t, predictor)

	resp, body := postJSON(t, srv.URL+"/api/v1/predict", validInput())

	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "MODEL_UNAVAILABLE", body["error"].(map[string]interface{})["code"])
}

func TestPredictUnusableOutputDegrades(t *testing.T) {
	predictor := &fakePredictor{output: map[string]interface{}{"listed_price_prediction": "oops"}}
	srv, db := newTestServer(t, predictor)

	insertListing(t, db, "Maruti Brezza", "SUV", "https://img.example/1.jpg", 480000)

	resp, body := postJSON(t, srv.URL+"/api/v1/predict", validInput())

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]interface{})
	assert.Nil(t, data["predicted_price"])
	assert.Empty(t, data["similar_cars"])
}

func TestPredictRejectsInvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, &fakePredictor{output: map[string]interface{}{"listed_price": 1.0}})

	resp, err := http.Post(srv.URL+"/api/v1/predict", "application/json", bytes.NewReader([]byte("{not json"))) //nolint:noctx
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "VALIDATION_ERROR", body["error"].(map[string]interface{})["code"])
}

// failingTxStore rejects every write, counting the attempts.
type failingTxStore struct {
	saves atomic.Int32
}

func (s *failingTxStore) Save(_ context.Context, _ *txlog.Entry) error {
	s.saves.Add(1)
	return fmt.Errorf("disk full")
}

func TestPredictSucceedsWhenTransactionLogFails(t *testing.T) {
	db := newTestDB(t)
	insertListing(t, db, "Maruti Brezza", "SUV", "https://img.example/1.jpg", 480000)

	store := &failingTxStore{}
	txLogger := txlog.NewLogger(store, &txlog.Config{
		Enabled:      true,
		BufferSize:   10,
		WriteTimeout: time.Second,
	})
	t.Cleanup(func() { _ = txLogger.Close() })

	predictor := &fakePredictor{output: map[string]interface{}{"listed_price_prediction": 500000.0}}
	srv := newTestServerWithTxLog(t, db, predictor, txLogger)

	resp, body := postJSON(t, srv.URL+"/api/v1/predict", validInput())

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, 500000.0, data["predicted_price"])
	assert.NotEmpty(t, data["similar_cars"])

	// The write was attempted and rejected without touching the response
	require.Eventually(t, func() bool {
		return store.saves.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFindCarsByBody(t *testing.T) {
	srv, db := newTestServer(t, &fakePredictor{})

	insertListing(t, db, "Honda City", "Sedan", "https://img.example/1.jpg", 700000)
	insertListing(t, db, "Skoda Slavia", "Sedan", "https://img.example/2.jpg", 950000)
	insertListing(t, db, "Hyundai Creta", "SUV", "https://img.example/3.jpg", 900000)

	resp, body := postJSON(t, srv.URL+"/api/v1/cars/find-by-body", map[string]interface{}{
		"body":  "Sedan",
		"price": 900000,
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)

	cars := body["data"].(map[string]interface{})["matching_cars"].([]interface{})
	require.Len(t, cars, 2)
	assert.Equal(t, "Skoda Slavia", cars[0].(map[string]interface{})["model"])
}

func TestFindCarsByBodyRequiresBody(t *testing.T) {
	srv, _ := newTestServer(t, &fakePredictor{})

	resp, body := postJSON(t, srv.URL+"/api/v1/cars/find-by-body", map[string]interface{}{
		"price": 900000,
	})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", body["error"].(map[string]interface{})["code"])
}

func TestCarOptionsFallbackAndCache(t *testing.T) {
	srv, _ := newTestServer(t, &fakePredictor{})

	resp, body := getJSON(t, srv.URL+"/api/v1/cars/options")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	assert.Contains(t, data["fuel"], "Petrol")
	assert.Contains(t, data["transmission"], "Manual")
	assert.NotEqual(t, true, body["metadata"].(map[string]interface{})["cached"])

	resp, body = getJSON(t, srv.URL+"/api/v1/cars/options")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["metadata"].(map[string]interface{})["cached"])
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, &fakePredictor{})

	resp, body := getJSON(t, srv.URL+"/api/v1/health/live")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["data"].(map[string]interface{})["alive"])

	resp, body = getJSON(t, srv.URL+"/api/v1/health/ready")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])

	resp, body = getJSON(t, srv.URL+"/api/v1/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := body["data"].(map[string]interface{})
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "test", health["environment"])
	assert.Equal(t, true, health["database_connected"])
	assert.Equal(t, true, health["model_connected"])
}

func TestHealthDegradedWhenModelDown(t *testing.T) {
	srv, _ := newTestServer(t, &fakePredictor{pingErr: fmt.Errorf("connection refused")})

	resp, body := getJSON(t, srv.URL+"/api/v1/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := body["data"].(map[string]interface{})
	assert.Equal(t, "degraded", health["status"])
	assert.Equal(t, false, health["model_connected"])

	// The model server does not gate readiness: listing search still works.
	resp, body = getJSON(t, srv.URL+"/api/v1/health/ready")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])
}
