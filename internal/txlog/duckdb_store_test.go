// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package txlog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DuckDBStore {
	t.Helper()

	db, err := sql.Open("duckdb", filepath.Join(t.TempDir(), "txlog.duckdb"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	store, err := NewDuckDBStore(db)
	require.NoError(t, err)
	return store
}

func testEntry(price *float64) *Entry {
	return &Entry{
		Fields: map[string]interface{}{
			"body": "suv",
			"fuel": "Petrol",
			"km":   45000.0,
		},
		PredictedPrice: price,
		Timestamp:      time.Now(),
	}
}

func TestStoreSave(t *testing.T) {
	store := newTestStore(t)
	price := 950000.0

	require.NoError(t, store.Save(context.Background(), testEntry(&price)))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var gotBody string
	var gotPrice float64
	err = store.db.QueryRowContext(context.Background(),
		`SELECT input_body, predicted_price FROM predictions`).Scan(&gotBody, &gotPrice)
	require.NoError(t, err)
	assert.Equal(t, "suv", gotBody)
	assert.Equal(t, 950000.0, gotPrice)
}

func TestStoreSaveNullPrice(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(context.Background(), testEntry(nil)))

	var gotPrice sql.NullFloat64
	err := store.db.QueryRowContext(context.Background(),
		`SELECT predicted_price FROM predictions`).Scan(&gotPrice)
	require.NoError(t, err)
	assert.False(t, gotPrice.Valid)
}

func TestStoreSaveDropsUnrecognizedFields(t *testing.T) {
	store := newTestStore(t)
	entry := testEntry(nil)
	entry.Fields["color"] = "red"

	require.NoError(t, store.Save(context.Background(), entry))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStoreSaveDropsNullFields(t *testing.T) {
	store := newTestStore(t)
	entry := testEntry(nil)
	entry.Fields["state"] = nil

	require.NoError(t, store.Save(context.Background(), entry))

	var gotState sql.NullString
	err := store.db.QueryRowContext(context.Background(),
		`SELECT input_state FROM predictions`).Scan(&gotState)
	require.NoError(t, err)
	assert.False(t, gotState.Valid)
}

func TestStoreSaveSkipsEmptyEntry(t *testing.T) {
	store := newTestStore(t)

	tests := map[string]map[string]interface{}{
		"no fields":                {},
		"only unrecognized fields": {"color": "red"},
		"only null fields":         {"body": nil},
	}

	for name, fields := range tests {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(context.Background(), &Entry{Fields: fields}))
		})
	}

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestStoreAssignsTimestamp(t *testing.T) {
	store := newTestStore(t)
	entry := testEntry(nil)
	entry.Timestamp = time.Time{}

	require.NoError(t, store.Save(context.Background(), entry))

	var created time.Time
	err := store.db.QueryRowContext(context.Background(),
		`SELECT created_at FROM predictions`).Scan(&created)
	require.NoError(t, err)
	assert.False(t, created.IsZero())
}

func TestFilterFieldsRegistryOrder(t *testing.T) {
	columns, values := filterFields(map[string]interface{}{
		"km":   45000.0,
		"body": "suv",
	})

	// Categorical fields come before numerical in the registry
	require.Equal(t, []string{"input_body", "input_km"}, columns)
	assert.Equal(t, []interface{}{"suv", 45000.0}, values)
}
