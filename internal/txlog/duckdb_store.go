// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package txlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/pricelens/internal/schema"
)

// inputColumnPrefix marks the normalized request fields in the predictions
// table, keeping them apart from the store's own columns.
const inputColumnPrefix = "input_"

// DuckDBStore persists transaction log entries in the predictions table.
//
// DuckDB performs best with single-writer access; a mutex serializes
// writes from the async logger.
type DuckDBStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewDuckDBStore creates the store and its table.
func NewDuckDBStore(db *sql.DB) (*DuckDBStore, error) {
	store := &DuckDBStore{db: db}
	if err := store.createTable(); err != nil {
		return nil, fmt.Errorf("failed to create predictions table: %w", err)
	}
	return store, nil
}

// predictionsSchema builds the table DDL from the field registry:
// one input_ column per registered field, typed by the field's semantic
// type, plus the estimate and a server-assigned timestamp.
func predictionsSchema() string {
	var b strings.Builder
	b.WriteString("CREATE SEQUENCE IF NOT EXISTS predictions_id_seq;\n")
	b.WriteString("CREATE TABLE IF NOT EXISTS predictions (\n")
	b.WriteString("\tid BIGINT PRIMARY KEY DEFAULT nextval('predictions_id_seq'),\n")
	for _, field := range schema.CategoricalFields() {
		fmt.Fprintf(&b, "\t%s%s TEXT,\n", inputColumnPrefix, field)
	}
	for _, field := range schema.NumericalFields() {
		fmt.Fprintf(&b, "\t%s%s DOUBLE,\n", inputColumnPrefix, field)
	}
	b.WriteString("\tpredicted_price DOUBLE,\n")
	b.WriteString("\tcreated_at TIMESTAMPTZ NOT NULL\n")
	b.WriteString(");")
	return b.String()
}

// createTable creates the predictions table if it doesn't exist.
func (s *DuckDBStore) createTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := strings.Split(predictionsSchema(), ";")
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save persists one entry inside a transaction.
//
// Only registered fields with non-nil values are written; unrecognized
// fields are dropped. An entry whose filtered field set is empty is
// skipped entirely, which is not an error.
func (s *DuckDBStore) Save(ctx context.Context, entry *Entry) error {
	columns, values := filterFields(entry.Fields)
	if len(columns) == 0 {
		return nil
	}

	timestamp := entry.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	columns = append(columns, "predicted_price", "created_at")
	values = append(values, nullableFloat(entry.PredictedPrice), timestamp)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO predictions (%s) VALUES (%s)",
		strings.Join(columns, ", "), placeholders)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, values...); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to insert entry: %w (rollback failed: %v)", err, rbErr)
		}
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry: %w", err)
	}
	return nil
}

// Count returns the number of persisted entries.
func (s *DuckDBStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return count, nil
}

// filterFields selects the registered, non-nil fields of an entry in
// registry order and maps them to their prefixed column names.
func filterFields(fields map[string]interface{}) ([]string, []interface{}) {
	columns := []string{}
	values := []interface{}{}
	for _, field := range schema.AllFields() {
		value, ok := fields[field]
		if !ok || value == nil {
			continue
		}
		columns = append(columns, inputColumnPrefix+field)
		values = append(values, value)
	}
	return columns, values
}

// nullableFloat converts an optional float to its SQL parameter form.
func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
