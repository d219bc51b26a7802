// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/pricelens/internal/logging"
)

// carListingsSchema defines the listings table. Column names follow the
// cleaned form of the training dataset columns (lowercase, underscores).
const carListingsSchema = `
CREATE SEQUENCE IF NOT EXISTS car_listings_id_seq;

CREATE TABLE IF NOT EXISTS car_listings (
	id BIGINT PRIMARY KEY DEFAULT nextval('car_listings_id_seq'),
	model TEXT NOT NULL,
	variant TEXT,
	listed_price DOUBLE NOT NULL,
	myear INTEGER,
	fuel TEXT,
	km DOUBLE,
	state TEXT,
	body TEXT,
	image_url TEXT,

	-- Remaining model input dimensions
	drive_type TEXT,
	engine_type TEXT,
	owner_type TEXT,
	steering_type TEXT,
	transmission TEXT,
	utype TEXT,
	no_of_cylinder DOUBLE,
	length DOUBLE,
	width DOUBLE,
	height DOUBLE,
	wheel_base DOUBLE,
	kerb_weight DOUBLE,
	gear_box DOUBLE,
	seats DOUBLE,
	max_torque_at DOUBLE,

	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for the tiered comparable search and find-by-body
CREATE INDEX IF NOT EXISTS idx_listings_body ON car_listings(body);
CREATE INDEX IF NOT EXISTS idx_listings_body_price ON car_listings(body, listed_price);
CREATE INDEX IF NOT EXISTS idx_listings_price ON car_listings(listed_price);
`

// createTables creates all application tables.
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Split and execute each statement
	statements := strings.Split(carListingsSchema, ";")
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Debug().Msg("Car listings table created/verified")
	return nil
}

// SeedListingsFromCSV bulk-loads listings from a CSV file using DuckDB's
// read_csv_auto. Only runs when the table is empty so restarts do not
// duplicate rows. The CSV must carry at least model and listed_price
// columns; column names are matched by name, extra columns are ignored.
func (db *DB) SeedListingsFromCSV(ctx context.Context, path string) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var count int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM car_listings`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count listings: %w", err)
	}
	if count > 0 {
		logging.Debug().Int64("rows", count).Msg("Listings table already populated, skipping CSV seed")
		return nil
	}

	query := `
		INSERT INTO car_listings (
			model, variant, listed_price, myear, fuel, km, state, body, image_url,
			drive_type, engine_type, owner_type, steering_type, transmission, utype,
			no_of_cylinder, length, width, height, wheel_base, kerb_weight,
			gear_box, seats, max_torque_at
		)
		SELECT
			model, variant, listed_price, myear, fuel, km, state, body, image_url,
			drive_type, engine_type, owner_type, steering_type, transmission, utype,
			no_of_cylinder, length, width, height, wheel_base, kerb_weight,
			gear_box, seats, max_torque_at
		FROM read_csv_auto(?, header=true)
	`

	result, err := db.conn.ExecContext(ctx, query, path)
	if err != nil {
		return fmt.Errorf("failed to seed listings from %s: %w", path, err)
	}

	rows, _ := result.RowsAffected()
	logging.Info().Int64("rows", rows).Str("path", path).Msg("Seeded car listings from CSV")
	return nil
}
