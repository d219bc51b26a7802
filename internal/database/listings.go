// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/pricelens/internal/logging"
	"github.com/tomtom215/pricelens/internal/metrics"
	"github.com/tomtom215/pricelens/internal/models"
)

// Comparable search tuning. Tier 1 looks for same-body listings priced
// within a relative band around the estimate; tier 2 relaxes the price
// band; tier 3 falls back to any listing that has an image.
const (
	tier1PriceLow  = 0.7
	tier1PriceHigh = 1.3
	tierResultCap  = 10
	fallbackCap    = 4
	bodyBandRadius = 500000.0
	bodyMatchCap   = 10
)

// similarCarColumns is the SELECT list shared by all listing queries.
const similarCarColumns = `
	id, model, listed_price, myear, fuel, variant, km, state, body, image_url
`

// FindComparables walks the three search tiers in order and returns the
// first tier that yields results. A query failure in one tier degrades to
// an empty tier and the walk continues; the method never fails the caller.
// When no body type is supplied, tiers 1 and 2 are skipped entirely.
// The returned slice is never nil.
func (db *DB) FindComparables(ctx context.Context, body string, estimate float64) []models.SimilarCar {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if body != "" {
		if cars := db.searchTier1(ctx, body, estimate); len(cars) > 0 {
			return cars
		}
		if cars := db.searchTier2(ctx, body, estimate); len(cars) > 0 {
			return cars
		}
	}

	return db.searchTier3(ctx)
}

// searchTier1 finds same-body listings priced within [0.7e, 1.3e].
func (db *DB) searchTier1(ctx context.Context, body string, estimate float64) []models.SimilarCar {
	query := `
		SELECT ` + similarCarColumns + `
		FROM car_listings
		WHERE body = ? AND listed_price >= ? AND listed_price <= ?
		ORDER BY abs(listed_price - ?)
		LIMIT ?
	`
	return db.queryTier(ctx, "1", query,
		body, estimate*tier1PriceLow, estimate*tier1PriceHigh, estimate, tierResultCap)
}

// searchTier2 finds same-body listings at any price.
func (db *DB) searchTier2(ctx context.Context, body string, estimate float64) []models.SimilarCar {
	query := `
		SELECT ` + similarCarColumns + `
		FROM car_listings
		WHERE body = ?
		ORDER BY abs(listed_price - ?)
		LIMIT ?
	`
	return db.queryTier(ctx, "2", query, body, estimate, tierResultCap)
}

// searchTier3 returns a small set of listings with images, ignoring body
// and price entirely.
func (db *DB) searchTier3(ctx context.Context) []models.SimilarCar {
	query := `
		SELECT ` + similarCarColumns + `
		FROM car_listings
		WHERE image_url IS NOT NULL AND image_url <> ''
		LIMIT ?
	`
	return db.queryTier(ctx, "3", query, fallbackCap)
}

// queryTier runs one tier query. Errors are logged and reported as an
// empty result so the search can fall through to the next tier.
func (db *DB) queryTier(ctx context.Context, tier, query string, args ...interface{}) []models.SimilarCar {
	start := time.Now()
	cars, err := db.queryListings(ctx, query, args...)
	metrics.RecordDBQuery("select", "car_listings", time.Since(start), err)
	metrics.RecordSearchTier(tier, len(cars), err)

	if err != nil {
		logging.CtxErr(ctx, err).Str("tier", tier).Msg("Comparable search tier failed, treating as empty")
		return []models.SimilarCar{}
	}
	return cars
}

// FindByBody returns listings with an exact body match priced within an
// absolute band around the target price, closest first. The lower bound
// of the band is clamped at zero.
func (db *DB) FindByBody(ctx context.Context, body string, price float64) ([]models.SimilarCar, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	low := price - bodyBandRadius
	if low < 0 {
		low = 0
	}
	high := price + bodyBandRadius

	query := `
		SELECT ` + similarCarColumns + `
		FROM car_listings
		WHERE body = ? AND listed_price >= ? AND listed_price <= ?
		ORDER BY abs(listed_price - ?)
		LIMIT ?
	`

	start := time.Now()
	cars, err := db.queryListings(ctx, query, body, low, high, price, bodyMatchCap)
	metrics.RecordDBQuery("select", "car_listings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to find listings by body: %w", err)
	}
	return cars, nil
}

// queryListings executes a listings query and scans the rows. Queries go
// through the prepared-statement cache since they are fixed SQL strings.
// Always returns a non-nil slice on success for consistent JSON encoding.
func (db *DB) queryListings(ctx context.Context, query string, args ...interface{}) ([]models.SimilarCar, error) {
	stmt, err := db.getOrPrepareStmt(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("listings query failed: %w", err)
	}
	defer rows.Close()

	cars := []models.SimilarCar{}
	for rows.Next() {
		car, err := scanSimilarCar(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing row: %w", err)
		}
		cars = append(cars, car)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listing rows: %w", err)
	}

	return cars, nil
}

// scanSimilarCar scans one listings row, mapping NULL columns to zero values.
func scanSimilarCar(rows *sql.Rows) (models.SimilarCar, error) {
	var car models.SimilarCar
	var myear sql.NullInt64
	var fuel, variant, state, body, imageURL sql.NullString
	var km sql.NullFloat64

	err := rows.Scan(&car.ID, &car.Model, &car.ListedPrice, &myear, &fuel,
		&variant, &km, &state, &body, &imageURL)
	if err != nil {
		return car, err
	}

	car.ModelYear = int(myear.Int64)
	car.Fuel = fuel.String
	car.Variant = variant.String
	car.Kilometers = km.Float64
	car.State = state.String
	car.Body = body.String
	car.ImageURL = imageURL.String
	return car, nil
}

// CountListings returns the number of rows in car_listings.
func (db *DB) CountListings(ctx context.Context) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM car_listings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}
