// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/pricelens/internal/logging"
	"github.com/tomtom215/pricelens/internal/metrics"
	"github.com/tomtom215/pricelens/internal/models"
)

// Fallback option lists used when the listings table has no values for a
// dimension yet (fresh install, empty seed). Values mirror the most common
// entries in the training dataset.
var (
	defaultBodyOptions = []string{
		"Hatchback", "SUV", "Sedan", "MUV", "Minivans", "Pickup Trucks", "Coupe", "Convertibles",
	}
	defaultDriveTypeOptions  = []string{"FWD", "RWD", "AWD", "4WD"}
	defaultEngineTypeOptions = []string{
		"In-Line Engine", "V-Type Engine", "Boxer Engine", "Rotary Engine",
	}
	defaultFuelOptions      = []string{"Petrol", "Diesel", "CNG", "LPG", "Electric", "Hybrid"}
	defaultOwnerTypeOptions = []string{"First Owner", "Second Owner", "Third Owner", "Fourth Owner"}
	defaultStateOptions     = []string{
		"Delhi", "Maharashtra", "Karnataka", "Tamil Nadu", "Telangana",
		"Haryana", "Uttar Pradesh", "West Bengal", "Gujarat", "Rajasthan",
	}
	defaultSteeringTypeOptions = []string{"Power", "Manual", "Electric", "Electronic"}
	defaultTransmissionOptions = []string{"Manual", "Automatic"}
	defaultUTypeOptions        = []string{"Individual", "Dealer", "Trustmark Dealer"}
)

// DistinctOptions returns the distinct values of every categorical search
// dimension in the listings table. Dimensions with no stored values fall
// back to a built-in default list so dropdowns are never empty.
func (db *DB) DistinctOptions(ctx context.Context) (*models.CarOptions, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	opts := &models.CarOptions{}
	dimensions := []struct {
		column   string
		dest     *[]string
		fallback []string
	}{
		{"body", &opts.Body, defaultBodyOptions},
		{"drive_type", &opts.DriveType, defaultDriveTypeOptions},
		{"engine_type", &opts.EngineType, defaultEngineTypeOptions},
		{"fuel", &opts.Fuel, defaultFuelOptions},
		{"owner_type", &opts.OwnerType, defaultOwnerTypeOptions},
		{"state", &opts.State, defaultStateOptions},
		{"steering_type", &opts.SteeringType, defaultSteeringTypeOptions},
		{"transmission", &opts.Transmission, defaultTransmissionOptions},
		{"utype", &opts.UType, defaultUTypeOptions},
	}

	for _, dim := range dimensions {
		values, err := db.distinctColumn(ctx, dim.column)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s options: %w", dim.column, err)
		}
		if len(values) == 0 {
			values = dim.fallback
		}
		*dim.dest = values
	}

	return opts, nil
}

// distinctColumn returns the distinct non-empty values of one column.
// The column name comes from the fixed dimension table above, never from
// user input.
func (db *DB) distinctColumn(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(
		`SELECT DISTINCT %s FROM car_listings WHERE %s IS NOT NULL AND trim(%s) <> '' ORDER BY %s`,
		column, column, column, column)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query)
	metrics.RecordDBQuery("select", "car_listings", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logging.Trace().Str("column", column).Int("values", len(values)).Msg("Loaded distinct options")
	return values, nil
}
