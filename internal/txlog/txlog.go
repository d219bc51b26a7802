// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

// Package txlog provides best-effort, fire-and-forget persistence of
// prediction transactions. A logging failure must never surface to the
// request that triggered it; entries are dropped, not retried.
package txlog

import (
	"context"
	"time"
)

// Entry is one write-once transaction log record: the normalized input
// fields of a prediction request, the resulting estimate (nil when the
// model produced none) and a server-assigned timestamp.
type Entry struct {
	Fields         map[string]interface{}
	PredictedPrice *float64
	Timestamp      time.Time
}

// Store persists transaction log entries.
type Store interface {
	// Save persists one entry. Implementations must roll back any partial
	// write on failure.
	Save(ctx context.Context, entry *Entry) error
}
