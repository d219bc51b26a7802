// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package services

import (
	"context"
	"time"

	"github.com/tomtom215/pricelens/internal/logging"
)

// Checkpointer flushes the database WAL into the main file.
// Satisfied by *database.DB.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointService periodically checkpoints the database so the WAL
// stays small and crash recovery stays fast. A failed checkpoint is
// logged and retried on the next tick, never fatal.
type CheckpointService struct {
	db       Checkpointer
	interval time.Duration
	name     string
}

// NewCheckpointService creates a checkpoint service.
// Default interval is 15 minutes.
func NewCheckpointService(db Checkpointer, interval time.Duration) *CheckpointService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &CheckpointService{
		db:       db,
		interval: interval,
		name:     "db-checkpoint",
	}
}

// Serve implements suture.Service.
func (c *CheckpointService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			checkpointCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			err := c.db.Checkpoint(checkpointCtx)
			cancel()
			if err != nil {
				logging.Warn().Err(err).Msg("Periodic database checkpoint failed")
			} else {
				logging.Debug().Msg("Database checkpoint complete")
			}
		}
	}
}

// String implements fmt.Stringer for logging.
func (c *CheckpointService) String() string {
	return c.name
}
