// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package txlog

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/pricelens/internal/logging"
	"github.com/tomtom215/pricelens/internal/metrics"
)

// Config holds configuration for the transaction logger.
type Config struct {
	// Enabled controls whether transaction logging is active.
	Enabled bool

	// BufferSize is the size of the async write buffer. When the buffer
	// is full new entries are dropped, never blocked on.
	BufferSize int

	// WriteTimeout bounds a single store write.
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		BufferSize:   1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Logger writes transaction log entries through a buffered background
// worker so that persistence latency and failures stay off the request
// path. Semantics are at-most-once: failed writes are dropped.
type Logger struct {
	config    *Config
	store     Store
	entryChan chan *Entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewLogger creates a transaction logger and starts its writer.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}

	l := &Logger{
		config:    config,
		store:     store,
		entryChan: make(chan *Entry, config.BufferSize),
		stopChan:  make(chan struct{}),
	}

	// Start async writer
	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

// Log queues one transaction for persistence and returns immediately.
// When the buffer is full the entry is dropped with a metric, never
// blocking the caller.
func (l *Logger) Log(fields map[string]interface{}, predictedPrice *float64) {
	if !l.config.Enabled {
		return
	}

	entry := &Entry{
		Fields:         fields,
		PredictedPrice: predictedPrice,
		Timestamp:      time.Now(),
	}

	select {
	case l.entryChan <- entry:
	default:
		metrics.RecordTxLogDrop("buffer_full")
		logging.Warn().Msg("Transaction log buffer full, dropping entry")
	}
}

// asyncWriter processes entries from the buffer.
func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			// Drain remaining entries
			for {
				select {
				case entry := <-l.entryChan:
					l.writeEntry(entry)
				default:
					return
				}
			}
		case entry := <-l.entryChan:
			l.writeEntry(entry)
		}
	}
}

// writeEntry persists an entry to the store. Failures are logged for
// operators and counted; they never propagate.
func (l *Logger) writeEntry(entry *Entry) {
	if l.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := l.store.Save(ctx, entry)
	metrics.RecordTxLogWrite(time.Since(start), err)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to save transaction log entry")
	}
}

// Close shuts down the logger gracefully, draining buffered entries.
func (l *Logger) Close() error {
	close(l.stopChan)
	l.wg.Wait()
	return nil
}
