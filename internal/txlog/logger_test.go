// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package txlog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records saved entries and can simulate failures or slowness.
type fakeStore struct {
	mu      sync.Mutex
	entries []*Entry
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeStore) Save(_ context.Context, entry *Entry) error {
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeStore) saved() []*Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Entry{}, f.entries...)
}

func TestLoggerWritesAsync(t *testing.T) {
	store := &fakeStore{}
	logger := NewLogger(store, &Config{Enabled: true, BufferSize: 10})

	price := 950000.0
	logger.Log(map[string]interface{}{"body": "suv"}, &price)
	require.NoError(t, logger.Close())

	entries := store.saved()
	require.Len(t, entries, 1)
	assert.Equal(t, "suv", entries[0].Fields["body"])
	assert.Equal(t, 950000.0, *entries[0].PredictedPrice)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestLoggerDisabled(t *testing.T) {
	store := &fakeStore{}
	logger := NewLogger(store, &Config{Enabled: false, BufferSize: 10})

	logger.Log(map[string]interface{}{"body": "suv"}, nil)
	require.NoError(t, logger.Close())

	assert.Empty(t, store.saved())
}

func TestLoggerDropsWhenBufferFull(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	store := &fakeStore{block: block, started: started}
	logger := NewLogger(store, &Config{Enabled: true, BufferSize: 1})

	// First entry occupies the writer, second fills the buffer,
	// third must be dropped without blocking.
	logger.Log(map[string]interface{}{"body": "one"}, nil)
	<-started
	logger.Log(map[string]interface{}{"body": "two"}, nil)

	done := make(chan struct{})
	go func() {
		logger.Log(map[string]interface{}{"body": "three"}, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Log blocked on a full buffer")
	}

	close(block)
	require.NoError(t, logger.Close())
	assert.LessOrEqual(t, len(store.saved()), 2)
}

func TestLoggerFailureIsolated(t *testing.T) {
	store := &fakeStore{err: errors.New("insert failed")}
	logger := NewLogger(store, &Config{Enabled: true, BufferSize: 10})

	logger.Log(map[string]interface{}{"body": "suv"}, nil)
	require.NoError(t, logger.Close())
}

func TestLoggerDrainsOnClose(t *testing.T) {
	store := &fakeStore{}
	logger := NewLogger(store, &Config{Enabled: true, BufferSize: 100})

	for i := 0; i < 50; i++ {
		logger.Log(map[string]interface{}{"body": "suv"}, nil)
	}
	require.NoError(t, logger.Close())

	assert.Len(t, store.saved(), 50)
}

func TestLoggerNilConfigDefaults(t *testing.T) {
	logger := NewLogger(&fakeStore{}, nil)
	assert.True(t, logger.config.Enabled)
	assert.Equal(t, 1000, logger.config.BufferSize)
	require.NoError(t, logger.Close())
}
