// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	c := New(time.Minute)
	c.Set("options:all", []string{"suv", "sedan"})

	got, ok := c.Get("options:all")
	require.True(t, ok)
	assert.Equal(t, []string{"suv", "sedan"}, got)
}

func TestGetMiss(t *testing.T) {
	c := New(time.Minute)
	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestExpiration(t *testing.T) {
	c := New(time.Minute)
	c.SetWithTTL("short", "value", 10*time.Millisecond)

	_, ok := c.Get("short")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("short")
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	c := New(time.Minute)
	c.Set("key", "value")
	c.Delete("key")

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	assert.False(t, okA)
	assert.False(t, okB)
	assert.Equal(t, int64(0), c.GetStats().TotalKeys)
}

func TestStatsAndHitRate(t *testing.T) {
	c := New(time.Minute)
	c.Set("key", "value")

	c.Get("key")    // hit
	c.Get("absent") // miss

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 50.0, c.HitRate(), 0.01)
}

func TestHitRateEmpty(t *testing.T) {
	c := New(time.Minute)
	assert.Equal(t, 0.0, c.HitRate())
}

func TestGenerateKeyDeterministic(t *testing.T) {
	params := map[string]string{"body": "suv"}
	k1 := GenerateKey("find_by_body", params)
	k2 := GenerateKey("find_by_body", params)
	assert.Equal(t, k1, k2)

	k3 := GenerateKey("find_by_body", map[string]string{"body": "sedan"})
	assert.NotEqual(t, k1, k3)
}
