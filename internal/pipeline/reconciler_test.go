// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileUnknownSchemaPassesThrough(t *testing.T) {
	record := map[string]interface{}{"body": "suv", "km": 45000.0}

	for _, expected := range [][]string{nil, {}} {
		r := NewReconciler(expected)
		got, err := r.Reconcile(record)
		require.NoError(t, err)
		assert.Equal(t, record, got)
	}
}

func TestReconcileNarrowsToExpected(t *testing.T) {
	r := NewReconciler([]string{"body", "km"})
	record := map[string]interface{}{"body": "suv", "km": 45000.0, "fuel": "Petrol"}

	got, err := r.Reconcile(record)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"body": "suv", "km": 45000.0}, got)
}

func TestReconcileMismatchFails(t *testing.T) {
	r := NewReconciler([]string{"body", "engine_displacement"})
	record := map[string]interface{}{"body": "suv", "km": 45000.0}

	_, err := r.Reconcile(record)

	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, []string{"engine_displacement"}, mismatch.Fields)
}

func TestReconcilerCopiesExpectedFields(t *testing.T) {
	expected := []string{"body"}
	r := NewReconciler(expected)
	expected[0] = "mutated"

	assert.Equal(t, []string{"body"}, r.ExpectedFields())
}
