// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package pipeline

// Reconciler narrows normalized records to the field set the loaded model
// actually expects. The expected set is discovered once at startup and
// injected here as an immutable value, never re-read during request
// handling.
type Reconciler struct {
	expected []string
}

// NewReconciler creates a reconciler for the given expected field set.
// A nil or empty set means the model did not expose its schema; records
// then pass through unchanged.
func NewReconciler(expected []string) *Reconciler {
	fields := make([]string, len(expected))
	copy(fields, expected)
	return &Reconciler{expected: fields}
}

// Reconcile narrows record to exactly the expected fields.
//
// Unknown expected set: record passes through unchanged. Expected set a
// subset of the record's fields: extras are dropped. Expected fields
// absent from the record: SchemaMismatchError, a server-side fault.
func (r *Reconciler) Reconcile(record map[string]interface{}) (map[string]interface{}, error) {
	if len(r.expected) == 0 {
		return record, nil
	}

	missing := []string{}
	for _, field := range r.expected {
		if _, ok := record[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaMismatchError{Fields: missing}
	}

	narrowed := make(map[string]interface{}, len(r.expected))
	for _, field := range r.expected {
		narrowed[field] = record[field]
	}
	return narrowed, nil
}

// ExpectedFields returns a copy of the expected field set, empty when unknown.
func (r *Reconciler) ExpectedFields() []string {
	fields := make([]string, len(r.expected))
	copy(fields, r.expected)
	return fields
}
