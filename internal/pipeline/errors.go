// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// MissingFieldsError reports required input fields absent from a request.
// It always takes precedence over InvalidNumericFieldsError: when both
// conditions hold, only the missing fields are reported.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// InvalidNumericFieldsError reports numeric fields whose supplied values
// could not be parsed as real numbers, keyed by field name with the
// original offending value preserved for the client.
type InvalidNumericFieldsError struct {
	Fields map[string]string
}

func (e *InvalidNumericFieldsError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid numeric fields: %s", strings.Join(names, ", "))
}

// SchemaMismatchError reports that the loaded model expects fields the
// normalized record does not carry. This is an internal consistency fault,
// not a client input error.
type SchemaMismatchError struct {
	Fields []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("model expects fields absent from record: %s", strings.Join(e.Fields, ", "))
}
