// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

// Package pipeline implements the prediction request pipeline: input
// normalization, schema reconciliation against the loaded model, and
// extraction of a price estimate from the model's output.
package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/pricelens/internal/schema"
)

// unknownCategorical is substituted for empty or whitespace-only
// categorical values after validation.
const unknownCategorical = "Unknown"

// Normalize validates a raw request record against the field registry and
// coerces it into a typed record: categorical fields become strings,
// numerical fields become float64.
//
// Validation order matters: if any required field is absent the call fails
// with MissingFieldsError and invalid numeric values are not reported.
// Only when all fields are present are unparseable numeric values
// aggregated into InvalidNumericFieldsError.
//
// After validation, numerical fields with no usable value default to 0.0
// and empty categorical fields become "Unknown". Unregistered input keys
// are dropped.
func Normalize(input map[string]interface{}) (map[string]interface{}, error) {
	missing := []string{}
	for _, field := range schema.AllFields() {
		if _, ok := input[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	invalid := map[string]string{}
	numeric := map[string]float64{}
	for _, field := range schema.NumericalFields() {
		value, hasValue, err := parseNumeric(input[field])
		if err != nil {
			invalid[field] = fmt.Sprintf("%v", input[field])
			continue
		}
		if hasValue {
			numeric[field] = value
		}
	}
	if len(invalid) > 0 {
		return nil, &InvalidNumericFieldsError{Fields: invalid}
	}

	record := make(map[string]interface{}, schema.FieldCount())
	for _, field := range schema.CategoricalFields() {
		text := toText(input[field])
		if strings.TrimSpace(text) == "" {
			text = unknownCategorical
		}
		record[field] = text
	}
	for _, field := range schema.NumericalFields() {
		value, hasValue := numeric[field]
		if !hasValue {
			value = 0.0
		}
		record[field] = value
	}

	return record, nil
}

// parseNumeric interprets a raw numeric field value.
// Returns hasValue=false for null, empty strings and NaN sentinels, which
// are "no value" rather than errors. Any other unparseable value is an error.
func parseNumeric(raw interface{}) (value float64, hasValue bool, err error) {
	switch v := raw.(type) {
	case nil:
		return 0, false, nil
	case float64:
		if math.IsNaN(v) {
			return 0, false, nil
		}
		return v, true, nil
	case float32:
		return float64(v), true, nil
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case json.Number:
		f, parseErr := v.Float64()
		if parseErr != nil {
			return 0, false, parseErr
		}
		return f, true, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" || strings.EqualFold(trimmed, "nan") {
			return 0, false, nil
		}
		f, parseErr := strconv.ParseFloat(trimmed, 64)
		if parseErr != nil {
			return 0, false, parseErr
		}
		if math.IsNaN(f) {
			return 0, false, nil
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported numeric type %T", raw)
	}
}

// toText converts a raw categorical field value to its text form.
// Null becomes empty text, never an error.
func toText(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
