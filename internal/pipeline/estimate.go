// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package pipeline

import (
	"math"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/pricelens/internal/schema"
)

// Estimate is the single price prediction extracted from one model call.
// Value is nil when the model produced no usable output, which degrades
// the response to a null prediction rather than failing the request.
type Estimate struct {
	Value          *float64
	SourceField    string
	LogTransformed bool
}

// Present reports whether a usable estimate was extracted.
func (e Estimate) Present() bool {
	return e.Value != nil
}

// ExtractEstimate probes the model output for the target value.
//
// Output field names are probed in fixed priority order:
//  1. log_listed_price_prediction (value is exp-transformed)
//  2. listed_price_prediction
//  3. listed_price
//
// The first present field wins; there is no fall-through to lower
// priorities when its value turns out unusable. A missing field, a
// non-numeric value or a NaN result all yield an absent Estimate.
func ExtractEstimate(output map[string]interface{}) Estimate {
	probes := []struct {
		field string
		log   bool
	}{
		{"log_" + schema.TargetField + "_prediction", true},
		{schema.TargetField + "_prediction", false},
		{schema.TargetField, false},
	}

	for _, probe := range probes {
		raw, ok := output[probe.field]
		if !ok {
			continue
		}

		est := Estimate{SourceField: probe.field, LogTransformed: probe.log}

		value, ok := outputToFloat(raw)
		if !ok {
			return est
		}
		if probe.log {
			value = math.Exp(value)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return est
		}

		est.Value = &value
		return est
	}

	return Estimate{}
}

// outputToFloat converts a raw model output value to float64.
func outputToFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
