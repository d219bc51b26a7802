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

	"github.com/tomtom215/pricelens/internal/schema"
)

// validInput returns a request record with every registered field present
// and correctly typed.
func validInput() map[string]interface{} {
	return map[string]interface{}{
		"body":           "SUV",
		"drive_type":     "FWD",
		"engine_type":    "In-Line Engine",
		"fuel":           "Petrol",
		"owner_type":     "First Owner",
		"state":          "Karnataka",
		"steering_type":  "Power",
		"transmission":   "Manual",
		"utype":          "Dealer",
		"myear":          2020.0,
		"km":             45000.0,
		"no_of_cylinder": 4.0,
		"length":         3845.0,
		"width":          1735.0,
		"height":         1530.0,
		"wheel_base":     2450.0,
		"kerb_weight":    875.0,
		"gear_box":       5.0,
		"seats":          5.0,
		"max_torque_at":  4400.0,
	}
}

func TestNormalizeValidInput(t *testing.T) {
	record, err := Normalize(validInput())
	require.NoError(t, err)

	assert.Len(t, record, schema.FieldCount())
	assert.Equal(t, "SUV", record["body"])
	assert.Equal(t, 45000.0, record["km"])
}

func TestNormalizeMissingFields(t *testing.T) {
	input := validInput()
	delete(input, "body")
	delete(input, "km")

	_, err := Normalize(input)

	var missingErr *MissingFieldsError
	require.True(t, errors.As(err, &missingErr))
	assert.ElementsMatch(t, []string{"body", "km"}, missingErr.Fields)
}

func TestNormalizeMissingTakesPrecedenceOverInvalid(t *testing.T) {
	input := validInput()
	delete(input, "body")
	input["km"] = "not a number"

	_, err := Normalize(input)

	var missingErr *MissingFieldsError
	require.True(t, errors.As(err, &missingErr))
	assert.Equal(t, []string{"body"}, missingErr.Fields)

	var invalidErr *InvalidNumericFieldsError
	assert.False(t, errors.As(err, &invalidErr))
}

func TestNormalizeInvalidNumericFields(t *testing.T) {
	input := validInput()
	input["km"] = "forty five thousand"
	input["seats"] = true

	_, err := Normalize(input)

	var invalidErr *InvalidNumericFieldsError
	require.True(t, errors.As(err, &invalidErr))
	assert.Equal(t, "forty five thousand", invalidErr.Fields["km"])
	assert.Contains(t, invalidErr.Fields, "seats")
	assert.Len(t, invalidErr.Fields, 2)
}

func TestNormalizeNumericStringParses(t *testing.T) {
	input := validInput()
	input["km"] = "45000.5"

	record, err := Normalize(input)
	require.NoError(t, err)
	assert.Equal(t, 45000.5, record["km"])
}

func TestNormalizeNumericDefaults(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{"null", nil},
		{"empty string", ""},
		{"whitespace", "   "},
		{"nan sentinel", "NaN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			input["kerb_weight"] = tc.value

			record, err := Normalize(input)
			require.NoError(t, err)
			assert.Equal(t, 0.0, record["kerb_weight"])
		})
	}
}

func TestNormalizeCategoricalDefaults(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{"null", nil},
		{"empty string", ""},
		{"whitespace only", "  \t "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			input["fuel"] = tc.value

			record, err := Normalize(input)
			require.NoError(t, err)
			assert.Equal(t, "Unknown", record["fuel"])
		})
	}
}

func TestNormalizeCategoricalNumberBecomesText(t *testing.T) {
	input := validInput()
	input["state"] = 29.0

	record, err := Normalize(input)
	require.NoError(t, err)
	assert.Equal(t, "29", record["state"])
}

func TestNormalizeDropsUnregisteredFields(t *testing.T) {
	input := validInput()
	input["color"] = "red"

	record, err := Normalize(input)
	require.NoError(t, err)
	assert.NotContains(t, record, "color")
	assert.Len(t, record, schema.FieldCount())
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name     string
		raw      interface{}
		value    float64
		hasValue bool
		wantErr  bool
	}{
		{"float", 12.5, 12.5, true, false},
		{"int", 12, 12.0, true, false},
		{"numeric string", "12.5", 12.5, true, false},
		{"padded string", " 12.5 ", 12.5, true, false},
		{"nil", nil, 0, false, false},
		{"empty string", "", 0, false, false},
		{"nan string", "nan", 0, false, false},
		{"garbage string", "abc", 0, false, true},
		{"bool", true, 0, false, true},
		{"slice", []int{1}, 0, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			value, hasValue, err := parseNumeric(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.hasValue, hasValue)
			if tc.hasValue {
				assert.Equal(t, tc.value, value)
			}
		})
	}
}
