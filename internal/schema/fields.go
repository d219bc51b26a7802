// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

// Package schema defines the fixed feature vocabulary of the pricing model.
//
// The model was trained on a frozen set of categorical and numerical columns
// whose raw names contain spaces and mixed case (e.g. "Drive Type",
// "No of Cylinder"). All internal processing uses cleaned names produced by
// Clean; the registry keeps a reverse mapping so raw dataset names can be
// recovered losslessly.
//
// The field set is immutable for the lifetime of the process. Handlers,
// the normalizer, and the transaction logger all key off this registry so a
// column can never be spelled two different ways in different layers.
package schema

import "strings"

// TargetField is the column the model predicts, in cleaned form.
const TargetField = "listed_price"

// categoricalFields lists the categorical model inputs by raw dataset name,
// in training-set column order.
var categoricalFields = []string{
	"body",
	"Drive Type",
	"Engine Type",
	"fuel",
	"owner_type",
	"state",
	"Steering Type",
	"transmission",
	"utype",
}

// numericalFields lists the numerical model inputs by raw dataset name,
// in training-set column order.
var numericalFields = []string{
	"myear",
	"km",
	"No of Cylinder",
	"Length",
	"Width",
	"Height",
	"Wheel Base",
	"Kerb Weight",
	"Gear Box",
	"Seats",
	"Max Torque At",
}

// cleanedToRaw maps Clean(raw) back to the raw dataset name for every
// registered field. Built once at package load.
var cleanedToRaw = buildReverseIndex()

func buildReverseIndex() map[string]string {
	idx := make(map[string]string, len(categoricalFields)+len(numericalFields))
	for _, raw := range categoricalFields {
		idx[Clean(raw)] = raw
	}
	for _, raw := range numericalFields {
		idx[Clean(raw)] = raw
	}
	return idx
}

// Clean converts a raw dataset column name to its canonical internal form:
// lowercase with spaces replaced by underscores.
func Clean(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// Raw returns the original dataset name for a cleaned field name.
// The second return value is false if the field is not registered.
func Raw(cleaned string) (string, bool) {
	raw, ok := cleanedToRaw[cleaned]
	return raw, ok
}

// CategoricalFields returns the cleaned names of all categorical inputs,
// in registry order. The returned slice is a copy.
func CategoricalFields() []string {
	return cleanNames(categoricalFields)
}

// NumericalFields returns the cleaned names of all numerical inputs,
// in registry order. The returned slice is a copy.
func NumericalFields() []string {
	return cleanNames(numericalFields)
}

// AllFields returns the cleaned names of every model input, categorical
// first, then numerical, each group in registry order.
func AllFields() []string {
	all := make([]string, 0, len(categoricalFields)+len(numericalFields))
	all = append(all, CategoricalFields()...)
	all = append(all, NumericalFields()...)
	return all
}

// IsCategorical reports whether the cleaned field name is a registered
// categorical input.
func IsCategorical(cleaned string) bool {
	for _, raw := range categoricalFields {
		if Clean(raw) == cleaned {
			return true
		}
	}
	return false
}

// IsNumerical reports whether the cleaned field name is a registered
// numerical input.
func IsNumerical(cleaned string) bool {
	for _, raw := range numericalFields {
		if Clean(raw) == cleaned {
			return true
		}
	}
	return false
}

// IsRegistered reports whether the cleaned field name is a registered
// model input of either kind.
func IsRegistered(cleaned string) bool {
	_, ok := cleanedToRaw[cleaned]
	return ok
}

// FieldCount returns the total number of registered model inputs.
func FieldCount() int {
	return len(categoricalFields) + len(numericalFields)
}

func cleanNames(raw []string) []string {
	cleaned := make([]string, len(raw))
	for i, name := range raw {
		cleaned[i] = Clean(name)
	}
	return cleaned
}
