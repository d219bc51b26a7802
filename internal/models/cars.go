// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package models

// SimilarCar is a comparable listing returned alongside a price estimate.
// Listings come from the car_listings table and always include an image
// reference so clients can render a card without a second lookup.
type SimilarCar struct {
	ID          int64   `json:"id"`
	Model       string  `json:"model"`
	ListedPrice float64 `json:"listed_price"`
	ModelYear   int     `json:"myear"`
	Fuel        string  `json:"fuel"`
	Variant     string  `json:"variant"`
	Kilometers  float64 `json:"km"`
	State       string  `json:"state"`
	Body        string  `json:"body"`
	ImageURL    string  `json:"image_url"`
}

// PredictionResult is the payload of a successful prediction request.
//
// PredictedPrice is null when the model responded but its output could not
// be interpreted as a price; SimilarCars is empty (never null) in that case.
type PredictionResult struct {
	PredictedPrice *float64     `json:"predicted_price"`
	SimilarCars    []SimilarCar `json:"similar_cars"`
}

// FindByBodyRequest asks for listings of an exact body type within a fixed
// absolute price band around the given price.
type FindByBodyRequest struct {
	Body  string  `json:"body" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

// FindByBodyResult is the payload of a find-by-body request.
type FindByBodyResult struct {
	MatchingCars []SimilarCar `json:"matching_cars"`
}

// CarOptions holds the distinct values available for each categorical
// dropdown dimension. Dimensions with no stored values are filled from
// hardcoded defaults so the UI always has something to render.
type CarOptions struct {
	Body         []string `json:"body"`
	DriveType    []string `json:"drive_type"`
	EngineType   []string `json:"engine_type"`
	Fuel         []string `json:"fuel"`
	OwnerType    []string `json:"owner_type"`
	State        []string `json:"state"`
	SteeringType []string `json:"steering_type"`
	Transmission []string `json:"transmission"`
	UType        []string `json:"utype"`
}
