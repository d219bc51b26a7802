// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package pipeline

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/pricelens/internal/logging"
	"github.com/tomtom215/pricelens/internal/metrics"
	"github.com/tomtom215/pricelens/internal/predict"
)

// Pipeline runs normalization, reconciliation and inference for one
// request. It holds only immutable state and is safe for concurrent use.
type Pipeline struct {
	reconciler *Reconciler
	predictor  predict.Predictor
}

// New creates a pipeline around the given predictor.
// expectedFields is the model's input schema discovered at startup; pass
// nil when the model did not expose one.
func New(predictor predict.Predictor, expectedFields []string) *Pipeline {
	return &Pipeline{
		reconciler: NewReconciler(expectedFields),
		predictor:  predictor,
	}
}

// Run executes the pipeline for one raw request record.
//
// The returned record is the full normalized record (all registry fields),
// for use by the comparable search and the transaction log; the Estimate
// is absent when the model output could not be interpreted. Validation
// and reconciliation failures short-circuit before the model is called.
func (p *Pipeline) Run(ctx context.Context, input map[string]interface{}) (map[string]interface{}, Estimate, error) {
	record, err := Normalize(input)
	if err != nil {
		return nil, Estimate{}, err
	}

	reconciled, err := p.reconciler.Reconcile(record)
	if err != nil {
		return nil, Estimate{}, err
	}

	output, err := p.predictor.Predict(ctx, reconciled)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordPrediction("rejected")
		} else {
			metrics.RecordPrediction("failed")
		}
		return nil, Estimate{}, err
	}

	estimate := ExtractEstimate(output)
	if estimate.Present() {
		metrics.RecordPrediction("estimate")
	} else {
		metrics.RecordPrediction("no_estimate")
		logging.Ctx(ctx).Warn().Str("source_field", estimate.SourceField).Msg("Model output carried no usable estimate")
	}

	return record, estimate, nil
}
