// Package app contains application services and port definitions for the intel context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/intel/domain"
)

// Predictor scores an opportunity's execution confidence. The engine
// only executes opportunities whose confidence clears its threshold.
type Predictor interface {
	// Name identifies the model for logging and metrics.
	Name() string

	// Predict scores the features in the range [0, 1]. A model that is
	// untrained or unavailable must still return a usable answer rather
	// than fail the pipeline.
	Predict(ctx context.Context, features domain.Features) (domain.Prediction, error)

	// RecordOutcome feeds a realized trade result back to the model.
	RecordOutcome(ctx context.Context, features domain.Features, success bool, realizedProfitUSD decimal.Decimal)
}
