// Package domain contains the core domain types for the intel context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Features is the signal vector extracted from an evaluated opportunity
// for confidence scoring.
type Features struct {
	Network      string
	Pair         string
	SpreadPct    decimal.Decimal
	NetProfitUSD decimal.Decimal
	NetProfitPct decimal.Decimal
	GasCostUSD   decimal.Decimal
	HourOfDayUTC int
}

// Prediction is a scored opportunity. ShouldExecute is the model's
// own approval; callers may still apply a stricter confidence gate on
// top of it.
type Prediction struct {
	ShouldExecute bool
	Confidence    decimal.Decimal // 0..1
	Model         string
	ScoredAt      time.Time
}
