// Package domain contains the core domain types for the engine context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/dpolo-eth/flasharb/business/market/domain"
)

// ExecutionPlan is a fully gated opportunity ready to submit: the
// flash-loan notional, both swap legs, and the slippage guard.
type ExecutionPlan struct {
	Opportunity marketDomain.Opportunity
	Estimate    marketDomain.ProfitEstimate
	Confidence  decimal.Decimal

	// AmountIn is the flash-loan notional in quote-asset units.
	AmountIn decimal.Decimal
	// MinReturn is the least acceptable round-trip output after
	// slippage; the transaction reverts below it.
	MinReturn decimal.Decimal
}

// ExecutionReceipt is the outcome of submitting a plan.
type ExecutionReceipt struct {
	TxHash  string
	Success bool
	// ProfitUSD excludes gas; the risk ledger accounts GasUSD on its
	// own so the two never overlap.
	ProfitUSD decimal.Decimal
	GasUSD    decimal.Decimal
	Revert    string // revert reason when Success is false
}

// CycleOutcome summarizes one coordinator cycle for reporting.
type CycleOutcome string

const (
	OutcomeNoOpportunity  CycleOutcome = "no_opportunity"
	OutcomeNotProfitable  CycleOutcome = "not_profitable"
	OutcomeUnsafeToken    CycleOutcome = "unsafe_token"
	OutcomeLowConfidence  CycleOutcome = "low_confidence"
	OutcomeRiskDenied     CycleOutcome = "risk_denied"
	OutcomeSimulationFail CycleOutcome = "simulation_failed"
	OutcomeDryRun         CycleOutcome = "dry_run"
	OutcomeExecuted       CycleOutcome = "executed"
	OutcomeFailed         CycleOutcome = "execution_failed"
)

// CycleReport is what the coordinator hands to reporters after every
// cycle.
type CycleReport struct {
	Cycle         int
	StartedAt     time.Time
	Duration      time.Duration
	QuoteSets     []marketDomain.QuoteSet
	Opportunities []marketDomain.EvaluatedOpportunity
	Outcome       CycleOutcome
	Detail        string
	Receipt       *ExecutionReceipt
}
