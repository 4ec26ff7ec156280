// Package domain contains the core domain types for the risk context.
package domain

import (
	"github.com/shopspring/decimal"
)

// Status is the risk state machine position.
type Status string

const (
	// StatusNormal allows trading.
	StatusNormal Status = "NORMAL"
	// StatusCircuitOpen blocks trading until the next UTC day or a
	// manual reset.
	StatusCircuitOpen Status = "CIRCUIT_OPEN"
	// StatusEmergencyStopped blocks trading until a manual reset. The
	// daily rollover never clears it.
	StatusEmergencyStopped Status = "EMERGENCY_STOPPED"
)

// RiskState is the full persisted risk position. Daily counters reset
// at the UTC day boundary; lifetime totals never reset.
type RiskState struct {
	Status Status

	Day               string // UTC day in 2006-01-02 form
	DailyGasSpendUSD  decimal.Decimal
	DailyLossUSD      decimal.Decimal
	DailyProfitUSD    decimal.Decimal
	DailyTradesOK     int
	DailyTradesFailed int

	ConsecutiveFailures int

	TotalProfitUSD   decimal.Decimal
	TotalLossUSD     decimal.Decimal
	TotalGasSpendUSD decimal.Decimal
	TradesExecuted   int
}

// NewRiskState returns a fresh NORMAL state for the given UTC day.
func NewRiskState(day string) *RiskState {
	return &RiskState{
		Status:           StatusNormal,
		Day:              day,
		DailyGasSpendUSD: decimal.Zero,
		DailyLossUSD:     decimal.Zero,
		DailyProfitUSD:   decimal.Zero,
		TotalProfitUSD:   decimal.Zero,
		TotalLossUSD:     decimal.Zero,
		TotalGasSpendUSD: decimal.Zero,
	}
}

// LifetimeNetUSD is the cumulative profit minus losses and gas. The
// emergency stop compares this against its floor.
func (s *RiskState) LifetimeNetUSD() decimal.Decimal {
	return s.TotalProfitUSD.Sub(s.TotalLossUSD).Sub(s.TotalGasSpendUSD)
}

// Rollover resets the daily counters for a new UTC day. An open
// circuit closes again; an emergency stop survives.
func (s *RiskState) Rollover(day string) {
	s.Day = day
	s.DailyGasSpendUSD = decimal.Zero
	s.DailyLossUSD = decimal.Zero
	s.DailyProfitUSD = decimal.Zero
	s.DailyTradesOK = 0
	s.DailyTradesFailed = 0
	s.ConsecutiveFailures = 0

	if s.Status == StatusCircuitOpen {
		s.Status = StatusNormal
	}
}

// Clone returns a deep copy. decimal.Decimal is immutable, so a field
// copy is sufficient.
func (s *RiskState) Clone() *RiskState {
	c := *s
	return &c
}

// TradeResult is what the engine reports back after an execution
// attempt. ProfitUSD is the realized profit for successes and the
// realized loss (as a positive number) for failures.
type TradeResult struct {
	Success   bool
	ProfitUSD decimal.Decimal
	GasUSD    decimal.Decimal
}
