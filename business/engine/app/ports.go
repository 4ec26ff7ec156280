// Package app contains application services and port definitions for the engine context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/engine/domain"
	intelDomain "github.com/dpolo-eth/flasharb/business/intel/domain"
	marketDomain "github.com/dpolo-eth/flasharb/business/market/domain"
	riskDomain "github.com/dpolo-eth/flasharb/business/risk/domain"
	safetyDomain "github.com/dpolo-eth/flasharb/business/safety/domain"
)

// MarketScanner produces quote sets and raw opportunities across all
// configured networks.
type MarketScanner interface {
	Scan(ctx context.Context) ([]marketDomain.QuoteSet, []marketDomain.Opportunity)
}

// ProfitEvaluator prices an opportunity against the profitability floors.
type ProfitEvaluator interface {
	Evaluate(ctx context.Context, opp marketDomain.Opportunity) (marketDomain.ProfitEstimate, error)
}

// TokenFilter vets a token before any capital touches it.
type TokenFilter interface {
	Assess(ctx context.Context, chainID uint64, token common.Address) (*safetyDomain.Verdict, error)
}

// ConfidencePredictor scores an opportunity's execution likelihood and
// learns from realized outcomes.
type ConfidencePredictor interface {
	Name() string
	Predict(ctx context.Context, features intelDomain.Features) (intelDomain.Prediction, error)
	RecordOutcome(ctx context.Context, features intelDomain.Features, success bool, realizedProfitUSD decimal.Decimal)
}

// RiskGate is the engine's view of the risk manager: the pre-trade gate
// plus the post-trade ledger.
type RiskGate interface {
	CanExecute(ctx context.Context, estGasUSD decimal.Decimal) (bool, string)
	RecordTradeResult(ctx context.Context, result riskDomain.TradeResult) error
	Persist(ctx context.Context) error
}

// NetworkGateway submits flash-loan trades to a chain.
type NetworkGateway interface {
	// Simulate dry-runs the plan via eth_call without spending gas.
	Simulate(ctx context.Context, plan domain.ExecutionPlan) error

	// Execute submits the plan and waits for the receipt.
	Execute(ctx context.Context, plan domain.ExecutionPlan) (*domain.ExecutionReceipt, error)
}

// Reporter receives a report after every coordinator cycle.
type Reporter interface {
	Start(ctx context.Context) error
	ReportCycle(report *domain.CycleReport)
	Stop() error
}
