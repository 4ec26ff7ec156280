// Package heuristic implements the Predictor port with fixed spread
// thresholds. It is the default model when no trained model is wired.
package heuristic

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/intel/app"
	"github.com/dpolo-eth/flasharb/business/intel/domain"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

// Ensure Predictor implements the port.
var _ app.Predictor = (*Predictor)(nil)

// Spread thresholds and the confidence assigned at each band.
var (
	spreadStrong   = decimal.RequireFromString("2.0")
	spreadGood     = decimal.RequireFromString("1.5")
	spreadMarginal = decimal.RequireFromString("1.0")

	confidenceStrong   = decimal.RequireFromString("0.9")
	confidenceGood     = decimal.RequireFromString("0.75")
	confidenceMarginal = decimal.RequireFromString("0.6")
	confidenceWeak     = decimal.RequireFromString("0.3")
)

// Predictor maps the net spread to a confidence band. Opportunities
// that lose money are scored at the weak band regardless of spread.
// The bands are fixed; recorded outcomes only feed a running tally.
type Predictor struct {
	logger logger.LoggerInterface

	mu        sync.Mutex
	outcomes  int
	successes int
}

// New creates a heuristic Predictor.
func New(log logger.LoggerInterface) *Predictor {
	return &Predictor{logger: log}
}

// Name identifies the model.
func (p *Predictor) Name() string {
	return "heuristic"
}

// Predict scores the features by spread band. The model approves
// execution when the trade is in profit and the spread reaches at
// least the marginal band.
func (p *Predictor) Predict(ctx context.Context, features domain.Features) (domain.Prediction, error) {
	confidence := confidenceWeak

	if features.NetProfitUSD.Sign() > 0 {
		switch {
		case features.SpreadPct.GreaterThanOrEqual(spreadStrong):
			confidence = confidenceStrong
		case features.SpreadPct.GreaterThanOrEqual(spreadGood):
			confidence = confidenceGood
		case features.SpreadPct.GreaterThanOrEqual(spreadMarginal):
			confidence = confidenceMarginal
		}
	}

	shouldExecute := confidence.GreaterThanOrEqual(confidenceMarginal)

	p.logger.Debug(ctx, "opportunity scored",
		"model", p.Name(),
		"network", features.Network,
		"pair", features.Pair,
		"spread_pct", features.SpreadPct.StringFixed(4),
		"confidence", confidence.String(),
		"should_execute", shouldExecute,
	)

	return domain.Prediction{
		ShouldExecute: shouldExecute,
		Confidence:    confidence,
		Model:         p.Name(),
		ScoredAt:      time.Now().UTC(),
	}, nil
}

// RecordOutcome tallies the realized result. The heuristic bands do not
// adapt, but the tally makes the model's hit rate visible in the logs.
func (p *Predictor) RecordOutcome(ctx context.Context, features domain.Features, success bool, realizedProfitUSD decimal.Decimal) {
	p.mu.Lock()
	p.outcomes++
	if success {
		p.successes++
	}
	outcomes, successes := p.outcomes, p.successes
	p.mu.Unlock()

	p.logger.Info(ctx, "trade outcome recorded",
		"model", p.Name(),
		"pair", features.Pair,
		"success", success,
		"realized_usd", realizedProfitUSD.StringFixed(2),
		"hit_rate", float64(successes)/float64(outcomes),
	)
}
