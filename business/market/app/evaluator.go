package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dpolo-eth/flasharb/business/market/domain"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

const evaluatorTracerName = "market.evaluator"

var (
	oneHundred  = decimal.NewFromInt(100)
	tenThousand = decimal.NewFromInt(10000)
	weiPerEth   = decimal.New(1, 18)
)

// EvaluatorConfig holds the profitability thresholds and cost parameters.
type EvaluatorConfig struct {
	MinProfitUSD        decimal.Decimal
	MinProfitPercentage decimal.Decimal
	FlashLoanFeeBps     decimal.Decimal
	GasSafetyMultiplier decimal.Decimal
	TradeAmountUSD      decimal.Decimal
}

// Evaluator prices an opportunity at the configured flash-loan notional
// and applies the double profit floor: net USD and net percentage must
// both clear their thresholds.
type Evaluator struct {
	cfg    EvaluatorConfig
	oracle PriceOracle
	gas    GasPricer

	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(cfg EvaluatorConfig, oracle PriceOracle, gas GasPricer, log logger.LoggerInterface) *Evaluator {
	if cfg.GasSafetyMultiplier.IsZero() {
		cfg.GasSafetyMultiplier = decimal.NewFromInt(1)
	}
	return &Evaluator{
		cfg:    cfg,
		oracle: oracle,
		gas:    gas,
		logger: log,
		tracer: otel.Tracer(evaluatorTracerName),
	}
}

// Evaluate computes the full cost breakdown for an opportunity. The
// trade is profitable only when net profit clears both the USD floor
// and the percentage floor.
func (e *Evaluator) Evaluate(ctx context.Context, opp domain.Opportunity) (domain.ProfitEstimate, error) {
	ctx, span := e.tracer.Start(ctx, "market.evaluate",
		trace.WithAttributes(
			attribute.String("opportunity_id", opp.ID),
			attribute.String("network", opp.Network),
		),
	)
	defer span.End()

	notional := e.cfg.TradeAmountUSD

	// Gross profit scales the observed spread to the flash-loan notional.
	gross := opp.SpreadPct.Div(oneHundred).Mul(notional)

	// Flash-loan fee is charged on the borrowed notional.
	fee := notional.Mul(e.cfg.FlashLoanFeeBps).Div(tenThousand)

	gasUSD, err := e.gasCostUSD(ctx, opp)
	if err != nil {
		span.RecordError(err)
		return domain.ProfitEstimate{}, fmt.Errorf("estimating gas cost: %w", err)
	}

	net := gross.Sub(fee).Sub(gasUSD)

	netPct := decimal.Zero
	if !notional.IsZero() {
		netPct = net.Div(notional).Mul(oneHundred)
	}

	profitable := net.GreaterThanOrEqual(e.cfg.MinProfitUSD) &&
		netPct.GreaterThanOrEqual(e.cfg.MinProfitPercentage)

	estimate := domain.ProfitEstimate{
		GrossUSD:        gross,
		FlashLoanFeeUSD: fee,
		GasUSD:          gasUSD,
		NetUSD:          net,
		NetPct:          netPct,
		Profitable:      profitable,
	}

	span.SetAttributes(
		attribute.String("net_usd", net.StringFixed(2)),
		attribute.Bool("profitable", profitable),
	)

	e.logger.Debug(ctx, "opportunity evaluated",
		"id", opp.ID,
		"gross_usd", gross.StringFixed(2),
		"fee_usd", fee.StringFixed(2),
		"gas_usd", gasUSD.StringFixed(2),
		"net_usd", net.StringFixed(2),
		"net_pct", netPct.StringFixed(4),
		"profitable", profitable,
	)

	return estimate, nil
}

// gasCostUSD converts the combined gas estimate of both swap legs into
// USD using the current gas price and native-asset oracle price.
func (e *Evaluator) gasCostUSD(ctx context.Context, opp domain.Opportunity) (decimal.Decimal, error) {
	gasPriceWei, err := e.gas.GasPriceWei(ctx, opp.Network)
	if err != nil {
		return decimal.Zero, err
	}

	nativeUSD, err := e.oracle.NativeUSD(ctx, opp.Network)
	if err != nil {
		return decimal.Zero, err
	}

	gasUnits := decimal.NewFromInt(int64(opp.BuyQuote.GasEstimate + opp.SellQuote.GasEstimate)).
		Mul(e.cfg.GasSafetyMultiplier)

	gasNative := gasUnits.Mul(decimal.NewFromBigInt(gasPriceWei, 0)).Div(weiPerEth)

	return gasNative.Mul(nativeUSD), nil
}

// Rank orders evaluated opportunities best-first: highest net
// percentage, then largest net USD magnitude, then highest network
// priority. Percentage leads because it is notional-independent; a
// thin margin on a big notional is not a better trade.
func Rank(evals []domain.EvaluatedOpportunity) {
	sort.SliceStable(evals, func(i, j int) bool {
		a, b := evals[i], evals[j]
		if !a.Estimate.NetPct.Equal(b.Estimate.NetPct) {
			return a.Estimate.NetPct.GreaterThan(b.Estimate.NetPct)
		}
		absA, absB := a.Estimate.NetUSD.Abs(), b.Estimate.NetUSD.Abs()
		if !absA.Equal(absB) {
			return absA.GreaterThan(absB)
		}
		return a.Opportunity.Priority.GreaterThan(b.Opportunity.Priority)
	})
}
