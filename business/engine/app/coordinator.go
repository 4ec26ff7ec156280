package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dpolo-eth/flasharb/business/engine/domain"
	intelDomain "github.com/dpolo-eth/flasharb/business/intel/domain"
	marketApp "github.com/dpolo-eth/flasharb/business/market/app"
	marketDomain "github.com/dpolo-eth/flasharb/business/market/domain"
	riskDomain "github.com/dpolo-eth/flasharb/business/risk/domain"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

const coordinatorTracerName = "engine.coordinator"

// CoordinatorConfig holds the execution loop settings.
type CoordinatorConfig struct {
	CheckInterval       time.Duration
	DryRun              bool
	SlippageBps         decimal.Decimal
	ConfidenceThreshold decimal.Decimal
}

// coordinatorMetrics holds OTEL metric instruments.
type coordinatorMetrics struct {
	cyclesTotal  metric.Int64Counter
	tradesTotal  metric.Int64Counter
	cycleLatency metric.Float64Histogram
}

// Coordinator drives the trading loop: scan, evaluate, vet, score,
// gate, then execute at most one opportunity per cycle. Cycles run
// sequentially; a tick that arrives while a cycle is in flight is
// dropped.
type Coordinator struct {
	scanner   MarketScanner
	evaluator ProfitEvaluator
	safety    TokenFilter
	predictor ConfidencePredictor
	risk      RiskGate
	gateway   NetworkGateway
	reporter  Reporter
	config    CoordinatorConfig

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *coordinatorMetrics

	now   func() time.Time
	cycle int

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(
	scanner MarketScanner,
	evaluator ProfitEvaluator,
	safety TokenFilter,
	predictor ConfidencePredictor,
	risk RiskGate,
	gateway NetworkGateway,
	reporter Reporter,
	config CoordinatorConfig,
	log logger.LoggerInterface,
) (*Coordinator, error) {
	c := &Coordinator{
		scanner:   scanner,
		evaluator: evaluator,
		safety:    safety,
		predictor: predictor,
		risk:      risk,
		gateway:   gateway,
		reporter:  reporter,
		config:    config,
		logger:    log,
		tracer:    otel.Tracer(coordinatorTracerName),
		now:       time.Now,
	}

	if err := c.initMetrics(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Coordinator) initMetrics() error {
	meter := otel.Meter(coordinatorTracerName)
	var err error

	c.metrics = &coordinatorMetrics{}

	c.metrics.cyclesTotal, err = meter.Int64Counter(
		"engine_cycles_total",
		metric.WithDescription("Coordinator cycles by outcome"),
	)
	if err != nil {
		return err
	}

	c.metrics.tradesTotal, err = meter.Int64Counter(
		"engine_trades_total",
		metric.WithDescription("Executed trades by result"),
	)
	if err != nil {
		return err
	}

	c.metrics.cycleLatency, err = meter.Float64Histogram(
		"engine_cycle_latency_ms",
		metric.WithDescription("Coordinator cycle latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Start launches the trading loop.
func (c *Coordinator) Start(ctx context.Context) error {
	if err := c.reporter.Start(ctx); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.logger.Info(ctx, "coordinator started",
		"check_interval", c.config.CheckInterval,
		"dry_run", c.config.DryRun,
		"confidence_threshold", c.config.ConfidenceThreshold,
	)

	c.wg.Add(1)
	go c.run(loopCtx)

	return nil
}

func (c *Coordinator) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	// First cycle fires immediately rather than one interval in.
	c.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info(ctx, "coordinator loop stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			c.runCycle(ctx)
		}
	}
}

// Stop shuts the loop down and persists risk state.
func (c *Coordinator) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	if err := c.risk.Persist(ctx); err != nil {
		c.logger.Error(ctx, "failed to persist risk state on shutdown", "error", err)
	}

	return c.reporter.Stop()
}

func (c *Coordinator) runCycle(ctx context.Context) {
	ctx, span := c.tracer.Start(ctx, "engine.cycle")
	defer span.End()

	c.cycle++
	start := c.now()

	report := &domain.CycleReport{
		Cycle:     c.cycle,
		StartedAt: start,
	}

	c.executeCycle(ctx, report)

	report.Duration = time.Since(start)
	span.SetAttributes(attribute.String("outcome", string(report.Outcome)))
	c.metrics.cyclesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", string(report.Outcome)),
	))
	c.metrics.cycleLatency.Record(ctx, float64(report.Duration.Milliseconds()))

	c.reporter.ReportCycle(report)
}

// executeCycle walks the gate pipeline for one cycle and fills in the
// report. At most one trade leaves this function per call.
func (c *Coordinator) executeCycle(ctx context.Context, report *domain.CycleReport) {
	sets, opps := c.scanner.Scan(ctx)
	report.QuoteSets = sets

	if len(opps) == 0 {
		report.Outcome = domain.OutcomeNoOpportunity
		return
	}

	evals := c.evaluate(ctx, opps)
	if len(evals) == 0 {
		report.Outcome = domain.OutcomeNotProfitable
		report.Detail = fmt.Sprintf("%d opportunities below profit floor", len(opps))
		return
	}

	marketApp.Rank(evals)
	report.Opportunities = evals

	best, features, found := c.selectCandidate(ctx, evals, report)
	if !found {
		return
	}

	if ok, reason := c.risk.CanExecute(ctx, best.Estimate.GasUSD); !ok {
		report.Outcome = domain.OutcomeRiskDenied
		report.Detail = reason
		c.logger.Warn(ctx, "execution denied by risk gate", "reason", reason, "opportunity", best.Opportunity.ID)
		return
	}

	plan := c.buildPlan(*best)

	if err := c.gateway.Simulate(ctx, plan); err != nil {
		report.Outcome = domain.OutcomeSimulationFail
		report.Detail = err.Error()
		c.logger.Warn(ctx, "simulation failed", "opportunity", best.Opportunity.ID, "error", err)
		// A failed simulation counts against the failure streak: the
		// opportunity looked executable and was not. Dry-run mode never
		// touches the ledger.
		if !c.config.DryRun {
			c.recordResult(ctx, features, riskDomain.TradeResult{Success: false})
		}
		return
	}

	if c.config.DryRun {
		report.Outcome = domain.OutcomeDryRun
		report.Detail = fmt.Sprintf("would execute %s for estimated $%s net",
			best.Opportunity.ID, best.Estimate.NetUSD.StringFixed(2))
		c.logger.Info(ctx, "dry run: skipping execution",
			"opportunity", best.Opportunity.ID,
			"net_usd", best.Estimate.NetUSD,
		)
		return
	}

	receipt, err := c.gateway.Execute(ctx, plan)
	if err != nil {
		report.Outcome = domain.OutcomeFailed
		report.Detail = err.Error()
		c.logger.Error(ctx, "execution failed", "opportunity", best.Opportunity.ID, "error", err)
		c.recordResult(ctx, features, riskDomain.TradeResult{Success: false})
		return
	}

	report.Receipt = receipt
	if receipt.Success {
		report.Outcome = domain.OutcomeExecuted
		c.logger.Info(ctx, "trade executed",
			"opportunity", best.Opportunity.ID,
			"tx", receipt.TxHash,
			"profit_usd", receipt.ProfitUSD,
			"gas_usd", receipt.GasUSD,
		)
	} else {
		report.Outcome = domain.OutcomeFailed
		report.Detail = receipt.Revert
		c.logger.Warn(ctx, "trade reverted",
			"opportunity", best.Opportunity.ID,
			"tx", receipt.TxHash,
			"reason", receipt.Revert,
		)
	}

	c.recordResult(ctx, features, riskDomain.TradeResult{
		Success:   receipt.Success,
		ProfitUSD: receipt.ProfitUSD,
		GasUSD:    receipt.GasUSD,
	})
	c.metrics.tradesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", receipt.Success),
	))
}

// evaluate prices every opportunity and keeps only the ones that clear
// both profit floors. Evaluation errors drop the opportunity, not the
// cycle.
func (c *Coordinator) evaluate(ctx context.Context, opps []marketDomain.Opportunity) []marketDomain.EvaluatedOpportunity {
	evals := make([]marketDomain.EvaluatedOpportunity, 0, len(opps))
	for _, opp := range opps {
		est, err := c.evaluator.Evaluate(ctx, opp)
		if err != nil {
			c.logger.Warn(ctx, "evaluation failed", "opportunity", opp.ID, "error", err)
			continue
		}
		if !est.Profitable {
			continue
		}
		evals = append(evals, marketDomain.EvaluatedOpportunity{Opportunity: opp, Estimate: est})
	}
	return evals
}

// selectCandidate walks the ranked list and returns the first
// candidate passing both pre-risk gates: token safety on each leg and
// the predictor. When nothing passes, the report keeps the top-ranked
// candidate's failure so the operator sees why the best trade was
// skipped.
func (c *Coordinator) selectCandidate(ctx context.Context, evals []marketDomain.EvaluatedOpportunity, report *domain.CycleReport) (*marketDomain.EvaluatedOpportunity, intelDomain.Features, bool) {
	var firstOutcome domain.CycleOutcome
	var firstDetail string
	block := func(outcome domain.CycleOutcome, detail string) {
		if firstOutcome == "" {
			firstOutcome = outcome
			firstDetail = detail
		}
	}

	for i := range evals {
		cand := &evals[i]

		if reason, ok := c.vetTokens(ctx, cand.Opportunity); !ok {
			block(domain.OutcomeUnsafeToken, reason)
			c.logger.Debug(ctx, "candidate skipped by safety filter",
				"opportunity", cand.Opportunity.ID, "reason", reason)
			continue
		}

		features := c.features(cand)

		prediction, err := c.predictor.Predict(ctx, features)
		if err != nil {
			block(domain.OutcomeLowConfidence, fmt.Sprintf("scoring failed: %v", err))
			continue
		}
		cand.Confidence = prediction.Confidence

		if !prediction.ShouldExecute {
			block(domain.OutcomeLowConfidence, fmt.Sprintf("model %s vetoed execution", prediction.Model))
			continue
		}
		if prediction.Confidence.LessThan(c.config.ConfidenceThreshold) {
			block(domain.OutcomeLowConfidence, fmt.Sprintf("confidence %s below threshold %s",
				prediction.Confidence.StringFixed(2), c.config.ConfidenceThreshold.StringFixed(2)))
			continue
		}

		return cand, features, true
	}

	report.Outcome = firstOutcome
	report.Detail = firstDetail
	return nil, intelDomain.Features{}, false
}

// vetTokens runs both legs of the pair through the safety filter. An
// assessment error is treated as unsafe: unknown is not tradeable.
func (c *Coordinator) vetTokens(ctx context.Context, opp marketDomain.Opportunity) (string, bool) {
	for _, token := range []marketDomain.Token{opp.Pair.Base, opp.Pair.Quote} {
		verdict, err := c.safety.Assess(ctx, token.ChainID, token.Address)
		if err != nil {
			return fmt.Sprintf("%s assessment failed: %v", token.Symbol, err), false
		}
		if !verdict.Safe {
			return fmt.Sprintf("%s rejected: %s", token.Symbol, strings.Join(verdict.Reasons, "; ")), false
		}
		for _, warning := range verdict.Warnings {
			c.logger.Warn(ctx, "token safety warning", "token", token.Symbol, "warning", warning)
		}
	}
	return "", true
}

func (c *Coordinator) features(eval *marketDomain.EvaluatedOpportunity) intelDomain.Features {
	return intelDomain.Features{
		Network:      eval.Opportunity.Network,
		Pair:         eval.Opportunity.Pair.String(),
		SpreadPct:    eval.Opportunity.SpreadPct,
		NetProfitUSD: eval.Estimate.NetUSD,
		NetProfitPct: eval.Estimate.NetPct,
		GasCostUSD:   eval.Estimate.GasUSD,
		HourOfDayUTC: c.now().UTC().Hour(),
	}
}

// buildPlan derives the slippage guard from the expected round-trip
// return: anything below MinReturn reverts on-chain instead of closing
// at a loss.
func (c *Coordinator) buildPlan(eval marketDomain.EvaluatedOpportunity) domain.ExecutionPlan {
	oneHundred := decimal.NewFromInt(100)
	tenThousand := decimal.NewFromInt(10_000)
	slippageFactor := decimal.NewFromInt(1).Sub(c.config.SlippageBps.Div(tenThousand))

	// The sell quote priced the probe, not the trade. Scale the spread
	// to the flash-loan notional to get the expected return.
	expectedReturn := eval.Opportunity.TradeAmount.
		Mul(decimal.NewFromInt(1).Add(eval.Opportunity.SpreadPct.Div(oneHundred)))

	return domain.ExecutionPlan{
		Opportunity: eval.Opportunity,
		Estimate:    eval.Estimate,
		Confidence:  eval.Confidence,
		AmountIn:    eval.Opportunity.TradeAmount,
		MinReturn:   expectedReturn.Mul(slippageFactor),
	}
}

// recordResult folds the attempt into the risk ledger and feeds the
// outcome back to the predictor.
func (c *Coordinator) recordResult(ctx context.Context, features intelDomain.Features, result riskDomain.TradeResult) {
	if err := c.risk.RecordTradeResult(ctx, result); err != nil {
		c.logger.Error(ctx, "failed to record trade result", "error", err)
	}
	c.predictor.RecordOutcome(ctx, features, result.Success, result.ProfitUSD)
}
