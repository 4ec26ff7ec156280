package app

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dpolo-eth/flasharb/business/market/domain"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

const scannerTracerName = "market.scanner"

// NetworkPlan is the per-network scan schedule: which pairs to sweep
// across which venues, and the network's capital allocation priority.
type NetworkPlan struct {
	Network  string
	Priority decimal.Decimal
	Venues   []domain.Venue
	Pairs    []domain.Pair
}

// scanJob is one pair sweep on one network.
type scanJob struct {
	plan NetworkPlan
	pair domain.Pair
}

// scanOutcome carries a finished sweep back to the collector.
type scanOutcome struct {
	set domain.QuoteSet
	opp *domain.Opportunity
}

// scannerMetrics holds OTEL metric instruments.
type scannerMetrics struct {
	sweepsTotal        metric.Int64Counter
	sweepErrors        metric.Int64Counter
	opportunitiesFound metric.Int64Counter
	sweepLatency       metric.Float64Histogram
}

// ScannerConfig holds sweep sizing and per-call limits.
type ScannerConfig struct {
	// ProbeAmount is the quote-asset amount used to sample venue prices.
	ProbeAmount decimal.Decimal
	// TradeAmount is the flash-loan notional stamped on every detected
	// opportunity, in quote-asset units. Configured pairs quote in USD
	// stables, so this matches the configured USD notional.
	TradeAmount decimal.Decimal
	// QuoteTimeout bounds each individual venue quote. Zero disables
	// the bound.
	QuoteTimeout time.Duration
	Workers      int
}

// Scanner sweeps configured pairs across venues looking for cross-venue
// spreads. Sweeps run on a bounded worker pool; a venue that fails to
// quote is recorded and skipped, never fatal to the sweep.
type Scanner struct {
	quoter VenueQuoter
	plans  []NetworkPlan
	cfg    ScannerConfig

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *scannerMetrics
}

// NewScanner creates a Scanner with a bounded worker pool.
func NewScanner(quoter VenueQuoter, plans []NetworkPlan, cfg ScannerConfig, log logger.LoggerInterface) (*Scanner, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	s := &Scanner{
		quoter: quoter,
		plans:  plans,
		cfg:    cfg,
		logger: log,
		tracer: otel.Tracer(scannerTracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scanner) initMetrics() error {
	meter := otel.Meter(scannerTracerName)
	var err error

	s.metrics = &scannerMetrics{}

	s.metrics.sweepsTotal, err = meter.Int64Counter(
		"market_sweeps_total",
		metric.WithDescription("Total pair sweeps executed"),
	)
	if err != nil {
		return err
	}

	s.metrics.sweepErrors, err = meter.Int64Counter(
		"market_sweep_errors_total",
		metric.WithDescription("Venue quote failures during sweeps"),
	)
	if err != nil {
		return err
	}

	s.metrics.opportunitiesFound, err = meter.Int64Counter(
		"market_opportunities_total",
		metric.WithDescription("Cross-venue opportunities detected"),
	)
	if err != nil {
		return err
	}

	s.metrics.sweepLatency, err = meter.Float64Histogram(
		"market_sweep_latency_ms",
		metric.WithDescription("Pair sweep latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Scan sweeps every configured pair on every network once and returns
// the raw quote sets plus any detected opportunities.
func (s *Scanner) Scan(ctx context.Context) ([]domain.QuoteSet, []domain.Opportunity) {
	ctx, span := s.tracer.Start(ctx, "market.scan")
	defer span.End()

	var jobs []scanJob
	for _, plan := range s.plans {
		for _, pair := range plan.Pairs {
			jobs = append(jobs, scanJob{plan: plan, pair: pair})
		}
	}

	jobCh := make(chan scanJob)
	outCh := make(chan scanOutcome, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				outCh <- s.sweep(ctx, job)
			}
		}()
	}

	for _, job := range jobs {
		select {
		case jobCh <- job:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobCh)
	wg.Wait()
	close(outCh)

	var sets []domain.QuoteSet
	var opportunities []domain.Opportunity
	for out := range outCh {
		sets = append(sets, out.set)
		if out.opp != nil {
			opportunities = append(opportunities, *out.opp)
		}
	}

	span.SetAttributes(
		attribute.Int("sweeps", len(sets)),
		attribute.Int("opportunities", len(opportunities)),
	)

	return sets, opportunities
}

// sweep quotes one pair on every venue of the plan, then looks for a
// positive round trip: buy on the venue with the best forward quote,
// sell on whichever other venue returns the most.
func (s *Scanner) sweep(ctx context.Context, job scanJob) scanOutcome {
	start := time.Now()
	s.metrics.sweepsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("network", job.plan.Network),
		attribute.String("pair", job.pair.String()),
	))

	set := domain.QuoteSet{
		Network:   job.plan.Network,
		Pair:      job.pair,
		Timestamp: time.Now().UTC(),
	}

	// Forward pass: spend the probe amount of the quote asset on each venue.
	for _, venue := range job.plan.Venues {
		amountOut, gas, err := s.quote(ctx, venue, job.pair.Quote, job.pair.Base, s.cfg.ProbeAmount)
		if err != nil {
			s.metrics.sweepErrors.Add(ctx, 1, metric.WithAttributes(
				attribute.String("venue", venue.Name),
			))
			s.logger.Debug(ctx, "venue quote failed",
				"venue", venue.String(),
				"pair", job.pair.String(),
				"error", err,
			)
			set.Errors = append(set.Errors, domain.ScanError{Venue: venue, Err: err})
			continue
		}

		set.Quotes = append(set.Quotes, domain.Quote{
			Venue:       venue,
			Pair:        job.pair,
			AmountIn:    s.cfg.ProbeAmount,
			AmountOut:   amountOut,
			GasEstimate: gas,
			Timestamp:   time.Now().UTC(),
		})
	}

	s.metrics.sweepLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if !set.Comparable() {
		return scanOutcome{set: set}
	}

	opp := s.detect(ctx, job, set)
	if opp != nil {
		s.metrics.opportunitiesFound.Add(ctx, 1, metric.WithAttributes(
			attribute.String("network", job.plan.Network),
		))
	}

	return scanOutcome{set: set, opp: opp}
}

// detect picks the buy venue (best forward quote), round-trips the
// bought amount through every other venue, and emits an opportunity if
// some venue returns more than was spent.
func (s *Scanner) detect(ctx context.Context, job scanJob, set domain.QuoteSet) *domain.Opportunity {
	buyQuote, ok := set.Best()
	if !ok {
		return nil
	}

	var sellQuote *domain.Quote
	for _, q := range set.Quotes {
		if q.Venue.Name == buyQuote.Venue.Name {
			continue
		}

		returned, gas, err := s.quote(ctx, q.Venue, job.pair.Base, job.pair.Quote, buyQuote.AmountOut)
		if err != nil {
			s.logger.Debug(ctx, "round-trip quote failed",
				"venue", q.Venue.String(),
				"pair", job.pair.String(),
				"error", err,
			)
			continue
		}

		candidate := domain.Quote{
			Venue:       q.Venue,
			Pair:        job.pair,
			AmountIn:    buyQuote.AmountOut,
			AmountOut:   returned,
			GasEstimate: gas,
			Timestamp:   time.Now().UTC(),
		}
		if sellQuote == nil || candidate.AmountOut.GreaterThan(sellQuote.AmountOut) {
			sellQuote = &candidate
		}
	}

	if sellQuote == nil || !sellQuote.AmountOut.GreaterThan(s.cfg.ProbeAmount) {
		return nil
	}

	spreadPct := sellQuote.AmountOut.Sub(s.cfg.ProbeAmount).
		Div(s.cfg.ProbeAmount).
		Mul(decimal.NewFromInt(100))

	ts := time.Now().UTC()
	opp := &domain.Opportunity{
		ID:          domain.NewOpportunityID(job.plan.Network, job.pair, buyQuote.Venue, sellQuote.Venue, ts),
		Network:     job.plan.Network,
		Priority:    job.plan.Priority,
		Pair:        job.pair,
		BuyVenue:    buyQuote.Venue,
		SellVenue:   sellQuote.Venue,
		BuyQuote:    buyQuote,
		SellQuote:   *sellQuote,
		SpreadPct:   spreadPct,
		TradeAmount: s.cfg.TradeAmount,
		Timestamp:   ts,
	}

	s.logger.Info(ctx, "opportunity detected",
		"id", opp.ID,
		"network", opp.Network,
		"pair", opp.Pair.String(),
		"buy", opp.BuyVenue.Name,
		"sell", opp.SellVenue.Name,
		"spread_pct", spreadPct.StringFixed(4),
	)

	return opp
}

// quote asks one venue for a price under the per-call deadline, so one
// stuck RPC node cannot stall the whole sweep.
func (s *Scanner) quote(ctx context.Context, venue domain.Venue, tokenIn, tokenOut domain.Token, amountIn decimal.Decimal) (decimal.Decimal, uint64, error) {
	if s.cfg.QuoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QuoteTimeout)
		defer cancel()
	}
	return s.quoter.AmountOut(ctx, venue, tokenIn, tokenOut, amountIn)
}
