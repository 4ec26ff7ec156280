package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dpolo-eth/flasharb/business/safety/domain"
	"github.com/dpolo-eth/flasharb/internal/cache"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

const filterTracerName = "safety.filter"

// FilterConfig holds the safety thresholds and whitelist.
type FilterConfig struct {
	// Whitelist maps chain ID to the addresses trusted on that chain.
	// The same address deployed on another chain is not covered.
	Whitelist       map[uint64][]common.Address
	CacheTTL        time.Duration
	MinLiquidityUSD decimal.Decimal
	MinVolume24hUSD decimal.Decimal
	MaxBuyTaxPct    decimal.Decimal
	MaxSellTaxPct   decimal.Decimal
}

// filterMetrics holds OTEL metric instruments.
type filterMetrics struct {
	assessmentsTotal metric.Int64Counter
	rejectionsTotal  metric.Int64Counter
	cacheHits        metric.Int64Counter
}

// Filter assesses token safety through a fixed sequence of checks:
// whitelist, cache, on-chain bytecode and ERC20 shape, honeypot
// simulation, then DEX liquidity. The whitelist wins over everything,
// including a previously cached rejection.
type Filter struct {
	cfg       FilterConfig
	whitelist map[string]bool
	inspector ChainInspector
	honeypot  HoneypotChecker
	liquidity LiquidityChecker
	verdicts  *cache.Cache[string, *domain.Verdict]

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *filterMetrics
}

// NewFilter creates a Filter.
func NewFilter(cfg FilterConfig, inspector ChainInspector, honeypot HoneypotChecker, liquidity LiquidityChecker, log logger.LoggerInterface) (*Filter, error) {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}

	whitelist := make(map[string]bool)
	for chainID, addrs := range cfg.Whitelist {
		for _, addr := range addrs {
			whitelist[verdictKey(chainID, addr)] = true
		}
	}

	f := &Filter{
		cfg:       cfg,
		whitelist: whitelist,
		inspector: inspector,
		honeypot:  honeypot,
		liquidity: liquidity,
		verdicts:  cache.New[string, *domain.Verdict](10 * time.Minute),
		logger:    log,
		tracer:    otel.Tracer(filterTracerName),
	}

	if err := f.initMetrics(); err != nil {
		return nil, err
	}

	return f, nil
}

func (f *Filter) initMetrics() error {
	meter := otel.Meter(filterTracerName)
	var err error

	f.metrics = &filterMetrics{}

	f.metrics.assessmentsTotal, err = meter.Int64Counter(
		"safety_assessments_total",
		metric.WithDescription("Token safety assessments performed"),
	)
	if err != nil {
		return err
	}

	f.metrics.rejectionsTotal, err = meter.Int64Counter(
		"safety_rejections_total",
		metric.WithDescription("Tokens rejected by the safety filter"),
	)
	if err != nil {
		return err
	}

	f.metrics.cacheHits, err = meter.Int64Counter(
		"safety_cache_hits_total",
		metric.WithDescription("Assessments answered from the verdict cache"),
	)
	if err != nil {
		return err
	}

	return nil
}

func verdictKey(chainID uint64, token common.Address) string {
	return fmt.Sprintf("%d:%s", chainID, token.Hex())
}

// Assess runs the check sequence for a token and returns its verdict.
func (f *Filter) Assess(ctx context.Context, chainID uint64, token common.Address) (*domain.Verdict, error) {
	ctx, span := f.tracer.Start(ctx, "safety.assess",
		trace.WithAttributes(
			attribute.Int64("chain_id", int64(chainID)),
			attribute.String("token", token.Hex()),
		),
	)
	defer span.End()

	f.metrics.assessmentsTotal.Add(ctx, 1)

	// Whitelisted tokens are trusted unconditionally on their own
	// chain, even when a stale cached rejection exists for them.
	if f.whitelist[verdictKey(chainID, token)] {
		return &domain.Verdict{
			ChainID:   chainID,
			Token:     token,
			Safe:      true,
			Source:    domain.SourceWhitelist,
			CheckedAt: time.Now().UTC(),
		}, nil
	}

	if cached, ok := f.verdicts.Get(ctx, verdictKey(chainID, token)); ok {
		f.metrics.cacheHits.Add(ctx, 1)
		return cached, nil
	}

	verdict := f.assessLive(ctx, chainID, token)

	f.verdicts.Set(ctx, verdictKey(chainID, token), verdict, f.cfg.CacheTTL)

	if !verdict.Safe {
		f.metrics.rejectionsTotal.Add(ctx, 1)
		f.logger.Warn(ctx, "token rejected",
			"chain_id", chainID,
			"token", token.Hex(),
			"reasons", verdict.Reasons,
		)
	}

	span.SetAttributes(attribute.Bool("safe", verdict.Safe))

	return verdict, nil
}

// assessLive runs the on-chain and external checks in order. External
// API failures are treated as inconclusive rather than rejections; only
// positive findings (honeypot flag, excessive tax, zero liquidity)
// reject the token.
func (f *Filter) assessLive(ctx context.Context, chainID uint64, token common.Address) *domain.Verdict {
	verdict := &domain.Verdict{
		ChainID:   chainID,
		Token:     token,
		Safe:      true,
		Source:    domain.SourceLive,
		CheckedAt: time.Now().UTC(),
	}

	// On-chain shape first: a token with no bytecode or a broken ERC20
	// surface cannot be traded at all.
	report, err := f.inspector.Inspect(ctx, chainID, token)
	if err != nil {
		verdict.Reject(fmt.Sprintf("contract inspection failed: %v", err))
		return verdict
	}
	if !report.HasBytecode {
		verdict.Reject("no contract bytecode at address")
		return verdict
	}
	if !report.ImplementsERC20 {
		verdict.Reject("contract does not implement ERC20")
		return verdict
	}

	f.checkHoneypot(ctx, chainID, token, verdict)
	if !verdict.Safe {
		return verdict
	}

	f.checkLiquidity(ctx, token, verdict)
	if !verdict.Safe {
		return verdict
	}

	// Ownership is advisory: a live owner key is a risk signal, not a
	// rejection on its own.
	if !report.OwnerRenounced {
		verdict.Warn("owner has not renounced control")
	}

	return verdict
}

func (f *Filter) checkHoneypot(ctx context.Context, chainID uint64, token common.Address, verdict *domain.Verdict) {
	report, err := f.honeypot.Check(ctx, chainID, token)
	if err != nil {
		// The simulation service being down is not evidence of a
		// honeypot. Pass with a warning and let liquidity decide.
		verdict.Warn(fmt.Sprintf("honeypot check inconclusive: %v", err))
		f.logger.Debug(ctx, "honeypot check inconclusive",
			"token", token.Hex(),
			"error", err,
		)
		return
	}

	if report.IsHoneypot {
		verdict.Reject("honeypot simulation flagged token")
		return
	}
	if report.BuyTaxPct.GreaterThan(f.cfg.MaxBuyTaxPct) {
		verdict.Reject(fmt.Sprintf("buy tax %s%% above limit %s%%", report.BuyTaxPct, f.cfg.MaxBuyTaxPct))
		return
	}
	if report.SellTaxPct.GreaterThan(f.cfg.MaxSellTaxPct) {
		verdict.Reject(fmt.Sprintf("sell tax %s%% above limit %s%%", report.SellTaxPct, f.cfg.MaxSellTaxPct))
		return
	}
	for _, flag := range report.Flags {
		verdict.Warn(flag)
	}
}

func (f *Filter) checkLiquidity(ctx context.Context, token common.Address, verdict *domain.Verdict) {
	report, err := f.liquidity.Liquidity(ctx, token)
	if err != nil {
		verdict.Warn(fmt.Sprintf("liquidity check inconclusive: %v", err))
		f.logger.Debug(ctx, "liquidity check inconclusive",
			"token", token.Hex(),
			"error", err,
		)
		return
	}

	// No liquidity at all means the token cannot be exited. Hard
	// reject. Thin liquidity or volume is advisory: the position may
	// still close, just with worse slippage.
	if report.TotalLiquidityUSD.IsZero() {
		verdict.Reject("no DEX liquidity found")
		return
	}
	if report.TotalLiquidityUSD.LessThan(f.cfg.MinLiquidityUSD) {
		verdict.Warn(fmt.Sprintf("liquidity $%s below floor $%s", report.TotalLiquidityUSD, f.cfg.MinLiquidityUSD))
	}
	if report.Volume24hUSD.LessThan(f.cfg.MinVolume24hUSD) {
		verdict.Warn(fmt.Sprintf("24h volume $%s below floor $%s", report.Volume24hUSD, f.cfg.MinVolume24hUSD))
	}
}

// Invalidate drops any cached verdict for a token.
func (f *Filter) Invalidate(ctx context.Context, chainID uint64, token common.Address) {
	f.verdicts.Delete(ctx, verdictKey(chainID, token))
}

// Close releases the verdict cache janitor.
func (f *Filter) Close() {
	f.verdicts.Close()
}
