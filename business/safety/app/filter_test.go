package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/safety/domain"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

var testToken = common.HexToAddress("0x1111111111111111111111111111111111111111")

type fakeInspector struct {
	report *domain.ContractReport
	err    error
	calls  int
}

func (f *fakeInspector) Inspect(ctx context.Context, chainID uint64, token common.Address) (*domain.ContractReport, error) {
	f.calls++
	return f.report, f.err
}

type fakeHoneypot struct {
	report *domain.HoneypotReport
	err    error
	calls  int
}

func (f *fakeHoneypot) Check(ctx context.Context, chainID uint64, token common.Address) (*domain.HoneypotReport, error) {
	f.calls++
	return f.report, f.err
}

type fakeLiquidity struct {
	report *domain.LiquidityReport
	err    error
	calls  int
}

func (f *fakeLiquidity) Liquidity(ctx context.Context, token common.Address) (*domain.LiquidityReport, error) {
	f.calls++
	return f.report, f.err
}

func healthyFakes() (*fakeInspector, *fakeHoneypot, *fakeLiquidity) {
	inspector := &fakeInspector{report: &domain.ContractReport{
		HasBytecode:     true,
		ImplementsERC20: true,
		OwnerRenounced:  true,
	}}
	honeypot := &fakeHoneypot{report: &domain.HoneypotReport{
		IsHoneypot: false,
		BuyTaxPct:  decimal.NewFromInt(1),
		SellTaxPct: decimal.NewFromInt(1),
	}}
	liquidity := &fakeLiquidity{report: &domain.LiquidityReport{
		TotalLiquidityUSD: decimal.NewFromInt(500_000),
		Volume24hUSD:      decimal.NewFromInt(250_000),
		PairCount:         3,
	}}
	return inspector, honeypot, liquidity
}

func newTestFilter(t *testing.T, cfg FilterConfig, i ChainInspector, h HoneypotChecker, l LiquidityChecker) *Filter {
	t.Helper()
	if cfg.MaxBuyTaxPct.IsZero() {
		cfg.MaxBuyTaxPct = decimal.NewFromInt(5)
	}
	if cfg.MaxSellTaxPct.IsZero() {
		cfg.MaxSellTaxPct = decimal.NewFromInt(5)
	}
	if cfg.MinLiquidityUSD.IsZero() {
		cfg.MinLiquidityUSD = decimal.NewFromInt(50_000)
	}
	if cfg.MinVolume24hUSD.IsZero() {
		cfg.MinVolume24hUSD = decimal.NewFromInt(10_000)
	}
	f, err := NewFilter(cfg, i, h, l, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewFilter() error = %v", err)
	}
	t.Cleanup(f.Close)
	return f
}

func TestFilter_Assess_HealthyToken(t *testing.T) {
	i, h, l := healthyFakes()
	f := newTestFilter(t, FilterConfig{}, i, h, l)

	verdict, err := f.Assess(context.Background(), 8453, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if !verdict.Safe {
		t.Errorf("verdict.Safe = false, reasons = %v", verdict.Reasons)
	}
	if verdict.Source != domain.SourceLive {
		t.Errorf("verdict.Source = %s, want live", verdict.Source)
	}
}

func TestFilter_Assess_WhitelistBeatsCachedRejection(t *testing.T) {
	i, h, l := healthyFakes()
	h.report = &domain.HoneypotReport{IsHoneypot: true}

	f := newTestFilter(t, FilterConfig{}, i, h, l)

	// First assessment rejects and caches the rejection.
	verdict, err := f.Assess(context.Background(), 8453, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if verdict.Safe {
		t.Fatal("expected honeypot rejection")
	}

	// Whitelisting the token must override the cached rejection.
	wf := newTestFilter(t, FilterConfig{Whitelist: map[uint64][]common.Address{8453: {testToken}}}, i, h, l)
	verdict, err = wf.Assess(context.Background(), 8453, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if !verdict.Safe {
		t.Errorf("whitelisted token rejected: %v", verdict.Reasons)
	}
	if verdict.Source != domain.SourceWhitelist {
		t.Errorf("verdict.Source = %s, want whitelist", verdict.Source)
	}
}

func TestFilter_Assess_CachesVerdicts(t *testing.T) {
	i, h, l := healthyFakes()
	f := newTestFilter(t, FilterConfig{CacheTTL: time.Minute}, i, h, l)

	if _, err := f.Assess(context.Background(), 8453, testToken); err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	verdict, err := f.Assess(context.Background(), 8453, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}

	if verdict.Source != domain.SourceLive {
		t.Errorf("cached verdict should preserve original source, got %s", verdict.Source)
	}
	if i.calls != 1 || h.calls != 1 || l.calls != 1 {
		t.Errorf("checks ran %d/%d/%d times, want 1/1/1", i.calls, h.calls, l.calls)
	}
}

func TestFilter_Assess_NoBytecodeRejects(t *testing.T) {
	i, h, l := healthyFakes()
	i.report = &domain.ContractReport{HasBytecode: false}

	f := newTestFilter(t, FilterConfig{}, i, h, l)

	verdict, err := f.Assess(context.Background(), 8453, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if verdict.Safe {
		t.Error("expected rejection for missing bytecode")
	}
	// Later checks must not run once the contract check fails.
	if h.calls != 0 || l.calls != 0 {
		t.Errorf("downstream checks ran %d/%d times, want 0/0", h.calls, l.calls)
	}
}

func TestFilter_Assess_HoneypotAPIDownAssumesOK(t *testing.T) {
	i, h, l := healthyFakes()
	h.err = errors.New("context deadline exceeded")
	h.report = nil

	f := newTestFilter(t, FilterConfig{}, i, h, l)

	verdict, err := f.Assess(context.Background(), 8453, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if !verdict.Safe {
		t.Errorf("API outage should not reject, reasons = %v", verdict.Reasons)
	}
	if len(verdict.Warnings) == 0 {
		t.Error("expected an inconclusive-check warning")
	}
}

func TestFilter_Assess_ExcessiveSellTaxRejects(t *testing.T) {
	i, h, l := healthyFakes()
	h.report.SellTaxPct = decimal.NewFromInt(40)

	f := newTestFilter(t, FilterConfig{}, i, h, l)

	verdict, err := f.Assess(context.Background(), 8453, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if verdict.Safe {
		t.Error("expected rejection for 40% sell tax")
	}
}

func TestFilter_Assess_ZeroLiquidityRejects(t *testing.T) {
	i, h, l := healthyFakes()
	l.report = &domain.LiquidityReport{TotalLiquidityUSD: decimal.Zero}

	f := newTestFilter(t, FilterConfig{}, i, h, l)

	verdict, err := f.Assess(context.Background(), 8453, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if verdict.Safe {
		t.Error("expected rejection for zero liquidity")
	}
}

func TestFilter_Assess_LowLiquidityWarnsWithoutRejecting(t *testing.T) {
	i, h, l := healthyFakes()
	l.report = &domain.LiquidityReport{
		TotalLiquidityUSD: decimal.NewFromInt(12_000),
		Volume24hUSD:      decimal.NewFromInt(250_000),
		PairCount:         1,
	}

	f := newTestFilter(t, FilterConfig{}, i, h, l)

	verdict, err := f.Assess(context.Background(), 8453, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if !verdict.Safe {
		t.Errorf("liquidity below floor must warn, not reject: %v", verdict.Reasons)
	}
	if len(verdict.Warnings) == 0 {
		t.Error("expected a thin-liquidity warning")
	}
}

func TestFilter_Assess_ThinVolumeWarnsWithoutRejecting(t *testing.T) {
	i, h, l := healthyFakes()
	l.report = &domain.LiquidityReport{
		TotalLiquidityUSD: decimal.NewFromInt(500_000),
		Volume24hUSD:      decimal.NewFromInt(800),
		PairCount:         2,
	}

	f := newTestFilter(t, FilterConfig{}, i, h, l)

	verdict, err := f.Assess(context.Background(), 8453, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if !verdict.Safe {
		t.Errorf("thin volume must warn, not reject: %v", verdict.Reasons)
	}
	if len(verdict.Warnings) == 0 {
		t.Error("expected a thin-volume warning")
	}
}

func TestFilter_Assess_WhitelistIsNetworkScoped(t *testing.T) {
	i, h, l := healthyFakes()
	h.report = &domain.HoneypotReport{IsHoneypot: true}

	// Trusted on Base only; the same address on mainnet still goes
	// through the full check sequence.
	f := newTestFilter(t, FilterConfig{Whitelist: map[uint64][]common.Address{8453: {testToken}}}, i, h, l)

	verdict, err := f.Assess(context.Background(), 8453, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if !verdict.Safe {
		t.Errorf("whitelisted token rejected on its own chain: %v", verdict.Reasons)
	}

	verdict, err = f.Assess(context.Background(), 1, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if verdict.Safe {
		t.Error("whitelist entry for chain 8453 must not cover chain 1")
	}
}

func TestFilter_Invalidate_DropsCachedVerdict(t *testing.T) {
	i, h, l := healthyFakes()
	f := newTestFilter(t, FilterConfig{CacheTTL: time.Minute}, i, h, l)

	ctx := context.Background()
	if _, err := f.Assess(ctx, 8453, testToken); err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	f.Invalidate(ctx, 8453, testToken)
	if _, err := f.Assess(ctx, 8453, testToken); err != nil {
		t.Fatalf("Assess() error = %v", err)
	}

	if i.calls != 2 {
		t.Errorf("inspector ran %d times, want 2 after invalidation", i.calls)
	}
}

func TestFilter_Assess_LiquidityAPIDownIsSoftPass(t *testing.T) {
	i, h, l := healthyFakes()
	l.err = errors.New("502 bad gateway")
	l.report = nil

	f := newTestFilter(t, FilterConfig{}, i, h, l)

	verdict, err := f.Assess(context.Background(), 8453, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if !verdict.Safe {
		t.Errorf("liquidity API outage should not reject, reasons = %v", verdict.Reasons)
	}
}

func TestFilter_Assess_OwnershipIsAdvisory(t *testing.T) {
	i, h, l := healthyFakes()
	i.report.OwnerRenounced = false

	f := newTestFilter(t, FilterConfig{}, i, h, l)

	verdict, err := f.Assess(context.Background(), 8453, testToken)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if !verdict.Safe {
		t.Errorf("live owner must not reject, reasons = %v", verdict.Reasons)
	}
	if len(verdict.Warnings) == 0 {
		t.Error("expected ownership warning")
	}
}
