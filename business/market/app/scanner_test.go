package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/market/domain"
)

// fakeQuoter answers quotes from a fixed table keyed by venue and direction.
type fakeQuoter struct {
	mu sync.Mutex
	// forward[venue] = amountOut when spending the probe (quote->base)
	forward map[string]string
	// reverse[venue] = amountOut when selling the bought base (base->quote)
	reverse map[string]string
	// failing venues return an error on any quote
	failing map[string]bool
	calls   int
}

func (f *fakeQuoter) AmountOut(ctx context.Context, venue domain.Venue, tokenIn, tokenOut domain.Token, amountIn decimal.Decimal) (decimal.Decimal, uint64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.failing[venue.Name] {
		return decimal.Zero, 0, errors.New("execution reverted")
	}

	var table map[string]string
	if tokenOut.Symbol == "WETH" {
		table = f.forward
	} else {
		table = f.reverse
	}

	out, ok := table[venue.Name]
	if !ok {
		return decimal.Zero, 0, fmt.Errorf("no quote for venue %s", venue.Name)
	}
	return decimal.RequireFromString(out), 150_000, nil
}

func testScannerConfig(workers int) ScannerConfig {
	return ScannerConfig{
		ProbeAmount:  decimal.NewFromInt(1000),
		TradeAmount:  decimal.NewFromInt(10_000),
		QuoteTimeout: time.Second,
		Workers:      workers,
	}
}

func testPlan(venues ...string) NetworkPlan {
	plan := NetworkPlan{
		Network:  "base",
		Priority: decimal.RequireFromString("0.60"),
		Pairs: []domain.Pair{{
			Base:  domain.Token{Symbol: "WETH", Decimals: 18},
			Quote: domain.Token{Symbol: "USDC", Decimals: 6},
		}},
	}
	for _, name := range venues {
		plan.Venues = append(plan.Venues, domain.Venue{Name: name, Network: "base"})
	}
	return plan
}

func TestScanner_Scan_PicksBestRoundTrip(t *testing.T) {
	// Venue Y gives the most WETH for 1000 USDC, so it is the buy side.
	// Selling Y's output back: X returns 1005, Z returns 995. The sell
	// side must be X with a 0.5% spread.
	quoter := &fakeQuoter{
		forward: map[string]string{
			"X": "0.40",
			"Y": "0.42",
			"Z": "0.41",
		},
		reverse: map[string]string{
			"X": "1005",
			"Z": "995",
		},
		failing: map[string]bool{},
	}

	s, err := NewScanner(quoter, []NetworkPlan{testPlan("X", "Y", "Z")}, testScannerConfig(4), testLogger())
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}

	sets, opps := s.Scan(context.Background())

	if len(sets) != 1 {
		t.Fatalf("got %d quote sets, want 1", len(sets))
	}
	if len(sets[0].Quotes) != 3 {
		t.Errorf("got %d quotes, want 3", len(sets[0].Quotes))
	}

	if len(opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(opps))
	}

	opp := opps[0]
	if opp.BuyVenue.Name != "Y" {
		t.Errorf("BuyVenue = %s, want Y", opp.BuyVenue.Name)
	}
	if opp.SellVenue.Name != "X" {
		t.Errorf("SellVenue = %s, want X", opp.SellVenue.Name)
	}
	if !opp.SpreadPct.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("SpreadPct = %s, want 0.5", opp.SpreadPct)
	}
}

func TestScanner_Scan_StampsTradeNotional(t *testing.T) {
	// A detected opportunity must carry the configured flash-loan
	// notional, not the probe amount and not a zero value.
	quoter := &fakeQuoter{
		forward: map[string]string{
			"X": "0.40",
			"Y": "0.42",
		},
		reverse: map[string]string{
			"X": "1005",
		},
		failing: map[string]bool{},
	}

	s, err := NewScanner(quoter, []NetworkPlan{testPlan("X", "Y")}, testScannerConfig(2), testLogger())
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}

	_, opps := s.Scan(context.Background())
	if len(opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(opps))
	}
	if !opps[0].TradeAmount.Equal(decimal.NewFromInt(10_000)) {
		t.Errorf("TradeAmount = %s, want 10000", opps[0].TradeAmount)
	}
}

// stuckQuoter never answers until its context is cancelled.
type stuckQuoter struct{}

func (stuckQuoter) AmountOut(ctx context.Context, venue domain.Venue, tokenIn, tokenOut domain.Token, amountIn decimal.Decimal) (decimal.Decimal, uint64, error) {
	<-ctx.Done()
	return decimal.Zero, 0, ctx.Err()
}

func TestScanner_Scan_QuoteTimeoutBoundsStuckVenue(t *testing.T) {
	cfg := testScannerConfig(2)
	cfg.QuoteTimeout = 10 * time.Millisecond

	s, err := NewScanner(stuckQuoter{}, []NetworkPlan{testPlan("X", "Y")}, cfg, testLogger())
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}

	done := make(chan struct{})
	var sets []domain.QuoteSet
	go func() {
		defer close(done)
		sets, _ = s.Scan(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Scan did not return; per-quote timeout not applied")
	}

	if len(sets) != 1 {
		t.Fatalf("got %d quote sets, want 1", len(sets))
	}
	if len(sets[0].Errors) != 2 {
		t.Errorf("got %d scan errors, want 2 (both venues timed out)", len(sets[0].Errors))
	}
}

func TestScanner_Scan_NoSpreadNoOpportunity(t *testing.T) {
	// Every round trip loses money: no opportunity should surface.
	quoter := &fakeQuoter{
		forward: map[string]string{
			"X": "0.40",
			"Y": "0.41",
		},
		reverse: map[string]string{
			"X": "990",
		},
		failing: map[string]bool{},
	}

	s, err := NewScanner(quoter, []NetworkPlan{testPlan("X", "Y")}, testScannerConfig(2), testLogger())
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}

	_, opps := s.Scan(context.Background())
	if len(opps) != 0 {
		t.Fatalf("got %d opportunities, want 0", len(opps))
	}
}

func TestScanner_Scan_VenueFailureIsRecordedNotFatal(t *testing.T) {
	quoter := &fakeQuoter{
		forward: map[string]string{
			"X": "0.40",
			"Y": "0.42",
		},
		reverse: map[string]string{
			"X": "1005",
		},
		failing: map[string]bool{"Z": true},
	}

	s, err := NewScanner(quoter, []NetworkPlan{testPlan("X", "Y", "Z")}, testScannerConfig(2), testLogger())
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}

	sets, opps := s.Scan(context.Background())

	if len(sets) != 1 {
		t.Fatalf("got %d quote sets, want 1", len(sets))
	}
	if len(sets[0].Errors) != 1 {
		t.Errorf("got %d scan errors, want 1", len(sets[0].Errors))
	}
	if sets[0].Errors[0].Venue.Name != "Z" {
		t.Errorf("failed venue = %s, want Z", sets[0].Errors[0].Venue.Name)
	}

	// The surviving venues still produce the opportunity.
	if len(opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(opps))
	}
	if opps[0].BuyVenue.Name != "Y" || opps[0].SellVenue.Name != "X" {
		t.Errorf("opportunity = buy %s sell %s, want buy Y sell X", opps[0].BuyVenue.Name, opps[0].SellVenue.Name)
	}
}

func TestScanner_Scan_SingleQuoteNotComparable(t *testing.T) {
	quoter := &fakeQuoter{
		forward: map[string]string{"X": "0.40"},
		reverse: map[string]string{},
		failing: map[string]bool{"Y": true},
	}

	s, err := NewScanner(quoter, []NetworkPlan{testPlan("X", "Y")}, testScannerConfig(1), testLogger())
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}

	_, opps := s.Scan(context.Background())
	if len(opps) != 0 {
		t.Fatalf("got %d opportunities, want 0", len(opps))
	}
}
