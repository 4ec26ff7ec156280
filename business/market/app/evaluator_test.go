package app

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/market/domain"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

type fakeOracle struct {
	price decimal.Decimal
	err   error
}

func (f *fakeOracle) NativeUSD(ctx context.Context, network string) (decimal.Decimal, error) {
	return f.price, f.err
}

type fakeGasPricer struct {
	priceWei *big.Int
	err      error
}

func (f *fakeGasPricer) GasPriceWei(ctx context.Context, network string) (*big.Int, error) {
	return f.priceWei, f.err
}

func testLogger() logger.LoggerInterface {
	return logger.NewDiscard()
}

func makeOpportunity(network, spreadPct string, buyGas, sellGas uint64) domain.Opportunity {
	pair := domain.Pair{
		Base:  domain.Token{Symbol: "WETH", Decimals: 18},
		Quote: domain.Token{Symbol: "USDC", Decimals: 6},
	}
	return domain.Opportunity{
		ID:        "test-opp",
		Network:   network,
		Pair:      pair,
		BuyVenue:  domain.Venue{Name: "venue-a", Network: network},
		SellVenue: domain.Venue{Name: "venue-b", Network: network},
		BuyQuote:  domain.Quote{GasEstimate: buyGas},
		SellQuote: domain.Quote{GasEstimate: sellGas},
		SpreadPct: decimal.RequireFromString(spreadPct),
		Timestamp: time.Now().UTC(),
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	tests := []struct {
		name           string
		minProfitUSD   string
		minProfitPct   string
		feeBps         string
		notionalUSD    string
		spreadPct      string
		gasUnits       uint64 // per leg
		gasPriceGwei   int64
		nativeUSD      string
		wantGross      string
		wantFee        string
		wantNet        string
		wantProfitable bool
	}{
		{
			name:           "clears_both_floors",
			minProfitUSD:   "5",
			minProfitPct:   "0.5",
			feeBps:         "9",
			notionalUSD:    "10000",
			spreadPct:      "2",
			gasUnits:       150_000,
			gasPriceGwei:   10,
			nativeUSD:      "3000",
			wantGross:      "200",  // 2% of 10000
			wantFee:        "9",    // 10000 * 9bps
			wantNet:        "182",  // 200 - 9 - 9 (2 legs * 150k * 10gwei * 3000)
			wantProfitable: true,
		},
		{
			name:           "fails_usd_floor_only",
			minProfitUSD:   "50",
			minProfitPct:   "0.1",
			feeBps:         "9",
			notionalUSD:    "1000",
			spreadPct:      "3",
			gasUnits:       100_000,
			gasPriceGwei:   5,
			nativeUSD:      "3000",
			wantGross:      "30",   // 3% of 1000
			wantFee:        "0.9",  // 1000 * 9bps
			wantNet:        "26.1", // 30 - 0.9 - 3
			wantProfitable: false,  // 26.1 < 50 USD floor despite 2.61% > 0.1%
		},
		{
			name:           "fails_percentage_floor_only",
			minProfitUSD:   "5",
			minProfitPct:   "1",
			feeBps:         "0",
			notionalUSD:    "100000",
			spreadPct:      "0.05",
			gasUnits:       100_000,
			gasPriceGwei:   5,
			nativeUSD:      "3000",
			wantGross:      "50", // 0.05% of 100000
			wantFee:        "0",
			wantNet:        "47",  // 50 - 0 - 3
			wantProfitable: false, // 0.047% < 1% floor despite 47 > 5 USD
		},
		{
			name:           "gas_erases_gross",
			minProfitUSD:   "1",
			minProfitPct:   "0.1",
			feeBps:         "9",
			notionalUSD:    "1000",
			spreadPct:      "0.5",
			gasUnits:       300_000,
			gasPriceGwei:   50,
			nativeUSD:      "3000",
			wantGross:      "5",
			wantFee:        "0.9",
			wantNet:        "-85.9", // 5 - 0.9 - 90
			wantProfitable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := EvaluatorConfig{
				MinProfitUSD:        decimal.RequireFromString(tt.minProfitUSD),
				MinProfitPercentage: decimal.RequireFromString(tt.minProfitPct),
				FlashLoanFeeBps:     decimal.RequireFromString(tt.feeBps),
				GasSafetyMultiplier: decimal.NewFromInt(1),
				TradeAmountUSD:      decimal.RequireFromString(tt.notionalUSD),
			}

			oracle := &fakeOracle{price: decimal.RequireFromString(tt.nativeUSD)}
			gas := &fakeGasPricer{priceWei: big.NewInt(tt.gasPriceGwei * 1_000_000_000)}

			e := NewEvaluator(cfg, oracle, gas, testLogger())

			opp := makeOpportunity("base", tt.spreadPct, tt.gasUnits, tt.gasUnits)

			got, err := e.Evaluate(context.Background(), opp)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}

			if !got.GrossUSD.Equal(decimal.RequireFromString(tt.wantGross)) {
				t.Errorf("GrossUSD = %s, want %s", got.GrossUSD, tt.wantGross)
			}
			if !got.FlashLoanFeeUSD.Equal(decimal.RequireFromString(tt.wantFee)) {
				t.Errorf("FlashLoanFeeUSD = %s, want %s", got.FlashLoanFeeUSD, tt.wantFee)
			}
			if !got.NetUSD.Equal(decimal.RequireFromString(tt.wantNet)) {
				t.Errorf("NetUSD = %s, want %s", got.NetUSD, tt.wantNet)
			}
			if got.Profitable != tt.wantProfitable {
				t.Errorf("Profitable = %v, want %v", got.Profitable, tt.wantProfitable)
			}
		})
	}
}

func TestEvaluator_Evaluate_OracleFailure(t *testing.T) {
	cfg := EvaluatorConfig{
		MinProfitUSD:        decimal.NewFromInt(5),
		MinProfitPercentage: decimal.RequireFromString("0.5"),
		FlashLoanFeeBps:     decimal.NewFromInt(9),
		GasSafetyMultiplier: decimal.NewFromInt(1),
		TradeAmountUSD:      decimal.NewFromInt(1000),
	}

	oracle := &fakeOracle{err: errors.New("stream stale")}
	gas := &fakeGasPricer{priceWei: big.NewInt(1_000_000_000)}

	e := NewEvaluator(cfg, oracle, gas, testLogger())

	_, err := e.Evaluate(context.Background(), makeOpportunity("base", "2", 100_000, 100_000))
	if err == nil {
		t.Fatal("Evaluate() expected error when oracle unavailable")
	}
}

func TestRank(t *testing.T) {
	mk := func(id, netUSD, netPct, priority string) domain.EvaluatedOpportunity {
		return domain.EvaluatedOpportunity{
			Opportunity: domain.Opportunity{
				ID:       id,
				Priority: decimal.RequireFromString(priority),
			},
			Estimate: domain.ProfitEstimate{
				NetUSD: decimal.RequireFromString(netUSD),
				NetPct: decimal.RequireFromString(netPct),
			},
		}
	}

	// A fat percentage on a small notional must outrank a thin
	// percentage on a big one.
	evals := []domain.EvaluatedOpportunity{
		mk("high-pct-small-usd", "10", "2", "0.60"),
		mk("low-pct-big-usd", "50", "0.5", "0.15"),
		mk("tie-pct-big-usd", "40", "1", "0.15"),
		mk("tie-pct-small-usd", "25", "1", "0.60"),
		mk("tie-all-low-priority", "25", "1", "0.25"),
	}

	Rank(evals)

	wantOrder := []string{"high-pct-small-usd", "tie-pct-big-usd", "tie-pct-small-usd", "tie-all-low-priority", "low-pct-big-usd"}
	for i, want := range wantOrder {
		if evals[i].Opportunity.ID != want {
			t.Errorf("rank[%d] = %s, want %s", i, evals[i].Opportunity.ID, want)
		}
	}
}
