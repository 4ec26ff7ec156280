package ethereum

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/engine/domain"
	marketDomain "github.com/dpolo-eth/flasharb/business/market/domain"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

type fakeOracle struct {
	price decimal.Decimal
	err   error
}

func (f *fakeOracle) NativeUSD(ctx context.Context, network string) (decimal.Decimal, error) {
	return f.price, f.err
}

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	g, err := NewGateway(
		map[string]NetworkBinding{},
		&fakeOracle{price: decimal.NewFromInt(3000)},
		GatewayConfig{},
		logger.NewDiscard(),
	)
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	return g
}

func testPlan() domain.ExecutionPlan {
	return domain.ExecutionPlan{
		Opportunity: marketDomain.Opportunity{ID: "opp-1", Network: "base"},
		Estimate: marketDomain.ProfitEstimate{
			GrossUSD:        decimal.NewFromInt(200),
			FlashLoanFeeUSD: decimal.NewFromInt(9),
		},
	}
}

// 100k gas at 10 gwei on a $3000 native asset burns exactly $3.
func minedReceipt(status uint64) (*types.Transaction, *types.Receipt) {
	gasPrice := big.NewInt(10_000_000_000)
	tx := types.NewTx(&types.LegacyTx{GasPrice: gasPrice})
	return tx, &types.Receipt{
		Status:            status,
		GasUsed:           100_000,
		EffectiveGasPrice: gasPrice,
	}
}

func TestGateway_ToReceipt_ProfitExcludesGas(t *testing.T) {
	g := newTestGateway(t)
	tx, receipt := minedReceipt(types.ReceiptStatusSuccessful)

	result := g.toReceipt(context.Background(), testPlan(), tx, receipt)

	if !result.Success {
		t.Fatal("successful receipt must map to Success")
	}
	if !result.GasUSD.Equal(decimal.NewFromInt(3)) {
		t.Errorf("GasUSD = %s, want 3", result.GasUSD)
	}
	// Gross 200 minus fee 9, with gas left out: the risk ledger
	// charges gas separately.
	if !result.ProfitUSD.Equal(decimal.NewFromInt(191)) {
		t.Errorf("ProfitUSD = %s, want 191", result.ProfitUSD)
	}
}

func TestGateway_ToReceipt_RevertBurnsGasOnly(t *testing.T) {
	g := newTestGateway(t)
	tx, receipt := minedReceipt(types.ReceiptStatusFailed)

	result := g.toReceipt(context.Background(), testPlan(), tx, receipt)

	if result.Success {
		t.Fatal("failed receipt must not map to Success")
	}
	if !result.ProfitUSD.IsZero() {
		t.Errorf("ProfitUSD = %s, want 0 on revert", result.ProfitUSD)
	}
	if !result.GasUSD.Equal(decimal.NewFromInt(3)) {
		t.Errorf("GasUSD = %s, want 3 (gas burns even on revert)", result.GasUSD)
	}
}
