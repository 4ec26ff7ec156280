package binance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/internal/apperror"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

func newTestOracle(t *testing.T, fallbacks map[string]decimal.Decimal) *Oracle {
	t.Helper()
	o, err := NewOracle(OracleConfig{
		WebSocketURL:   "wss://stream.binance.com:9443",
		Symbols:        []string{"ETHUSDT", "BNBUSDT"},
		StaleTimeout:   time.Second,
		FallbackPrices: fallbacks,
	}, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewOracle() error = %v", err)
	}
	return o
}

func TestOracle_NativeUSD_LiveTickWins(t *testing.T) {
	o := newTestOracle(t, map[string]decimal.Decimal{"ETH": decimal.NewFromInt(1)})

	o.handleTick(context.Background(), []byte(`{"stream":"ethusdt@miniTicker","data":{"s":"ETHUSDT","c":"3421.55"}}`))

	got, err := o.NativeUSD(context.Background(), "base")
	if err != nil {
		t.Fatalf("NativeUSD() error = %v", err)
	}
	if !got.Equal(decimal.RequireFromString("3421.55")) {
		t.Errorf("NativeUSD() = %s, want 3421.55", got)
	}
}

func TestOracle_NativeUSD_StaleFallsBack(t *testing.T) {
	o := newTestOracle(t, map[string]decimal.Decimal{"ETH": decimal.NewFromInt(3300)})

	o.mu.Lock()
	o.prices["ETH"] = tickedPrice{price: decimal.NewFromInt(9999), at: time.Now().Add(-time.Minute)}
	o.mu.Unlock()

	got, err := o.NativeUSD(context.Background(), "arbitrum")
	if err != nil {
		t.Fatalf("NativeUSD() error = %v", err)
	}
	if !got.Equal(decimal.NewFromInt(3300)) {
		t.Errorf("NativeUSD() = %s, want fallback 3300", got)
	}
}

func TestOracle_NativeUSD_NoDataAnywhere(t *testing.T) {
	o := newTestOracle(t, nil)

	_, err := o.NativeUSD(context.Background(), "bsc")
	if !apperror.HasCode(err, apperror.CodeOracleUnavailable) {
		t.Errorf("NativeUSD() error = %v, want ORACLE_UNAVAILABLE", err)
	}
}

func TestOracle_NativeUSD_UnknownNetwork(t *testing.T) {
	o := newTestOracle(t, nil)

	_, err := o.NativeUSD(context.Background(), "solana")
	if !apperror.HasCode(err, apperror.CodeNetworkUnknown) {
		t.Errorf("NativeUSD() error = %v, want NETWORK_UNKNOWN", err)
	}
}

func TestOracle_HandleTick_IgnoresGarbage(t *testing.T) {
	o := newTestOracle(t, nil)

	o.handleTick(context.Background(), []byte(`not json`))
	o.handleTick(context.Background(), []byte(`{"stream":"x","data":{"s":"ETHUSDT","c":"not-a-number"}}`))
	o.handleTick(context.Background(), []byte(`{}`))

	o.mu.RLock()
	defer o.mu.RUnlock()
	if len(o.prices) != 0 {
		t.Errorf("prices map = %v, want empty", o.prices)
	}
}
