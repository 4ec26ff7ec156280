// Package binance implements the PriceOracle port over Binance's
// miniTicker WebSocket stream, with static fallback prices.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dpolo-eth/flasharb/business/market/app"
	"github.com/dpolo-eth/flasharb/internal/apperror"
	"github.com/dpolo-eth/flasharb/internal/logger"
	"github.com/dpolo-eth/flasharb/internal/wsconn"
)

const meterName = "binance.oracle"

// Ensure Oracle implements PriceOracle.
var _ app.PriceOracle = (*Oracle)(nil)

// nativeSymbol maps a network to the asset its gas is paid in.
var nativeSymbol = map[string]string{
	"base":     "ETH",
	"arbitrum": "ETH",
	"bsc":      "BNB",
}

// OracleConfig holds the stream endpoint and fallback behaviour.
type OracleConfig struct {
	WebSocketURL   string
	Symbols        []string // e.g. ETHUSDT, BNBUSDT
	StaleTimeout   time.Duration
	FallbackPrices map[string]decimal.Decimal // asset symbol -> USD
}

// tickedPrice is one live price with its arrival time.
type tickedPrice struct {
	price decimal.Decimal
	at    time.Time
}

// miniTicker is the payload of a combined-stream miniTicker event.
type miniTicker struct {
	Stream string `json:"stream"`
	Data   struct {
		Symbol string `json:"s"`
		Close  string `json:"c"`
	} `json:"data"`
}

// oracleMetrics holds OTEL metric instruments.
type oracleMetrics struct {
	ticksTotal    metric.Int64Counter
	fallbackTotal metric.Int64Counter
}

// Oracle streams native-asset USD prices from Binance. When the stream
// is down or stale it answers from the configured fallback table so the
// evaluator can keep pricing gas.
type Oracle struct {
	cfg  OracleConfig
	conn *wsconn.Client

	mu     sync.RWMutex
	prices map[string]tickedPrice // asset symbol -> live price

	logger  logger.LoggerInterface
	metrics *oracleMetrics
}

// NewOracle creates an Oracle. Call Start to begin streaming.
func NewOracle(cfg OracleConfig, log logger.LoggerInterface) (*Oracle, error) {
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("oracle needs at least one symbol")
	}
	if cfg.StaleTimeout <= 0 {
		cfg.StaleTimeout = 30 * time.Second
	}

	streams := make([]string, len(cfg.Symbols))
	for i, sym := range cfg.Symbols {
		streams[i] = strings.ToLower(sym) + "@miniTicker"
	}
	url := fmt.Sprintf("%s/stream?streams=%s", cfg.WebSocketURL, strings.Join(streams, "/"))

	o := &Oracle{
		cfg:    cfg,
		conn:   wsconn.New(wsconn.DefaultConfig(url)),
		prices: make(map[string]tickedPrice),
		logger: log,
	}

	if err := o.initMetrics(); err != nil {
		return nil, err
	}

	return o, nil
}

func (o *Oracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	o.metrics = &oracleMetrics{}

	o.metrics.ticksTotal, err = meter.Int64Counter(
		"oracle_ticks_total",
		metric.WithDescription("Price ticks received from the stream"),
	)
	if err != nil {
		return err
	}

	o.metrics.fallbackTotal, err = meter.Int64Counter(
		"oracle_fallback_total",
		metric.WithDescription("Price reads answered from the fallback table"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Start connects the stream and consumes ticks until ctx is cancelled.
// A failed connection is not fatal: the oracle degrades to fallbacks
// while the client reconnects in the background.
func (o *Oracle) Start(ctx context.Context) error {
	if err := o.conn.Connect(ctx); err != nil {
		o.logger.Warn(ctx, "oracle stream connect failed, using fallback prices",
			"error", err,
		)
	}

	go o.consume(ctx)
	return nil
}

func (o *Oracle) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-o.conn.Messages():
			if !ok {
				return
			}
			o.handleTick(ctx, msg)
		}
	}
}

func (o *Oracle) handleTick(ctx context.Context, msg []byte) {
	var tick miniTicker
	if err := json.Unmarshal(msg, &tick); err != nil {
		o.logger.Debug(ctx, "unparseable oracle message", "error", err)
		return
	}
	if tick.Data.Symbol == "" || tick.Data.Close == "" {
		return
	}

	price, err := decimal.NewFromString(tick.Data.Close)
	if err != nil {
		o.logger.Debug(ctx, "bad oracle price", "symbol", tick.Data.Symbol, "close", tick.Data.Close)
		return
	}

	// ETHUSDT -> ETH
	asset := strings.TrimSuffix(strings.TrimSuffix(tick.Data.Symbol, "USDT"), "USDC")

	o.mu.Lock()
	o.prices[asset] = tickedPrice{price: price, at: time.Now()}
	o.mu.Unlock()

	o.metrics.ticksTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("asset", asset),
	))
}

// NativeUSD returns the USD price of the network's native asset. Live
// stream prices win; stale or missing prices fall back to the static
// table; an asset absent from both is an error.
func (o *Oracle) NativeUSD(ctx context.Context, network string) (decimal.Decimal, error) {
	asset, ok := nativeSymbol[network]
	if !ok {
		return decimal.Zero, apperror.New(apperror.CodeNetworkUnknown,
			apperror.WithContext(network))
	}

	o.mu.RLock()
	live, haveLive := o.prices[asset]
	o.mu.RUnlock()

	if haveLive && time.Since(live.at) <= o.cfg.StaleTimeout {
		return live.price, nil
	}

	if fallback, ok := o.cfg.FallbackPrices[asset]; ok {
		o.metrics.fallbackTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("asset", asset),
		))
		if haveLive {
			o.logger.Warn(ctx, "oracle price stale, using fallback",
				"asset", asset,
				"age", time.Since(live.at).String(),
			)
		}
		return fallback, nil
	}

	if haveLive {
		return decimal.Zero, apperror.New(apperror.CodeOracleStale,
			apperror.WithContext(asset))
	}
	return decimal.Zero, apperror.New(apperror.CodeOracleUnavailable,
		apperror.WithContext(asset))
}

// StreamState exposes the underlying connection state for health checks.
func (o *Oracle) StreamState() wsconn.State {
	return o.conn.State()
}

// Close tears down the stream connection.
func (o *Oracle) Close() error {
	return o.conn.Close()
}
