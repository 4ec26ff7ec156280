package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dpolo-eth/flasharb/business/market/app"
	"github.com/dpolo-eth/flasharb/business/market/domain"
	"github.com/dpolo-eth/flasharb/internal/apperror"
	"github.com/dpolo-eth/flasharb/internal/circuitbreaker"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

const (
	tracerName = "evm.quoter"
	meterName  = "evm.quoter"
)

// Ensure Quoter implements VenueQuoter.
var _ app.VenueQuoter = (*Quoter)(nil)

// quoterMetrics holds OTEL metric instruments.
type quoterMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteErrors  metric.Int64Counter
	quoteLatency metric.Float64Histogram
}

// Quoter answers exact-input quotes by calling getAmountsOut on
// V2-style routers. One RPC client and one circuit breaker per network.
type Quoter struct {
	clients   map[string]*ethclient.Client
	breakers  map[string]*circuitbreaker.CircuitBreaker[[]byte]
	routerABI abi.ABI

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *quoterMetrics
}

// NewQuoter creates a Quoter over the given per-network RPC clients.
func NewQuoter(clients map[string]*ethclient.Client, log logger.LoggerInterface) (*Quoter, error) {
	parsedABI, err := abi.JSON(strings.NewReader(RouterV2ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	breakers := make(map[string]*circuitbreaker.CircuitBreaker[[]byte], len(clients))
	for network := range clients {
		cbCfg := circuitbreaker.DefaultConfig("quoter-" + network)
		breakers[network] = circuitbreaker.New[[]byte](cbCfg)
	}

	q := &Quoter{
		clients:   clients,
		breakers:  breakers,
		routerABI: parsedABI,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}

	if err := q.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return q, nil
}

func (q *Quoter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	q.metrics = &quoterMetrics{}

	q.metrics.quotesTotal, err = meter.Int64Counter(
		"evm_quotes_total",
		metric.WithDescription("Total router quote requests"),
	)
	if err != nil {
		return err
	}

	q.metrics.quoteErrors, err = meter.Int64Counter(
		"evm_quote_errors_total",
		metric.WithDescription("Total router quote errors"),
	)
	if err != nil {
		return err
	}

	q.metrics.quoteLatency, err = meter.Float64Histogram(
		"evm_quote_latency_ms",
		metric.WithDescription("Router quote latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// AmountOut quotes an exact-input swap on the venue's router.
func (q *Quoter) AmountOut(ctx context.Context, venue domain.Venue, tokenIn, tokenOut domain.Token, amountIn decimal.Decimal) (decimal.Decimal, uint64, error) {
	ctx, span := q.tracer.Start(ctx, "evm.amount_out",
		trace.WithAttributes(
			attribute.String("venue", venue.String()),
			attribute.String("token_in", tokenIn.Symbol),
			attribute.String("token_out", tokenOut.Symbol),
			attribute.String("amount_in", amountIn.String()),
		),
	)
	defer span.End()

	start := time.Now()
	q.metrics.quotesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("network", venue.Network),
	))

	client, ok := q.clients[venue.Network]
	if !ok {
		q.metrics.quoteErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, "unknown network")
		return decimal.Zero, 0, apperror.New(apperror.CodeNetworkUnknown,
			apperror.WithContext(venue.Network))
	}

	rawIn := amountIn.Shift(int32(tokenIn.Decimals)).BigInt()
	path := []common.Address{tokenIn.Address, tokenOut.Address}

	callData, err := q.routerABI.Pack("getAmountsOut", rawIn, path)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to encode call: %w", err)
	}

	router := venue.Router
	result, err := q.breakers[venue.Network].Execute(func() ([]byte, error) {
		return client.CallContract(ctx, ethereum.CallMsg{
			To:   &router,
			Data: callData,
		}, nil)
	})
	if err != nil {
		q.metrics.quoteErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		if isRevert(err) {
			return decimal.Zero, 0, apperror.New(apperror.CodeQuoteReverted,
				apperror.WithCause(err),
				apperror.WithContext(fmt.Sprintf("router %s pair %s-%s", venue.Name, tokenIn.Symbol, tokenOut.Symbol)))
		}
		return decimal.Zero, 0, apperror.New(apperror.CodeTransientQuote,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("router call failed on %s", venue.Name)))
	}

	outputs, err := q.routerABI.Unpack("getAmountsOut", result)
	if err != nil {
		q.metrics.quoteErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return decimal.Zero, 0, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithCause(err))
	}

	amounts, ok := outputs[0].([]*big.Int)
	if !ok || len(amounts) < 2 {
		q.metrics.quoteErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, "unexpected output shape")
		return decimal.Zero, 0, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext("unexpected getAmountsOut output"))
	}

	rawOut := amounts[len(amounts)-1]
	if rawOut.Sign() <= 0 {
		q.metrics.quoteErrors.Add(ctx, 1)
		return decimal.Zero, 0, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext("zero output amount"))
	}

	amountOut := decimal.NewFromBigInt(rawOut, -int32(tokenOut.Decimals))

	q.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	span.SetAttributes(attribute.String("amount_out", amountOut.String()))
	span.SetStatus(codes.Ok, "quote received")

	q.logger.Debug(ctx, "router quote",
		"venue", venue.String(),
		"token_in", tokenIn.Symbol,
		"token_out", tokenOut.Symbol,
		"amount_in", amountIn.String(),
		"amount_out", amountOut.String(),
	)

	return amountOut, defaultSwapGas, nil
}

// isRevert reports whether an RPC error is an EVM revert rather than a
// transport problem.
func isRevert(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert")
}
