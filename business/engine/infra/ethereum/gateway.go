// Package ethereum contains the on-chain execution adapter for the engine context.
package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dpolo-eth/flasharb/business/engine/app"
	"github.com/dpolo-eth/flasharb/business/engine/domain"
	marketApp "github.com/dpolo-eth/flasharb/business/market/app"
	"github.com/dpolo-eth/flasharb/internal/apperror"
	"github.com/dpolo-eth/flasharb/internal/circuitbreaker"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

const gatewayTracerName = "ethereum.gateway"

var weiPerEth = decimal.New(1, 18)

// Ensure Gateway implements NetworkGateway.
var _ app.NetworkGateway = (*Gateway)(nil)

// NetworkBinding ties one network to its RPC client and deployed
// executor contract.
type NetworkBinding struct {
	Client   *ethclient.Client
	ChainID  uint64
	Executor common.Address
}

// GatewayConfig holds execution settings.
type GatewayConfig struct {
	// PrivateKeyHex signs transactions. Empty means the gateway can
	// simulate but never execute.
	PrivateKeyHex string
	// CallTimeout bounds each read-only RPC call. Zero disables the
	// bound.
	CallTimeout    time.Duration
	ReceiptTimeout time.Duration
}

// gatewayMetrics holds OTEL metric instruments.
type gatewayMetrics struct {
	simulationsTotal metric.Int64Counter
	executionsTotal  metric.Int64Counter
	receiptLatency   metric.Float64Histogram
}

// Gateway submits flash-loan arbitrage transactions through the
// per-network executor contracts.
type Gateway struct {
	bindings map[string]NetworkBinding
	breakers map[string]*circuitbreaker.CircuitBreaker[[]byte]
	oracle   marketApp.PriceOracle
	config   GatewayConfig

	key  *ecdsa.PrivateKey
	from common.Address

	executorABI abi.ABI
	logger      logger.LoggerInterface
	tracer      trace.Tracer
	metrics     *gatewayMetrics
}

// NewGateway creates a Gateway over the given network bindings. The
// oracle converts realized gas into USD for the risk ledger.
func NewGateway(bindings map[string]NetworkBinding, oracle marketApp.PriceOracle, config GatewayConfig, log logger.LoggerInterface) (*Gateway, error) {
	parsedABI, err := abi.JSON(strings.NewReader(ExecutorABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse executor ABI: %w", err)
	}

	g := &Gateway{
		bindings:    bindings,
		breakers:    make(map[string]*circuitbreaker.CircuitBreaker[[]byte], len(bindings)),
		oracle:      oracle,
		config:      config,
		executorABI: parsedABI,
		logger:      log,
		tracer:      otel.Tracer(gatewayTracerName),
	}

	for network := range bindings {
		cbCfg := circuitbreaker.DefaultConfig("gateway-" + network)
		g.breakers[network] = circuitbreaker.New[[]byte](cbCfg)
	}

	if config.PrivateKeyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(config.PrivateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid signing key: %w", err)
		}
		g.key = key
		g.from = crypto.PubkeyToAddress(key.PublicKey)
	}

	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return g, nil
}

func (g *Gateway) initMetrics() error {
	meter := otel.Meter(gatewayTracerName)
	var err error

	g.metrics = &gatewayMetrics{}

	g.metrics.simulationsTotal, err = meter.Int64Counter(
		"gateway_simulations_total",
		metric.WithDescription("Trade simulations by result"),
	)
	if err != nil {
		return err
	}

	g.metrics.executionsTotal, err = meter.Int64Counter(
		"gateway_executions_total",
		metric.WithDescription("Submitted trades by result"),
	)
	if err != nil {
		return err
	}

	g.metrics.receiptLatency, err = meter.Float64Histogram(
		"gateway_receipt_latency_ms",
		metric.WithDescription("Time from submission to mined receipt in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Simulate dry-runs the plan with eth_call against the executor. A
// revert here means the trade would fail on-chain.
func (g *Gateway) Simulate(ctx context.Context, plan domain.ExecutionPlan) error {
	ctx, span := g.tracer.Start(ctx, "gateway.simulate",
		trace.WithAttributes(attribute.String("opportunity", plan.Opportunity.ID)),
	)
	defer span.End()

	binding, callData, err := g.prepare(plan)
	if err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	callCtx := ctx
	if g.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.config.CallTimeout)
		defer cancel()
	}

	executor := binding.Executor
	_, err = g.breakers[plan.Opportunity.Network].Execute(func() ([]byte, error) {
		return binding.Client.CallContract(callCtx, ethereum.CallMsg{
			From: g.from,
			To:   &executor,
			Data: callData,
		}, nil)
	})
	if err != nil {
		g.metrics.simulationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", false)))
		span.SetStatus(otelcodes.Error, err.Error())
		return apperror.New(apperror.CodeSimulationFailed,
			apperror.WithCause(err),
			apperror.WithContext(plan.Opportunity.ID))
	}

	g.metrics.simulationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", true)))
	span.SetStatus(otelcodes.Ok, "simulation passed")
	return nil
}

// Execute signs and submits the plan, then waits for the receipt.
func (g *Gateway) Execute(ctx context.Context, plan domain.ExecutionPlan) (*domain.ExecutionReceipt, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.execute",
		trace.WithAttributes(attribute.String("opportunity", plan.Opportunity.ID)),
	)
	defer span.End()

	if g.key == nil {
		return nil, apperror.New(apperror.CodeExecutionDenied,
			apperror.WithContext("no signing key configured"))
	}

	binding, callData, err := g.prepare(plan)
	if err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	tx, err := g.buildAndSign(ctx, binding, callData)
	if err != nil {
		g.metrics.executionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "build_failed")))
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if err := binding.Client.SendTransaction(ctx, tx); err != nil {
		g.metrics.executionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "send_failed")))
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, apperror.New(apperror.CodeExecutionFailed,
			apperror.WithCause(err),
			apperror.WithContext(plan.Opportunity.ID))
	}

	g.logger.Info(ctx, "transaction submitted",
		"opportunity", plan.Opportunity.ID,
		"tx", tx.Hash().Hex(),
		"network", plan.Opportunity.Network,
	)

	submitted := time.Now()
	receiptCtx, cancel := context.WithTimeout(ctx, g.config.ReceiptTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(receiptCtx, binding.Client, tx)
	if err != nil {
		g.metrics.executionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "receipt_timeout")))
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, apperror.New(apperror.CodeReceiptTimeout,
			apperror.WithCause(err),
			apperror.WithContext(tx.Hash().Hex()))
	}

	g.metrics.receiptLatency.Record(ctx, float64(time.Since(submitted).Milliseconds()))

	result := g.toReceipt(ctx, plan, tx, receipt)
	outcome := "reverted"
	if result.Success {
		outcome = "success"
	}
	g.metrics.executionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", outcome),
	))
	span.SetAttributes(attribute.Bool("success", result.Success))
	span.SetStatus(otelcodes.Ok, "receipt received")

	return result, nil
}

// prepare resolves the network binding and encodes the executor call.
func (g *Gateway) prepare(plan domain.ExecutionPlan) (NetworkBinding, []byte, error) {
	binding, ok := g.bindings[plan.Opportunity.Network]
	if !ok {
		return NetworkBinding{}, nil, apperror.New(apperror.CodeNetworkUnknown,
			apperror.WithContext(plan.Opportunity.Network))
	}

	quote := plan.Opportunity.Pair.Quote
	base := plan.Opportunity.Pair.Base

	rawAmount := plan.AmountIn.Shift(int32(quote.Decimals)).BigInt()
	rawMinReturn := plan.MinReturn.Shift(int32(quote.Decimals)).BigInt()

	callData, err := g.executorABI.Pack("executeArbitrage",
		quote.Address,
		rawAmount,
		plan.Opportunity.BuyVenue.Router,
		plan.Opportunity.SellVenue.Router,
		base.Address,
		rawMinReturn,
	)
	if err != nil {
		return NetworkBinding{}, nil, fmt.Errorf("failed to encode executor call: %w", err)
	}

	return binding, callData, nil
}

func (g *Gateway) buildAndSign(ctx context.Context, binding NetworkBinding, callData []byte) (*types.Transaction, error) {
	nonce, err := binding.Client.PendingNonceAt(ctx, g.from)
	if err != nil {
		return nil, apperror.New(apperror.CodeGatewayRPCError, apperror.WithCause(err))
	}

	gasPrice, err := binding.Client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeGatewayRPCError, apperror.WithCause(err))
	}

	executor := binding.Executor
	gasLimit, err := binding.Client.EstimateGas(ctx, ethereum.CallMsg{
		From: g.from,
		To:   &executor,
		Data: callData,
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeGasEstimationFailed, apperror.WithCause(err))
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &executor,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     callData,
	})

	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(binding.ChainID))
	signed, err := types.SignTx(tx, signer, g.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return signed, nil
}

// toReceipt converts a mined receipt into the domain result. ProfitUSD
// is gas-exclusive (gross minus flash-loan fee); the risk ledger
// charges GasUSD separately, so folding gas in here would count it
// twice. A revert realizes no profit but still burns gas.
func (g *Gateway) toReceipt(ctx context.Context, plan domain.ExecutionPlan, tx *types.Transaction, receipt *types.Receipt) *domain.ExecutionReceipt {
	gasPrice := receipt.EffectiveGasPrice
	if gasPrice == nil {
		gasPrice = tx.GasPrice()
	}
	gasWei := new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), gasPrice)
	gasNative := decimal.NewFromBigInt(gasWei, 0).Div(weiPerEth)

	gasUSD := decimal.Zero
	nativeUSD, err := g.oracle.NativeUSD(ctx, plan.Opportunity.Network)
	if err != nil {
		g.logger.Warn(ctx, "cannot price realized gas", "network", plan.Opportunity.Network, "error", err)
	} else {
		gasUSD = gasNative.Mul(nativeUSD)
	}

	result := &domain.ExecutionReceipt{
		TxHash: tx.Hash().Hex(),
		GasUSD: gasUSD,
	}

	if receipt.Status == types.ReceiptStatusSuccessful {
		result.Success = true
		result.ProfitUSD = plan.Estimate.GrossUSD.Sub(plan.Estimate.FlashLoanFeeUSD)
	} else {
		result.Revert = "transaction reverted"
	}

	return result
}
