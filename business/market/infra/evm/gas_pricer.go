package evm

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dpolo-eth/flasharb/business/market/app"
	"github.com/dpolo-eth/flasharb/internal/apperror"
	"github.com/dpolo-eth/flasharb/internal/cache"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

// Ensure GasPricer implements the port.
var _ app.GasPricer = (*GasPricer)(nil)

const gasPriceTTL = 15 * time.Second

// GasPricer reads the suggested gas price from each network's node,
// with a short cache so tight scan loops don't hammer the RPC.
type GasPricer struct {
	clients map[string]*ethclient.Client
	prices  *cache.Cache[string, *big.Int]
	logger  logger.LoggerInterface
}

// NewGasPricer creates a GasPricer over the given per-network RPC clients.
func NewGasPricer(clients map[string]*ethclient.Client, log logger.LoggerInterface) *GasPricer {
	return &GasPricer{
		clients: clients,
		prices:  cache.New[string, *big.Int](time.Minute),
		logger:  log,
	}
}

// GasPriceWei returns the current suggested gas price for the network.
func (g *GasPricer) GasPriceWei(ctx context.Context, network string) (*big.Int, error) {
	if cached, ok := g.prices.Get(ctx, network); ok {
		return cached, nil
	}

	client, ok := g.clients[network]
	if !ok {
		return nil, apperror.New(apperror.CodeNetworkUnknown,
			apperror.WithContext(network))
	}

	price, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeGatewayRPCError,
			apperror.WithCause(err),
			apperror.WithContext("suggest gas price on "+network))
	}

	g.prices.Set(ctx, network, price, gasPriceTTL)

	g.logger.Debug(ctx, "gas price refreshed",
		"network", network,
		"gwei", new(big.Int).Div(price, big.NewInt(1_000_000_000)).String(),
	)

	return price, nil
}

// Close releases the cache janitor.
func (g *GasPricer) Close() {
	g.prices.Close()
}
