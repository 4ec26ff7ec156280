// Package app contains application services and port definitions for the market context.
package app

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/market/domain"
)

// VenueQuoter answers exact-input swap quotes against a DEX router.
type VenueQuoter interface {
	// AmountOut returns how much tokenOut an exact amountIn of tokenIn buys
	// on the venue, plus the router's gas estimate for the swap.
	AmountOut(ctx context.Context, venue domain.Venue, tokenIn, tokenOut domain.Token, amountIn decimal.Decimal) (decimal.Decimal, uint64, error)
}

// PriceOracle supplies the USD price of a network's native asset,
// used to convert gas costs into USD.
type PriceOracle interface {
	NativeUSD(ctx context.Context, network string) (decimal.Decimal, error)
}

// GasPricer supplies the current gas price for a network.
type GasPricer interface {
	GasPriceWei(ctx context.Context, network string) (*big.Int, error)
}
