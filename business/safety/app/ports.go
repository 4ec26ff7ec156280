// Package app contains application services and port definitions for the safety context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dpolo-eth/flasharb/business/safety/domain"
)

// ChainInspector checks a token contract directly on chain.
type ChainInspector interface {
	Inspect(ctx context.Context, chainID uint64, token common.Address) (*domain.ContractReport, error)
}

// HoneypotChecker simulates buys and sells against an external API.
type HoneypotChecker interface {
	Check(ctx context.Context, chainID uint64, token common.Address) (*domain.HoneypotReport, error)
}

// LiquidityChecker aggregates DEX liquidity from an external API.
type LiquidityChecker interface {
	Liquidity(ctx context.Context, token common.Address) (*domain.LiquidityReport, error)
}
