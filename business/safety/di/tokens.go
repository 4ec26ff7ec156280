// Package di contains dependency injection tokens for the safety context.
package di

import (
	"github.com/dpolo-eth/flasharb/business/safety/app"
	"github.com/dpolo-eth/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Filter = di.NewToken[*app.Filter]("safety.Filter")
)

// Private dependency tokens - internal to safety module
var (
	ChainInspector   = di.NewToken[app.ChainInspector]("safety:chainInspector")
	HoneypotChecker  = di.NewToken[app.HoneypotChecker]("safety:honeypotChecker")
	LiquidityChecker = di.NewToken[app.LiquidityChecker]("safety:liquidityChecker")
)

// Helper functions for type-safe access
func GetFilter(c di.ServiceRegistry) *app.Filter {
	return di.GetToken(c, Filter)
}

func GetChainInspector(c di.ServiceRegistry) app.ChainInspector {
	return di.GetToken(c, ChainInspector)
}

func GetHoneypotChecker(c di.ServiceRegistry) app.HoneypotChecker {
	return di.GetToken(c, HoneypotChecker)
}

func GetLiquidityChecker(c di.ServiceRegistry) app.LiquidityChecker {
	return di.GetToken(c, LiquidityChecker)
}
