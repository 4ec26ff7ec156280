// Package di contains dependency injection tokens for the risk context.
package di

import (
	"github.com/dpolo-eth/flasharb/business/risk/app"
	"github.com/dpolo-eth/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	RiskManager = di.NewToken[*app.RiskManager]("risk.RiskManager")
)

// Private dependency tokens - internal to risk module
var (
	StateStore = di.NewToken[app.StateStore]("risk:stateStore")
)

// Helper functions for type-safe access
func GetRiskManager(c di.ServiceRegistry) *app.RiskManager {
	return di.GetToken(c, RiskManager)
}

func GetStateStore(c di.ServiceRegistry) app.StateStore {
	return di.GetToken(c, StateStore)
}
