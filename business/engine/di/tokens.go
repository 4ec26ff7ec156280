// Package di contains dependency injection tokens for the engine context.
package di

import (
	"github.com/dpolo-eth/flasharb/business/engine/app"
	"github.com/dpolo-eth/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Coordinator = di.NewToken[*app.Coordinator]("engine.Coordinator")
)

// Private dependency tokens - internal to engine module
var (
	NetworkGateway = di.NewToken[app.NetworkGateway]("engine:networkGateway")
	Reporter       = di.NewToken[app.Reporter]("engine:reporter")
)

// Helper functions for type-safe access
func GetCoordinator(c di.ServiceRegistry) *app.Coordinator {
	return di.GetToken(c, Coordinator)
}

func GetNetworkGateway(c di.ServiceRegistry) app.NetworkGateway {
	return di.GetToken(c, NetworkGateway)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
