// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/dpolo-eth/flasharb/business/market/app"
	"github.com/dpolo-eth/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Scanner   = di.NewToken[*app.Scanner]("market.Scanner")
	Evaluator = di.NewToken[*app.Evaluator]("market.Evaluator")
)

// Private dependency tokens - internal to market module
var (
	VenueQuoter = di.NewToken[app.VenueQuoter]("market:venueQuoter")
	PriceOracle = di.NewToken[app.PriceOracle]("market:priceOracle")
	GasPricer   = di.NewToken[app.GasPricer]("market:gasPricer")
)

// Helper functions for type-safe access
func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetEvaluator(c di.ServiceRegistry) *app.Evaluator {
	return di.GetToken(c, Evaluator)
}

func GetVenueQuoter(c di.ServiceRegistry) app.VenueQuoter {
	return di.GetToken(c, VenueQuoter)
}

func GetPriceOracle(c di.ServiceRegistry) app.PriceOracle {
	return di.GetToken(c, PriceOracle)
}

func GetGasPricer(c di.ServiceRegistry) app.GasPricer {
	return di.GetToken(c, GasPricer)
}
