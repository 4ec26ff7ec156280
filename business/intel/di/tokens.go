// Package di contains dependency injection tokens for the intel context.
package di

import (
	"github.com/dpolo-eth/flasharb/business/intel/app"
	"github.com/dpolo-eth/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Predictor = di.NewToken[app.Predictor]("intel.Predictor")
)

// Helper functions for type-safe access
func GetPredictor(c di.ServiceRegistry) app.Predictor {
	return di.GetToken(c, Predictor)
}
