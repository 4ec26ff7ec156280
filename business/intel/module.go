// Package intel implements the confidence prediction bounded context.
package intel

import (
	"context"
	"fmt"

	"github.com/dpolo-eth/flasharb/business/intel/app"
	intelDI "github.com/dpolo-eth/flasharb/business/intel/di"
	"github.com/dpolo-eth/flasharb/business/intel/infra/heuristic"
	"github.com/dpolo-eth/flasharb/internal/config"
	"github.com/dpolo-eth/flasharb/internal/di"
	"github.com/dpolo-eth/flasharb/internal/logger"
	"github.com/dpolo-eth/flasharb/internal/monolith"
)

// Module implements the intel bounded context.
type Module struct{}

// RegisterServices registers the configured predictor with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, intelDI.Predictor, func(sr di.ServiceRegistry) app.Predictor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		switch cfg.Intel.Predictor {
		case "", "heuristic":
			return heuristic.New(log)
		default:
			panic(fmt.Sprintf("unknown predictor: %s", cfg.Intel.Predictor))
		}
	})

	return nil
}

// Startup initializes the intel module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	predictor := intelDI.GetPredictor(mono.Services())
	mono.Logger().Info(ctx, "intel module started", "model", predictor.Name())
	return nil
}
