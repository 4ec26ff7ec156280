// Package risk implements the risk management bounded context.
package risk

import (
	"context"

	"github.com/dpolo-eth/flasharb/business/risk/app"
	riskDI "github.com/dpolo-eth/flasharb/business/risk/di"
	"github.com/dpolo-eth/flasharb/business/risk/infra/filestore"
	"github.com/dpolo-eth/flasharb/internal/config"
	"github.com/dpolo-eth/flasharb/internal/di"
	"github.com/dpolo-eth/flasharb/internal/logger"
	"github.com/dpolo-eth/flasharb/internal/monolith"
)

// Module implements the risk bounded context.
type Module struct{}

// RegisterServices registers all risk services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register StateStore - private dependency
	di.RegisterToken(c, riskDI.StateStore, func(sr di.ServiceRegistry) app.StateStore {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return filestore.NewStore(cfg.Risk.StatePath, log)
	})

	// Register RiskManager (public - exposed to other modules)
	di.RegisterToken(c, riskDI.RiskManager, func(sr di.ServiceRegistry) *app.RiskManager {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		manager, err := app.NewRiskManager(context.Background(), app.Limits{
			MaxDailyGasSpendUSD:       cfg.Risk.MaxDailyGasSpendUSDDecimal(),
			MaxDailyLossUSD:           cfg.Risk.MaxDailyLossUSDDecimal(),
			MaxConsecutiveFailures:    cfg.Risk.MaxConsecutiveFailures,
			EmergencyStopLossFloorUSD: cfg.Risk.EmergencyStopLossFloorUSDDecimal(),
		}, riskDI.GetStateStore(sr), log)
		if err != nil {
			panic("failed to create risk manager: " + err.Error())
		}
		return manager
	})

	return nil
}

// Startup restores the persisted risk state.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	manager := riskDI.GetRiskManager(mono.Services())
	snap := manager.Snapshot()

	mono.Logger().Info(ctx, "risk module started",
		"status", string(snap.Status),
		"day", snap.Day,
	)
	return nil
}
