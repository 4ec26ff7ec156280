// Package engine implements the execution bounded context: the
// risk-gated trading loop that turns detected opportunities into
// on-chain flash-loan trades.
package engine

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dpolo-eth/flasharb/business/engine/app"
	engineDI "github.com/dpolo-eth/flasharb/business/engine/di"
	"github.com/dpolo-eth/flasharb/business/engine/infra"
	"github.com/dpolo-eth/flasharb/business/engine/infra/ethereum"
	intelDI "github.com/dpolo-eth/flasharb/business/intel/di"
	marketDI "github.com/dpolo-eth/flasharb/business/market/di"
	riskDI "github.com/dpolo-eth/flasharb/business/risk/di"
	safetyDI "github.com/dpolo-eth/flasharb/business/safety/di"
	"github.com/dpolo-eth/flasharb/internal/config"
	"github.com/dpolo-eth/flasharb/internal/di"
	"github.com/dpolo-eth/flasharb/internal/logger"
	"github.com/dpolo-eth/flasharb/internal/monolith"
)

// Module implements the engine bounded context.
type Module struct{}

// RegisterServices registers all engine services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register NetworkGateway - private dependency
	di.RegisterToken(c, engineDI.NetworkGateway, func(sr di.ServiceRegistry) app.NetworkGateway {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		clients := sr.Get("ethClients").(map[string]*ethclient.Client)

		bindings := make(map[string]ethereum.NetworkBinding, len(cfg.Networks))
		for _, network := range cfg.Networks {
			client, ok := clients[network.Name]
			if !ok {
				continue
			}
			bindings[network.Name] = ethereum.NetworkBinding{
				Client:   client,
				ChainID:  network.ChainID,
				Executor: network.FlashLoanPoolHex(),
			}
		}

		gateway, err := ethereum.NewGateway(bindings, marketDI.GetPriceOracle(sr), ethereum.GatewayConfig{
			PrivateKeyHex:  cfg.Engine.PrivateKey,
			CallTimeout:    cfg.Engine.CallTimeout,
			ReceiptTimeout: cfg.Engine.ReceiptTimeout,
		}, log)
		if err != nil {
			panic("failed to create network gateway: " + err.Error())
		}
		return gateway
	})

	// Register Reporter - private dependency
	di.RegisterToken(c, engineDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Engine.TUIMode {
			return infra.NewTUIReporter(riskDI.GetRiskManager(sr))
		}
		return infra.NewConsoleReporter()
	})

	// Register Coordinator (public - exposed to other modules)
	di.RegisterToken(c, engineDI.Coordinator, func(sr di.ServiceRegistry) *app.Coordinator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		coordinator, err := app.NewCoordinator(
			marketDI.GetScanner(sr),
			marketDI.GetEvaluator(sr),
			safetyDI.GetFilter(sr),
			intelDI.GetPredictor(sr),
			riskDI.GetRiskManager(sr),
			engineDI.GetNetworkGateway(sr),
			engineDI.GetReporter(sr),
			app.CoordinatorConfig{
				CheckInterval:       cfg.Engine.CheckInterval,
				DryRun:              cfg.Engine.DryRun,
				SlippageBps:         cfg.Engine.SlippageBpsDecimal(),
				ConfidenceThreshold: cfg.Intel.ConfidenceThresholdDecimal(),
			},
			log,
		)
		if err != nil {
			panic("failed to create coordinator: " + err.Error())
		}
		return coordinator
	})

	return nil
}

// Startup launches the trading loop.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	coordinator := engineDI.GetCoordinator(mono.Services())
	if err := coordinator.Start(ctx); err != nil {
		return err
	}

	mono.Logger().Info(ctx, "engine module started")
	return nil
}
