// Package safety implements the token safety bounded context.
package safety

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/safety/app"
	safetyDI "github.com/dpolo-eth/flasharb/business/safety/di"
	"github.com/dpolo-eth/flasharb/business/safety/infra/chain"
	"github.com/dpolo-eth/flasharb/business/safety/infra/dexscreener"
	"github.com/dpolo-eth/flasharb/business/safety/infra/honeypotis"
	"github.com/dpolo-eth/flasharb/internal/config"
	"github.com/dpolo-eth/flasharb/internal/di"
	"github.com/dpolo-eth/flasharb/internal/logger"
	"github.com/dpolo-eth/flasharb/internal/monolith"
)

// Module implements the safety bounded context.
type Module struct{}

// RegisterServices registers all safety services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register ChainInspector - private dependency
	di.RegisterToken(c, safetyDI.ChainInspector, func(sr di.ServiceRegistry) app.ChainInspector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		clients := sr.Get("ethClients").(map[string]*ethclient.Client)

		byChain := make(map[uint64]*ethclient.Client, len(clients))
		for i := range cfg.Networks {
			network := &cfg.Networks[i]
			if client, ok := clients[network.Name]; ok {
				byChain[network.ChainID] = client
			}
		}

		inspector, err := chain.NewInspector(byChain, log)
		if err != nil {
			panic("failed to create chain inspector: " + err.Error())
		}
		return inspector
	})

	// Register HoneypotChecker - private dependency
	di.RegisterToken(c, safetyDI.HoneypotChecker, func(sr di.ServiceRegistry) app.HoneypotChecker {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := honeypotis.NewClient(honeypotis.ClientConfig{
			BaseURL:        cfg.Safety.HoneypotAPIURL,
			Timeout:        cfg.Safety.APITimeout,
			RequestsPerMin: cfg.Safety.APIRateLimitRPM,
		}, log)
		if err != nil {
			panic("failed to create honeypot client: " + err.Error())
		}
		return client
	})

	// Register LiquidityChecker - private dependency
	di.RegisterToken(c, safetyDI.LiquidityChecker, func(sr di.ServiceRegistry) app.LiquidityChecker {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := dexscreener.NewClient(dexscreener.ClientConfig{
			BaseURL:        cfg.Safety.DexscreenerAPIURL,
			Timeout:        cfg.Safety.APITimeout,
			RequestsPerMin: cfg.Safety.APIRateLimitRPM,
		}, log)
		if err != nil {
			panic("failed to create dexscreener client: " + err.Error())
		}
		return client
	})

	// Register Filter (public - exposed to other modules)
	di.RegisterToken(c, safetyDI.Filter, func(sr di.ServiceRegistry) *app.Filter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		filter, err := app.NewFilter(app.FilterConfig{
			Whitelist:       cfg.Safety.WhitelistByChain(),
			CacheTTL:        cfg.Safety.CacheTTL,
			MinLiquidityUSD: cfg.Safety.MinLiquidityUSDDecimal(),
			MinVolume24hUSD: cfg.Safety.MinVolume24hUSDDecimal(),
			MaxBuyTaxPct:    decimal.NewFromFloat(cfg.Safety.MaxBuyTaxPct),
			MaxSellTaxPct:   decimal.NewFromFloat(cfg.Safety.MaxSellTaxPct),
		},
			safetyDI.GetChainInspector(sr),
			safetyDI.GetHoneypotChecker(sr),
			safetyDI.GetLiquidityChecker(sr),
			log,
		)
		if err != nil {
			panic("failed to create safety filter: " + err.Error())
		}
		return filter
	})

	return nil
}

// Startup initializes the safety module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	// Force construction so misconfiguration fails at startup, not on
	// the first assessment.
	safetyDI.GetFilter(mono.Services())

	mono.Logger().Info(ctx, "safety module started")
	return nil
}
