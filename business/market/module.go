// Package market implements the market bounded context: price scanning
// across DEX venues and profitability evaluation.
package market

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/market/app"
	marketDI "github.com/dpolo-eth/flasharb/business/market/di"
	"github.com/dpolo-eth/flasharb/business/market/domain"
	"github.com/dpolo-eth/flasharb/business/market/infra/binance"
	"github.com/dpolo-eth/flasharb/business/market/infra/evm"
	"github.com/dpolo-eth/flasharb/internal/asset"
	"github.com/dpolo-eth/flasharb/internal/config"
	"github.com/dpolo-eth/flasharb/internal/di"
	"github.com/dpolo-eth/flasharb/internal/logger"
	"github.com/dpolo-eth/flasharb/internal/monolith"
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register VenueQuoter (EVM routers) - private dependency
	di.RegisterToken(c, marketDI.VenueQuoter, func(sr di.ServiceRegistry) app.VenueQuoter {
		log := sr.Get("logger").(logger.LoggerInterface)
		clients := sr.Get("ethClients").(map[string]*ethclient.Client)

		quoter, err := evm.NewQuoter(clients, log)
		if err != nil {
			panic("failed to create evm quoter: " + err.Error())
		}
		return quoter
	})

	// Register PriceOracle (Binance stream) - private dependency
	di.RegisterToken(c, marketDI.PriceOracle, func(sr di.ServiceRegistry) app.PriceOracle {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		fallbacks := make(map[string]decimal.Decimal, len(cfg.Oracle.FallbackPrices))
		for sym, price := range cfg.Oracle.FallbackPrices {
			fallbacks[sym] = decimal.NewFromFloat(price)
		}

		oracle, err := binance.NewOracle(binance.OracleConfig{
			WebSocketURL:   cfg.Oracle.WebSocketURL,
			Symbols:        cfg.Oracle.Symbols,
			StaleTimeout:   cfg.Oracle.StaleTimeout,
			FallbackPrices: fallbacks,
		}, log)
		if err != nil {
			panic("failed to create binance oracle: " + err.Error())
		}
		return oracle
	})

	// Register GasPricer - private dependency
	di.RegisterToken(c, marketDI.GasPricer, func(sr di.ServiceRegistry) app.GasPricer {
		log := sr.Get("logger").(logger.LoggerInterface)
		clients := sr.Get("ethClients").(map[string]*ethclient.Client)
		return evm.NewGasPricer(clients, log)
	})

	// Register Scanner (public - exposed to other modules)
	di.RegisterToken(c, marketDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		plans, err := buildPlans(cfg, registry)
		if err != nil {
			panic("failed to build scan plans: " + err.Error())
		}

		scanner, err := app.NewScanner(
			marketDI.GetVenueQuoter(sr),
			plans,
			app.ScannerConfig{
				ProbeAmount:  cfg.Scanner.ProbeAmountDecimal(),
				TradeAmount:  cfg.Scanner.TradeAmountUSDDecimal(),
				QuoteTimeout: cfg.Scanner.QuoteTimeout,
				Workers:      cfg.Scanner.WorkerPoolSize,
			},
			log,
		)
		if err != nil {
			panic("failed to create scanner: " + err.Error())
		}
		return scanner
	})

	// Register Evaluator (public - exposed to other modules)
	di.RegisterToken(c, marketDI.Evaluator, func(sr di.ServiceRegistry) *app.Evaluator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewEvaluator(app.EvaluatorConfig{
			MinProfitUSD:        cfg.Profit.MinProfitUSDDecimal(),
			MinProfitPercentage: cfg.Profit.MinProfitPercentageDecimal(),
			FlashLoanFeeBps:     cfg.Profit.FlashLoanFeeBpsDecimal(),
			GasSafetyMultiplier: decimal.NewFromFloat(cfg.Profit.GasSafetyMultiplier),
			TradeAmountUSD:      cfg.Scanner.TradeAmountUSDDecimal(),
		}, marketDI.GetPriceOracle(sr), marketDI.GetGasPricer(sr), log)
	})

	return nil
}

// Startup connects the price oracle stream.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	oracle := marketDI.GetPriceOracle(mono.Services())
	if starter, ok := oracle.(interface{ Start(context.Context) error }); ok {
		if err := starter.Start(ctx); err != nil {
			return err
		}
	}

	log.Info(ctx, "market module started")
	return nil
}

// buildPlans turns the network config into per-network scan schedules,
// resolving pair symbols against the asset registry.
func buildPlans(cfg *config.Config, registry *asset.Registry) ([]app.NetworkPlan, error) {
	plans := make([]app.NetworkPlan, 0, len(cfg.Networks))

	for i := range cfg.Networks {
		network := &cfg.Networks[i]

		plan := app.NetworkPlan{
			Network:  network.Name,
			Priority: decimal.NewFromFloat(network.Priority),
		}

		for _, venue := range network.Venues {
			plan.Venues = append(plan.Venues, domain.Venue{
				Name:       venue.Name,
				Network:    network.Name,
				Router:     venue.RouterAddressHex(),
				FeeTierBps: venue.FeeTierBps,
			})
		}

		for _, pairStr := range network.Pairs {
			baseSym, quoteSym, err := domain.ParsePairSymbols(pairStr)
			if err != nil {
				return nil, err
			}

			base, ok := registry.GetBySymbolAndChain(baseSym, network.ChainID)
			if !ok {
				return nil, fmt.Errorf("unknown token %s on %s", baseSym, network.Name)
			}
			quote, ok := registry.GetBySymbolAndChain(quoteSym, network.ChainID)
			if !ok {
				return nil, fmt.Errorf("unknown token %s on %s", quoteSym, network.Name)
			}

			plan.Pairs = append(plan.Pairs, domain.Pair{
				Base:  toToken(base),
				Quote: toToken(quote),
			})
		}

		plans = append(plans, plan)
	}

	return plans, nil
}

func toToken(a *asset.Asset) domain.Token {
	return domain.Token{
		Address:  a.Address(),
		Symbol:   a.Symbol(),
		Decimals: a.Decimals(),
		ChainID:  a.ChainID(),
	}
}
