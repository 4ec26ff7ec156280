// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dpolo-eth/flasharb/internal/asset"
	"github.com/dpolo-eth/flasharb/internal/config"
	"github.com/dpolo-eth/flasharb/internal/di"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient(network string) (*ethclient.Client, error)
	EthClients() map[string]*ethclient.Client
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClients    map[string]*ethclient.Client
	assetRegistry *asset.Registry
	container     di.Container
}

// New creates a new Monolith instance, dialing one RPC client per configured network.
func New(cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	ethClients := make(map[string]*ethclient.Client, len(cfg.Networks))
	for i := range cfg.Networks {
		network := &cfg.Networks[i]
		client, err := ethclient.Dial(network.RPCURL)
		if err != nil {
			for _, c := range ethClients {
				c.Close()
			}
			return nil, fmt.Errorf("dialing %s rpc: %w", network.Name, err)
		}
		ethClients[network.Name] = client
	}

	// Use default asset registry (pre-populated with common assets)
	assetRegistry := asset.DefaultRegistry()

	container := di.NewContainer()

	// Register global services
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("ethClients", ethClients)
	container.Register("assetRegistry", assetRegistry)

	return &app{
		config:        cfg,
		logger:        log,
		ethClients:    ethClients,
		assetRegistry: assetRegistry,
		container:     container,
	}, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) EthClient(network string) (*ethclient.Client, error) {
	client, ok := a.ethClients[network]
	if !ok {
		return nil, fmt.Errorf("unknown network: %s", network)
	}
	return client, nil
}

func (a *app) EthClients() map[string]*ethclient.Client {
	return a.ethClients
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all resources.
func (a *app) Close() error {
	for _, client := range a.ethClients {
		client.Close()
	}
	return nil
}
