// Package main is the entry point for the flash-loan arbitrage engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/dpolo-eth/flasharb/business/engine"
	engineDI "github.com/dpolo-eth/flasharb/business/engine/di"
	"github.com/dpolo-eth/flasharb/business/intel"
	"github.com/dpolo-eth/flasharb/business/market"
	"github.com/dpolo-eth/flasharb/business/risk"
	riskDI "github.com/dpolo-eth/flasharb/business/risk/di"
	riskDomain "github.com/dpolo-eth/flasharb/business/risk/domain"
	"github.com/dpolo-eth/flasharb/business/safety"
	"github.com/dpolo-eth/flasharb/internal/apm"
	"github.com/dpolo-eth/flasharb/internal/config"
	"github.com/dpolo-eth/flasharb/internal/health"
	"github.com/dpolo-eth/flasharb/internal/logger"
	"github.com/dpolo-eth/flasharb/internal/metrics"
	"github.com/dpolo-eth/flasharb/internal/monolith"
	"github.com/dpolo-eth/flasharb/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("flasharb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set TUI mode in config so modules know
	cfg.Engine.TUIMode = tuiMode

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	var log *logger.Logger
	if tuiMode {
		// In TUI mode, suppress logs (discard output)
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting flash arbitrage engine",
			"version", version,
			"environment", cfg.App.Environment,
			"dry_run", cfg.Engine.DryRun,
		)
	}

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.Provider(cfg.Telemetry.TraceProvider), log))
		log.Info(ctx, "tracing initialized", "provider", cfg.Telemetry.TraceProvider)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Health check server
	healthServer := health.NewServer(cfg.App.HealthPort, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.App.HealthPort)
	}
	defer healthServer.Stop(ctx)

	// Create monolith (application container); dials all network RPCs
	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&market.Module{}, // Quotes, oracle, gas - everything downstream needs it
		&safety.Module{}, // Token vetting
		&intel.Module{},  // Confidence scoring
		&risk.Module{},   // State restore before the engine can gate on it
		&engine.Module{}, // Depends on all of the above
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	healthServer.RegisterCheck("networks", func(ctx context.Context) (bool, string) {
		if len(mono.EthClients()) == 0 {
			return false, "no network clients connected"
		}
		return true, ""
	})

	// Risk status feeds the liveness endpoint: an emergency-stopped
	// engine is alive but should page
	healthServer.RegisterCheck("risk", func(ctx context.Context) (bool, string) {
		manager := riskDI.GetRiskManager(mono.Services())
		if snap := manager.Snapshot(); snap.Status == riskDomain.StatusEmergencyStopped {
			return false, "emergency stopped"
		}
		return true, ""
	})

	if tuiMode {
		ui.RiskLimits = ui.RiskLimitsInfo{
			DailyGasCapUSD:    cfg.Risk.MaxDailyGasSpendUSDDecimal(),
			DailyLossCapUSD:   cfg.Risk.MaxDailyLossUSDDecimal(),
			MaxFailures:       cfg.Risk.MaxConsecutiveFailures,
			EmergencyFloorUSD: cfg.Risk.EmergencyStopLossFloorUSDDecimal(),
		}

		startFunc := func() error {
			ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
			ui.Send(ui.StartupMsg{Step: "networks", Status: "connecting"})
			if err := mono.StartModules(ctx, modules...); err != nil {
				return fmt.Errorf("failed to start modules: %w", err)
			}
			ui.Send(ui.StartupMsg{Step: "networks", Status: "connected"})
			ui.Send(ui.StartupMsg{Step: "oracle", Status: "connected"})
			ui.Send(ui.StartupMsg{Step: "risk", Status: "done"})
			ui.Send(ui.RiskMsg{State: riskDI.GetRiskManager(mono.Services()).Snapshot()})
			return nil
		}
		stopFunc := func() {
			coordinator := engineDI.GetCoordinator(mono.Services())
			if err := coordinator.Stop(context.Background()); err != nil {
				ui.Send(ui.ErrorMsg{Error: err})
			}
		}
		return runTUI(ctx, startFunc, stopFunc)
	}

	// CLI mode: start modules synchronously; the engine module launches
	// the trading loop
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	return runCLI(ctx, mono, log)
}

func runCLI(ctx context.Context, mono monolith.Monolith, log *logger.Logger) error {
	log.Info(ctx, "all modules started, trading loop running")

	<-ctx.Done()

	log.Info(ctx, "shutting down")

	coordinator := engineDI.GetCoordinator(mono.Services())
	if err := coordinator.Stop(context.Background()); err != nil {
		log.Error(ctx, "error stopping coordinator", "error", err)
	}

	return nil
}

func runTUI(ctx context.Context, startFunc func() error, stopFunc func()) error {
	// Channel to receive StartModulesMsg signal
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	// Create and start the TUI program IMMEDIATELY (shows welcome screen)
	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	// Run engine logic in background (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		// Wait for welcome screen to complete
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		if err := startFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		<-ctx.Done()

		stopFunc()
		errCh <- nil
	}()

	// Run TUI (blocking) - shows immediately with welcome screen
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
