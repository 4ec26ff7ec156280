// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Networks  []NetworkConfig `mapstructure:"networks"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Profit    ProfitConfig    `mapstructure:"profit"`
	Safety    SafetyConfig    `mapstructure:"safety"`
	Intel     IntelConfig     `mapstructure:"intel"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	HealthPort  int    `mapstructure:"health_port"`
}

// NetworkConfig holds per-chain node and venue configuration.
type NetworkConfig struct {
	Name           string        `mapstructure:"name"`
	ChainID        uint64        `mapstructure:"chain_id"`
	RPCURL         string        `mapstructure:"rpc_url"`
	Priority       float64       `mapstructure:"priority"`
	FlashLoanPool  string        `mapstructure:"flash_loan_pool"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	Venues         []VenueConfig `mapstructure:"venues"`
	Pairs          []string      `mapstructure:"pairs"`
}

// VenueConfig holds a single DEX router used for quoting and execution.
type VenueConfig struct {
	Name          string `mapstructure:"name"`
	RouterAddress string `mapstructure:"router_address"`
	FeeTierBps    int    `mapstructure:"fee_tier_bps"`
}

// RouterAddressHex returns the router address as common.Address.
func (c *VenueConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// FlashLoanPoolHex returns the flash-loan pool address as common.Address.
func (c *NetworkConfig) FlashLoanPoolHex() common.Address {
	return common.HexToAddress(c.FlashLoanPool)
}

// OracleConfig holds the native-asset USD price oracle configuration.
type OracleConfig struct {
	WebSocketURL   string             `mapstructure:"websocket_url"`
	Symbols        []string           `mapstructure:"symbols"`
	StaleTimeout   time.Duration      `mapstructure:"stale_timeout"`
	FallbackPrices map[string]float64 `mapstructure:"fallback_prices"`
}

// ScannerConfig holds price scanning configuration.
type ScannerConfig struct {
	WorkerPoolSize int           `mapstructure:"worker_pool_size"`
	QuoteTimeout   time.Duration `mapstructure:"quote_timeout"`
	ProbeAmount    float64       `mapstructure:"probe_amount"`
	TradeAmountUSD float64       `mapstructure:"trade_amount_usd"`
}

// ProbeAmountDecimal returns the probe amount as decimal.Decimal.
func (c *ScannerConfig) ProbeAmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.ProbeAmount)
}

// TradeAmountUSDDecimal returns the trade notional as decimal.Decimal.
func (c *ScannerConfig) TradeAmountUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.TradeAmountUSD)
}

// ProfitConfig holds profitability evaluation thresholds.
type ProfitConfig struct {
	MinProfitUSD        float64 `mapstructure:"min_profit_usd"`
	MinProfitPercentage float64 `mapstructure:"min_profit_percentage"`
	FlashLoanFeeBps     float64 `mapstructure:"flash_loan_fee_bps"`
	GasSafetyMultiplier float64 `mapstructure:"gas_safety_multiplier"`
}

// MinProfitUSDDecimal returns the USD floor as decimal.Decimal.
func (c *ProfitConfig) MinProfitUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitUSD)
}

// MinProfitPercentageDecimal returns the percentage floor as decimal.Decimal.
func (c *ProfitConfig) MinProfitPercentageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitPercentage)
}

// FlashLoanFeeBpsDecimal returns the flash-loan fee as decimal basis points.
func (c *ProfitConfig) FlashLoanFeeBpsDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.FlashLoanFeeBps)
}

// SafetyConfig holds token safety assessment configuration. Whitelist
// entries are network-scoped, written as "<chain_id>:<address>".
type SafetyConfig struct {
	Whitelist         []string      `mapstructure:"whitelist"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	HoneypotAPIURL    string        `mapstructure:"honeypot_api_url"`
	DexscreenerAPIURL string        `mapstructure:"dexscreener_api_url"`
	APITimeout        time.Duration `mapstructure:"api_timeout"`
	APIRateLimitRPM   int           `mapstructure:"api_rate_limit_rpm"`
	MinLiquidityUSD   float64       `mapstructure:"min_liquidity_usd"`
	MinVolume24hUSD   float64       `mapstructure:"min_volume_24h_usd"`
	MaxBuyTaxPct      float64       `mapstructure:"max_buy_tax_pct"`
	MaxSellTaxPct     float64       `mapstructure:"max_sell_tax_pct"`
}

// MinLiquidityUSDDecimal returns the liquidity floor as decimal.Decimal.
func (c *SafetyConfig) MinLiquidityUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinLiquidityUSD)
}

// MinVolume24hUSDDecimal returns the 24h volume floor as decimal.Decimal.
func (c *SafetyConfig) MinVolume24hUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinVolume24hUSD)
}

// parseWhitelistEntry splits a "<chain_id>:<address>" whitelist entry.
func parseWhitelistEntry(entry string) (uint64, common.Address, error) {
	chainStr, addrStr, ok := strings.Cut(entry, ":")
	if !ok {
		return 0, common.Address{}, fmt.Errorf("whitelist entry %q is not chain_id:address", entry)
	}
	chainID, err := strconv.ParseUint(chainStr, 10, 64)
	if err != nil || chainID == 0 {
		return 0, common.Address{}, fmt.Errorf("whitelist entry %q has an invalid chain id", entry)
	}
	if !common.IsHexAddress(addrStr) {
		return 0, common.Address{}, fmt.Errorf("whitelist entry %q has an invalid address", entry)
	}
	return chainID, common.HexToAddress(addrStr), nil
}

// WhitelistByChain groups the parsed whitelist entries per chain. Call
// only after Validate.
func (c *SafetyConfig) WhitelistByChain() map[uint64][]common.Address {
	byChain := make(map[uint64][]common.Address)
	for _, entry := range c.Whitelist {
		chainID, addr, err := parseWhitelistEntry(entry)
		if err != nil {
			continue
		}
		byChain[chainID] = append(byChain[chainID], addr)
	}
	return byChain
}

// IntelConfig holds confidence predictor configuration.
type IntelConfig struct {
	Predictor           string  `mapstructure:"predictor"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
}

// ConfidenceThresholdDecimal returns the confidence gate as decimal.Decimal.
func (c *IntelConfig) ConfidenceThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.ConfidenceThreshold)
}

// RiskConfig holds risk manager limits and persistence settings.
type RiskConfig struct {
	MaxDailyGasSpendUSD       float64 `mapstructure:"max_daily_gas_spend_usd"`
	MaxDailyLossUSD           float64 `mapstructure:"max_daily_loss_usd"`
	MaxConsecutiveFailures    int     `mapstructure:"max_consecutive_failures"`
	EmergencyStopLossFloorUSD float64 `mapstructure:"emergency_stop_loss_floor_usd"`
	StatePath                 string  `mapstructure:"state_path"`
}

// MaxDailyGasSpendUSDDecimal returns the daily gas cap as decimal.Decimal.
func (c *RiskConfig) MaxDailyGasSpendUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxDailyGasSpendUSD)
}

// MaxDailyLossUSDDecimal returns the daily loss cap as decimal.Decimal.
func (c *RiskConfig) MaxDailyLossUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxDailyLossUSD)
}

// EmergencyStopLossFloorUSDDecimal returns the emergency floor as decimal.Decimal.
func (c *RiskConfig) EmergencyStopLossFloorUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.EmergencyStopLossFloorUSD)
}

// EngineConfig holds coordinator loop configuration.
type EngineConfig struct {
	CheckInterval   time.Duration `mapstructure:"check_interval"`
	DryRun          bool          `mapstructure:"dry_run"`
	SlippageBps     float64       `mapstructure:"slippage_bps"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
	ReceiptTimeout  time.Duration `mapstructure:"receipt_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	PrivateKey      string        `mapstructure:"private_key"` // hex, env-only; required when dry_run is false
	TUIMode         bool          `mapstructure:"-"`           // Set at runtime, not from config file
}

// SlippageBpsDecimal returns the slippage tolerance as decimal basis points.
func (c *EngineConfig) SlippageBpsDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.SlippageBps)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("FLASHARB")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "FLASHARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "FLASHARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "FLASHARB_LOG_LEVEL", "LOG_LEVEL")

	// Oracle
	v.BindEnv("oracle.websocket_url", "FLASHARB_ORACLE_WS_URL", "BINANCE_WS_URL")
	v.BindEnv("oracle.symbols", "FLASHARB_ORACLE_SYMBOLS", "BINANCE_SYMBOLS")

	// Profit
	v.BindEnv("profit.min_profit_usd", "FLASHARB_MIN_PROFIT_USD")
	v.BindEnv("profit.min_profit_percentage", "FLASHARB_MIN_PROFIT_PCT")
	v.BindEnv("profit.flash_loan_fee_bps", "FLASHARB_FLASH_LOAN_FEE_BPS")

	// Safety
	v.BindEnv("safety.honeypot_api_url", "FLASHARB_HONEYPOT_API_URL")
	v.BindEnv("safety.dexscreener_api_url", "FLASHARB_DEXSCREENER_API_URL")

	// Intel
	v.BindEnv("intel.predictor", "FLASHARB_PREDICTOR")
	v.BindEnv("intel.confidence_threshold", "FLASHARB_CONFIDENCE_THRESHOLD")

	// Risk
	v.BindEnv("risk.max_daily_gas_spend_usd", "FLASHARB_MAX_DAILY_GAS_USD")
	v.BindEnv("risk.max_daily_loss_usd", "FLASHARB_MAX_DAILY_LOSS_USD")
	v.BindEnv("risk.max_consecutive_failures", "FLASHARB_MAX_CONSECUTIVE_FAILURES")
	v.BindEnv("risk.emergency_stop_loss_floor_usd", "FLASHARB_EMERGENCY_FLOOR_USD")
	v.BindEnv("risk.state_path", "FLASHARB_RISK_STATE_PATH")

	// Engine
	v.BindEnv("engine.check_interval", "FLASHARB_CHECK_INTERVAL")
	v.BindEnv("engine.dry_run", "FLASHARB_DRY_RUN")
	v.BindEnv("engine.private_key", "FLASHARB_PRIVATE_KEY")

	// Telemetry
	v.BindEnv("telemetry.enabled", "FLASHARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "FLASHARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.trace_provider", "FLASHARB_TRACE_PROVIDER", "TRACER_PROVIDER")
	v.BindEnv("telemetry.otlp_endpoint", "FLASHARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "flasharb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.health_port", 8081)

	// Oracle defaults
	v.SetDefault("oracle.websocket_url", "wss://stream.binance.com:9443")
	v.SetDefault("oracle.symbols", []string{"ETHUSDT", "BNBUSDT"})
	v.SetDefault("oracle.stale_timeout", "30s")
	v.SetDefault("oracle.fallback_prices", map[string]float64{
		"ETH": 3300,
		"BNB": 600,
	})

	// Scanner defaults
	v.SetDefault("scanner.worker_pool_size", 8)
	v.SetDefault("scanner.quote_timeout", "5s")
	v.SetDefault("scanner.probe_amount", 1.0)
	v.SetDefault("scanner.trade_amount_usd", 1000)

	// Profit defaults
	v.SetDefault("profit.min_profit_usd", 5)
	v.SetDefault("profit.min_profit_percentage", 0.5)
	v.SetDefault("profit.flash_loan_fee_bps", 9) // Aave V3 0.09%
	v.SetDefault("profit.gas_safety_multiplier", 1.2)

	// Safety defaults
	v.SetDefault("safety.cache_ttl", "1h")
	v.SetDefault("safety.honeypot_api_url", "https://api.honeypot.is")
	v.SetDefault("safety.dexscreener_api_url", "https://api.dexscreener.com")
	v.SetDefault("safety.api_timeout", "10s")
	v.SetDefault("safety.api_rate_limit_rpm", 30)
	v.SetDefault("safety.min_liquidity_usd", 50000)
	v.SetDefault("safety.min_volume_24h_usd", 10000)
	v.SetDefault("safety.max_buy_tax_pct", 5)
	v.SetDefault("safety.max_sell_tax_pct", 5)

	// Intel defaults
	v.SetDefault("intel.predictor", "heuristic")
	v.SetDefault("intel.confidence_threshold", 0.6)

	// Risk defaults
	v.SetDefault("risk.max_daily_gas_spend_usd", 50)
	v.SetDefault("risk.max_daily_loss_usd", 25)
	v.SetDefault("risk.max_consecutive_failures", 3)
	v.SetDefault("risk.emergency_stop_loss_floor_usd", -40)
	v.SetDefault("risk.state_path", "risk_state.json")

	// Engine defaults
	v.SetDefault("engine.check_interval", "30s")
	v.SetDefault("engine.dry_run", true)
	v.SetDefault("engine.slippage_bps", 50)
	v.SetDefault("engine.call_timeout", "10s")
	v.SetDefault("engine.receipt_timeout", "2m")
	v.SetDefault("engine.shutdown_timeout", "10s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "flasharb")
	v.SetDefault("telemetry.trace_provider", "EMPTY_PROVIDER")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Networks) == 0 {
		return fmt.Errorf("at least one network is required")
	}
	seen := make(map[string]bool, len(c.Networks))
	for i := range c.Networks {
		n := &c.Networks[i]
		if n.Name == "" {
			return fmt.Errorf("networks[%d].name is required", i)
		}
		if seen[n.Name] {
			return fmt.Errorf("duplicate network name: %s", n.Name)
		}
		seen[n.Name] = true
		if n.RPCURL == "" {
			return fmt.Errorf("networks[%s].rpc_url is required", n.Name)
		}
		if n.ChainID == 0 {
			return fmt.Errorf("networks[%s].chain_id is required", n.Name)
		}
		if n.FlashLoanPool != "" && !common.IsHexAddress(n.FlashLoanPool) {
			return fmt.Errorf("invalid networks[%s].flash_loan_pool: %s", n.Name, n.FlashLoanPool)
		}
		if len(n.Venues) < 2 {
			return fmt.Errorf("networks[%s] needs at least two venues to arbitrage", n.Name)
		}
		for _, venue := range n.Venues {
			if !common.IsHexAddress(venue.RouterAddress) {
				return fmt.Errorf("invalid networks[%s] venue %s router_address: %s", n.Name, venue.Name, venue.RouterAddress)
			}
		}
		if len(n.Pairs) == 0 {
			return fmt.Errorf("networks[%s].pairs cannot be empty", n.Name)
		}
	}
	for _, entry := range c.Safety.Whitelist {
		if _, _, err := parseWhitelistEntry(entry); err != nil {
			return fmt.Errorf("invalid safety.whitelist entry: %w", err)
		}
	}
	if c.Profit.MinProfitUSD < 0 {
		return fmt.Errorf("profit.min_profit_usd cannot be negative")
	}
	if c.Profit.MinProfitPercentage < 0 {
		return fmt.Errorf("profit.min_profit_percentage cannot be negative")
	}
	if c.Profit.FlashLoanFeeBps < 0 {
		return fmt.Errorf("profit.flash_loan_fee_bps cannot be negative")
	}
	if c.Intel.ConfidenceThreshold < 0 || c.Intel.ConfidenceThreshold > 1 {
		return fmt.Errorf("intel.confidence_threshold must be within [0, 1]")
	}
	if c.Intel.Predictor != "" && c.Intel.Predictor != "heuristic" {
		return fmt.Errorf("intel.predictor %q is not a known model", c.Intel.Predictor)
	}
	if c.Risk.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("risk.max_consecutive_failures must be positive")
	}
	if c.Risk.EmergencyStopLossFloorUSD >= 0 {
		return fmt.Errorf("risk.emergency_stop_loss_floor_usd must be negative")
	}
	if c.Risk.StatePath == "" {
		return fmt.Errorf("risk.state_path is required")
	}
	if c.Engine.CheckInterval <= 0 {
		return fmt.Errorf("engine.check_interval must be positive")
	}
	if !c.Engine.DryRun && c.Engine.PrivateKey == "" {
		return fmt.Errorf("engine.private_key is required when dry_run is disabled")
	}
	if c.Scanner.WorkerPoolSize <= 0 {
		return fmt.Errorf("scanner.worker_pool_size must be positive")
	}
	return nil
}
