package app

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dpolo-eth/flasharb/business/risk/domain"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

const managerMeterName = "risk.manager"

const dayFormat = "2006-01-02"

// Limits holds the risk caps. EmergencyStopLossFloorUSD is negative:
// trading halts for good once lifetime net PnL falls to or below it.
type Limits struct {
	MaxDailyGasSpendUSD       decimal.Decimal
	MaxDailyLossUSD           decimal.Decimal
	MaxConsecutiveFailures    int
	EmergencyStopLossFloorUSD decimal.Decimal
}

// managerMetrics holds OTEL metric instruments.
type managerMetrics struct {
	denialsTotal  metric.Int64Counter
	tradesTotal   metric.Int64Counter
	circuitOpens  metric.Int64Counter
	emergencyHits metric.Int64Counter
}

// RiskManager owns the risk state machine. Every mutation is persisted
// through the store before the call returns. The daily counters roll
// over lazily at the first call on a new UTC day; the rollover closes
// an open circuit but never clears an emergency stop.
type RiskManager struct {
	limits Limits
	store  StateStore

	mu    sync.Mutex
	state *domain.RiskState

	now func() time.Time

	logger  logger.LoggerInterface
	metrics *managerMetrics
}

// NewRiskManager creates a RiskManager, restoring persisted state when
// the store has any.
func NewRiskManager(ctx context.Context, limits Limits, store StateStore, log logger.LoggerInterface) (*RiskManager, error) {
	m := &RiskManager{
		limits: limits,
		store:  store,
		now:    time.Now,
		logger: log,
	}

	if err := m.initMetrics(); err != nil {
		return nil, err
	}

	state, err := store.Load(ctx)
	if err != nil {
		// A broken state file must not keep the bot from booting; the
		// in-memory ledger starts clean and the next save overwrites it.
		log.Error(ctx, "failed to restore risk state, starting fresh", "error", err)
		state = nil
	}
	if state == nil {
		state = domain.NewRiskState(m.today())
		if err := store.Save(ctx, state); err != nil {
			log.Error(ctx, "failed to persist fresh risk state", "error", err)
		}
		log.Info(ctx, "risk state initialized", "day", state.Day)
	} else {
		log.Info(ctx, "risk state restored",
			"status", string(state.Status),
			"day", state.Day,
			"lifetime_net_usd", state.LifetimeNetUSD().StringFixed(2),
		)
	}
	m.state = state

	return m, nil
}

func (m *RiskManager) initMetrics() error {
	meter := otel.Meter(managerMeterName)
	var err error

	m.metrics = &managerMetrics{}

	m.metrics.denialsTotal, err = meter.Int64Counter(
		"risk_denials_total",
		metric.WithDescription("Execution requests denied by the risk manager"),
	)
	if err != nil {
		return err
	}

	m.metrics.tradesTotal, err = meter.Int64Counter(
		"risk_trades_recorded_total",
		metric.WithDescription("Trade results recorded"),
	)
	if err != nil {
		return err
	}

	m.metrics.circuitOpens, err = meter.Int64Counter(
		"risk_circuit_opens_total",
		metric.WithDescription("Circuit breaker activations"),
	)
	if err != nil {
		return err
	}

	m.metrics.emergencyHits, err = meter.Int64Counter(
		"risk_emergency_stops_total",
		metric.WithDescription("Emergency stop activations"),
	)
	if err != nil {
		return err
	}

	return nil
}

func (m *RiskManager) today() string {
	return m.now().UTC().Format(dayFormat)
}

// rolloverLocked resets daily counters when the UTC day has changed.
// Caller holds m.mu.
func (m *RiskManager) rolloverLocked(ctx context.Context) {
	day := m.today()
	if m.state.Day == day {
		return
	}

	before := m.state.Status
	m.state.Rollover(day)

	m.logger.Info(ctx, "daily risk counters reset",
		"day", day,
		"status_before", string(before),
		"status_after", string(m.state.Status),
	)
}

// CanExecute reports whether a trade with the given estimated gas cost
// may be attempted right now. The checks run in severity order; the
// first violated cap denies.
func (m *RiskManager) CanExecute(ctx context.Context, estGasUSD decimal.Decimal) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rolloverLocked(ctx)

	deny := func(reason string) (bool, string) {
		m.metrics.denialsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("reason", reason),
		))
		return false, reason
	}

	if m.state.Status == domain.StatusEmergencyStopped {
		return deny("emergency stop active")
	}
	if m.state.Status == domain.StatusCircuitOpen {
		return deny("circuit breaker open")
	}
	if m.state.DailyGasSpendUSD.Add(estGasUSD).GreaterThan(m.limits.MaxDailyGasSpendUSD) {
		return deny("daily gas budget exhausted")
	}
	dailyNet := m.state.DailyProfitUSD.Sub(m.state.DailyLossUSD).Sub(m.state.DailyGasSpendUSD)
	if dailyNet.LessThanOrEqual(m.limits.MaxDailyLossUSD.Neg()) {
		return deny("daily loss limit reached")
	}

	return true, ""
}

// RecordTradeResult folds an execution attempt into the state: gas is
// always charged, successes clear the failure streak, failures extend
// it and open the circuit exactly at the configured maximum. After any
// result, lifetime net PnL at or below the emergency floor latches the
// emergency stop. The updated state is persisted before returning.
func (m *RiskManager) RecordTradeResult(ctx context.Context, result domain.TradeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rolloverLocked(ctx)

	m.state.DailyGasSpendUSD = m.state.DailyGasSpendUSD.Add(result.GasUSD)
	m.state.TotalGasSpendUSD = m.state.TotalGasSpendUSD.Add(result.GasUSD)
	m.state.TradesExecuted++

	if result.Success {
		m.state.DailyProfitUSD = m.state.DailyProfitUSD.Add(result.ProfitUSD)
		m.state.TotalProfitUSD = m.state.TotalProfitUSD.Add(result.ProfitUSD)
		m.state.DailyTradesOK++
		m.state.ConsecutiveFailures = 0
	} else {
		loss := result.ProfitUSD.Abs()
		m.state.DailyLossUSD = m.state.DailyLossUSD.Add(loss)
		m.state.TotalLossUSD = m.state.TotalLossUSD.Add(loss)
		m.state.DailyTradesFailed++
		m.state.ConsecutiveFailures++

		if m.state.Status == domain.StatusNormal &&
			m.state.ConsecutiveFailures >= m.limits.MaxConsecutiveFailures {
			m.state.Status = domain.StatusCircuitOpen
			m.metrics.circuitOpens.Add(ctx, 1)
			m.logger.Warn(ctx, "circuit breaker opened",
				"consecutive_failures", m.state.ConsecutiveFailures,
			)
		}
	}

	// The emergency stop latches: once entered, only a manual reset
	// leaves it.
	if m.state.Status != domain.StatusEmergencyStopped &&
		m.state.LifetimeNetUSD().LessThanOrEqual(m.limits.EmergencyStopLossFloorUSD) {
		m.state.Status = domain.StatusEmergencyStopped
		m.metrics.emergencyHits.Add(ctx, 1)
		m.logger.Error(ctx, "emergency stop triggered",
			"lifetime_net_usd", m.state.LifetimeNetUSD().StringFixed(2),
			"floor_usd", m.limits.EmergencyStopLossFloorUSD.StringFixed(2),
		)
	}

	m.metrics.tradesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", result.Success),
	))

	m.logger.Info(ctx, "trade result recorded",
		"success", result.Success,
		"profit_usd", result.ProfitUSD.StringFixed(2),
		"gas_usd", result.GasUSD.StringFixed(2),
		"status", string(m.state.Status),
		"consecutive_failures", m.state.ConsecutiveFailures,
	)

	return m.store.Save(ctx, m.state)
}

// ResetCircuit manually closes an open circuit breaker. It does not
// touch an emergency stop.
func (m *RiskManager) ResetCircuit(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Status != domain.StatusCircuitOpen {
		return nil
	}

	m.state.Status = domain.StatusNormal
	m.state.ConsecutiveFailures = 0

	m.logger.Info(ctx, "circuit breaker manually reset")

	return m.store.Save(ctx, m.state)
}

// ResetEmergency manually clears an emergency stop. This is the only
// way out of EMERGENCY_STOPPED.
func (m *RiskManager) ResetEmergency(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Status != domain.StatusEmergencyStopped {
		return nil
	}

	m.state.Status = domain.StatusNormal
	m.state.ConsecutiveFailures = 0

	m.logger.Warn(ctx, "emergency stop manually cleared",
		"lifetime_net_usd", m.state.LifetimeNetUSD().StringFixed(2),
	)

	return m.store.Save(ctx, m.state)
}

// Snapshot returns a copy of the current state for display.
func (m *RiskManager) Snapshot() *domain.RiskState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Persist writes the current state through the store. The engine calls
// it during graceful shutdown.
func (m *RiskManager) Persist(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Save(ctx, m.state)
}
