package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/risk/domain"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

// memStore is an in-memory StateStore.
type memStore struct {
	mu    sync.Mutex
	state *domain.RiskState
	saves int
}

func (s *memStore) Load(ctx context.Context) (*domain.RiskState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, nil
	}
	return s.state.Clone(), nil
}

func (s *memStore) Save(ctx context.Context, state *domain.RiskState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.saves++
	return nil
}

func defaultLimits() Limits {
	return Limits{
		MaxDailyGasSpendUSD:       decimal.NewFromInt(50),
		MaxDailyLossUSD:           decimal.NewFromInt(25),
		MaxConsecutiveFailures:    3,
		EmergencyStopLossFloorUSD: decimal.NewFromInt(-40),
	}
}

func newTestManager(t *testing.T, limits Limits, store StateStore) *RiskManager {
	t.Helper()
	m, err := NewRiskManager(context.Background(), limits, store, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewRiskManager() error = %v", err)
	}
	return m
}

func failure(lossUSD, gasUSD string) domain.TradeResult {
	return domain.TradeResult{
		Success:   false,
		ProfitUSD: decimal.RequireFromString(lossUSD),
		GasUSD:    decimal.RequireFromString(gasUSD),
	}
}

func success(profitUSD, gasUSD string) domain.TradeResult {
	return domain.TradeResult{
		Success:   true,
		ProfitUSD: decimal.RequireFromString(profitUSD),
		GasUSD:    decimal.RequireFromString(gasUSD),
	}
}

func TestRiskManager_CircuitOpensExactlyAtMaxFailures(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, defaultLimits(), &memStore{})

	for i := 0; i < 2; i++ {
		if err := m.RecordTradeResult(ctx, failure("1", "0.5")); err != nil {
			t.Fatalf("RecordTradeResult() error = %v", err)
		}
		if got := m.Snapshot().Status; got != domain.StatusNormal {
			t.Fatalf("after %d failures Status = %s, want NORMAL", i+1, got)
		}
	}

	// Third failure hits the maximum and opens the circuit.
	if err := m.RecordTradeResult(ctx, failure("1", "0.5")); err != nil {
		t.Fatalf("RecordTradeResult() error = %v", err)
	}
	if got := m.Snapshot().Status; got != domain.StatusCircuitOpen {
		t.Fatalf("after 3 failures Status = %s, want CIRCUIT_OPEN", got)
	}

	ok, reason := m.CanExecute(ctx, decimal.Zero)
	if ok {
		t.Error("CanExecute() = true with open circuit")
	}
	if reason != "circuit breaker open" {
		t.Errorf("reason = %q, want circuit breaker open", reason)
	}
}

func TestRiskManager_SuccessClearsFailureStreak(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, defaultLimits(), &memStore{})

	m.RecordTradeResult(ctx, failure("1", "0.5"))
	m.RecordTradeResult(ctx, failure("1", "0.5"))
	m.RecordTradeResult(ctx, success("10", "0.5"))

	snap := m.Snapshot()
	if snap.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0", snap.ConsecutiveFailures)
	}
	if snap.Status != domain.StatusNormal {
		t.Errorf("Status = %s, want NORMAL", snap.Status)
	}

	// The streak restarts from zero, so two more failures stay under the cap.
	m.RecordTradeResult(ctx, failure("1", "0.5"))
	m.RecordTradeResult(ctx, failure("1", "0.5"))
	if got := m.Snapshot().Status; got != domain.StatusNormal {
		t.Errorf("Status = %s, want NORMAL after streak reset", got)
	}
}

func TestRiskManager_EmergencyStopLatchesOnLifetimeFloor(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, defaultLimits(), &memStore{})

	// Bring lifetime net to -38: one failed trade losing 36 with 2 gas.
	if err := m.RecordTradeResult(ctx, failure("36", "2")); err != nil {
		t.Fatalf("RecordTradeResult() error = %v", err)
	}
	if got := m.Snapshot().Status; got == domain.StatusEmergencyStopped {
		t.Fatal("emergency stop at -38, floor is -40")
	}

	// Next failure takes lifetime net to -42, through the -40 floor.
	if err := m.RecordTradeResult(ctx, failure("3", "1")); err != nil {
		t.Fatalf("RecordTradeResult() error = %v", err)
	}
	snap := m.Snapshot()
	if snap.Status != domain.StatusEmergencyStopped {
		t.Fatalf("Status = %s, want EMERGENCY_STOPPED at net %s", snap.Status, snap.LifetimeNetUSD())
	}

	ok, reason := m.CanExecute(ctx, decimal.Zero)
	if ok {
		t.Error("CanExecute() = true while emergency stopped")
	}
	if reason != "emergency stop active" {
		t.Errorf("reason = %q, want emergency stop active", reason)
	}
}

func TestRiskManager_RolloverResetsDailyNotTotals(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, defaultLimits(), &memStore{})

	m.RecordTradeResult(ctx, success("12", "3"))
	m.RecordTradeResult(ctx, failure("5", "2"))

	before := m.Snapshot()
	if before.DailyProfitUSD.IsZero() || before.DailyLossUSD.IsZero() || before.DailyGasSpendUSD.IsZero() {
		t.Fatal("daily counters should be non-zero before rollover")
	}

	// Advance the clock past the UTC day boundary.
	m.now = func() time.Time { return time.Now().UTC().Add(48 * time.Hour) }

	ok, _ := m.CanExecute(ctx, decimal.Zero)
	if !ok {
		t.Fatal("CanExecute() should allow on a fresh day")
	}

	after := m.Snapshot()
	if !after.DailyProfitUSD.IsZero() || !after.DailyLossUSD.IsZero() || !after.DailyGasSpendUSD.IsZero() {
		t.Error("daily counters should reset at rollover")
	}
	if after.ConsecutiveFailures != 0 {
		t.Error("failure streak should reset at rollover")
	}
	if !after.TotalProfitUSD.Equal(before.TotalProfitUSD) ||
		!after.TotalLossUSD.Equal(before.TotalLossUSD) ||
		!after.TotalGasSpendUSD.Equal(before.TotalGasSpendUSD) {
		t.Error("lifetime totals must survive rollover")
	}
}

func TestRiskManager_RolloverClosesCircuitButNotEmergency(t *testing.T) {
	ctx := context.Background()

	t.Run("circuit_closes", func(t *testing.T) {
		m := newTestManager(t, defaultLimits(), &memStore{})
		for i := 0; i < 3; i++ {
			m.RecordTradeResult(ctx, failure("1", "0.5"))
		}
		if got := m.Snapshot().Status; got != domain.StatusCircuitOpen {
			t.Fatalf("Status = %s, want CIRCUIT_OPEN", got)
		}

		m.now = func() time.Time { return time.Now().UTC().Add(48 * time.Hour) }

		if ok, _ := m.CanExecute(ctx, decimal.Zero); !ok {
			t.Error("circuit should close at the next UTC day")
		}
	})

	t.Run("emergency_survives", func(t *testing.T) {
		m := newTestManager(t, defaultLimits(), &memStore{})
		m.RecordTradeResult(ctx, failure("45", "5"))
		if got := m.Snapshot().Status; got != domain.StatusEmergencyStopped {
			t.Fatalf("Status = %s, want EMERGENCY_STOPPED", got)
		}

		m.now = func() time.Time { return time.Now().UTC().Add(48 * time.Hour) }

		ok, reason := m.CanExecute(ctx, decimal.Zero)
		if ok {
			t.Error("emergency stop must survive rollover")
		}
		if reason != "emergency stop active" {
			t.Errorf("reason = %q, want emergency stop active", reason)
		}
	})
}

func TestRiskManager_DailyCaps(t *testing.T) {
	ctx := context.Background()

	t.Run("gas_budget", func(t *testing.T) {
		m := newTestManager(t, defaultLimits(), &memStore{})
		m.RecordTradeResult(ctx, success("10", "46"))

		// 46 spent + 4 estimated fits the 50 cap exactly.
		if ok, _ := m.CanExecute(ctx, decimal.NewFromInt(4)); !ok {
			t.Error("CanExecute() = false though the estimate fits the budget")
		}

		// 46 + 5 projects past the cap.
		ok, reason := m.CanExecute(ctx, decimal.NewFromInt(5))
		if ok {
			t.Error("CanExecute() = true though the estimate exceeds the budget")
		}
		if reason != "daily gas budget exhausted" {
			t.Errorf("reason = %q", reason)
		}
	})

	t.Run("loss_limit", func(t *testing.T) {
		m := newTestManager(t, defaultLimits(), &memStore{})
		// Daily net of -26 (loss 25 + gas 1) breaches the -25 cap. The
		// trailing success keeps the failure streak under its own cap.
		m.RecordTradeResult(ctx, failure("25", "1"))
		m.RecordTradeResult(ctx, success("0", "0"))

		ok, reason := m.CanExecute(ctx, decimal.Zero)
		if ok {
			t.Error("CanExecute() = true with loss limit reached")
		}
		if reason != "daily loss limit reached" {
			t.Errorf("reason = %q", reason)
		}
	})
}

func TestRiskManager_ManualResets(t *testing.T) {
	ctx := context.Background()

	t.Run("circuit", func(t *testing.T) {
		m := newTestManager(t, defaultLimits(), &memStore{})
		for i := 0; i < 3; i++ {
			m.RecordTradeResult(ctx, failure("1", "0.5"))
		}

		if err := m.ResetCircuit(ctx); err != nil {
			t.Fatalf("ResetCircuit() error = %v", err)
		}
		if ok, _ := m.CanExecute(ctx, decimal.Zero); !ok {
			t.Error("CanExecute() = false after circuit reset")
		}
	})

	t.Run("emergency", func(t *testing.T) {
		m := newTestManager(t, defaultLimits(), &memStore{})
		m.RecordTradeResult(ctx, failure("45", "5"))

		// ResetCircuit must not clear an emergency stop.
		if err := m.ResetCircuit(ctx); err != nil {
			t.Fatalf("ResetCircuit() error = %v", err)
		}
		if got := m.Snapshot().Status; got != domain.StatusEmergencyStopped {
			t.Fatalf("Status = %s after ResetCircuit, want EMERGENCY_STOPPED", got)
		}

		if err := m.ResetEmergency(ctx); err != nil {
			t.Fatalf("ResetEmergency() error = %v", err)
		}
		if got := m.Snapshot().Status; got != domain.StatusNormal {
			t.Errorf("Status = %s after ResetEmergency, want NORMAL", got)
		}
	})
}

// brokenStore fails every Load and Save, like a corrupt or unwritable
// state file.
type brokenStore struct{}

func (brokenStore) Load(ctx context.Context) (*domain.RiskState, error) {
	return nil, errors.New("unexpected end of JSON input")
}

func (brokenStore) Save(ctx context.Context, state *domain.RiskState) error {
	return errors.New("read-only file system")
}

func TestRiskManager_BrokenStoreStillBoots(t *testing.T) {
	m, err := NewRiskManager(context.Background(), defaultLimits(), brokenStore{}, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewRiskManager() must tolerate a broken store, got error = %v", err)
	}

	snap := m.Snapshot()
	if snap.Status != domain.StatusNormal {
		t.Errorf("Status = %s, want %s after starting fresh", snap.Status, domain.StatusNormal)
	}

	ok, _ := m.CanExecute(context.Background(), decimal.Zero)
	if !ok {
		t.Error("fresh in-memory state must allow execution")
	}
}

func TestRiskManager_StatePersistedAcrossRestart(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}

	m := newTestManager(t, defaultLimits(), store)
	m.RecordTradeResult(ctx, success("12.34", "1.25"))
	m.RecordTradeResult(ctx, failure("5.5", "0.75"))

	// A second manager over the same store sees identical state.
	restored := newTestManager(t, defaultLimits(), store)

	want := m.Snapshot()
	got := restored.Snapshot()

	if got.Status != want.Status {
		t.Errorf("Status = %s, want %s", got.Status, want.Status)
	}
	if !got.TotalProfitUSD.Equal(want.TotalProfitUSD) {
		t.Errorf("TotalProfitUSD = %s, want %s", got.TotalProfitUSD, want.TotalProfitUSD)
	}
	if !got.TotalLossUSD.Equal(want.TotalLossUSD) {
		t.Errorf("TotalLossUSD = %s, want %s", got.TotalLossUSD, want.TotalLossUSD)
	}
	if !got.TotalGasSpendUSD.Equal(want.TotalGasSpendUSD) {
		t.Errorf("TotalGasSpendUSD = %s, want %s", got.TotalGasSpendUSD, want.TotalGasSpendUSD)
	}
	if got.ConsecutiveFailures != want.ConsecutiveFailures {
		t.Errorf("ConsecutiveFailures = %d, want %d", got.ConsecutiveFailures, want.ConsecutiveFailures)
	}
	if got.TradesExecuted != want.TradesExecuted {
		t.Errorf("TradesExecuted = %d, want %d", got.TradesExecuted, want.TradesExecuted)
	}
}
