package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/risk/domain"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

func TestStore_LoadMissingFileIsNilNil(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "risk_state.json"), logger.NewDiscard())

	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if state != nil {
		t.Errorf("Load() = %+v, want nil for missing file", state)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk_state.json")
	store := NewStore(path, logger.NewDiscard())
	ctx := context.Background()

	want := &domain.RiskState{
		Status:              domain.StatusCircuitOpen,
		Day:                 "2026-09-01",
		DailyGasSpendUSD:    decimal.RequireFromString("12.5"),
		DailyLossUSD:        decimal.RequireFromString("7.25"),
		DailyProfitUSD:      decimal.RequireFromString("3.75"),
		DailyTradesOK:       4,
		DailyTradesFailed:   3,
		ConsecutiveFailures: 3,
		TotalProfitUSD:      decimal.RequireFromString("104.5"),
		TotalLossUSD:        decimal.RequireFromString("88.25"),
		TotalGasSpendUSD:    decimal.RequireFromString("41.125"),
		TradesExecuted:      42,
	}

	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil {
		t.Fatal("Load() = nil after Save")
	}

	if got.Status != want.Status {
		t.Errorf("Status = %s, want %s", got.Status, want.Status)
	}
	if got.Day != want.Day {
		t.Errorf("Day = %s, want %s", got.Day, want.Day)
	}
	if !got.DailyGasSpendUSD.Equal(want.DailyGasSpendUSD) {
		t.Errorf("DailyGasSpendUSD = %s, want %s", got.DailyGasSpendUSD, want.DailyGasSpendUSD)
	}
	if !got.DailyProfitUSD.Equal(want.DailyProfitUSD) {
		t.Errorf("DailyProfitUSD = %s, want %s", got.DailyProfitUSD, want.DailyProfitUSD)
	}
	if !got.DailyLossUSD.Equal(want.DailyLossUSD) {
		t.Errorf("DailyLossUSD = %s, want %s", got.DailyLossUSD, want.DailyLossUSD)
	}
	if got.DailyTradesOK != want.DailyTradesOK || got.DailyTradesFailed != want.DailyTradesFailed {
		t.Errorf("daily trades = %d/%d, want %d/%d",
			got.DailyTradesOK, got.DailyTradesFailed, want.DailyTradesOK, want.DailyTradesFailed)
	}
	if !got.TotalProfitUSD.Equal(want.TotalProfitUSD) {
		t.Errorf("TotalProfitUSD = %s, want %s", got.TotalProfitUSD, want.TotalProfitUSD)
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

func TestStore_FileSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk_state.json")
	store := NewStore(path, logger.NewDiscard())

	state := domain.NewRiskState("2026-09-01")
	state.Status = domain.StatusEmergencyStopped
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}

	for _, key := range []string{"daily", "total", "circuitBreakerOpen", "emergencyStopped"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("state file missing top-level key %q", key)
		}
	}
	if len(doc) != 4 {
		t.Errorf("state file has %d top-level keys, want 4", len(doc))
	}

	var daily map[string]json.RawMessage
	if err := json.Unmarshal(doc["daily"], &daily); err != nil {
		t.Fatalf("daily block: %v", err)
	}
	for _, key := range []string{"date", "gasSpent", "profit", "loss", "tradesOk", "tradesFailed", "consecutiveFailures"} {
		if _, ok := daily[key]; !ok {
			t.Errorf("daily block missing key %q", key)
		}
	}

	var stopped bool
	if err := json.Unmarshal(doc["emergencyStopped"], &stopped); err != nil || !stopped {
		t.Errorf("emergencyStopped = %s, want true", doc["emergencyStopped"])
	}
}

func TestStore_LoadDerivesStatusFromFlags(t *testing.T) {
	tests := []struct {
		name string
		file string
		want domain.Status
	}{
		{
			name: "both flags clear",
			file: `{"daily":{"date":"2026-09-01"},"total":{},"circuitBreakerOpen":false,"emergencyStopped":false}`,
			want: domain.StatusNormal,
		},
		{
			name: "circuit open",
			file: `{"daily":{"date":"2026-09-01"},"total":{},"circuitBreakerOpen":true,"emergencyStopped":false}`,
			want: domain.StatusCircuitOpen,
		},
		{
			name: "emergency beats circuit",
			file: `{"daily":{"date":"2026-09-01"},"total":{},"circuitBreakerOpen":true,"emergencyStopped":true}`,
			want: domain.StatusEmergencyStopped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "risk_state.json")
			if err := os.WriteFile(path, []byte(tt.file), 0o644); err != nil {
				t.Fatal(err)
			}

			store := NewStore(path, logger.NewDiscard())
			got, err := store.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got.Status != tt.want {
				t.Errorf("Status = %s, want %s", got.Status, tt.want)
			}
		})
	}
}

func TestStore_SaveCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "risk_state.json")
	store := NewStore(path, logger.NewDiscard())

	if err := store.Save(context.Background(), domain.NewRiskState("2026-09-01")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file missing: %v", err)
	}
}

func TestStore_LoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk_state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(path, logger.NewDiscard())
	if _, err := store.Load(context.Background()); err == nil {
		t.Error("Load() should fail on corrupt file")
	}
}

func TestStore_SaveOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk_state.json")
	store := NewStore(path, logger.NewDiscard())
	ctx := context.Background()

	first := domain.NewRiskState("2026-08-31")
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := domain.NewRiskState("2026-09-01")
	second.Status = domain.StatusEmergencyStopped
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Day != "2026-09-01" || got.Status != domain.StatusEmergencyStopped {
		t.Errorf("got day=%s status=%s, want 2026-09-01 EMERGENCY_STOPPED", got.Day, got.Status)
	}

	// No temp files should survive a completed save.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the state file", len(entries))
	}
}
