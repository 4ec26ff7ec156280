// Package ui provides the Bubble Tea TUI for the arbitrage engine.
package ui

import (
	"time"

	engineDomain "github.com/dpolo-eth/flasharb/business/engine/domain"
	riskDomain "github.com/dpolo-eth/flasharb/business/risk/domain"
)

// Message types for TUI updates

// CycleMsg is sent after every coordinator cycle.
type CycleMsg struct {
	Report *engineDomain.CycleReport
}

// RiskMsg is sent when the risk ledger changes.
type RiskMsg struct {
	State *riskDomain.RiskState
}

// ConnectionStatusMsg is sent when an upstream connection changes state.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // Current step name
	Status  string // "connecting", "connected", "failed"
	Message string // Optional message
}
