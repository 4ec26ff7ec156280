package infra

import (
	"context"

	"github.com/dpolo-eth/flasharb/business/engine/domain"
	riskApp "github.com/dpolo-eth/flasharb/business/risk/app"
	"github.com/dpolo-eth/flasharb/pkg/ui"
)

// TUIReporter implements Reporter by forwarding cycle reports to the
// Bubble Tea dashboard. Risk snapshots ride along after every cycle so
// the risk panel stays current.
type TUIReporter struct {
	risk *riskApp.RiskManager
}

// NewTUIReporter creates a new TUIReporter.
func NewTUIReporter(risk *riskApp.RiskManager) *TUIReporter {
	return &TUIReporter{risk: risk}
}

// Start initializes the TUI reporter. The Bubble Tea program itself is
// owned by main; nothing to do here.
func (r *TUIReporter) Start(ctx context.Context) error {
	return nil
}

// ReportCycle sends the cycle and the current risk snapshot to the TUI.
func (r *TUIReporter) ReportCycle(report *domain.CycleReport) {
	ui.Send(ui.CycleMsg{Report: report})
	if r.risk != nil {
		ui.Send(ui.RiskMsg{State: r.risk.Snapshot()})
	}
}

// Stop gracefully shuts down the TUI reporter.
func (r *TUIReporter) Stop() error {
	return nil
}
