// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// RiskPanel holds the risk ledger snapshot for display. All numbers are
// pre-calculated by the risk manager, the UI only renders them.
type RiskPanel struct {
	Status              string
	Day                 string
	DailyGasUSD         decimal.Decimal
	DailyGasCapUSD      decimal.Decimal
	DailyLossUSD        decimal.Decimal
	DailyLossCapUSD     decimal.Decimal
	ConsecutiveFailures int
	MaxFailures         int
	TotalTrades         int
	LifetimeNetUSD      decimal.Decimal
	EmergencyFloorUSD   decimal.Decimal
}

// RiskComponent renders the risk state panel.
type RiskComponent struct {
	panel *RiskPanel
}

// NewRiskComponent creates a new risk component.
func NewRiskComponent() *RiskComponent {
	return &RiskComponent{}
}

// Update replaces the displayed snapshot.
func (r *RiskComponent) Update(panel RiskPanel) {
	r.panel = &panel
}

// View renders the risk component.
func (r *RiskComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	circuitStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	stoppedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	result := headerStyle.Render("RISK") + "\n\n"

	if r.panel == nil {
		return result + dimStyle.Render("  Waiting for risk state...")
	}

	p := r.panel

	statusStyle := activeStyle
	switch p.Status {
	case "CIRCUIT_OPEN":
		statusStyle = circuitStyle
	case "EMERGENCY_STOPPED":
		statusStyle = stoppedStyle
	}

	result += fmt.Sprintf("  Status:     %s\n", statusStyle.Render(p.Status))
	result += fmt.Sprintf("  Day:        %s\n", dimStyle.Render(p.Day))
	result += dimStyle.Render("  "+strings.Repeat("─", 40)) + "\n"
	result += fmt.Sprintf("  Daily gas:  $%s / $%s\n",
		p.DailyGasUSD.StringFixed(2), p.DailyGasCapUSD.StringFixed(0))
	result += fmt.Sprintf("  Daily loss: $%s / $%s\n",
		p.DailyLossUSD.StringFixed(2), p.DailyLossCapUSD.StringFixed(0))
	result += fmt.Sprintf("  Failures:   %d / %d consecutive\n",
		p.ConsecutiveFailures, p.MaxFailures)
	result += dimStyle.Render("  "+strings.Repeat("─", 40)) + "\n"
	result += fmt.Sprintf("  Trades:     %d\n", p.TotalTrades)

	lifetimeStyle := positiveStyle
	if p.LifetimeNetUSD.IsNegative() {
		lifetimeStyle = negativeStyle
	}
	result += fmt.Sprintf("  Lifetime:   %s  %s\n",
		lifetimeStyle.Render("$"+p.LifetimeNetUSD.StringFixed(2)),
		dimStyle.Render(fmt.Sprintf("(floor $%s)", p.EmergencyFloorUSD.StringFixed(0))),
	)

	return result
}
