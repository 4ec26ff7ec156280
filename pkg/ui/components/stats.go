// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds session statistics for display.
type Stats struct {
	CyclesRun     int64
	Opportunities int64
	Executed      int64
	Failed        int64
	ProfitUSD     float64
	Errors        int64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	profitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	lossStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	hitRate := float64(0)
	if s.stats.CyclesRun > 0 {
		hitRate = float64(s.stats.Opportunities) / float64(s.stats.CyclesRun) * 100
	}

	profitDisplay := profitStyle.Render(fmt.Sprintf("$%.2f", s.stats.ProfitUSD))
	if s.stats.ProfitUSD < 0 {
		profitDisplay = lossStyle.Render(fmt.Sprintf("-$%.2f", -s.stats.ProfitUSD))
	}

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("SESSION") + "\n" +
		fmt.Sprintf("Cycles: %s  │  Opportunities: %s (%.1f%%)  │  Executed: %s / %s failed\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.CyclesRun)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Opportunities)),
			hitRate,
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Executed)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Failed)),
		) +
		fmt.Sprintf("Session P&L: %s  │  Errors: %s",
			profitDisplay,
			errorsDisplay,
		)
}
