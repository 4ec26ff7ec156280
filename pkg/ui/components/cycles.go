// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// CycleRow represents one coordinator cycle in the feed.
type CycleRow struct {
	Timestamp string
	Network   string
	Pair      string
	SpreadPct decimal.Decimal
	NetUSD    decimal.Decimal
	Outcome   string
	Executed  bool
}

// CyclesComponent renders the cycle feed.
type CyclesComponent struct {
	rows    []CycleRow
	maxRows int
	offset  int
	visible int
}

// NewCyclesComponent creates a new cycles component.
func NewCyclesComponent(maxRows int) *CyclesComponent {
	return &CyclesComponent{
		rows:    make([]CycleRow, 0),
		maxRows: maxRows,
		visible: 12,
	}
}

// Add prepends a cycle to the feed.
func (c *CyclesComponent) Add(row CycleRow) {
	c.rows = append([]CycleRow{row}, c.rows...)
	if len(c.rows) > c.maxRows {
		c.rows = c.rows[:c.maxRows]
	}
	c.offset = 0
}

// Clear empties the feed.
func (c *CyclesComponent) Clear() {
	c.rows = make([]CycleRow, 0)
	c.offset = 0
}

// ScrollUp moves the window toward older cycles.
func (c *CyclesComponent) ScrollUp() {
	if c.offset+c.visible < len(c.rows) {
		c.offset++
	}
}

// ScrollDown moves the window toward newer cycles.
func (c *CyclesComponent) ScrollDown() {
	if c.offset > 0 {
		c.offset--
	}
}

// View renders the cycles component.
func (c *CyclesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	executedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	skippedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	if len(c.rows) == 0 {
		return headerStyle.Render("CYCLES") + "\n\n  Waiting for first cycle..."
	}

	result := headerStyle.Render("CYCLES") + "\n"
	result += "┌──────────┬──────────┬────────────┬──────────┬──────────┬──────────────────┐\n"
	result += "│   Time   │ Network  │    Pair    │  Spread  │   Net    │     Outcome      │\n"
	result += "├──────────┼──────────┼────────────┼──────────┼──────────┼──────────────────┤\n"

	end := c.offset + c.visible
	if end > len(c.rows) {
		end = len(c.rows)
	}

	for _, row := range c.rows[c.offset:end] {
		style := skippedStyle
		if row.Executed {
			style = executedStyle
		}

		pair := row.Pair
		if pair == "" {
			pair = "-"
		}
		network := row.Network
		if network == "" {
			network = "-"
		}

		result += fmt.Sprintf("│ %-8s │ %-8s │ %-10s │ %8s │ %8s │ %s│\n",
			row.Timestamp,
			network,
			pair,
			fmt.Sprintf("%.3f%%", row.SpreadPct.InexactFloat64()),
			fmt.Sprintf("$%.2f", row.NetUSD.InexactFloat64()),
			style.Render(fmt.Sprintf("%-17s", row.Outcome)),
		)
	}

	result += "└──────────┴──────────┴────────────┴──────────┴──────────┴──────────────────┘"

	return result
}
