// Package ui provides the Bubble Tea TUI for the arbitrage engine.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	engineDomain "github.com/dpolo-eth/flasharb/business/engine/domain"
	"github.com/dpolo-eth/flasharb/pkg/ui/components"
)

// ConnectionInfo holds connection state and latency.
type ConnectionInfo struct {
	Connected bool
	Latency   time.Duration
	LastSeen  time.Time
}

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "done", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Loading/connecting
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	cycles *components.CyclesComponent
	risk   *components.RiskComponent
	stats  *components.StatsComponent

	keys KeyMap

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	ready           bool
	quitting        bool
	paused          bool
	width           int
	height          int
	riskStatus      string
	connectionState map[string]*ConnectionInfo
	lastUpdate      time.Time
	errors          []ErrorEntry // Persistent error panel (last 3)
	logs            []string     // Recent log messages

	// Startup state
	startupComplete bool
	startupSteps    map[string]*StartupStep
	startupTime     time.Time

	// Session tracking
	sessionStats components.Stats
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		cycles:          components.NewCyclesComponent(50),
		risk:            components.NewRiskComponent(),
		stats:           components.NewStatsComponent(),
		keys:            DefaultKeyMap(),
		phase:           PhaseWelcome,
		welcomeStart:    now,
		riskStatus:      "NORMAL",
		connectionState: make(map[string]*ConnectionInfo),
		logs:            make([]string, 0, 10),
		errors:          make([]ErrorEntry, 0, 3),
		startupSteps: map[string]*StartupStep{
			"config":   {Name: "Loading configuration", Status: "pending"},
			"networks": {Name: "Connecting to networks", Status: "pending"},
			"oracle":   {Name: "Connecting to price stream", Status: "pending"},
			"risk":     {Name: "Restoring risk state", Status: "pending"},
		},
		startupTime: now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Always allow quit
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// During welcome phase, any other key skips to startup
		if m.phase == PhaseWelcome {
			m.phase = PhaseStartup
			m.startupTime = time.Now()
			// Trigger callback directly (don't use Send() from within Update)
			if OnStartModules != nil {
				go OnStartModules()
			}
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.cycles.Clear()
			return m, nil
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.cycles.ScrollUp()
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.cycles.ScrollDown()
			return m, nil
		case key.Matches(msg, m.keys.Errors):
			m.errors = make([]ErrorEntry, 0, 3)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case TickMsg:
		// Check if welcome timeout has elapsed
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.phase = PhaseStartup
			m.startupTime = time.Now()
			// Trigger callback directly (don't use Send() from within Update)
			if OnStartModules != nil {
				go OnStartModules()
			}
		}
		return m, tickCmd()

	case CycleMsg:
		if msg.Report != nil && !m.paused {
			m.applyCycle(msg.Report)
		}

	case RiskMsg:
		if msg.State != nil {
			m.riskStatus = string(msg.State.Status)
			m.risk.Update(components.RiskPanel{
				Status:              string(msg.State.Status),
				Day:                 msg.State.Day,
				DailyGasUSD:         msg.State.DailyGasSpendUSD,
				DailyGasCapUSD:      RiskLimits.DailyGasCapUSD,
				DailyLossUSD:        msg.State.DailyLossUSD,
				DailyLossCapUSD:     RiskLimits.DailyLossCapUSD,
				ConsecutiveFailures: msg.State.ConsecutiveFailures,
				MaxFailures:         RiskLimits.MaxFailures,
				TotalTrades:         msg.State.TradesExecuted,
				LifetimeNetUSD:      msg.State.LifetimeNetUSD(),
				EmergencyFloorUSD:   RiskLimits.EmergencyFloorUSD,
			})
			m.lastUpdate = time.Now()
		}

	case ConnectionStatusMsg:
		m.connectionState[msg.Name] = &ConnectionInfo{
			Connected: msg.Connected,
			Latency:   msg.Latency,
			LastSeen:  time.Now(),
		}
		m.lastUpdate = time.Now()

		if msg.Connected {
			if step, ok := m.startupSteps["networks"]; ok && strings.HasPrefix(msg.Name, "rpc:") {
				step.Status = "connected"
			}
			if step, ok := m.startupSteps["oracle"]; ok && msg.Name == "binance" {
				step.Status = "connected"
			}
		}

	case ErrorMsg:
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		m.sessionStats.Errors++
		m.stats.Update(m.sessionStats)
		// Keep last 3 in the persistent panel
		m.errors = append(m.errors, ErrorEntry{
			Message:   msg.Error.Error(),
			Timestamp: time.Now(),
		})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		allReady := true
		for _, step := range m.startupSteps {
			if step.Status != "connected" && step.Status != "done" {
				allReady = false
				break
			}
		}
		if allReady {
			m.startupComplete = true
		}
	}

	return m, nil
}

// applyCycle folds a cycle report into the feed and the session stats.
func (m *Model) applyCycle(report *engineDomain.CycleReport) {
	row := components.CycleRow{
		Timestamp: report.StartedAt.Format("15:04:05"),
		Outcome:   string(report.Outcome),
	}
	if len(report.Opportunities) > 0 {
		best := report.Opportunities[0]
		row.Network = best.Opportunity.Network
		row.Pair = best.Opportunity.Pair.String()
		row.SpreadPct = best.Opportunity.SpreadPct
		row.NetUSD = best.Estimate.NetUSD
	}
	row.Executed = report.Outcome == engineDomain.OutcomeExecuted
	m.cycles.Add(row)

	m.sessionStats.CyclesRun++
	if len(report.Opportunities) > 0 {
		m.sessionStats.Opportunities++
	}
	switch report.Outcome {
	case engineDomain.OutcomeExecuted:
		m.sessionStats.Executed++
		if report.Receipt != nil {
			// ProfitUSD is gas-exclusive; charge gas here for session PnL
			m.sessionStats.ProfitUSD += report.Receipt.ProfitUSD.Sub(report.Receipt.GasUSD).InexactFloat64()
		}
	case engineDomain.OutcomeFailed, engineDomain.OutcomeSimulationFail:
		m.sessionStats.Failed++
		if report.Receipt != nil {
			m.sessionStats.ProfitUSD -= report.Receipt.GasUSD.InexactFloat64()
		}
	}
	m.stats.Update(m.sessionStats)
	m.lastUpdate = time.Now()

	// First cycle means everything upstream came up
	if step, ok := m.startupSteps["config"]; ok {
		step.Status = "done"
	}
	if step, ok := m.startupSteps["risk"]; ok && step.Status == "pending" {
		step.Status = "done"
	}
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	logLine := fmt.Sprintf("[%s] %s: %s", timestamp, level, message)
	logs = append(logs, logLine)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		// Show startup until the first cycle arrives
		if m.sessionStats.CyclesRun == 0 && !m.startupComplete {
			return m.renderStartupScreen()
		}
		m.phase = PhaseDashboard
		fallthrough
	case PhaseDashboard:
		// Continue to main dashboard
	}

	var b strings.Builder

	title := TitleStyle.Render(" ⚡ Flash Arbitrage Engine ")
	b.WriteString(title)
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	// Main content: risk panel on left, cycle feed on right
	leftCol := m.risk.View() + "\n\n" + m.stats.View()
	rightCol := m.cycles.View()

	if m.width > 110 {
		left := BoxStyle.Width(m.width/3 - 2).Render(leftCol)
		right := BoxStyle.Width(2*m.width/3 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		b.WriteString(BoxStyle.Width(m.width - 4).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(m.width - 4).Render(rightCol))
	}

	b.WriteString("\n\n")

	// Persistent error panel (show last 3 errors)
	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
		mutedError := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(mutedError.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(mutedError.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	helpText := "q: quit • c: clear • p: pause • e: errors • ↑↓: scroll"
	if m.paused {
		pauseStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
		b.WriteString(pauseStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(helpText))

	return b.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))

	goldStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#F59E0B"))

	mutedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	greenStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981"))

	elapsed := time.Since(m.welcomeStart)
	dotCount := int(elapsed.Milliseconds()/300) % 4
	dots := strings.Repeat(".", dotCount)

	var sb strings.Builder

	sb.WriteString("\n\n\n\n")

	logo := `
   ███████╗██╗      █████╗ ███████╗██╗  ██╗ █████╗ ██████╗ ██████╗
   ██╔════╝██║     ██╔══██╗██╔════╝██║  ██║██╔══██╗██╔══██╗██╔══██╗
   █████╗  ██║     ███████║███████╗███████║███████║██████╔╝██████╔╝
   ██╔══╝  ██║     ██╔══██║╚════██║██╔══██║██╔══██║██╔══██╗██╔══██╗
   ██║     ███████╗██║  ██║███████║██║  ██║██║  ██║██║  ██║██████╔╝
   ╚═╝     ╚══════╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝╚═════╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")

	subtitle := "         F L A S H - L O A N   A R B I T R A G E"
	sb.WriteString(mutedStyle.Render(subtitle))
	sb.WriteString("\n\n\n")

	tagline := "              💰  Borrow. Swap. Repay. Keep the rest.  💰"
	sb.WriteString(goldStyle.Render(tagline))
	sb.WriteString("\n\n\n")

	loading := fmt.Sprintf("                  Initializing%s", dots)
	sb.WriteString(greenStyle.Render(loading))
	sb.WriteString("\n\n")

	hint := "            Press any key to skip, or wait..."
	sb.WriteString(mutedStyle.Render(hint))
	sb.WriteString("\n")

	return sb.String()
}

// renderStartupScreen renders the loading/startup screen.
func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		MarginBottom(1)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF"))

	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	connectingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	failedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder

	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  ⚡ Flash Arbitrage Engine"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	stepOrder := []string{"config", "networks", "oracle", "risk"}
	for _, name := range stepOrder {
		step, ok := m.startupSteps[name]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style

		switch step.Status {
		case "connected", "done":
			icon = "✓"
			statusText = "Ready"
			style = successStyle
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
			icon = spinners[idx]
			statusText = "Connecting..."
			style = connectingStyle
		case "failed":
			icon = "✗"
			statusText = "Failed"
			style = failedStyle
		default:
			icon = "○"
			statusText = "Pending"
			style = mutedStyle
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			mutedStyle.Render(step.Name),
			style.Render(statusText),
		))
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n\n")

	sb.WriteString(mutedStyle.Render("  Waiting for first scan cycle..."))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	// Risk status always leads
	switch m.riskStatus {
	case "NORMAL":
		parts = append(parts, StatusConnected.Render("● "+m.riskStatus))
	case "CIRCUIT_OPEN":
		parts = append(parts, StatusReconnecting.Render("◐ "+m.riskStatus))
	default:
		parts = append(parts, StatusDisconnected.Render("■ "+m.riskStatus))
	}

	if m.sessionStats.CyclesRun > 0 {
		scanStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
		parts = append(parts, scanStyle.Render(fmt.Sprintf("Cycles: %d", m.sessionStats.CyclesRun)))
	}

	for name, info := range m.connectionState {
		var statusStyle lipgloss.Style
		var icon string
		var status string
		if info != nil && info.Connected {
			statusStyle = StatusConnected
			icon = "●"
			if info.Latency > 0 {
				status = fmt.Sprintf("%s (%dms)", name, info.Latency.Milliseconds())
			} else {
				status = name
			}
		} else {
			statusStyle = StatusDisconnected
			icon = "○"
			status = name + " (disconnected)"
		}
		parts = append(parts, statusStyle.Render(icon+" "+status))
	}

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		indicator := ""
		if ago < 2*time.Second {
			indicator = "▪"
		}
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago %s", ago, indicator)))
	}

	return strings.Join(parts, "  │  ")
}

// RiskLimitsInfo carries the configured caps so the risk panel can show
// usage against them. Set once by main before the program starts.
type RiskLimitsInfo struct {
	DailyGasCapUSD    decimal.Decimal
	DailyLossCapUSD   decimal.Decimal
	MaxFailures       int
	EmergencyFloorUSD decimal.Decimal
}

// RiskLimits is the display copy of the configured risk caps.
var RiskLimits RiskLimitsInfo

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
// This is set by main.go to signal when to begin loading modules.
var OnStartModules func()

// Run starts the Bubble Tea program.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	// Call OnStartModules callback when StartModulesMsg is sent
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
