package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Dashboard panel indices.
const (
	panelEnhancers = iota
	panelMetrics
	panelHealth
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	enhancers   []enhancerSnapshot
	metricsData *pipelineSnapshot
	alerts      []alertSnapshot

	// State.
	loading bool
	err     error
}

type enhancerSnapshot struct {
	name     string
	priority int
	enabled  bool
}

type pipelineSnapshot struct {
	runs       int
	toolCalls  int
	eventCount int
	runsByName map[string]int
	failures   map[string]int
}

type alertSnapshot struct {
	severity string
	message  string
	time     string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	enhancers []enhancerSnapshot
	metrics   *pipelineSnapshot
	alerts    []alertSnapshot
	err       error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	enhancerOn  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	enhancerOff = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelEnhancers,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.enhancers = msg.enhancers
		m.metricsData = msg.metrics
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" gitflow-mcp Pipeline ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	enhancersPanel := m.renderEnhancersPanel()
	metricsPanel := m.renderMetricsPanel()
	healthPanel := m.renderHealthPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		enhancersPanel = m.applyPanelStyle(panelEnhancers, enhancersPanel, colWidth-4)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, colWidth-4)
		healthPanel = m.applyPanelStyle(panelHealth, healthPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, enhancersPanel, metricsPanel, healthPanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		enhancersPanel = m.applyPanelStyle(panelEnhancers, enhancersPanel, panelWidth)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, panelWidth)
		healthPanel = m.applyPanelStyle(panelHealth, healthPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, enhancersPanel, metricsPanel, healthPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderEnhancersPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Enhancers"))
	b.WriteString("\n")

	if len(m.enhancers) == 0 {
		b.WriteString("  No enhancers registered.")
		return b.String()
	}

	for _, e := range m.enhancers {
		style := enhancerOn
		state := "on"
		if !e.enabled {
			style = enhancerOff
			state = "off"
		}
		b.WriteString(style.Render(fmt.Sprintf("  %-18s %3d  %s", e.name, e.priority, state)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m dashboardModel) renderMetricsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Pipeline (24h)"))
	b.WriteString("\n")

	if m.metricsData == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	md := m.metricsData
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Events", md.eventCount))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Tool calls", md.toolCalls))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Runs", md.runs))

	if len(md.runsByName) > 0 {
		b.WriteString("\n")
		names := make([]string, 0, len(md.runsByName))
		for name := range md.runsByName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			line := fmt.Sprintf("  %-18s %d", name, md.runsByName[name])
			if f := md.failures[name]; f > 0 {
				line += severityHigh.Render(fmt.Sprintf("  (%d failed)", f))
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m dashboardModel) renderHealthPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Health"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.message))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d alert(s)", len(m.alerts)))

	return b.String()
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	var result dataLoadedMsg

	if Registry != nil {
		for _, e := range Registry.Enhancers() {
			md := e.Metadata()
			result.enhancers = append(result.enhancers, enhancerSnapshot{
				name:     md.Name,
				priority: int(md.Priority),
				enabled:  md.Enabled,
			})
		}
	}

	if MetricsCalc != nil {
		since := time.Now().UTC().Add(-24 * time.Hour)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = &pipelineSnapshot{
			runs:       metrics.Runs,
			toolCalls:  metrics.ToolCalls,
			eventCount: metrics.EventCount,
			runsByName: metrics.EnhancerRuns,
			failures:   metrics.Failures,
		}
	}

	if Health != nil {
		alerts, err := Health.Evaluate()
		if err != nil {
			result.err = fmt.Errorf("loading health alerts: %w", err)
			return result
		}

		// Sort alerts by severity: high first, then medium, then low.
		sort.Slice(alerts, func(i, j int) bool {
			return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
		})

		result.alerts = make([]alertSnapshot, 0, len(alerts))
		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
				time:     a.TriggeredAt.Format("2006-01-02 15:04 UTC"),
			})
		}
	}

	return result
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for pipeline metrics and health",
	Long: `Launch an interactive terminal dashboard showing registered enhancers,
pipeline run metrics, and health alerts in a live view.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("pipeline not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
