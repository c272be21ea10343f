package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/agent-session/internal/observability"
	"github.com/valter-silva-au/agent-session/pkg/models"
)

// Dashboard panel indices.
const (
	panelTasks = iota
	panelSignals
	panelActivity
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	verdict     string
	taskCounts  map[models.TaskStatus]int
	openSignals []signalSnapshot
	activity    []activitySnapshot

	// State.
	loading bool
	err     error
}

type signalSnapshot struct {
	id       string
	level    string
	title    string
	attempts int
}

type activitySnapshot struct {
	eventType string
	message   string
	time      string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	verdict     string
	taskCounts  map[models.TaskStatus]int
	openSignals []signalSnapshot
	activity    []activitySnapshot
	err         error
}

var (
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

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelTasks,
		loading:     true,
		taskCounts:  make(map[models.TaskStatus]int),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadDashboardData
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
			return m, loadDashboardData
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
		m.verdict = msg.verdict
		m.taskCounts = msg.taskCounts
		m.openSignals = msg.openSignals
		m.activity = msg.activity
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := nowStyle.Render(" " + m.verdict + " ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	tasksPanel := m.renderTasksPanel()
	signalsPanel := m.renderSignalsPanel()
	activityPanel := m.renderActivityPanel()

	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		tasksPanel = m.applyPanelStyle(panelTasks, tasksPanel, colWidth-4)
		signalsPanel = m.applyPanelStyle(panelSignals, signalsPanel, colWidth-4)
		activityPanel = m.applyPanelStyle(panelActivity, activityPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, tasksPanel, signalsPanel, activityPanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		tasksPanel = m.applyPanelStyle(panelTasks, tasksPanel, panelWidth)
		signalsPanel = m.applyPanelStyle(panelSignals, signalsPanel, panelWidth)
		activityPanel = m.applyPanelStyle(panelActivity, activityPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, tasksPanel, signalsPanel, activityPanel)
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

func (m dashboardModel) renderTasksPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Tasks"))
	b.WriteString("\n")

	if len(m.taskCounts) == 0 {
		b.WriteString("  No tasks yet.")
		return b.String()
	}

	// Display in lifecycle order.
	order := []models.TaskStatus{
		models.StatusInProgress,
		models.StatusTodo,
		models.StatusBlocked,
		models.StatusWaiting,
		models.StatusFailed,
		models.StatusDone,
		models.StatusSkipped,
		models.StatusOutOfScope,
		models.StatusCancelled,
	}
	total := 0
	for _, status := range order {
		count, ok := m.taskCounts[status]
		if !ok || count == 0 {
			continue
		}
		total += count
		label := fmt.Sprintf("  %-14s %d", status, count)
		b.WriteString(styleForTaskStatus(status).Render(label))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d", total))

	return b.String()
}

func (m dashboardModel) renderSignalsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Open signals"))
	b.WriteString("\n")

	if len(m.openSignals) == 0 {
		b.WriteString("  No open signals.")
		return b.String()
	}

	for _, s := range m.openSignals {
		level := styleForLevel(models.SignalLevel(s.level)).Render(fmt.Sprintf("[%s]", s.level))
		line := fmt.Sprintf("  %s %s %s", level, s.id, s.title)
		if s.attempts > 0 {
			line += fmt.Sprintf(" (%dx)", s.attempts)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

func (m dashboardModel) renderActivityPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Recent activity"))
	b.WriteString("\n")

	if len(m.activity) == 0 {
		b.WriteString("  No recorded events.")
		return b.String()
	}

	for _, a := range m.activity {
		b.WriteString(fmt.Sprintf("  %s %-18s %s\n", a.time, a.eventType, a.message))
	}

	return b.String()
}

func loadDashboardData() tea.Msg {
	result := dataLoadedMsg{
		taskCounts: make(map[models.TaskStatus]int),
	}

	if Engine == nil {
		result.err = fmt.Errorf("session engine not initialized")
		return result
	}

	report, err := Engine.Status()
	if err != nil {
		result.err = fmt.Errorf("loading session: %w", err)
		return result
	}

	result.verdict = formatNow(report.Now)
	for _, t := range report.State.Tasks {
		result.taskCounts[t.Status]++
	}
	for _, s := range report.State.Signals {
		if !s.Open {
			continue
		}
		result.openSignals = append(result.openSignals, signalSnapshot{
			id:       s.ID,
			level:    string(s.Level),
			title:    s.Title,
			attempts: s.Attempts,
		})
	}

	if EventLog != nil {
		since := time.Now().UTC().Add(-24 * time.Hour)
		events, err := EventLog.Read(observability.EventFilter{Since: &since})
		if err == nil {
			// Newest last; keep the tail.
			if len(events) > 10 {
				events = events[len(events)-10:]
			}
			for _, e := range events {
				result.activity = append(result.activity, activitySnapshot{
					eventType: e.Type,
					message:   e.Message,
					time:      e.Time.Format("15:04"),
				})
			}
		}
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for the session",
	Long: `Launch an interactive terminal dashboard showing the current verdict,
task counts, open signals, and recent activity in a live view.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("session engine not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
