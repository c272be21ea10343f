package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/agent-session/pkg/models"
)

// Style definitions shared by status output.
var (
	nowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	taskTodo       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	taskInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	taskDone       = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	taskBlocked    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	taskOther      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	levelBlocker = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	levelHigh    = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	levelInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the session snapshot and the current verdict",
	Long: `Display the full session: the current verdict, every task with its
dependencies, open signals, version, and lock holder.

This is a read-only query. It never touches the lock and never counts an
attempt against a blocker; use "ase now" when actually acting on the
verdict.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("session engine not initialized")
		}

		report, err := Engine.Status()
		if err != nil {
			return rejectionError(err)
		}

		fmt.Println(nowStyle.Render(" " + formatNow(report.Now) + " "))
		fmt.Printf("\nSession: %s (version %d)\n", report.State.Session, report.State.Version)
		if report.Lock != nil {
			fmt.Println(dimStyle.Render(fmt.Sprintf("Lock held by %s since %s",
				report.Lock.Holder, report.Lock.AcquiredAt.Format("15:04:05 UTC"))))
		}

		printTasks(report.State.Tasks)
		printSignals(report.State.Signals)

		if report.State.FinalSummary != "" {
			fmt.Printf("\n%s\n%s\n", sectionStyle.Render("Final summary"), report.State.FinalSummary)
		}

		return nil
	},
}

// formatNow renders a verdict as a one-line instruction.
func formatNow(now models.Now) string {
	switch now.Reason {
	case models.NowReadyForTask:
		return fmt.Sprintf("ready_for_task: start task %d", *now.TaskID)
	case models.NowDeadlocked:
		return fmt.Sprintf("deadlocked: task %d is in a dependency cycle", *now.TaskID)
	case models.NowCIBlocker, models.NowLintBlocker, models.NowSignalBlocker:
		return fmt.Sprintf("%s: handle signal %s", now.Reason, now.SignalID)
	default:
		return string(now.Reason)
	}
}

func printTasks(tasks []models.Task) {
	fmt.Printf("\n%s\n", sectionStyle.Render(fmt.Sprintf("Tasks (%d)", len(tasks))))
	if len(tasks) == 0 {
		fmt.Println("  No tasks yet.")
		return
	}

	fmt.Printf("  %-4s %-13s %-12s %-10s %s\n", "ID", "STATUS", "TYPE", "DEPS", "TITLE")
	for _, t := range tasks {
		deps := "-"
		if len(t.DependsOn) > 0 {
			parts := make([]string, len(t.DependsOn))
			for i, d := range t.DependsOn {
				parts[i] = fmt.Sprintf("%d", d)
			}
			deps = strings.Join(parts, ",")
		}
		line := fmt.Sprintf("  %-4d %-13s %-12s %-10s %s", t.ID, t.Status, t.Type, deps, t.Title)
		fmt.Println(styleForTaskStatus(t.Status).Render(line))
	}
}

func printSignals(signals []models.Signal) {
	var open []models.Signal
	for _, s := range signals {
		if s.Open {
			open = append(open, s)
		}
	}
	if len(open) == 0 {
		return
	}

	fmt.Printf("\n%s\n", sectionStyle.Render(fmt.Sprintf("Open signals (%d)", len(open))))
	for _, s := range open {
		level := styleForLevel(s.Level).Render(fmt.Sprintf("[%s]", s.Level))
		line := fmt.Sprintf("  %s %s (%s) %s", level, s.ID, s.Type, s.Title)
		if s.Attempts > 0 {
			line += dimStyle.Render(fmt.Sprintf(" surfaced %dx", s.Attempts))
		}
		fmt.Println(line)
	}
}

func styleForTaskStatus(status models.TaskStatus) lipgloss.Style {
	switch status {
	case models.StatusTodo:
		return taskTodo
	case models.StatusInProgress:
		return taskInProgress
	case models.StatusDone:
		return taskDone
	case models.StatusBlocked, models.StatusFailed:
		return taskBlocked
	default:
		return taskOther
	}
}

func styleForLevel(level models.SignalLevel) lipgloss.Style {
	switch level {
	case models.LevelBlocker:
		return levelBlocker
	case models.LevelHigh:
		return levelHigh
	default:
		return levelInfo
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
