package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "ase",
	Short: "Agent Session Engine - session state and execution readiness for coding agents",
	Long: `Agent Session Engine (ase) keeps a coding agent's working session on disk:
the task plan with its dependency graph, the ledger of external signals,
and a single answer to "what should I do right now".

Updates are applied as all-or-nothing batches guarded by optimistic
versioning and an advisory lock, so several agents can share one session
without trampling each other.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ase %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
