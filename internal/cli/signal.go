package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/agent-session/internal/core"
	"github.com/valter-silva-au/agent-session/pkg/models"
)

var (
	signalType    string
	signalLevel   string
	signalTitle   string
	signalMessage string
	signalLink    string
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Open and close external signals",
	Long: `Manage the signal ledger: external conditions like CI failures and
lint errors that block or inform the session.

Blocker-level signals preempt task dispatch until closed. Closed signals
are retained for audit history.`,
}

var signalOpenCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Open a signal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("session engine not initialized")
		}

		sig := models.Signal{
			ID:      args[0],
			Type:    models.SignalType(signalType),
			Level:   models.SignalLevel(signalLevel),
			Title:   signalTitle,
			Message: signalMessage,
			Link:    signalLink,
		}
		state, err := Engine.OpenSignal(sig, core.VersionCurrent)
		if err != nil {
			return rejectionError(err)
		}

		fmt.Printf("Signal %s opened, session now at version %d.\n", sig.ID, state.Version)
		return nil
	},
}

var signalCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close an open signal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("session engine not initialized")
		}

		state, err := Engine.CloseSignal(args[0], core.VersionCurrent)
		if err != nil {
			return rejectionError(err)
		}

		fmt.Printf("Signal %s closed, session now at version %d.\n", args[0], state.Version)
		return nil
	},
}

func init() {
	signalOpenCmd.Flags().StringVar(&signalType, "type", "other", "Signal origin (ci, lint, bench, system, other)")
	signalOpenCmd.Flags().StringVar(&signalLevel, "level", "info", "Severity (blocker, high, info)")
	signalOpenCmd.Flags().StringVar(&signalTitle, "title", "", "One-line description")
	signalOpenCmd.Flags().StringVar(&signalMessage, "message", "", "Longer description or failure output")
	signalOpenCmd.Flags().StringVar(&signalLink, "link", "", "URL to the CI run or report")

	signalCmd.AddCommand(signalOpenCmd)
	signalCmd.AddCommand(signalCloseCmd)
	rootCmd.AddCommand(signalCmd)
}
