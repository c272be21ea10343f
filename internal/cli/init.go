package cli

import (
	"fmt"

	"github.com/valter-silva-au/agent-session/internal/observability"
	"github.com/spf13/cobra"
)

var initDescription string

var initCmd = &cobra.Command{
	Use:   "init <session-id>",
	Short: "Create a new session",
	Long: `Create a new session state file in the session directory.

The session starts empty at version 1 with no tasks or signals. Fails if
a state file already exists; an existing session is never overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("session engine not initialized")
		}

		state, err := Engine.InitSession(args[0], initDescription)
		if err != nil {
			return err
		}

		if EventLog != nil {
			EventLog.Record(observability.EventSessionInitiated, fmt.Sprintf("session %s created", state.Session),
				map[string]any{"session": state.Session})
		}

		fmt.Printf("Session %s created at version %d.\n", state.Session, state.Version)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initDescription, "description", "", "Free-form session description")
	rootCmd.AddCommand(initCmd)
}
