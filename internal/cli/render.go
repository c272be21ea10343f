package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the markdown plan document",
	Long: `Render PLAN.md into the session directory from the current state.

The document is a one-way projection: the engine never reads it back, so
it can be regenerated at any time without holding the lock.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil || Renderer == nil {
			return fmt.Errorf("session engine not initialized")
		}

		report, err := Engine.Status()
		if err != nil {
			return rejectionError(err)
		}

		path, err := Renderer.WriteFile(SessionDir, report)
		if err != nil {
			return err
		}

		fmt.Printf("Plan written to %s.\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
}
