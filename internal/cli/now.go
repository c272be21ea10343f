package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/agent-session/internal/core"
)

var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Resolve and surface the single next action",
	Long: `Resolve the highest-priority action for the session: sync stale
instructions, handle an open blocker, resume or start a task, or finish.

Unlike "ase status", surfacing a blocker here counts an attempt against
it, so repeatedly spinning on the same blocker is visible in the ledger.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("session engine not initialized")
		}

		now, err := Engine.SurfaceNow()
		if err != nil {
			return rejectionError(err)
		}

		fmt.Println(nowStyle.Render(" " + formatNow(now) + " "))
		return nil
	},
}

// rejectionError flattens a structured rejection into a readable CLI error,
// listing every violation on its own line.
func rejectionError(err error) error {
	rej, ok := core.AsRejected(err)
	if !ok {
		return err
	}

	var b strings.Builder
	b.WriteString(string(rej.Type))
	for _, v := range rej.Violations {
		b.WriteString(fmt.Sprintf("\n  - [%s] %s", v.Code, v.Message))
	}
	for _, d := range rej.Details {
		b.WriteString("\n  " + d)
	}
	return fmt.Errorf("%s", b.String())
}

func init() {
	rootCmd.AddCommand(nowCmd)
}
