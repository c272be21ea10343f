package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/agent-session/internal/core"
	"github.com/valter-silva-au/agent-session/pkg/models"
)

var (
	updateFile    string
	expectVersion int
	releaseLock   bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Apply a batch of plan mutations",
	Long: `Apply a JSON update payload as one all-or-nothing batch: add tasks,
update task fields, open or close signals, and set the final summary.

The payload is read from --file, or from stdin when --file is "-" or
omitted. A rejected batch reports every violation found and leaves the
session untouched.

Payload shape:

  {
    "add_tasks":     [{"title": "...", "type": "feature",
                       "depends_on": [1], "context_hints": ["..."],
                       "relevant_file_paths": ["..."]}],
    "update_tasks":  [{"id": 1, "status": "DONE", "commit_sha": "..."}],
    "signals_open":  [{"id": "ci-1", "type": "ci", "level": "blocker",
                       "title": "..."}],
    "signals_close": ["ci-1"],
    "final_summary": "..."
  }`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("session engine not initialized")
		}

		payload, err := readPayload(updateFile)
		if err != nil {
			return err
		}
		if payload.Empty() {
			return fmt.Errorf("update payload is empty")
		}

		expected := core.VersionCurrent
		if cmd.Flags().Changed("expect-version") {
			expected = expectVersion
		}

		state, err := Engine.ApplyUpdate(*payload, expected, releaseLock)
		if err != nil {
			return rejectionError(err)
		}

		fmt.Printf("Update applied, session now at version %d.\n", state.Version)
		return nil
	},
}

// readPayload decodes an update payload from a file, or stdin for "-" or
// an empty path.
func readPayload(path string) (*models.UpdatePayload, error) {
	var r io.Reader
	switch path {
	case "", "-":
		r = os.Stdin
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening payload file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var payload models.UpdatePayload
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding update payload: %w", err)
	}
	return &payload, nil
}

func init() {
	updateCmd.Flags().StringVarP(&updateFile, "file", "f", "", "Payload file (JSON); \"-\" or empty reads stdin")
	updateCmd.Flags().IntVar(&expectVersion, "expect-version", 0, "Reject unless the state file still has this version")
	updateCmd.Flags().BoolVar(&releaseLock, "release", false, "Release the advisory lock after a successful apply")
	rootCmd.AddCommand(updateCmd)
}
