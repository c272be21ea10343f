package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect and release the advisory session lock",
}

var lockShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current lock holder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("session engine not initialized")
		}

		report, err := Engine.Status()
		if err != nil {
			return rejectionError(err)
		}
		if report.Lock == nil {
			fmt.Println("Lock is free.")
			return nil
		}

		fmt.Printf("Held by %s since %s.\n", report.Lock.Holder,
			report.Lock.AcquiredAt.Format("2006-01-02 15:04:05 UTC"))
		return nil
	},
}

var lockReleaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release the lock if this identity holds it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("session engine not initialized")
		}

		if err := Engine.ReleaseLock(); err != nil {
			return err
		}
		fmt.Println("Lock released.")
		return nil
	},
}

func init() {
	lockCmd.AddCommand(lockShowCmd)
	lockCmd.AddCommand(lockReleaseCmd)
	rootCmd.AddCommand(lockCmd)
}
