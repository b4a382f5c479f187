package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewCleanupCmd creates the cleanup command.
func NewCleanupCmd(a *App) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove finished containers and prune old state",
		Long: `Cleanup removes the containers and scratch directories of finished
runs, then prunes build and run records older than --older-than.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.wire()
			if err != nil {
				return err
			}
			defer d.Close()

			manager, err := d.manager()
			if err != nil {
				return err
			}

			cutoff := time.Now().Add(-olderThan)
			runs, builds, err := d.newRunner(manager).Cleanup(cmd.Context(), cutoff)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d runs, %d builds\n", runs, builds)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour,
		"Prune records finished longer ago than this")
	return cmd
}
