package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStopCmd creates the stop command.
func NewStopCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <run>...",
		Short: "Stop running benchmark servers",
		Args:  cobra.MinimumNArgs(1),
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
			r := d.newRunner(manager)

			for _, id := range args {
				run, err := r.Stop(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stopped %s (%s)\n", shortID(run.ID), run.Benchmark)
			}
			return nil
		},
	}
	return cmd
}
