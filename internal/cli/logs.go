package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/automlab/benchtainer/internal/store"
)

// NewLogsCmd creates the logs command.
func NewLogsCmd(a *App) *cobra.Command {
	var showEvents bool

	cmd := &cobra.Command{
		Use:   "logs <run>",
		Short: "Stream a run's container logs",
		Long: `Logs follows the container output of a run, named by ID or unique ID
prefix. With --events it prints the recorded lifecycle events instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.wire()
			if err != nil {
				return err
			}
			defer d.Close()

			if showEvents {
				return printEventLog(cmd, d.store, args[0])
			}

			manager, err := d.manager()
			if err != nil {
				return err
			}

			rc, err := d.newRunner(manager).Logs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer rc.Close()

			_, err = io.Copy(cmd.OutOrStdout(), rc)
			return err
		},
	}
	cmd.Flags().BoolVar(&showEvents, "events", false, "print recorded lifecycle events instead of container output")
	return cmd
}

// printEventLog prints the persisted event log for a run or build ID.
func printEventLog(cmd *cobra.Command, st *store.Store, id string) error {
	owner := id
	run, err := st.GetRun(id)
	if err != nil {
		return err
	}
	if run != nil {
		owner = run.ID
	}

	evts, err := st.ListEvents(owner, 0)
	if err != nil {
		return err
	}
	if len(evts) == 0 {
		return fmt.Errorf("no events recorded for %q", id)
	}

	out := cmd.OutOrStdout()
	for _, ev := range evts {
		fmt.Fprintf(out, "%s  %s", ev.CreatedAt.Format(time.RFC3339), ev.EventType)
		if len(ev.Payload) > 0 {
			fmt.Fprintf(out, "  %s", ev.Payload)
		}
		fmt.Fprintln(out)
	}
	return nil
}
