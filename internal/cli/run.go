package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/automlab/benchtainer/internal/builder"
	"github.com/automlab/benchtainer/internal/runner"
)

// NewRunCmd creates the run command.
func NewRunCmd(a *App) *cobra.Command {
	var (
		port      int
		buildIt   bool
		readyWait time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run <benchmark> [-- args...]",
		Short: "Start a benchmark server container",
		Long: `Run starts the benchmark's image as a detached container serving the
objective API on the published port. Arguments after -- are passed to
the benchmark server (e.g. -- --dataset cifar100).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			extra := args[1:]

			d, err := a.wire()
			if err != nil {
				return err
			}
			defer d.Close()

			manager, err := d.manager()
			if err != nil {
				return err
			}

			if buildIt {
				if _, err := d.newBuilder(manager).Build(cmd.Context(), id, builder.Options{}); err != nil {
					return fmt.Errorf("build %s: %w", id, err)
				}
			}

			r := d.newRunner(manager)
			run, err := r.Run(cmd.Context(), id, runner.Options{Port: port, Extra: extra})
			if err != nil {
				return err
			}

			if readyWait > 0 {
				ctx, cancel := context.WithTimeout(cmd.Context(), readyWait)
				defer cancel()
				if err := r.WaitReady(ctx, run); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\nhttp://127.0.0.1:%d\n", run.ID, run.HostPort)
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Host port to publish (default: configured port)")
	cmd.Flags().BoolVar(&buildIt, "build", false, "Build the image first if needed")
	cmd.Flags().DurationVar(&readyWait, "wait", 30*time.Second,
		"How long to wait for the server to answer (0 to not wait)")

	return cmd
}
