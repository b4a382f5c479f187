package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/automlab/benchtainer/internal/launcher"
)

// NewServeCmd creates the serve command: the container entrypoint.
func NewServeCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <benchmark> [args...]",
		Short: "Serve a benchmark's objective function over HTTP",
		Long: `Serve runs the benchmark server in the foreground until interrupted.
This is what recipe runscripts invoke inside containers; extra
arguments are passed through leniently, so recipes can append flags
the launcher does not know about.`,
		// Recipes forward arbitrary flags; parse nothing here.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("benchmark identifier required")
			}
			if args[0] == "--help" || args[0] == "-h" {
				return cmd.Help()
			}

			d, err := a.wire()
			if err != nil {
				return err
			}
			defer d.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			l := launcher.New(d.cfg, d.catalog, d.bus)
			return l.Serve(ctx, args[0], args[1:])
		},
	}
	return cmd
}
