package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd(a *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show builds and runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.wire()
			if err != nil {
				return err
			}
			defer d.Close()

			builds, err := d.store.ListBuilds()
			if err != nil {
				return err
			}
			runs, err := d.store.ListRuns(!all)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)

			fmt.Fprintln(w, "BUILD\tBENCHMARK\tIMAGE\tSTATUS\tAGE")
			for _, b := range builds {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					shortID(b.ID), b.Benchmark, b.Image, b.Status, age(b.StartedAt))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out)
			w = tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tBENCHMARK\tPORT\tSTATUS\tAGE")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					shortID(r.ID), r.Benchmark, r.HostPort, r.Status, age(r.StartedAt))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include finished runs")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func age(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return time.Since(*t).Round(time.Second).String()
}
