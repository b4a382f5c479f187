package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the benchmarks in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BENCHMARK\tIMAGE\tDESCRIPTION")
			for _, id := range catalog.IDs() {
				entry, err := catalog.Lookup(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", entry.ID, entry.ImageTag(cfg.ImagePrefix), entry.Description)
			}
			return w.Flush()
		},
	}
	return cmd
}
