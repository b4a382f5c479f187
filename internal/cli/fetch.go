package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd(a *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "fetch [benchmark...]",
		Short: "Download benchmark datasets into the cache",
		Long: `Fetch downloads the datasets a benchmark needs (tabular result
tables and the like) without building anything. Downloads are
checksummed where the catalog provides one and cached across runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("name at least one benchmark or pass --all")
			}

			d, err := a.wire()
			if err != nil {
				return err
			}
			defer d.Close()

			// No container runtime needed for fetching.
			b := d.newBuilder(nil)

			ids := args
			if all {
				ids = d.catalog.IDs()
			}
			for _, id := range ids {
				entry, err := d.catalog.Lookup(id)
				if err != nil {
					return err
				}
				if err := b.FetchDatasets(cmd.Context(), entry); err != nil {
					return fmt.Errorf("fetch %s: %w", id, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Fetch datasets for every benchmark")
	return cmd
}
