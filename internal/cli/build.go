package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/automlab/benchtainer/internal/builder"
)

// NewBuildCmd creates the build command.
func NewBuildCmd(a *App) *cobra.Command {
	var (
		force        bool
		skipDatasets bool
		all          bool
	)

	cmd := &cobra.Command{
		Use:   "build [benchmark...]",
		Short: "Build benchmark container images",
		Long: `Build container images from benchmark recipes.

A build is skipped when an image for the same recipe fingerprint
already succeeded; use --force to rebuild anyway. Datasets named by
the benchmark are pre-fetched into the cache before building.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("name at least one benchmark or pass --all")
			}

			d, err := a.wire()
			if err != nil {
				return err
			}
			defer d.Close()

			manager, err := d.manager()
			if err != nil {
				return err
			}
			b := d.newBuilder(manager)

			ids := args
			if all {
				ids = d.catalog.IDs()
			}

			opts := builder.Options{Force: force, SkipDatasets: skipDatasets}
			for _, id := range ids {
				build, err := b.Build(cmd.Context(), id, opts)
				if err != nil {
					return fmt.Errorf("build %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", id, build.Image, build.Status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rebuild even when the recipe fingerprint is cached")
	cmd.Flags().BoolVar(&skipDatasets, "skip-datasets", false, "Skip dataset pre-fetching")
	cmd.Flags().BoolVar(&all, "all", false, "Build every benchmark in the catalog")

	return cmd
}
