package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/automlab/benchtainer/internal/cli/tui"
	"github.com/automlab/benchtainer/internal/store"
)

// NewWatchCmd creates the watch command: a live dashboard over the
// state store.
func NewWatchCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch builds and runs in a live dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.StatePath)
			if err != nil {
				return err
			}
			defer st.Close()

			model := tui.NewModel(storePoller(st))
			program := tea.NewProgram(model, tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
	return cmd
}

// storePoller adapts store rows into dashboard rows.
func storePoller(st *store.Store) tui.Poller {
	return func() (tui.Snapshot, error) {
		builds, err := st.ListBuilds()
		if err != nil {
			return tui.Snapshot{}, err
		}
		runs, err := st.ListRuns(false)
		if err != nil {
			return tui.Snapshot{}, err
		}

		var snapshot tui.Snapshot
		for _, b := range builds {
			snapshot.Builds = append(snapshot.Builds, tui.BuildRow{
				ID:        shortID(b.ID),
				Benchmark: b.Benchmark,
				Image:     b.Image,
				Status:    string(b.Status),
				Age:       age(b.StartedAt),
			})
		}
		for _, r := range runs {
			snapshot.Runs = append(snapshot.Runs, tui.RunRow{
				ID:        shortID(r.ID),
				Benchmark: r.Benchmark,
				Port:      r.HostPort,
				Status:    string(r.Status),
				Age:       age(r.StartedAt),
			})
		}
		return snapshot, nil
	}
}
