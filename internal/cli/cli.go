// Package cli wires the benchtainer command line: building benchmark
// images, running their servers and inspecting state.
package cli

import (
	"github.com/spf13/cobra"
)

// VersionInfo carries build-time version metadata.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// App represents the CLI application with all wired dependencies.
type App struct {
	rootCmd *cobra.Command

	// Global flags
	configPath string
	runtime    string
	verbose    bool
	jsonOut    bool

	versionInfo VersionInfo
}

// New creates a new CLI application.
func New() *App {
	app := &App{}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion sets the build-time version metadata.
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

// setupRootCmd configures the root Cobra command.
func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "benchtainer",
		Short: "Containerized hyperparameter benchmark runner",
		Long: `Benchtainer builds container images for hyperparameter optimization
benchmarks from their recipe definitions and runs each benchmark as
an HTTP objective server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	a.rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "",
		"Path to config file")
	a.rootCmd.PersistentFlags().StringVar(&a.runtime, "runtime", "",
		"Container runtime (auto, docker, podman, apptainer, singularity)")
	a.rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Verbose output")
	a.rootCmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false,
		"Emit events as JSON lines")

	a.rootCmd.AddCommand(
		NewBuildCmd(a),
		NewRunCmd(a),
		NewServeCmd(a),
		NewListCmd(a),
		NewStatusCmd(a),
		NewLogsCmd(a),
		NewStopCmd(a),
		NewFetchCmd(a),
		NewCleanupCmd(a),
		NewWatchCmd(a),
		NewVersionCmd(a),
	)
}
