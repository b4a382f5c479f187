// Package launcher implements `benchtainer serve`: the in-container
// entrypoint that resolves a benchmark identifier, prepares its state
// directories and runs the objective server until told to stop.
package launcher

import (
	"context"
	"fmt"
	"os"

	"github.com/automlab/benchtainer/internal/bench"
	"github.com/automlab/benchtainer/internal/config"
	"github.com/automlab/benchtainer/internal/events"
	"github.com/automlab/benchtainer/internal/registry"
	"github.com/automlab/benchtainer/internal/server"
)

// Launcher resolves and serves benchmarks.
type Launcher struct {
	cfg     *config.Config
	catalog *registry.Catalog
	bus     *events.Bus
}

// New creates a launcher. The bus is optional.
func New(cfg *config.Config, catalog *registry.Catalog, bus *events.Bus) *Launcher {
	return &Launcher{cfg: cfg, catalog: catalog, bus: bus}
}

// Serve runs the benchmark server for the identifier until ctx is
// cancelled. Extra args are parsed leniently (see ParseArgs) so recipes
// can append launch arguments without the launcher rejecting them.
func (l *Launcher) Serve(ctx context.Context, id string, extra []string) error {
	entry, err := l.catalog.Lookup(id)
	if err != nil {
		return err
	}

	args := ParseArgs(extra)

	scratch := l.scratchDir()
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return fmt.Errorf("create scratch dir %s: %w", scratch, err)
	}

	dataDir := l.cfg.DataDir
	if args.DataDir != "" {
		dataDir = args.DataDir
	}

	benchmark, err := bench.New(entry.ID, dataDir, args.Options)
	if err != nil {
		return err
	}

	port := l.cfg.Server.Port
	if args.Port != 0 {
		port = args.Port
	}
	if entry.Port != 0 && args.Port == 0 {
		port = entry.Port
	}

	srv := server.New(benchmark, server.Config{
		Addr: fmt.Sprintf("%s:%d", l.cfg.Server.Host, port),
		Bus:  l.bus,
	})
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start benchmark server: %w", err)
	}

	<-ctx.Done()

	grace, err := l.cfg.Server.ShutdownGraceDuration()
	if err != nil {
		grace = 0
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// scratchDir picks the writable state directory. Inside containers the
// fixed mount exists (recipes create it at build time); on the host the
// configured directory is used instead.
func (l *Launcher) scratchDir() string {
	if info, err := os.Stat(config.ScratchMount); err == nil && info.IsDir() {
		return config.ScratchMount
	}
	return l.cfg.ScratchDir
}
