package cli

import (
	"os"

	"github.com/automlab/benchtainer/internal/builder"
	"github.com/automlab/benchtainer/internal/config"
	"github.com/automlab/benchtainer/internal/container"
	"github.com/automlab/benchtainer/internal/events"
	"github.com/automlab/benchtainer/internal/fetch"
	"github.com/automlab/benchtainer/internal/registry"
	"github.com/automlab/benchtainer/internal/runner"
	"github.com/automlab/benchtainer/internal/store"
)

// deps bundles the wired components a command needs. Construct with
// App.wire and always defer Close.
type deps struct {
	cfg     *config.Config
	catalog *registry.Catalog
	store   *store.Store
	bus     *events.Bus
}

// wire loads configuration and opens the shared components.
func (a *App) wire() (*deps, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.StatePath)
	if err != nil {
		return nil, err
	}

	bus := a.newBus()
	bus.Subscribe(st.EventHandler())

	return &deps{
		cfg:     cfg,
		catalog: catalog,
		store:   st,
		bus:     bus,
	}, nil
}

func (d *deps) Close() {
	if d.bus != nil {
		_ = d.bus.Close()
	}
	if d.store != nil {
		_ = d.store.Close()
	}
}

// loadConfig loads the config file and applies command-line overrides.
func (a *App) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.runtime != "" {
		cfg.Runtime = a.runtime
	}
	return cfg, nil
}

// loadCatalog loads the embedded catalog, merged with the user catalog
// when one is configured.
func loadCatalog(cfg *config.Config) (*registry.Catalog, error) {
	if cfg.CatalogPath != "" {
		return registry.Load(cfg.CatalogPath)
	}
	return registry.Default()
}

// newBus builds the event bus with the output handler the terminal
// calls for: JSON lines when piped or forced, human log lines otherwise.
func (a *App) newBus() *events.Bus {
	bus := events.NewBus(64)
	if events.IsJSONMode(a.jsonOut) {
		bus.Subscribe(events.NewJSONEmitter(os.Stdout).Handler())
	} else {
		bus.Subscribe(events.LogHandler(events.LogConfig{
			Writer:         os.Stderr,
			IncludePayload: a.verbose,
		}))
	}
	return bus
}

// manager resolves the container runtime and returns a CLI manager.
func (d *deps) manager() (*container.CLIManager, error) {
	runtime, err := container.ResolveRuntime(d.cfg.Runtime)
	if err != nil {
		return nil, err
	}
	return container.NewCLIManager(runtime), nil
}

// newBuilder wires an image builder on top of the deps.
func (d *deps) newBuilder(manager container.Manager) *builder.Builder {
	fetcher := &fetch.Fetcher{CacheDir: d.cfg.CacheDir}
	return builder.New(d.cfg, d.catalog, manager, d.store, fetcher, d.bus)
}

// newRunner wires a container runner on top of the deps.
func (d *deps) newRunner(manager container.Manager) *runner.Runner {
	return runner.New(d.cfg, d.catalog, manager, d.store, d.bus)
}
