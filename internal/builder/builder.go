// Package builder turns benchmark recipes into container images. It
// stages a build context from the recipe, pins the benchmark library,
// pre-fetches datasets and drives the container runtime, recording the
// build in the state store along the way.
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/automlab/benchtainer/internal/config"
	"github.com/automlab/benchtainer/internal/container"
	"github.com/automlab/benchtainer/internal/events"
	"github.com/automlab/benchtainer/internal/fetch"
	"github.com/automlab/benchtainer/internal/recipe"
	"github.com/automlab/benchtainer/internal/registry"
	"github.com/automlab/benchtainer/internal/store"
)

// Builder builds benchmark images.
type Builder struct {
	cfg     *config.Config
	catalog *registry.Catalog
	manager container.Manager
	store   *store.Store
	fetcher Fetcher
	bus     *events.Bus
}

// Fetcher is the dataset download dependency, satisfied by
// fetch.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, name, url, sha string) (fetch.Result, error)
}

// Options tune a single build.
type Options struct {
	// Force rebuilds even when a succeeded build with the same recipe
	// fingerprint exists.
	Force bool

	// SkipDatasets skips dataset pre-fetching (useful offline when the
	// data is already in place).
	SkipDatasets bool
}

// New creates a builder.
func New(cfg *config.Config, catalog *registry.Catalog, manager container.Manager, st *store.Store, fetcher Fetcher, bus *events.Bus) *Builder {
	return &Builder{
		cfg:     cfg,
		catalog: catalog,
		manager: manager,
		store:   st,
		fetcher: fetcher,
		bus:     bus,
	}
}

// Build builds the image for a benchmark identifier and returns the
// recorded build. A build whose recipe fingerprint already succeeded is
// skipped unless opts.Force is set.
func (b *Builder) Build(ctx context.Context, id string, opts Options) (*store.Build, error) {
	entry, err := b.catalog.Lookup(id)
	if err != nil {
		return nil, err
	}

	source, err := registry.OpenRecipe(entry, b.cfg.RecipeDir)
	if err != nil {
		return nil, err
	}
	def, err := recipe.ParseFromBytes(source)
	if err != nil {
		return nil, fmt.Errorf("parse recipe %s: %w", entry.Recipe, err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("recipe %s: %w", entry.Recipe, err)
	}
	if rc := def.RunCommand(); rc[2] != entry.ID {
		return nil, fmt.Errorf("recipe %s: runscript launches %q, want %q", entry.Recipe, rc[2], entry.ID)
	}

	fingerprint := def.Fingerprint()
	tag := entry.ImageTag(b.cfg.ImagePrefix)
	runtime := b.runtime()

	if !opts.Force {
		if prev, err := b.store.LatestSucceededBuild(entry.ID, fingerprint); err != nil {
			return nil, err
		} else if prev != nil {
			b.emit(events.NewEvent(events.BuildCached, entry.ID).WithBuild(prev.ID).WithPayload(map[string]any{
				"image": prev.Image,
			}))
			return prev, nil
		}
	}

	// The row starts pending: dataset fetch and staging happen before
	// the image build itself is underway.
	build := &store.Build{
		ID:          store.NewID(),
		Benchmark:   entry.ID,
		Fingerprint: fingerprint,
		Image:       tag,
		Runtime:     runtime,
		Status:      store.BuildPending,
	}
	if err := b.store.CreateBuild(build); err != nil {
		return nil, err
	}
	b.emit(events.NewEvent(events.BuildStarted, entry.ID).WithBuild(build.ID).WithPayload(map[string]any{
		"image":       tag,
		"fingerprint": fingerprint,
	}))

	if timeout, err := b.cfg.BuildTimeoutDuration(); err == nil && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if !opts.SkipDatasets {
		if err := b.FetchDatasets(ctx, entry); err != nil {
			return nil, b.fail(build, entry.ID, err)
		}
	}

	staged, err := b.stage(ctx, entry, def)
	if err != nil {
		return nil, b.fail(build, entry.ID, err)
	}
	b.emit(events.NewEvent(events.BuildStaged, entry.ID).WithBuild(build.ID).WithPayload(map[string]any{
		"context": staged.Dir,
	}))

	started := time.Now()
	if err := b.store.MarkBuildRunning(build.ID); err != nil {
		return nil, err
	}
	build.Status = store.BuildRunning
	build.StartedAt = &started

	err = b.manager.Build(ctx, container.BuildConfig{
		Tag:            tag,
		ContextDir:     staged.Dir,
		DefinitionFile: staged.DefinitionFile,
	})
	if err != nil {
		return nil, b.fail(build, entry.ID, err)
	}

	if err := b.store.FinishBuild(build.ID, store.BuildSucceeded, ""); err != nil {
		return nil, err
	}
	build.Status = store.BuildSucceeded
	b.emit(events.NewEvent(events.BuildCompleted, entry.ID).WithBuild(build.ID).WithPayload(map[string]any{
		"image": tag,
	}))
	return build, nil
}

func (b *Builder) fail(build *store.Build, benchmark string, err error) error {
	_ = b.store.FinishBuild(build.ID, store.BuildFailed, err.Error())
	b.emit(events.NewEvent(events.BuildFailed, benchmark).WithBuild(build.ID).WithError(err))
	return err
}

func (b *Builder) runtime() string {
	if m, ok := b.manager.(*container.CLIManager); ok {
		return m.Runtime()
	}
	return b.cfg.Runtime
}

func (b *Builder) emit(e events.Event) {
	if b.bus != nil {
		b.bus.Emit(e)
	}
}
