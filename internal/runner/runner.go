// Package runner launches and manages benchmark server containers on
// the host: the counterpart of the in-container launcher. Each run gets
// its own scratch directory mounted at the fixed in-container path and
// a read-only view of the host data directory.
package runner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/automlab/benchtainer/internal/config"
	"github.com/automlab/benchtainer/internal/container"
	"github.com/automlab/benchtainer/internal/events"
	"github.com/automlab/benchtainer/internal/registry"
	"github.com/automlab/benchtainer/internal/store"
)

// dataMount is where the host data directory appears inside containers.
const dataMount = config.ScratchMount + "/data"

// Runner starts and stops benchmark containers.
type Runner struct {
	cfg     *config.Config
	catalog *registry.Catalog
	manager container.Manager
	store   *store.Store
	bus     *events.Bus
}

// Options tune a single run.
type Options struct {
	// Port is the host port to publish (0 uses the configured port).
	Port int

	// Extra arguments appended to the container entrypoint, passed
	// through to the benchmark server (e.g. --dataset cifar100).
	Extra []string
}

// New creates a runner.
func New(cfg *config.Config, catalog *registry.Catalog, manager container.Manager, st *store.Store, bus *events.Bus) *Runner {
	return &Runner{cfg: cfg, catalog: catalog, manager: manager, store: st, bus: bus}
}

// Run creates and starts a benchmark server container. The container
// runs detached; use WaitReady to block until the server answers.
func (r *Runner) Run(ctx context.Context, id string, opts Options) (*store.Run, error) {
	entry, err := r.catalog.Lookup(id)
	if err != nil {
		return nil, err
	}

	port := r.cfg.Server.Port
	if entry.Port != 0 {
		port = entry.Port
	}
	if opts.Port != 0 {
		port = opts.Port
	}

	runID := store.NewID()
	scratch := filepath.Join(r.cfg.ScratchDir, runID)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", scratch, err)
	}
	if err := os.MkdirAll(r.cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", r.cfg.DataDir, err)
	}

	run := &store.Run{
		ID:        runID,
		Benchmark: entry.ID,
		Image:     entry.ImageTag(r.cfg.ImagePrefix),
		Runtime:   r.runtime(),
		Status:    store.RunCreated,
		HostPort:  port,
	}
	if err := r.store.CreateRun(run); err != nil {
		return nil, err
	}

	// The container-side listen port is pinned with --port so the
	// mapping holds no matter what the image's own config says.
	containerPort := config.DefaultServerPort
	cmd := append([]string{
		"--port", strconv.Itoa(containerPort),
		"--data-dir", dataMount,
	}, opts.Extra...)
	containerID, err := r.manager.Create(ctx, container.ContainerConfig{
		Image: run.Image,
		Name:  fmt.Sprintf("benchtainer-%s-%s", entry.Name(), shortID(runID)),
		Cmd:   cmd,
		Mounts: []container.Mount{
			{Source: scratch, Dest: config.ScratchMount},
			{Source: r.cfg.DataDir, Dest: dataMount, ReadOnly: true},
		},
		Ports: []container.PortMapping{
			{Host: port, Container: containerPort},
		},
	})
	if err != nil {
		return nil, r.fail(run, err)
	}

	if err := r.store.MarkRunStarted(run.ID, string(containerID)); err != nil {
		return nil, err
	}
	run.ContainerID = string(containerID)
	run.Status = store.RunRunning

	if err := r.manager.Start(ctx, containerID); err != nil {
		return nil, r.fail(run, err)
	}

	r.emit(events.NewEvent(events.RunStarted, entry.ID).WithRun(run.ID).WithPayload(map[string]any{
		"image": run.Image,
		"port":  port,
	}))
	return run, nil
}

// WaitReady polls the server's health endpoint until it answers or ctx
// expires, then emits run.ready.
func (r *Runner) WaitReady(ctx context.Context, run *store.Run) error {
	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", run.HostPort)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				r.emit(events.NewEvent(events.RunReady, run.Benchmark).WithRun(run.ID))
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("benchmark server at %s not ready: %w", url, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Wait blocks until the container exits and records the exit code.
func (r *Runner) Wait(ctx context.Context, run *store.Run) (int, error) {
	code, err := r.manager.Wait(ctx, container.ContainerID(run.ContainerID))
	if err != nil {
		return 0, err
	}

	status := store.RunExited
	if code != 0 {
		status = store.RunFailed
	}
	if err := r.store.FinishRun(run.ID, status, &code, ""); err != nil {
		return code, err
	}

	eventType := events.RunExited
	if code != 0 {
		eventType = events.RunFailed
	}
	r.emit(events.NewEvent(eventType, run.Benchmark).WithRun(run.ID).WithPayload(map[string]any{
		"exit_code": code,
	}))
	return code, nil
}

// Stop stops a run by ID or unique ID prefix.
func (r *Runner) Stop(ctx context.Context, idOrPrefix string) (*store.Run, error) {
	run, err := r.store.GetRun(idOrPrefix)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("no run matching %q", idOrPrefix)
	}

	grace, err := r.cfg.Server.ShutdownGraceDuration()
	if err != nil {
		grace = 10 * time.Second
	}
	if err := r.manager.Stop(ctx, container.ContainerID(run.ContainerID), grace); err != nil {
		return nil, err
	}
	if err := r.store.FinishRun(run.ID, store.RunStopped, nil, ""); err != nil {
		return nil, err
	}
	run.Status = store.RunStopped

	r.emit(events.NewEvent(events.RunStopped, run.Benchmark).WithRun(run.ID))
	return run, nil
}

// Logs streams a run's container logs.
func (r *Runner) Logs(ctx context.Context, idOrPrefix string) (io.ReadCloser, error) {
	run, err := r.store.GetRun(idOrPrefix)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("no run matching %q", idOrPrefix)
	}
	return r.manager.Logs(ctx, container.ContainerID(run.ContainerID))
}

// Cleanup removes containers of finished runs and prunes rows older
// than the cutoff. Returns the number of pruned runs and builds.
func (r *Runner) Cleanup(ctx context.Context, cutoff time.Time) (int64, int64, error) {
	runs, err := r.store.ListRuns(false)
	if err != nil {
		return 0, 0, err
	}
	for _, run := range runs {
		if run.Status == store.RunRunning || run.ContainerID == "" {
			continue
		}
		// Best effort: the container may already be gone.
		_ = r.manager.Remove(ctx, container.ContainerID(run.ContainerID))
		_ = os.RemoveAll(filepath.Join(r.cfg.ScratchDir, run.ID))
	}

	prunedRuns, err := r.store.PruneRuns(cutoff)
	if err != nil {
		return 0, 0, err
	}
	prunedBuilds, err := r.store.PruneBuilds(cutoff)
	if err != nil {
		return prunedRuns, 0, err
	}
	return prunedRuns, prunedBuilds, nil
}

func (r *Runner) fail(run *store.Run, err error) error {
	_ = r.store.FinishRun(run.ID, store.RunFailed, nil, err.Error())
	r.emit(events.NewEvent(events.RunFailed, run.Benchmark).WithRun(run.ID).WithError(err))
	return err
}

func (r *Runner) runtime() string {
	if m, ok := r.manager.(*container.CLIManager); ok {
		return m.Runtime()
	}
	return r.cfg.Runtime
}

func (r *Runner) emit(e events.Event) {
	if r.bus != nil {
		r.bus.Emit(e)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
