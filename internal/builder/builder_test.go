package builder

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automlab/benchtainer/internal/config"
	"github.com/automlab/benchtainer/internal/container"
	"github.com/automlab/benchtainer/internal/events"
	"github.com/automlab/benchtainer/internal/fetch"
	"github.com/automlab/benchtainer/internal/git"
	"github.com/automlab/benchtainer/internal/registry"
	"github.com/automlab/benchtainer/internal/store"
)

// fakeManager records build requests.
type fakeManager struct {
	mu     sync.Mutex
	builds []container.BuildConfig
	err    error
}

func (m *fakeManager) Build(ctx context.Context, cfg container.BuildConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds = append(m.builds, cfg)
	return m.err
}

func (m *fakeManager) Create(context.Context, container.ContainerConfig) (container.ContainerID, error) {
	return "", errors.New("not implemented")
}
func (m *fakeManager) Start(context.Context, container.ContainerID) error   { return nil }
func (m *fakeManager) Wait(context.Context, container.ContainerID) (int, error) {
	return 0, nil
}
func (m *fakeManager) Logs(context.Context, container.ContainerID) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}
func (m *fakeManager) Stop(context.Context, container.ContainerID, time.Duration) error { return nil }
func (m *fakeManager) Remove(context.Context, container.ContainerID) error              { return nil }

// fakeFetcher serves datasets without the network.
type fakeFetcher struct {
	mu      sync.Mutex
	fetched []string
	cached  bool
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context, name, url, sha string) (fetch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return fetch.Result{}, f.err
	}
	f.fetched = append(f.fetched, name)
	return fetch.Result{Path: "/cache/" + name, Size: 64, Cached: f.cached}, nil
}

// fakeGit satisfies the git runner so library clones stay offline.
type fakeGit struct {
	mu    sync.Mutex
	calls [][]string
}

func (f *fakeGit) Exec(ctx context.Context, dir string, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	return "", nil
}

type testBuilder struct {
	*Builder
	manager *fakeManager
	fetcher *fakeFetcher
	gitRuns *fakeGit
	store   *store.Store
	events  *[]events.Event
	bus     *events.Bus
}

func newTestBuilder(t *testing.T) *testBuilder {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Runtime = "docker"
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.RecipeDir = filepath.Join(dir, "recipes")
	cfg.BuildTimeout = "1m"

	catalog, err := registry.Default()
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	gitRuns := &fakeGit{}
	git.SetDefaultRunner(gitRuns)
	t.Cleanup(func() { git.SetDefaultRunner(nil) })

	var seen []events.Event
	bus := events.NewBus(64)
	bus.Subscribe(func(e events.Event) { seen = append(seen, e) })

	manager := &fakeManager{}
	fetcher := &fakeFetcher{}
	return &testBuilder{
		Builder: New(cfg, catalog, manager, st, fetcher, bus),
		manager: manager,
		fetcher: fetcher,
		gitRuns: gitRuns,
		store:   st,
		events:  &seen,
		bus:     bus,
	}
}

func (tb *testBuilder) eventTypes(t *testing.T) []events.EventType {
	t.Helper()
	require.NoError(t, tb.bus.Close())

	var types []events.EventType
	for _, e := range *tb.events {
		types = append(types, e.Type)
	}
	return types
}

func TestBuildLifecycle(t *testing.T) {
	tb := newTestBuilder(t)

	build, err := tb.Build(context.Background(), "ml.svm_benchmark", Options{})
	require.NoError(t, err)
	assert.Equal(t, store.BuildSucceeded, build.Status)
	assert.Equal(t, "benchtainer/svm_benchmark:latest", build.Image)

	require.Len(t, tb.manager.builds, 1)
	built := tb.manager.builds[0]
	assert.Equal(t, "benchtainer/svm_benchmark:latest", built.Tag)
	assert.Empty(t, built.DefinitionFile)

	// The staged context carries the generated Dockerfile.
	data, err := os.ReadFile(filepath.Join(built.ContextDir, "Dockerfile"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "FROM python:3.7-slim")
	assert.Contains(t, string(data), "COPY library /home/hpolib3")

	// The library was cloned at its pinned ref.
	require.NotEmpty(t, tb.gitRuns.calls)
	assert.Contains(t, tb.gitRuns.calls[0], "clone")

	stored, err := tb.store.GetBuild(build.ID)
	require.NoError(t, err)
	assert.Equal(t, store.BuildSucceeded, stored.Status)
	assert.NotNil(t, stored.StartedAt)

	types := tb.eventTypes(t)
	assert.Equal(t, []events.EventType{
		events.BuildStarted, events.BuildStaged, events.BuildCompleted,
	}, types)
}

func TestBuildSkipsCachedFingerprint(t *testing.T) {
	tb := newTestBuilder(t)

	first, err := tb.Build(context.Background(), "ml.svm_benchmark", Options{})
	require.NoError(t, err)

	second, err := tb.Build(context.Background(), "ml.svm_benchmark", Options{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, tb.manager.builds, 1)

	types := tb.eventTypes(t)
	assert.Contains(t, types, events.BuildCached)
}

func TestBuildForceRebuilds(t *testing.T) {
	tb := newTestBuilder(t)

	first, err := tb.Build(context.Background(), "ml.svm_benchmark", Options{})
	require.NoError(t, err)

	second, err := tb.Build(context.Background(), "ml.svm_benchmark", Options{Force: true})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, tb.manager.builds, 2)
}

func TestBuildFailureIsRecorded(t *testing.T) {
	tb := newTestBuilder(t)
	tb.manager.err = errors.New("no space left on device")

	_, err := tb.Build(context.Background(), "ml.svm_benchmark", Options{})
	require.ErrorContains(t, err, "no space left")

	builds, err := tb.store.ListBuilds()
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, store.BuildFailed, builds[0].Status)
	assert.Contains(t, builds[0].Error, "no space left")

	types := tb.eventTypes(t)
	assert.Equal(t, events.BuildFailed, types[len(types)-1])
}

func TestBuildUnknownBenchmark(t *testing.T) {
	tb := newTestBuilder(t)

	_, err := tb.Build(context.Background(), "nas.unknown", Options{})
	var uerr *registry.UnknownBenchmarkError
	assert.ErrorAs(t, err, &uerr)
}

func TestBuildRejectsMismatchedRunscript(t *testing.T) {
	tb := newTestBuilder(t)

	// A user recipe override whose runscript serves a different
	// benchmark must be rejected before anything is staged or built.
	override := "Bootstrap: docker\n" +
		"From: python:3.7-slim\n" +
		"%post\n" +
		"    mkdir -p /var/lib/benchtainer\n" +
		"%runscript\n" +
		"    benchtainer serve rl.cartpole $@\n"
	require.NoError(t, os.MkdirAll(tb.Builder.cfg.RecipeDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(tb.Builder.cfg.RecipeDir, "svm_benchmark.def"), []byte(override), 0o644))

	_, err := tb.Build(context.Background(), "ml.svm_benchmark", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `runscript launches "rl.cartpole"`)
	assert.Empty(t, tb.manager.builds)
}

func TestFetchDatasets(t *testing.T) {
	tb := newTestBuilder(t)

	catalog, err := registry.Default()
	require.NoError(t, err)
	entry, err := catalog.Lookup("nas.nasbench_201")
	require.NoError(t, err)

	require.NoError(t, tb.FetchDatasets(context.Background(), entry))
	assert.Equal(t, []string{"nasbench_201_data_v1.3.zip"}, tb.fetcher.fetched)

	types := tb.eventTypes(t)
	assert.Equal(t, []events.EventType{
		events.DatasetFetchStarted, events.DatasetFetched,
	}, types)
}

func TestFetchDatasetsPropagatesErrors(t *testing.T) {
	tb := newTestBuilder(t)
	tb.fetcher.err = errors.New("connection refused")

	catalog, err := registry.Default()
	require.NoError(t, err)
	entry, err := catalog.Lookup("nas.tabular_benchmarks")
	require.NoError(t, err)

	err = tb.FetchDatasets(context.Background(), entry)
	assert.ErrorContains(t, err, "connection refused")
}
