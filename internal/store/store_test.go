package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}

func TestBuildLifecycle(t *testing.T) {
	s := openTestStore(t)

	build := &Build{
		ID:          NewID(),
		Benchmark:   "nas.nasbench_201",
		Fingerprint: "deadbeef01234567",
		Image:       "benchtainer/nasbench_201:latest",
		Runtime:     "docker",
		Status:      BuildPending,
	}
	require.NoError(t, s.CreateBuild(build))
	assert.Nil(t, build.StartedAt)

	got, err := s.GetBuild(build.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, BuildPending, got.Status)
	assert.Equal(t, "nas.nasbench_201", got.Benchmark)

	require.NoError(t, s.MarkBuildRunning(build.ID))
	got, err = s.GetBuild(build.ID)
	require.NoError(t, err)
	assert.Equal(t, BuildRunning, got.Status)
	assert.NotNil(t, got.StartedAt)

	assert.Error(t, s.MarkBuildRunning("01NOSUCHBUILD"))

	require.NoError(t, s.FinishBuild(build.ID, BuildSucceeded, ""))
	got, err = s.GetBuild(build.ID)
	require.NoError(t, err)
	assert.Equal(t, BuildSucceeded, got.Status)
	assert.NotNil(t, got.FinishedAt)
}

func TestGetBuildMissing(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetBuild("01XXXXXXXXXXXXXXXXXXXXXXXX")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = s.FinishBuild("01XXXXXXXXXXXXXXXXXXXXXXXX", BuildFailed, "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLatestSucceededBuild(t *testing.T) {
	s := openTestStore(t)

	fingerprint := "cafe000011112222"
	first := &Build{
		ID: NewID(), Benchmark: "rl.cartpole", Fingerprint: fingerprint,
		Image: "benchtainer/cartpole:latest", Runtime: "docker", Status: BuildRunning,
	}
	require.NoError(t, s.CreateBuild(first))
	require.NoError(t, s.FinishBuild(first.ID, BuildSucceeded, ""))

	// A failed later build doesn't mask the succeeded one.
	failed := &Build{
		ID: NewID(), Benchmark: "rl.cartpole", Fingerprint: fingerprint,
		Image: "benchtainer/cartpole:latest", Runtime: "docker", Status: BuildRunning,
	}
	require.NoError(t, s.CreateBuild(failed))
	require.NoError(t, s.FinishBuild(failed.ID, BuildFailed, "network down"))

	got, err := s.LatestSucceededBuild("rl.cartpole", fingerprint)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)

	// Different fingerprint means no match.
	got, err = s.LatestSucceededBuild("rl.cartpole", "0000000000000000")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)

	run := &Run{
		ID:        NewID(),
		Benchmark: "ml.svm_benchmark",
		Image:     "benchtainer/svm_benchmark:latest",
		Runtime:   "podman",
		Status:    RunCreated,
		HostPort:  8100,
	}
	require.NoError(t, s.CreateRun(run))

	require.NoError(t, s.MarkRunStarted(run.ID, "abc123container"))
	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, RunRunning, got.Status)
	assert.Equal(t, "abc123container", got.ContainerID)
	assert.NotNil(t, got.StartedAt)

	exitCode := 0
	require.NoError(t, s.FinishRun(run.ID, RunExited, &exitCode, ""))
	got, err = s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunExited, got.Status)
	require.NotNil(t, got.ExitCode)
	assert.Equal(t, 0, *got.ExitCode)
}

func TestGetRunByPrefix(t *testing.T) {
	s := openTestStore(t)

	run := &Run{
		ID: NewID(), Benchmark: "rl.cartpole",
		Image: "benchtainer/cartpole:latest", Runtime: "docker", Status: RunRunning,
	}
	require.NoError(t, s.CreateRun(run))

	got, err := s.GetRun(run.ID[:8])
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.ID, got.ID)

	got, err = s.GetRun("zzzzzz")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListRunsActiveOnly(t *testing.T) {
	s := openTestStore(t)

	active := &Run{ID: NewID(), Benchmark: "a.b", Image: "i", Runtime: "docker", Status: RunRunning}
	require.NoError(t, s.CreateRun(active))

	exited := &Run{ID: NewID(), Benchmark: "a.b", Image: "i", Runtime: "docker", Status: RunRunning}
	require.NoError(t, s.CreateRun(exited))
	code := 1
	require.NoError(t, s.FinishRun(exited.ID, RunExited, &code, ""))

	all, err := s.ListRuns(false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := s.ListRuns(true)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, active.ID, onlyActive[0].ID)
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)

	build := &Build{
		ID: NewID(), Benchmark: "a.b", Fingerprint: "f", Image: "i",
		Runtime: "docker", Status: BuildRunning,
	}
	require.NoError(t, s.CreateBuild(build))
	require.NoError(t, s.FinishBuild(build.ID, BuildSucceeded, ""))

	run := &Run{ID: NewID(), Benchmark: "a.b", Image: "i", Runtime: "docker", Status: RunRunning}
	require.NoError(t, s.CreateRun(run))
	require.NoError(t, s.FinishRun(run.ID, RunStopped, nil, ""))

	// A cutoff in the future prunes everything terminal.
	cutoff := time.Now().Add(time.Hour)
	nBuilds, err := s.PruneBuilds(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nBuilds)

	nRuns, err := s.PruneRuns(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nRuns)

	// Active rows survive pruning.
	survivor := &Run{ID: NewID(), Benchmark: "a.b", Image: "i", Runtime: "docker", Status: RunRunning}
	require.NoError(t, s.CreateRun(survivor))
	nRuns, err = s.PruneRuns(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(0), nRuns)
}

func TestEventLog(t *testing.T) {
	s := openTestStore(t)

	ownerID := NewID()
	require.NoError(t, s.AppendEvent(ownerID, "build.started", map[string]string{"image": "x"}))
	require.NoError(t, s.AppendEvent(ownerID, "build.step", nil))
	require.NoError(t, s.AppendEvent(ownerID, "build.completed", nil))

	events, err := s.ListEvents(ownerID, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, 1, events[0].Sequence)
	assert.Equal(t, "build.started", events[0].EventType)
	assert.JSONEq(t, `{"image":"x"}`, string(events[0].Payload))
	assert.Equal(t, 3, events[2].Sequence)

	// Resume after a sequence number.
	tailEvents, err := s.ListEvents(ownerID, 1)
	require.NoError(t, err)
	require.Len(t, tailEvents, 2)
	assert.Equal(t, 2, tailEvents[0].Sequence)
}
