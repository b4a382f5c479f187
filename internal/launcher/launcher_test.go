package launcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automlab/benchtainer/internal/config"
	"github.com/automlab/benchtainer/internal/registry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ScratchDir = dir + "/scratch"
	cfg.DataDir = dir + "/data"
	cfg.Server.Host = "127.0.0.1"
	return cfg
}

func TestServeUnknownBenchmark(t *testing.T) {
	catalog, err := registry.Default()
	require.NoError(t, err)

	l := New(testConfig(t), catalog, nil)
	err = l.Serve(context.Background(), "ml.unknown", nil)

	var uerr *registry.UnknownBenchmarkError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "ml.unknown", uerr.ID)
}

func TestServeRunsUntilCancelled(t *testing.T) {
	catalog, err := registry.Default()
	require.NoError(t, err)

	cfg := testConfig(t)
	// A fixed high port; the health probe below needs to know it up front.
	cfg.Server.Port = 18731

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	l := New(cfg, catalog, nil)
	go func() {
		done <- l.Serve(ctx, "ml.svm_benchmark", []string{"--dataset_fraction", "1.0"})
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", cfg.Server.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		var health map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			return false
		}
		return health["benchmark"] == "ml.svm_benchmark"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not shut down")
	}

	// The scratch directory is created on startup.
	assert.DirExists(t, cfg.ScratchDir)
}

func TestScratchDirFallsBackToConfig(t *testing.T) {
	cfg := testConfig(t)
	l := New(cfg, nil, nil)

	// The fixed container mount does not exist on test hosts.
	assert.Equal(t, cfg.ScratchDir, l.scratchDir())
}
