package bench

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fcnetTestConfig() Configuration {
	return Configuration{
		"n_units_1":       "64",
		"n_units_2":       "128",
		"dropout_1":       "0.0",
		"dropout_2":       "0.3",
		"activation_fn_1": "relu",
		"activation_fn_2": "tanh",
		"init_lr":         "0.001",
		"lr_schedule":     "cosine",
		"batch_size":      "32",
	}
}

func fcnetFixture() *FCNet {
	losses := make([]float64, fcnetMaxEpochs)
	for i := range losses {
		losses[i] = 1.0 / float64(i+1)
	}
	return newFCNetFromTable("protein_structure", map[string]*fcnetMetrics{
		fcnetKey(fcnetTestConfig()): {
			ValidLoss: losses,
			TestLoss:  0.0123,
			Runtime:   200,
		},
	})
}

func TestFCNetKeyIsOrderIndependent(t *testing.T) {
	cfg := fcnetTestConfig()
	want := fcnetKey(cfg)

	// Maps iterate in random order already, but make the point explicit:
	// a copy built in a different insertion order keys identically.
	reordered := Configuration{}
	reordered["batch_size"] = cfg["batch_size"]
	reordered["n_units_1"] = cfg["n_units_1"]
	for name, value := range cfg {
		reordered[name] = value
	}
	assert.Equal(t, want, fcnetKey(reordered))
	assert.Contains(t, want, "batch_size=32")
}

func TestFCNetObjective(t *testing.T) {
	b := fcnetFixture()

	result, err := b.Objective(context.Background(), fcnetTestConfig(), Configuration{"epoch": 50}, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/50, result.FunctionValue, 1e-9)
	assert.InDelta(t, 100.0, result.Cost, 1e-9)
	assert.Equal(t, "protein_structure", result.Info["dataset"])
}

func TestFCNetDefaultEpoch(t *testing.T) {
	b := fcnetFixture()

	result, err := b.Objective(context.Background(), fcnetTestConfig(), nil, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/100, result.FunctionValue, 1e-9)
	assert.InDelta(t, 200.0, result.Cost, 1e-9)
}

func TestFCNetObjectiveTest(t *testing.T) {
	b := fcnetFixture()

	result, err := b.ObjectiveTest(context.Background(), fcnetTestConfig(), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0.0123, result.FunctionValue)
}

func TestFCNetUnknownConfiguration(t *testing.T) {
	b := fcnetFixture()

	cfg := fcnetTestConfig()
	cfg["batch_size"] = "8"
	_, err := b.Objective(context.Background(), cfg, nil, Options{})
	assert.ErrorContains(t, err, "not in the protein_structure result table")
}

func TestFCNetRejectsOffGridValues(t *testing.T) {
	b := fcnetFixture()

	cfg := fcnetTestConfig()
	cfg["init_lr"] = "0.002"
	_, err := b.Objective(context.Background(), cfg, nil, Options{})
	assert.ErrorContains(t, err, `"0.002" not one of`)
}

func TestFCNetRejectsUnknownDataset(t *testing.T) {
	_, err := NewFCNet(t.TempDir(), "mnist")
	assert.ErrorContains(t, err, `unknown FCNet data set "mnist"`)
}
