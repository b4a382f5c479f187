package bench

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nb201TestArch is the all-none cell.
const nb201TestArch = "|none~0|+|none~0|none~1|+|none~0|none~1|none~2|"

func nb201TestConfig() Configuration {
	cfg := Configuration{}
	for i := 1; i < nb201MaxNodes; i++ {
		for j := 0; j < i; j++ {
			cfg[fmt.Sprintf("%d<-%d", i, j)] = "none"
		}
	}
	return cfg
}

// nb201Fixture records two epochs for the all-none cell under all three
// seeds, with metrics offset per seed so averaging is observable.
func nb201Fixture() *NASBench201 {
	data := make(map[int]map[string]*nb201Metrics)
	for k, seed := range nb201DataSeeds {
		base := float64(k)
		data[seed] = map[string]*nb201Metrics{
			nb201TestArch: {
				TrainAcc:  []float64{50 + base, 60 + base},
				TrainLoss: []float64{2.0, 1.5},
				TrainTime: []float64{10, 10},
				EvalAcc:   []float64{40 + base, 55 + base},
				EvalLoss:  []float64{2.5, 1.8},
				EvalTime:  []float64{1, 1},
			},
		}
	}
	return newNASBench201FromTable("cifar10", data)
}

func TestNB201StructureString(t *testing.T) {
	cfg := nb201TestConfig()
	cfg["2<-0"] = "skip_connect"
	cfg["3<-1"] = "nor_conv_3x3"

	want := "|none~0|+|skip_connect~0|none~1|+|none~0|nor_conv_3x3~1|none~2|"
	assert.Equal(t, want, nb201StructureString(cfg))
}

func TestNB201SpaceShape(t *testing.T) {
	space := nb201Fixture().Space()
	require.Len(t, space.Params, 6)

	for _, p := range space.Params {
		assert.Equal(t, KindCategorical, p.Kind)
		assert.Equal(t, nb201Ops, p.Choices)
	}

	_, ok := space.Lookup("3<-2")
	assert.True(t, ok)
}

func TestNB201ObjectiveAveragesSeeds(t *testing.T) {
	b := nb201Fixture()

	result, err := b.Objective(context.Background(), nb201TestConfig(), Configuration{"epoch": 1}, Options{})
	require.NoError(t, err)

	// Mean train accuracy over seeds is (60+61+62)/3 = 61.
	assert.InDelta(t, 100-61.0, result.FunctionValue, 1e-9)

	// Cost sums the cumulative train time of every seed: 3 * (10+10).
	assert.InDelta(t, 60.0, result.Cost, 1e-9)

	assert.InDelta(t, 100-56.0, result.Info["eval_precision"].(float64), 1e-9)
	assert.InDelta(t, 60.0+6.0, result.Info["eval_cost"].(float64), 1e-9)
}

func TestNB201ObjectiveSingleSeed(t *testing.T) {
	b := nb201Fixture()

	result, err := b.Objective(context.Background(), nb201TestConfig(), Configuration{"epoch": 1}, Options{DataSeeds: []int{888}})
	require.NoError(t, err)
	assert.InDelta(t, 100-61.0, result.FunctionValue, 1e-9)

	_, err = b.Objective(context.Background(), nb201TestConfig(), nil, Options{DataSeeds: []int{123}})
	assert.ErrorContains(t, err, "data seed 123")
}

func TestNB201DefaultFidelityIsLastEpoch(t *testing.T) {
	b := nb201Fixture()

	// The fixture only records epochs 0 and 1, so the default budget of
	// 199 must be rejected rather than silently truncated.
	_, err := b.Objective(context.Background(), nb201TestConfig(), nil, Options{})
	assert.ErrorContains(t, err, "beyond recorded results")

	result, err := b.Objective(context.Background(), nb201TestConfig(), Configuration{"epoch": 0}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Info["fidelity"].(Configuration).Int("epoch"))
}

func TestNB201ObjectiveTestUsesEvalSplit(t *testing.T) {
	b := nb201Fixture()

	result, err := b.ObjectiveTest(context.Background(), nb201TestConfig(), Configuration{"epoch": 1}, Options{DataSeeds: []int{777}})
	require.NoError(t, err)

	// All three seeds regardless of the requested subset.
	assert.InDelta(t, 100-56.0, result.FunctionValue, 1e-9)
	assert.InDelta(t, 66.0, result.Cost, 1e-9)
}

func TestNB201UnknownArchitecture(t *testing.T) {
	b := nb201Fixture()

	cfg := nb201TestConfig()
	cfg["1<-0"] = "avg_pool_3x3"
	_, err := b.Objective(context.Background(), cfg, Configuration{"epoch": 0}, Options{})
	assert.ErrorContains(t, err, "not in the cifar10 result table")
}

func TestNB201RejectsUnknownDataset(t *testing.T) {
	_, err := NewNASBench201(t.TempDir(), "svhn")
	assert.ErrorContains(t, err, `unknown NAS-Bench-201 data set "svhn"`)
}

func TestNB201MissingTableIsDataError(t *testing.T) {
	_, err := NewNASBench201(t.TempDir(), "cifar10")

	var derr *DataError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "nas.nasbench_201", derr.Benchmark)
	assert.Contains(t, derr.Error(), "benchtainer fetch")
}
