package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// fcnetDatasets are the four regression data sets of the FCNet tabular
// benchmarks.
var fcnetDatasets = []string{
	"protein_structure",
	"slice_localization",
	"naval_propulsion",
	"parkinsons_telemonitoring",
}

// fcnetMaxEpochs is the recorded training length.
const fcnetMaxEpochs = 100

// fcnetMetrics are the recorded metrics of one hyperparameter
// configuration, averaged over the four training repeats.
type fcnetMetrics struct {
	// ValidLoss is the validation MSE per epoch (length 100).
	ValidLoss []float64 `json:"valid_mse"`

	// TestLoss is the final test MSE.
	TestLoss float64 `json:"final_test_mse"`

	// Runtime is the total training time in seconds.
	Runtime float64 `json:"runtime"`
}

// fcnetTable is the on-disk result table for one data set.
type fcnetTable struct {
	Dataset string                   `json:"dataset"`
	Configs map[string]*fcnetMetrics `json:"configs"`
}

// FCNet answers hyperparameter queries from the FCNet tabular benchmark
// result tables. One instance serves one data set.
type FCNet struct {
	dataset string
	configs map[string]*fcnetMetrics
}

// NewFCNet loads the result table for the given data set from
// dataDir/fcnet_tabular_benchmarks/<dataset>.json.
func NewFCNet(dataDir, dataset string) (*FCNet, error) {
	if !containsStr(fcnetDatasets, dataset) {
		return nil, fmt.Errorf("unknown FCNet data set %q (want one of %v)", dataset, fcnetDatasets)
	}

	path := filepath.Join(dataDir, "fcnet_tabular_benchmarks", dataset+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &DataError{Benchmark: "nas.tabular_benchmarks", Path: path, Err: err}
	}

	var table fcnetTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse result table %s: %w", path, err)
	}
	return &FCNet{dataset: dataset, configs: table.Configs}, nil
}

func newFCNetFromTable(dataset string, configs map[string]*fcnetMetrics) *FCNet {
	return &FCNet{dataset: dataset, configs: configs}
}

func (b *FCNet) ID() string {
	return "nas.tabular_benchmarks"
}

// Space returns the two-layer fully connected network grid the tables
// were generated from. All parameters are categorical: only the grid
// points were trained.
func (b *FCNet) Space() *Space {
	return &Space{Params: []Parameter{
		{Name: "n_units_1", Kind: KindCategorical, Choices: []string{"16", "32", "64", "128", "256", "512"}},
		{Name: "n_units_2", Kind: KindCategorical, Choices: []string{"16", "32", "64", "128", "256", "512"}},
		{Name: "dropout_1", Kind: KindCategorical, Choices: []string{"0.0", "0.3", "0.6"}},
		{Name: "dropout_2", Kind: KindCategorical, Choices: []string{"0.0", "0.3", "0.6"}},
		{Name: "activation_fn_1", Kind: KindCategorical, Choices: []string{"tanh", "relu"}},
		{Name: "activation_fn_2", Kind: KindCategorical, Choices: []string{"tanh", "relu"}},
		{Name: "init_lr", Kind: KindCategorical, Choices: []string{"0.0005", "0.001", "0.005", "0.01", "0.05", "0.1"}},
		{Name: "lr_schedule", Kind: KindCategorical, Choices: []string{"cosine", "const"}},
		{Name: "batch_size", Kind: KindCategorical, Choices: []string{"8", "16", "32", "64"}},
	}}
}

func (b *FCNet) FidelitySpace() *Space {
	return &Space{Params: []Parameter{
		{Name: "epoch", Kind: KindInt, Lower: 1, Upper: fcnetMaxEpochs, Default: fcnetMaxEpochs},
	}}
}

// Objective reports the validation MSE after `epoch` epochs. Cost is the
// recorded runtime scaled to the epoch budget.
func (b *FCNet) Objective(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error) {
	if err := b.Space().Validate(cfg); err != nil {
		return Result{}, err
	}
	fidelity, err := b.FidelitySpace().ValidateFidelity(fidelity)
	if err != nil {
		return Result{}, err
	}

	metrics, ok := b.configs[fcnetKey(cfg)]
	if !ok {
		return Result{}, fmt.Errorf("configuration not in the %s result table", b.dataset)
	}

	epoch := fidelity.Int("epoch")
	if epoch > len(metrics.ValidLoss) {
		return Result{}, fmt.Errorf("epoch %d beyond recorded results (%d epochs)", epoch, len(metrics.ValidLoss))
	}

	cost := metrics.Runtime * float64(epoch) / fcnetMaxEpochs
	return Result{
		FunctionValue: metrics.ValidLoss[epoch-1],
		Cost:          cost,
		Info: map[string]any{
			"valid_mse": metrics.ValidLoss[epoch-1],
			"test_mse":  metrics.TestLoss,
			"fidelity":  fidelity,
			"dataset":   b.dataset,
		},
	}, nil
}

// ObjectiveTest reports the final test MSE at the full budget.
func (b *FCNet) ObjectiveTest(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error) {
	result, err := b.Objective(ctx, cfg, nil, opts)
	if err != nil {
		return Result{}, err
	}
	result.FunctionValue = result.Info["test_mse"].(float64)
	return result, nil
}

func (b *FCNet) Meta() map[string]any {
	return map[string]any{
		"name":    "FCNet tabular benchmarks",
		"dataset": b.dataset,
		"references": []string{
			"Aaron Klein, Frank Hutter",
			"Tabular Benchmarks for Joint Architecture and Hyperparameter Optimization",
			"https://arxiv.org/abs/1905.04970",
		},
	}
}

// fcnetKey canonicalizes a configuration as sorted name=value pairs.
func fcnetKey(cfg Configuration) string {
	pairs := make([]string, 0, len(cfg))
	for name := range cfg {
		pairs = append(pairs, name+"="+cfg.String(name))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ";")
}
