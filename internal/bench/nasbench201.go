package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// nb201MaxNodes is the cell size of the NAS-Bench-201 search space.
const nb201MaxNodes = 4

// nb201Ops are the operations selectable on each cell edge.
var nb201Ops = []string{"none", "skip_connect", "nor_conv_1x1", "nor_conv_3x3", "avg_pool_3x3"}

// nb201DataSeeds are the three recorded training runs per architecture.
var nb201DataSeeds = []int{777, 888, 999}

// nb201Datasets are the data sets the result tables cover.
var nb201Datasets = []string{"cifar10-valid", "cifar10", "cifar100", "ImageNet16-120"}

// nb201Metrics holds the recorded per-epoch metrics of one architecture
// under one data seed. Train metrics are per trained epoch; eval metrics
// follow the data-set-specific split described in the table docs.
type nb201Metrics struct {
	TrainAcc  []float64 `json:"train_acc1es"`
	TrainLoss []float64 `json:"train_losses"`
	TrainTime []float64 `json:"train_times"`
	EvalAcc   []float64 `json:"eval_acc1es"`
	EvalLoss  []float64 `json:"eval_losses"`
	EvalTime  []float64 `json:"eval_times"`
}

// nb201Table is the on-disk result table for one data set. The original
// per-data-set split exists because the combined table is too large to
// load at once.
type nb201Table struct {
	Dataset string                              `json:"dataset"`
	Seeds   map[string]map[string]*nb201Metrics `json:"seeds"`
}

// NASBench201 answers architecture queries from the NAS-Bench-201
// result tables. One instance serves one data set.
type NASBench201 struct {
	dataset string
	data    map[int]map[string]*nb201Metrics
}

// NewNASBench201 loads the result table for the given data set from
// dataDir/nasbench_201/<dataset>.json.
func NewNASBench201(dataDir, dataset string) (*NASBench201, error) {
	if !containsStr(nb201Datasets, dataset) {
		return nil, fmt.Errorf("unknown NAS-Bench-201 data set %q (want one of %v)", dataset, nb201Datasets)
	}

	path := filepath.Join(dataDir, "nasbench_201", dataset+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &DataError{Benchmark: "nas.nasbench_201", Path: path, Err: err}
	}

	var table nb201Table
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse result table %s: %w", path, err)
	}

	data := make(map[int]map[string]*nb201Metrics, len(table.Seeds))
	for seedStr, archs := range table.Seeds {
		seed, err := strconv.Atoi(seedStr)
		if err != nil || !containsInt(nb201DataSeeds, seed) {
			return nil, fmt.Errorf("result table %s: unexpected seed %q", path, seedStr)
		}
		data[seed] = archs
	}

	return &NASBench201{dataset: dataset, data: data}, nil
}

// newNASBench201FromTable builds a benchmark from an in-memory table.
// Used by tests and the data conversion pipeline.
func newNASBench201FromTable(dataset string, data map[int]map[string]*nb201Metrics) *NASBench201 {
	return &NASBench201{dataset: dataset, data: data}
}

func (b *NASBench201) ID() string {
	return "nas.nasbench_201"
}

// Space returns one categorical parameter per cell edge: "i<-j" selects
// the operation on the edge from node j into node i.
func (b *NASBench201) Space() *Space {
	var params []Parameter
	for i := 1; i < nb201MaxNodes; i++ {
		for j := 0; j < i; j++ {
			params = append(params, Parameter{
				Name:    fmt.Sprintf("%d<-%d", i, j),
				Kind:    KindCategorical,
				Choices: nb201Ops,
			})
		}
	}
	return &Space{Params: params}
}

// FidelitySpace returns the trained-epoch budget. Epochs are 0-indexed:
// epoch 0 is the result after the first epoch.
func (b *NASBench201) FidelitySpace() *Space {
	return &Space{Params: []Parameter{
		{Name: "epoch", Kind: KindInt, Lower: 0, Upper: 199, Default: 199},
	}}
}

// Objective reports the train metrics of the queried architecture,
// averaged across the requested data seeds. Cost is the summed recorded
// training time.
func (b *NASBench201) Objective(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error) {
	if err := b.Space().Validate(cfg); err != nil {
		return Result{}, err
	}
	fidelity, err := b.FidelitySpace().ValidateFidelity(fidelity)
	if err != nil {
		return Result{}, err
	}

	seeds := opts.DataSeeds
	if len(seeds) == 0 {
		seeds = nb201DataSeeds
	}
	for _, seed := range seeds {
		if !containsInt(nb201DataSeeds, seed) {
			return Result{}, fmt.Errorf("data seed %d not recorded (want a subset of %v)", seed, nb201DataSeeds)
		}
	}

	structure := nb201StructureString(cfg)
	epoch := fidelity.Int("epoch")

	var trainAcc, trainLoss, trainCost float64
	var evalAcc, evalLoss, evalCost float64
	for _, seed := range seeds {
		metrics, ok := b.data[seed][structure]
		if !ok {
			return Result{}, fmt.Errorf("architecture %q not in the %s result table", structure, b.dataset)
		}
		if epoch >= len(metrics.TrainAcc) {
			return Result{}, fmt.Errorf("epoch %d beyond recorded results (%d epochs)", epoch, len(metrics.TrainAcc))
		}

		trainAcc += metrics.TrainAcc[epoch]
		trainLoss += metrics.TrainLoss[epoch]
		trainCost += sum(metrics.TrainTime[:epoch+1])
		evalAcc += metrics.EvalAcc[epoch]
		evalLoss += metrics.EvalLoss[epoch]
		evalCost += sum(metrics.EvalTime[:epoch+1])
	}

	n := float64(len(seeds))
	trainPrecision := 100 - trainAcc/n
	evalPrecision := 100 - evalAcc/n

	return Result{
		FunctionValue: trainPrecision,
		Cost:          trainCost,
		Info: map[string]any{
			"train_precision": trainPrecision,
			"train_losses":    trainLoss / n,
			"train_cost":      trainCost,
			"eval_precision":  evalPrecision,
			"eval_losses":     evalLoss / n,
			"eval_cost":       trainCost + evalCost,
			"fidelity":        fidelity,
			"dataset":         b.dataset,
		},
	}, nil
}

// ObjectiveTest reports the evaluation-split metrics across all three
// data seeds: the result dict already carries them, so the function
// value and cost are swapped from the eval entries.
func (b *NASBench201) ObjectiveTest(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error) {
	opts.DataSeeds = nb201DataSeeds
	result, err := b.Objective(ctx, cfg, fidelity, opts)
	if err != nil {
		return Result{}, err
	}
	result.FunctionValue = result.Info["eval_precision"].(float64)
	result.Cost = result.Info["eval_cost"].(float64)
	return result, nil
}

func (b *NASBench201) Meta() map[string]any {
	return map[string]any{
		"name":    "NAS-Bench-201",
		"dataset": b.dataset,
		"references": []string{
			"Xuanyi Dong, Yi Yang",
			"NAS-Bench-201: Extending the Scope of Reproducible Neural Architecture Search",
			"https://openreview.net/forum?id=HJxyZkBKDr",
		},
	}
}

// nb201StructureString encodes an edge configuration as the canonical
// architecture string, e.g.
// |none~0|+|skip_connect~0|none~1|+|none~0|none~1|none~2|
func nb201StructureString(cfg Configuration) string {
	var nodes []string
	for i := 1; i < nb201MaxNodes; i++ {
		var edges []string
		for j := 0; j < i; j++ {
			op := cfg.String(fmt.Sprintf("%d<-%d", i, j))
			edges = append(edges, fmt.Sprintf("%s~%d", op, j))
		}
		nodes = append(nodes, "|"+strings.Join(edges, "|")+"|")
	}
	return strings.Join(nodes, "+")
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func containsStr(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func containsInt(values []int, want int) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
