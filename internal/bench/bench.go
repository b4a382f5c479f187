// Package bench implements the benchmark objective functions the server
// exposes. Tabular benchmarks (NAS-Bench-101/201, FCNet) answer from
// precomputed result tables; the ML and RL benchmarks evaluate seeded
// surrogate response surfaces standing in for live training.
package bench

import (
	"context"
	"fmt"
)

// Result is the outcome of one objective evaluation.
type Result struct {
	// FunctionValue is the optimization target (lower is better).
	FunctionValue float64 `json:"function_value"`

	// Cost is the (simulated) wallclock cost of the evaluation in seconds.
	Cost float64 `json:"cost"`

	// Info carries benchmark-specific extras, including the fidelity used.
	Info map[string]any `json:"info"`
}

// Options tune a single evaluation.
type Options struct {
	// Seed seeds the benchmark's random state. Nil uses a fixed default,
	// so unseeded evaluations are reproducible.
	Seed *int64

	// DataSeeds selects which recorded training runs a tabular benchmark
	// reads (NAS-Bench-201: subsets of 777, 888, 999). Empty uses all.
	DataSeeds []int
}

// Benchmark is one benchmark the server can expose.
type Benchmark interface {
	// ID returns the dotted benchmark identifier.
	ID() string

	// Space returns the configuration space.
	Space() *Space

	// FidelitySpace returns the fidelity space. Missing fidelity values
	// default to the maximum budget.
	FidelitySpace() *Space

	// Objective evaluates a configuration at a fidelity.
	Objective(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error)

	// ObjectiveTest evaluates a configuration for final validation, on
	// the benchmark's test split at the highest budget.
	ObjectiveTest(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error)

	// Meta returns descriptive benchmark metadata.
	Meta() map[string]any
}

// New constructs the benchmark for a dotted identifier. Tabular
// benchmarks load their result tables from dataDir. Options is the
// lenient key/value bag from pass-through launcher arguments (e.g.
// "dataset" for NAS-Bench-201 and FCNet).
func New(id, dataDir string, options map[string]string) (Benchmark, error) {
	switch id {
	case "ml.svm_benchmark":
		return NewSVM(), nil
	case "ml.xgboost_benchmark":
		return NewXGBoost(), nil
	case "nas.nasbench_101":
		return NewNASBench101(dataDir)
	case "nas.nasbench_201":
		dataset := options["dataset"]
		if dataset == "" {
			dataset = "cifar10"
		}
		return NewNASBench201(dataDir, dataset)
	case "nas.tabular_benchmarks":
		dataset := options["dataset"]
		if dataset == "" {
			dataset = "protein_structure"
		}
		return NewFCNet(dataDir, dataset)
	case "rl.cartpole":
		return NewCartpole(), nil
	default:
		return nil, fmt.Errorf("no benchmark implementation for %q", id)
	}
}

// DataError is returned when a tabular benchmark's result table is not
// in the data directory yet.
type DataError struct {
	Benchmark string
	Path      string
	Err       error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s: result table %s unavailable (run `benchtainer fetch %s`): %v",
		e.Benchmark, e.Path, e.Benchmark, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}
