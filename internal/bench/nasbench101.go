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

const (
	// nb101Vertices is the cell size: input, output and 5 interior ops.
	nb101Vertices = 7

	// nb101MaxEdges caps the number of active edges of a valid cell.
	nb101MaxEdges = 9
)

// nb101Edges is the number of entries in the upper triangle of the
// 7x7 adjacency matrix.
const nb101Edges = nb101Vertices * (nb101Vertices - 1) / 2

// nb101OpChoices are the operations selectable for the 5 interior nodes.
var nb101OpChoices = []string{"conv1x1-bn-relu", "conv3x3-bn-relu", "maxpool3x3"}

// nb101Budgets are the recorded epoch budgets.
var nb101Budgets = []int{4, 12, 36, 108}

// nb101Metrics are the recorded metrics of one architecture at one
// budget, averaged over the three training repeats.
type nb101Metrics struct {
	ValidAcc     float64 `json:"valid_accuracy"`
	TestAcc      float64 `json:"test_accuracy"`
	TrainingTime float64 `json:"training_time"`
}

// nb101Table is the on-disk result table.
type nb101Table struct {
	Archs map[string]map[string]*nb101Metrics `json:"archs"`
}

// NASBench101 answers architecture queries from the NAS-Bench-101
// CIFAR-10 result table. Configurations encode the cell as 21 binary
// edge parameters plus 5 categorical operation parameters.
type NASBench101 struct {
	archs map[string]map[string]*nb101Metrics
}

// NewNASBench101 loads the result table from
// dataDir/nasbench_101/nasbench.json.
func NewNASBench101(dataDir string) (*NASBench101, error) {
	path := filepath.Join(dataDir, "nasbench_101", "nasbench.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &DataError{Benchmark: "nas.nasbench_101", Path: path, Err: err}
	}

	var table nb101Table
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse result table %s: %w", path, err)
	}
	return &NASBench101{archs: table.Archs}, nil
}

func newNASBench101FromTable(archs map[string]map[string]*nb101Metrics) *NASBench101 {
	return &NASBench101{archs: archs}
}

func (b *NASBench101) ID() string {
	return "nas.nasbench_101"
}

func (b *NASBench101) Space() *Space {
	params := make([]Parameter, 0, nb101Edges+5)
	for i := 0; i < nb101Edges; i++ {
		params = append(params, Parameter{
			Name:    fmt.Sprintf("edge_%d", i),
			Kind:    KindInt,
			Lower:   0,
			Upper:   1,
			Default: 0,
		})
	}
	for i := 0; i < 5; i++ {
		params = append(params, Parameter{
			Name:    fmt.Sprintf("op_node_%d", i),
			Kind:    KindCategorical,
			Choices: nb101OpChoices,
		})
	}
	return &Space{Params: params}
}

func (b *NASBench101) FidelitySpace() *Space {
	return &Space{Params: []Parameter{
		{Name: "budget", Kind: KindInt, Lower: 4, Upper: 108, Default: 108},
	}}
}

// Objective looks up the architecture's validation accuracy at the
// budget. Invalid cells (more than 9 edges, or absent from the table)
// score function value 1 at zero cost, matching how the result table
// treats unbuildable architectures.
func (b *NASBench101) Objective(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error) {
	if err := b.Space().Validate(cfg); err != nil {
		return Result{}, err
	}
	fidelity, err := b.FidelitySpace().ValidateFidelity(fidelity)
	if err != nil {
		return Result{}, err
	}

	budget := fidelity.Int("budget")
	if !containsInt(nb101Budgets, budget) {
		return Result{}, &ValidationError{
			Parameter: "budget",
			Message:   fmt.Sprintf("%d not a recorded budget %v", budget, nb101Budgets),
		}
	}

	key, edges := nb101Key(cfg)
	metrics := b.lookup(key, budget)
	if edges > nb101MaxEdges || metrics == nil {
		return Result{
			FunctionValue: 1,
			Cost:          0,
			Info: map[string]any{
				"invalid":  true,
				"fidelity": fidelity,
			},
		}, nil
	}

	return Result{
		FunctionValue: 1 - metrics.ValidAcc,
		Cost:          metrics.TrainingTime,
		Info: map[string]any{
			"valid_accuracy": metrics.ValidAcc,
			"test_accuracy":  metrics.TestAcc,
			"fidelity":       fidelity,
		},
	}, nil
}

// ObjectiveTest reports the test accuracy at the full 108-epoch budget.
func (b *NASBench101) ObjectiveTest(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error) {
	result, err := b.Objective(ctx, cfg, Configuration{"budget": 108}, opts)
	if err != nil {
		return Result{}, err
	}
	if invalid, _ := result.Info["invalid"].(bool); invalid {
		return result, nil
	}
	result.FunctionValue = 1 - result.Info["test_accuracy"].(float64)
	return result, nil
}

func (b *NASBench101) Meta() map[string]any {
	return map[string]any{
		"name": "NAS-Bench-101",
		"references": []string{
			"Chris Ying, Aaron Klein, Esteban Real, Eric Christiansen, Kevin Murphy, Frank Hutter",
			"NAS-Bench-101: Towards Reproducible Neural Architecture Search",
			"https://arxiv.org/abs/1902.09635",
		},
	}
}

func (b *NASBench101) lookup(key string, budget int) *nb101Metrics {
	byBudget, ok := b.archs[key]
	if !ok {
		return nil
	}
	return byBudget[strconv.Itoa(budget)]
}

// nb101Key canonicalizes a configuration as "<edge bits>/<ops>" and
// returns the number of active edges.
func nb101Key(cfg Configuration) (string, int) {
	var bits strings.Builder
	edges := 0
	for i := 0; i < nb101Edges; i++ {
		if cfg.Int(fmt.Sprintf("edge_%d", i)) == 1 {
			bits.WriteByte('1')
			edges++
		} else {
			bits.WriteByte('0')
		}
	}

	ops := make([]string, 5)
	for i := range ops {
		ops[i] = cfg.String(fmt.Sprintf("op_node_%d", i))
	}
	return bits.String() + "/" + strings.Join(ops, ","), edges
}
