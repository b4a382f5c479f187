package bench

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nb101TestConfig builds a linear chain cell: edges 0->1->...->6 active,
// all interior ops conv3x3.
func nb101TestConfig() Configuration {
	cfg := Configuration{}
	for i := 0; i < nb101Edges; i++ {
		cfg[fmt.Sprintf("edge_%d", i)] = 0
	}
	// Upper-triangle index of edge (i, i+1) in row-major order.
	idx := 0
	for row := 0; row < nb101Vertices-1; row++ {
		cfg[fmt.Sprintf("edge_%d", idx)] = 1
		idx += nb101Vertices - 1 - row
	}
	for i := 0; i < 5; i++ {
		cfg[fmt.Sprintf("op_node_%d", i)] = "conv3x3-bn-relu"
	}
	return cfg
}

func nb101Fixture(t *testing.T) *NASBench101 {
	t.Helper()
	key, edges := nb101Key(nb101TestConfig())
	require.Equal(t, 6, edges)

	return newNASBench101FromTable(map[string]map[string]*nb101Metrics{
		key: {
			"12":  {ValidAcc: 0.80, TestAcc: 0.78, TrainingTime: 300},
			"108": {ValidAcc: 0.93, TestAcc: 0.91, TrainingTime: 2500},
		},
	})
}

func TestNB101SpaceShape(t *testing.T) {
	space := (&NASBench101{}).Space()
	assert.Len(t, space.Params, nb101Edges+5)

	edge, ok := space.Lookup("edge_20")
	require.True(t, ok)
	assert.Equal(t, KindInt, edge.Kind)

	op, ok := space.Lookup("op_node_4")
	require.True(t, ok)
	assert.Equal(t, nb101OpChoices, op.Choices)
}

func TestNB101Objective(t *testing.T) {
	b := nb101Fixture(t)

	result, err := b.Objective(context.Background(), nb101TestConfig(), Configuration{"budget": 12}, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 1-0.80, result.FunctionValue, 1e-9)
	assert.InDelta(t, 300.0, result.Cost, 1e-9)
}

func TestNB101DefaultBudget(t *testing.T) {
	b := nb101Fixture(t)

	result, err := b.Objective(context.Background(), nb101TestConfig(), nil, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 1-0.93, result.FunctionValue, 1e-9)
}

func TestNB101RejectsUnrecordedBudget(t *testing.T) {
	b := nb101Fixture(t)

	_, err := b.Objective(context.Background(), nb101TestConfig(), Configuration{"budget": 100}, Options{})
	assert.ErrorContains(t, err, "not a recorded budget")
}

func TestNB101InvalidArchitecturePenalty(t *testing.T) {
	b := nb101Fixture(t)

	// Too many edges: every edge active.
	cfg := nb101TestConfig()
	for i := 0; i < nb101Edges; i++ {
		cfg[fmt.Sprintf("edge_%d", i)] = 1
	}
	result, err := b.Objective(context.Background(), cfg, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.FunctionValue)
	assert.Zero(t, result.Cost)
	assert.Equal(t, true, result.Info["invalid"])

	// Absent from the table: same penalty.
	cfg = nb101TestConfig()
	cfg["op_node_0"] = "maxpool3x3"
	result, err = b.Objective(context.Background(), cfg, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.FunctionValue)
}

func TestNB101ObjectiveTest(t *testing.T) {
	b := nb101Fixture(t)

	result, err := b.ObjectiveTest(context.Background(), nb101TestConfig(), nil, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 1-0.91, result.FunctionValue, 1e-9)
	assert.InDelta(t, 2500.0, result.Cost, 1e-9)
}

func TestNB101MissingTableIsDataError(t *testing.T) {
	_, err := NewNASBench101(t.TempDir())

	var derr *DataError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "nas.nasbench_101", derr.Benchmark)
}
