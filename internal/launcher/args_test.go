package launcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name  string
		extra []string
		want  Args
	}{
		{
			name:  "empty",
			extra: nil,
			want:  Args{Options: map[string]string{}},
		},
		{
			name:  "port and data dir",
			extra: []string{"--port", "9000", "--data-dir", "/data"},
			want:  Args{Port: 9000, DataDir: "/data", Options: map[string]string{}},
		},
		{
			name:  "equals form",
			extra: []string{"--port=9000", "--dataset=cifar100"},
			want:  Args{Port: 9000, Options: map[string]string{"dataset": "cifar100"}},
		},
		{
			name:  "unknown flags become options",
			extra: []string{"--dataset", "cifar100", "--rng_seed", "12"},
			want:  Args{Options: map[string]string{"dataset": "cifar100", "rng_seed": "12"}},
		},
		{
			name:  "flag without value",
			extra: []string{"--debug"},
			want:  Args{Options: map[string]string{"debug": "true"}},
		},
		{
			name:  "positional tokens ignored",
			extra: []string{"leftover", "--dataset", "cifar10", "trailing"},
			want:  Args{Options: map[string]string{"dataset": "cifar10"}},
		},
		{
			name:  "single dash works too",
			extra: []string{"-port", "8200"},
			want:  Args{Port: 8200, Options: map[string]string{}},
		},
		{
			name:  "bad port value ignored",
			extra: []string{"--port", "lots"},
			want:  Args{Options: map[string]string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArgs(tt.extra))
		})
	}
}
