package launcher

import (
	"strconv"
	"strings"
)

// Args are the launch arguments recipes append after the benchmark
// identifier.
type Args struct {
	// Port overrides the configured server port (0 means unset).
	Port int

	// DataDir overrides the configured data directory.
	DataDir string

	// Options collects every other flag as a benchmark option,
	// e.g. --dataset cifar100.
	Options map[string]string
}

// ParseArgs parses launch arguments leniently. Recipes pass their
// runscript arguments straight through, so unknown flags must never be
// an error: anything not recognized becomes a benchmark option. Both
// "--key value" and "--key=value" forms work; a flag without a value
// gets "true"; bare positional tokens are ignored.
func ParseArgs(extra []string) Args {
	args := Args{Options: map[string]string{}}

	for i := 0; i < len(extra); i++ {
		token := extra[i]
		if !strings.HasPrefix(token, "-") {
			continue
		}

		key := strings.TrimLeft(token, "-")
		value := ""
		if k, v, ok := strings.Cut(key, "="); ok {
			key, value = k, v
		} else if i+1 < len(extra) && !strings.HasPrefix(extra[i+1], "-") {
			value = extra[i+1]
			i++
		}

		switch key {
		case "port":
			if p, err := strconv.Atoi(value); err == nil {
				args.Port = p
			}
		case "data-dir", "data_dir":
			args.DataDir = value
		default:
			if value == "" {
				value = "true"
			}
			args.Options[key] = value
		}
	}
	return args
}
