package config

import (
	"os"
	"strconv"
)

// envOverrides maps environment variables to config field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "BENCHTAINER_RUNTIME",
		apply: func(c *Config, v string) {
			c.Runtime = v
		},
	},
	{
		envVar: "BENCHTAINER_DATA_DIR",
		apply: func(c *Config, v string) {
			c.DataDir = v
		},
	},
	{
		envVar: "BENCHTAINER_CACHE_DIR",
		apply: func(c *Config, v string) {
			c.CacheDir = v
		},
	},
	{
		envVar: "BENCHTAINER_SCRATCH_DIR",
		apply: func(c *Config, v string) {
			c.ScratchDir = v
		},
	},
	{
		envVar: "BENCHTAINER_PORT",
		apply: func(c *Config, v string) {
			if port, err := strconv.Atoi(v); err == nil {
				c.Server.Port = port
			}
		},
	},
}

// applyEnvOverrides modifies config in place with environment variable values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}
