package config

import (
	"os"
	"path/filepath"
)

const (
	DefaultRuntime       = "auto"
	DefaultImagePrefix   = "benchtainer"
	DefaultServerHost    = "0.0.0.0"
	DefaultServerPort    = 8100
	DefaultShutdownGrace = "10s"
	DefaultBuildTimeout  = "45m"
	DefaultFetchTimeout  = "15m"
)

// DefaultConfig returns a Config with all default values applied.
// Directories follow the XDG layout under the user's home; when the home
// directory cannot be determined the current directory is used.
func DefaultConfig() *Config {
	base := ".benchtainer"
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".local", "share", "benchtainer")
	}

	return &Config{
		Runtime:      DefaultRuntime,
		DataDir:      filepath.Join(base, "data"),
		CacheDir:     filepath.Join(base, "cache"),
		ScratchDir:   filepath.Join(base, "scratch"),
		StatePath:    filepath.Join(base, "state.db"),
		RecipeDir:    filepath.Join(base, "recipes"),
		ImagePrefix:  DefaultImagePrefix,
		BuildTimeout: DefaultBuildTimeout,
		FetchTimeout: DefaultFetchTimeout,
		Server: ServerConfig{
			Host:          DefaultServerHost,
			Port:          DefaultServerPort,
			ShutdownGrace: DefaultShutdownGrace,
		},
	}
}
