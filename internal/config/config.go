package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all benchtainer settings.
type Config struct {
	// Runtime is the container runtime to use: "auto" (detect), "docker",
	// "podman", "apptainer" or "singularity".
	Runtime string `yaml:"runtime"`

	// DataDir is where benchmark data files (tabular result tables) live
	// on the host. Mounted read-only into benchmark containers.
	DataDir string `yaml:"data_dir"`

	// CacheDir is where downloaded datasets and staged build contexts are
	// kept between builds.
	CacheDir string `yaml:"cache_dir"`

	// ScratchDir is the writable state directory created for benchmark
	// runs. Inside containers it is always mounted at ScratchMount.
	ScratchDir string `yaml:"scratch_dir"`

	// StatePath is the SQLite database recording builds and runs.
	StatePath string `yaml:"state_path"`

	// RecipeDir holds user recipe definition files. Identifiers without a
	// matching file fall back to the embedded catalog's recipes.
	RecipeDir string `yaml:"recipe_dir"`

	// CatalogPath is an optional user benchmark catalog merged over the
	// embedded one.
	CatalogPath string `yaml:"catalog_path"`

	// ImagePrefix is prepended to generated image tags,
	// e.g. "benchtainer" -> "benchtainer/nasbench_201:latest".
	ImagePrefix string `yaml:"image_prefix"`

	Server ServerConfig `yaml:"server"`

	// BuildTimeout bounds a whole image build ("45m" style duration).
	BuildTimeout string `yaml:"build_timeout"`

	// FetchTimeout bounds a single dataset download.
	FetchTimeout string `yaml:"fetch_timeout"`
}

// ServerConfig holds the benchmark server listen settings used by
// `benchtainer serve` and published when running containers.
type ServerConfig struct {
	// Host is the listen address inside the container.
	Host string `yaml:"host"`

	// Port is the benchmark server port.
	Port int `yaml:"port"`

	// ShutdownGrace is how long to wait for in-flight evaluations on
	// shutdown ("10s" style duration).
	ShutdownGrace string `yaml:"shutdown_grace"`
}

// ScratchMount is the fixed in-container path of the writable state
// directory. Recipes create it at build time; runs mount ScratchDir there.
const ScratchMount = "/var/lib/benchtainer"

// BuildTimeoutDuration parses the build timeout string.
func (c *Config) BuildTimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(c.BuildTimeout)
}

// FetchTimeoutDuration parses the fetch timeout string.
func (c *Config) FetchTimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(c.FetchTimeout)
}

// ShutdownGraceDuration parses the server shutdown grace string.
func (c *ServerConfig) ShutdownGraceDuration() (time.Duration, error) {
	return time.ParseDuration(c.ShutdownGrace)
}

// Load loads configuration with the usual precedence: defaults, then the
// first config file found, then environment overrides, then validation.
//
// The search order for the config file is:
//  1. explicit path (if non-empty)
//  2. $BENCHTAINER_CONFIG
//  3. ./.benchtainer.yaml
//  4. ~/.config/benchtainer/config.yaml
//
// A missing config file is not an error; defaults apply.
func Load(explicit string) (*Config, error) {
	cfg := DefaultConfig()

	path := findConfigFile(explicit)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	expandPaths(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("BENCHTAINER_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat(".benchtainer.yaml"); err == nil {
		return ".benchtainer.yaml"
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".config", "benchtainer", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// expandPaths resolves "~" prefixes and makes directory paths absolute.
func expandPaths(cfg *Config) {
	for _, p := range []*string{
		&cfg.DataDir, &cfg.CacheDir, &cfg.ScratchDir,
		&cfg.StatePath, &cfg.RecipeDir, &cfg.CatalogPath,
	} {
		*p = expandHome(*p)
	}
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if len(path) > 1 && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}

// EnsureDirs creates the data, cache and scratch directories if needed.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.CacheDir, c.ScratchDir, filepath.Dir(c.StatePath)} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
