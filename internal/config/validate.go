package config

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// knownRuntimes are the container runtimes benchtainer can drive.
var knownRuntimes = map[string]bool{
	"auto":        true,
	"docker":      true,
	"podman":      true,
	"apptainer":   true,
	"singularity": true,
}

// validateConfig checks all config values for validity.
// Returns nil if valid, or joined errors for all validation failures.
func validateConfig(cfg *Config) error {
	var errs []error

	if !knownRuntimes[cfg.Runtime] {
		errs = append(errs, &ValidationError{
			Field:   "runtime",
			Value:   cfg.Runtime,
			Message: "must be auto, docker, podman, apptainer or singularity",
		})
	}

	if cfg.DataDir == "" {
		errs = append(errs, &ValidationError{
			Field:   "data_dir",
			Value:   cfg.DataDir,
			Message: "must not be empty",
		})
	}

	if cfg.CacheDir == "" {
		errs = append(errs, &ValidationError{
			Field:   "cache_dir",
			Value:   cfg.CacheDir,
			Message: "must not be empty",
		})
	}

	if cfg.ScratchDir == "" {
		errs = append(errs, &ValidationError{
			Field:   "scratch_dir",
			Value:   cfg.ScratchDir,
			Message: "must not be empty",
		})
	}

	if cfg.ImagePrefix == "" {
		errs = append(errs, &ValidationError{
			Field:   "image_prefix",
			Value:   cfg.ImagePrefix,
			Message: "must not be empty",
		})
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, &ValidationError{
			Field:   "server.port",
			Value:   cfg.Server.Port,
			Message: "must be between 1 and 65535",
		})
	}

	for field, value := range map[string]string{
		"build_timeout":         cfg.BuildTimeout,
		"fetch_timeout":         cfg.FetchTimeout,
		"server.shutdown_grace": cfg.Server.ShutdownGrace,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			errs = append(errs, &ValidationError{
				Field:   field,
				Value:   value,
				Message: "must be a valid duration",
			})
		}
	}

	return errors.Join(errs...)
}
