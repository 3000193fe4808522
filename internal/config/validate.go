package config

import (
	"github.com/mrz1836/waypoint/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - every document path must be set
//   - store.lock_timeout must be positive
//   - validation.schema_version must not be empty
//   - monitor.threshold must be at least 1
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validatePathsConfig(&cfg.Paths); err != nil {
		return err
	}

	if cfg.Store.LockTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidStore,
			"store.lock_timeout must be positive, got %s", cfg.Store.LockTimeout)
	}

	if cfg.Validation.SchemaVersion == "" {
		return errors.Wrap(errors.ErrEmptyValue, "validation.schema_version must not be empty")
	}

	if cfg.Monitor.Threshold < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidMonitor,
			"monitor.threshold must be at least 1, got %d", cfg.Monitor.Threshold)
	}

	return nil
}

// validatePathsConfig checks that no document path is empty.
func validatePathsConfig(cfg *PathsConfig) error {
	fields := []struct {
		key   string
		value string
	}{
		{"paths.session_state", cfg.SessionState},
		{"paths.progress", cfg.Progress},
		{"paths.checkpoints", cfg.Checkpoints},
		{"paths.monitor_state", cfg.MonitorState},
	}
	for _, f := range fields {
		if f.value == "" {
			return errors.Wrapf(errors.ErrConfigInvalidPaths, "%s must not be empty", f.key)
		}
	}
	return nil
}
