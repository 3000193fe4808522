package config

import (
	"path/filepath"

	"github.com/mrz1836/waypoint/internal/constants"
)

// DefaultConfig returns a new Config with the built-in default values.
// These defaults are the base layer that config files, environment
// variables, and CLI flags override.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			SessionState: filepath.Join(constants.StateDir, constants.SessionStateFileName),
			Progress:     filepath.Join(constants.StateDir, constants.ProgressFileName),
			Checkpoints:  filepath.Join(constants.StateDir, constants.CheckpointsFileName),
			MonitorState: filepath.Join(constants.StateDir, constants.MonitorStateFileName),
		},
		Store: StoreConfig{
			Locking:     false,
			LockTimeout: constants.DefaultLockTimeout,
		},
		Validation: ValidationConfig{
			BranchPrefix:  constants.WorkingBranchPrefix,
			SchemaVersion: constants.SchemaVersion,
		},
		Project: ProjectConfig{
			Name:    constants.PlaceholderProjectName,
			Version: constants.PlaceholderProjectVersion,
		},
		Monitor: MonitorConfig{
			Threshold: constants.DefaultMonitorThreshold,
		},
	}
}
