// Package config provides configuration management for waypoint with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (WAYPOINT_* prefix)
//  3. Project config (.waypoint/config.yaml)
//  4. Global config (~/.waypoint/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Config is the root configuration structure for waypoint.
type Config struct {
	// Paths locates the tracked documents.
	Paths PathsConfig `yaml:"paths" mapstructure:"paths"`

	// Store contains settings for document reads and writes.
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// Validation contains the validator's conventions.
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`

	// Project names the project in a checkpoint history created from scratch.
	Project ProjectConfig `yaml:"project" mapstructure:"project"`

	// Monitor contains settings for the git-status monitor.
	Monitor MonitorConfig `yaml:"monitor" mapstructure:"monitor"`
}

// PathsConfig contains the document locations. Relative paths resolve
// against the working directory.
type PathsConfig struct {
	// SessionState is the live cursor document.
	// Default: .claude/session-state.json
	SessionState string `yaml:"session_state" mapstructure:"session_state"`

	// Progress is the phase/task progress document.
	// Default: .claude/progress.json
	Progress string `yaml:"progress" mapstructure:"progress"`

	// Checkpoints is the checkpoint history document.
	// Default: .claude/checkpoints.json
	Checkpoints string `yaml:"checkpoints" mapstructure:"checkpoints"`

	// MonitorState is the git-status monitor's counter file.
	// Default: .claude/monitor-state.json
	MonitorState string `yaml:"monitor_state" mapstructure:"monitor_state"`
}

// StoreConfig contains settings for the document store.
type StoreConfig struct {
	// Locking enables advisory file locks around read-modify-write cycles.
	// Default: false (last write wins)
	Locking bool `yaml:"locking" mapstructure:"locking"`

	// LockTimeout bounds how long a write waits for the lock.
	// Default: 5 seconds
	LockTimeout time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`
}

// ValidationConfig contains the conventions the validator enforces.
type ValidationConfig struct {
	// BranchPrefix is the expected prefix of current.working_branch.
	// An empty prefix disables the check.
	// Default: "feature/"
	BranchPrefix string `yaml:"branch_prefix" mapstructure:"branch_prefix"`

	// SchemaVersion is the schema version documents are expected to declare.
	// Default: "1.0.0"
	SchemaVersion string `yaml:"schema_version" mapstructure:"schema_version"`
}

// ProjectConfig contains placeholder project metadata.
type ProjectConfig struct {
	// Name is written into a fresh checkpoint history.
	Name string `yaml:"name" mapstructure:"name"`

	// Version is written alongside Name.
	Version string `yaml:"version" mapstructure:"version"`
}

// MonitorConfig contains settings for the git-status monitor.
type MonitorConfig struct {
	// Threshold is the number of recorded tool uses between status banners.
	// Default: 5
	Threshold int `yaml:"threshold" mapstructure:"threshold"`
}
