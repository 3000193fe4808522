// Package constants provides centralized constant values used throughout waypoint.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// File names of the tracked documents.
const (
	// SessionStateFileName is the live cursor document for the workflow.
	SessionStateFileName = "session-state.json"

	// ProgressFileName is the per-project phase/task progress document.
	ProgressFileName = "progress.json"

	// CheckpointsFileName is the append-only checkpoint history document.
	CheckpointsFileName = "checkpoints.json"

	// MonitorStateFileName is the git-status monitor's tool-use counter file.
	MonitorStateFileName = "monitor-state.json"
)

// Directory names.
const (
	// StateDir is the project-relative directory holding the tracked documents.
	StateDir = ".claude"

	// WaypointHome is the hidden directory name for waypoint's own config and logs.
	WaypointHome = ".waypoint"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"
)

// Schema and document defaults.
const (
	// SchemaVersion is the schema version written into new documents and
	// expected by the validator.
	SchemaVersion = "1.0.0"

	// PlaceholderProjectName names the project in a checkpoints document that
	// had to be initialized from scratch.
	PlaceholderProjectName = "ui-library"

	// PlaceholderProjectVersion is the project version used alongside PlaceholderProjectName.
	PlaceholderProjectVersion = "1.0.0"

	// WorkingBranchPrefix is the naming convention the validator expects for
	// current.working_branch. Violations are advisory.
	WorkingBranchPrefix = "feature/"

	// DefaultUpdatedBy is the metadata.last_updated_by value for CLI mutations.
	DefaultUpdatedBy = "waypoint"
)

// Backup naming.
const (
	// BackupInfix is inserted before the .json extension of a backup file.
	BackupInfix = ".backup."

	// JSONExtension is the extension of every tracked document.
	JSONExtension = ".json"
)

// Store locking.
const (
	// DefaultLockTimeout bounds how long the store waits for an advisory lock.
	DefaultLockTimeout = 5 * time.Second

	// LockRetryInterval is the interval between lock acquisition attempts.
	LockRetryInterval = 50 * time.Millisecond

	// LockFileSuffix is appended to a document path to name its lock file.
	LockFileSuffix = ".lock"
)

// Git-status monitor.
const (
	// DefaultMonitorThreshold is the number of recorded tool uses that
	// triggers a git-status banner.
	DefaultMonitorThreshold = 5

	// MonitorBannerWidth is the width of the banner rule.
	MonitorBannerWidth = 60

	// GitCommandTimeout bounds each git invocation.
	GitCommandTimeout = 5 * time.Second
)

// Log file rotation.
const (
	// CLILogFileName is the name of the CLI log file under ~/.waypoint/logs.
	CLILogFileName = "waypoint.log"

	// LogMaxSizeMB is the size in megabytes at which the log file rotates.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files kept.
	LogMaxBackups = 3

	// LogMaxAgeDays is the number of days rotated log files are kept.
	LogMaxAgeDays = 28

	// LogCompress controls gzip compression of rotated log files.
	LogCompress = true
)
