// Package errors provides centralized error handling for waypoint.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
var (
	// ErrDocumentRead indicates a state document could not be read: the file is
	// missing, unreadable, or not well-formed JSON of the expected shape.
	ErrDocumentRead = errors.New("failed to read document")

	// ErrDocumentWrite indicates a state document could not be serialized or
	// written to disk.
	ErrDocumentWrite = errors.New("failed to write document")

	// ErrInvalidPath indicates a dotted field path that does not resolve
	// against the document tree.
	ErrInvalidPath = errors.New("invalid field path")

	// ErrTypeMismatch indicates a field update whose value does not fit the
	// target field's type.
	ErrTypeMismatch = errors.New("value type does not match field")

	// ErrInvalidTimestamp indicates a stored timestamp that is not ISO-8601.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrLockTimeout indicates a file lock could not be acquired within the timeout period.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrValidationFailed indicates a document or document set failed validation.
	ErrValidationFailed = errors.New("validation failed")

	// ErrStateUnsafe indicates the session state is valid but the working
	// directory is not clean, so automated steps should not proceed.
	ErrStateUnsafe = errors.New("session state is not safe to proceed")

	// ErrGitOperation indicates that a git command failed during execution.
	ErrGitOperation = errors.New("git operation failed")

	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidPaths indicates a missing or invalid document path in configuration.
	ErrConfigInvalidPaths = errors.New("invalid paths configuration")

	// ErrConfigInvalidStore indicates an invalid store configuration value.
	ErrConfigInvalidStore = errors.New("invalid store configuration")

	// ErrConfigInvalidMonitor indicates an invalid monitor configuration value.
	ErrConfigInvalidMonitor = errors.New("invalid monitor configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrInvalidArgument indicates that an invalid argument was provided.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrJSONErrorOutput indicates that an error has already been output as JSON.
	// This ensures a non-zero exit code while preventing duplicate error messages.
	// Commands should silence cobra's error printing when this is returned.
	ErrJSONErrorOutput = errors.New("error output as JSON")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
