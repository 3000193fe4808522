package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// A slice (not a map) because errors.Is() requires chain traversal.
// Order matters: a type mismatch also matches ErrInvalidPath.
//
//nolint:gochecknoglobals // Pre-built mapping
var errorInfoEntries = []errorEntry{
	{
		err: ErrDocumentRead,
		info: ErrorInfo{
			Message: "A state document could not be read.",
			Action:  "Check that the file exists and contains valid JSON, or pass the path with --session-state/--progress/--checkpoints.",
		},
	},
	{
		err: ErrDocumentWrite,
		info: ErrorInfo{
			Message: "A state document could not be written.",
			Action:  "Check that the directory exists and is writable.",
		},
	},
	{
		err: ErrTypeMismatch,
		info: ErrorInfo{
			Message: "The value does not match the field's type.",
			Action:  "Numbers need numeric values, flags need true/false, lists need a JSON array.",
		},
	},
	{
		err: ErrInvalidPath,
		info: ErrorInfo{
			Message: "The field path does not exist in the document.",
			Action:  "Use dotted JSON keys such as timing.last_activity or progress.tasks_completed.",
		},
	},
	{
		err: ErrInvalidTimestamp,
		info: ErrorInfo{
			Message: "A stored timestamp could not be parsed.",
			Action:  "Timestamps must be ISO-8601, for example 2025-01-10T09:00:00Z.",
		},
	},
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Another process is holding the document lock.",
			Action:  "Wait for the other process to finish, or raise store.lock_timeout.",
		},
	},
	{
		err: ErrValidationFailed,
		info: ErrorInfo{
			Message: "Validation failed. Check the output above for specific errors.",
			Action:  "Fix the reported fields and run 'waypoint validate' again.",
		},
	},
	{
		err: ErrStateUnsafe,
		info: ErrorInfo{
			Message: "The working directory has uncommitted changes.",
			Action:  "Commit or stash changes, then run 'waypoint state sync-git'.",
		},
	},
	{
		err: ErrNotGitRepo,
		info: ErrorInfo{
			Message: "This command must be run inside a git repository.",
			Action:  "",
		},
	},
	{
		err: ErrGitOperation,
		info: ErrorInfo{
			Message: "A git command failed.",
			Action:  "Run the git command manually to see the full error.",
		},
	},
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "The output format is not supported.",
			Action:  "Use --output text, json or yaml.",
		},
	},
	{
		err: ErrInvalidArgument,
		info: ErrorInfo{
			Message: "An invalid argument was provided.",
			Action:  "Check the command help for valid arguments.",
		},
	},
}

// getErrorInfo looks up the ErrorInfo for a given error.
// Returns an ErrorInfo with the original error message if not found.
func getErrorInfo(err error) ErrorInfo {
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}
	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve the issue.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
