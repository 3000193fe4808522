package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/waypoint/internal/domain"
	"github.com/mrz1836/waypoint/internal/errors"
	"github.com/mrz1836/waypoint/internal/validate"
)

// safeResult is the structured form of the safe command.
type safeResult struct {
	Safe                  bool            `json:"safe"`
	WorkingDirectoryClean bool            `json:"working_directory_clean"`
	Validation            validate.Result `json:"validation"`
}

// AddSafeCommand adds the safe command to the root command.
func AddSafeCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(&cobra.Command{
		Use:   "safe",
		Short: "Check that automated work may proceed",
		Long: `Check that the session state is valid and the recorded working
directory is clean. Run 'waypoint state sync-git' first to refresh the
working tree counters.

Exit codes:
  0: Safe to proceed
  1: Working directory not clean, or the state could not be read
  2: Session state failed validation`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			return runSafe(a)
		},
	})
}

// runSafe judges the file as stored, so absent counters fail validation the
// same way they do for 'waypoint validate session'.
func runSafe(a *app) error {
	path := a.store.Paths().SessionState
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errors.ErrDocumentRead, path, err)
	}

	validation, err := a.validator.SessionStateJSON(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errors.ErrDocumentRead, path, err)
	}
	safe, err := a.validator.IsStateSafeJSON(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errors.ErrDocumentRead, path, err)
	}

	var doc domain.SessionState
	if validation.Valid {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("%w: %s: %w", errors.ErrDocumentRead, path, err)
		}
	}

	res := safeResult{Safe: safe, Validation: validation}
	if doc.GitState != nil {
		res.WorkingDirectoryClean = doc.GitState.WorkingDirectoryClean
	}

	if err := a.render(func() {
		switch {
		case res.Safe:
			a.out.Success("Safe to proceed")
		case !res.Validation.Valid:
			_, _ = fmt.Fprintln(a.w, validate.Summary(res.Validation))
		case doc.GitState == nil:
			a.out.Warning("No git_state recorded; run 'waypoint state sync-git'")
		default:
			a.out.Warning(fmt.Sprintf("Working directory has %d uncommitted changes", doc.GitState.UncommittedChanges()))
		}
	}, res); err != nil {
		return err
	}

	switch {
	case res.Safe:
		return nil
	case !res.Validation.Valid:
		return errors.NewExitCode2Error(fmt.Errorf("%w: %w", errors.ErrValidationFailed, errors.ErrJSONErrorOutput))
	default:
		return fmt.Errorf("%w: %w", errors.ErrStateUnsafe, errors.ErrJSONErrorOutput)
	}
}
