package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/waypoint/internal/errors"
	"github.com/mrz1836/waypoint/internal/validate"
)

// Validation targets accepted by the validate command.
const (
	validateSession     = "session"
	validateProgress    = "progress"
	validateCheckpoints = "checkpoints"
	validateAll         = "all"
)

// AddValidateCommand adds the validate command to the root command.
func AddValidateCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newValidateCmd(flags))
}

func newValidateCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [session|progress|checkpoints|all]",
		Short: "Validate the tracked documents",
		Long: `Validate one document, or all of them together with the cross-document
consistency checks (the default).

With "all", a missing progress or checkpoints document is skipped; the
session state is required.

Exit codes:
  0: Validation passed (warnings allowed)
  1: A document could not be read or is not JSON
  2: Validation failed`,
		ValidArgs: []string{validateSession, validateProgress, validateCheckpoints, validateAll},
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := validateAll
			if len(args) == 1 {
				target = args[0]
			}
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			return runValidate(a, target)
		},
	}
}

func runValidate(a *app, target string) error {
	paths := a.store.Paths()
	var (
		result validate.Result
		err    error
	)

	switch target {
	case validateSession:
		result, err = validateFile(paths.SessionState, a.validator.SessionStateJSON)
	case validateProgress:
		result, err = validateFile(paths.Progress, a.validator.ProgressJSON)
	case validateCheckpoints:
		result, err = validateFile(paths.Checkpoints, a.validator.CheckpointsJSON)
	default:
		result, err = validateAllDocuments(a.ctx, a.validator, paths.SessionState, paths.Progress, paths.Checkpoints)
	}
	if err != nil {
		return err
	}

	a.logger.Debug().
		Str("target", target).
		Int("errors", len(result.Errors)).
		Int("warnings", len(result.Warnings)).
		Msg("validation finished")

	if err := a.render(func() {
		_, _ = fmt.Fprintln(a.w, validate.Summary(result))
	}, result); err != nil {
		return err
	}

	if !result.Valid {
		// The result has been printed; only the exit code remains.
		return errors.NewExitCode2Error(fmt.Errorf("%w: %w", errors.ErrValidationFailed, errors.ErrJSONErrorOutput))
	}
	return nil
}

func validateFile(path string, check func([]byte) (validate.Result, error)) (validate.Result, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return validate.Result{}, fmt.Errorf("%w: %s: %w", errors.ErrDocumentRead, path, err)
	}
	result, err := check(data)
	if err != nil {
		return validate.Result{}, fmt.Errorf("%w: %s: %w", errors.ErrDocumentRead, path, err)
	}
	return result, nil
}

// validateAllDocuments loads the three documents concurrently and runs the
// consistency checks. Missing optional documents are passed as nil.
func validateAllDocuments(ctx context.Context, v *validate.Validator, sessionPath, progressPath, checkpointsPath string) (validate.Result, error) {
	var session, progress, checkpoints []byte

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := os.ReadFile(sessionPath) //nolint:gosec // path comes from configuration
		if err != nil {
			return fmt.Errorf("%w: %s: %w", errors.ErrDocumentRead, sessionPath, err)
		}
		session = data
		return nil
	})
	g.Go(func() (err error) {
		progress, err = readOptional(progressPath)
		return err
	})
	g.Go(func() (err error) {
		checkpoints, err = readOptional(checkpointsPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return validate.Result{}, err
	}

	result, err := v.ConsistencyJSON(session, progress, checkpoints)
	if err != nil {
		return validate.Result{}, fmt.Errorf("%w: %w", errors.ErrDocumentRead, err)
	}
	return result, nil
}

// readOptional returns nil data without error when path does not exist.
func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrDocumentRead, path, err)
	}
	return data, nil
}
