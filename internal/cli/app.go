package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrz1836/waypoint/internal/checkpoint"
	"github.com/mrz1836/waypoint/internal/clock"
	"github.com/mrz1836/waypoint/internal/config"
	"github.com/mrz1836/waypoint/internal/ctxutil"
	"github.com/mrz1836/waypoint/internal/git"
	"github.com/mrz1836/waypoint/internal/monitor"
	"github.com/mrz1836/waypoint/internal/state"
	"github.com/mrz1836/waypoint/internal/tui"
	"github.com/mrz1836/waypoint/internal/validate"
)

// app is everything a command needs, resolved once per invocation from
// configuration and global flags.
type app struct {
	ctx       context.Context //nolint:containedctx // command-scoped
	logger    zerolog.Logger
	cfg       *config.Config
	store     *state.Store
	validator *validate.Validator
	out       tui.Output
	w         io.Writer
	workDir   string
	clock     clock.Clock
}

// newApp loads configuration, applies the global flag overrides and builds
// the store, validator and output for cmd.
func newApp(cmd *cobra.Command, flags *GlobalFlags) (*app, error) {
	if err := ctxutil.Canceled(cmd.Context()); err != nil {
		return nil, err
	}

	logger := GetLogger()
	ctx := logger.WithContext(cmd.Context())
	w := cmd.OutOrStdout()

	out, err := tui.NewOutput(w, flags.Output)
	if err != nil {
		return nil, err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	overrides := &config.Config{
		Paths: config.PathsConfig{
			SessionState: flags.SessionState,
			Progress:     flags.Progress,
			Checkpoints:  flags.Checkpoints,
		},
		Store: config.StoreConfig{Locking: flags.Lock},
	}
	cfg, err := config.LoadWithOverrides(ctx, overrides)
	if err != nil {
		return nil, err
	}

	paths := state.Paths{
		SessionState: config.ResolvePath(workDir, cfg.Paths.SessionState),
		Progress:     config.ResolvePath(workDir, cfg.Paths.Progress),
		Checkpoints:  config.ResolvePath(workDir, cfg.Paths.Checkpoints),
	}

	c := clock.Clock(clock.RealClock{})
	opts := []state.Option{state.WithClock(c)}
	if cfg.Store.Locking {
		opts = append(opts, state.WithLocking(cfg.Store.LockTimeout))
	}

	logger.Debug().
		Str("session_state", paths.SessionState).
		Str("progress", paths.Progress).
		Str("checkpoints", paths.Checkpoints).
		Bool("locking", cfg.Store.Locking).
		Msg("resolved document paths")

	return &app{
		ctx:    ctx,
		logger: logger,
		cfg:    cfg,
		store:  state.New(paths, opts...),
		validator: validate.New(
			validate.WithSchemaVersion(cfg.Validation.SchemaVersion),
			validate.WithBranchPrefix(cfg.Validation.BranchPrefix),
		),
		out:     out,
		w:       w,
		workDir: workDir,
		clock:   c,
	}, nil
}

// git returns a runner for the working directory.
func (a *app) git() (*git.CLIRunner, error) {
	return git.NewRunner(a.ctx, a.workDir)
}

// checkpoints returns a checkpoint manager. Git capture is skipped outside
// a repository.
func (a *app) checkpoints() *checkpoint.Manager {
	opts := []checkpoint.Option{
		checkpoint.WithProject(a.cfg.Project.Name, a.cfg.Project.Version),
		checkpoint.WithClock(a.clock),
	}
	if runner, err := a.git(); err == nil {
		opts = append(opts, checkpoint.WithGit(runner))
	} else {
		a.logger.Debug().Err(err).Msg("git unavailable for checkpoint capture")
	}
	return checkpoint.NewManager(a.store, opts...)
}

// monitor returns the git-status monitor writing banners to w.
func (a *app) monitor(w io.Writer) *monitor.Monitor {
	var source monitor.StatusSource
	if runner, err := a.git(); err == nil {
		source = runner
	}
	return monitor.New(
		config.ResolvePath(a.workDir, a.cfg.Paths.MonitorState),
		source,
		w,
		monitor.WithThreshold(a.cfg.Monitor.Threshold),
		monitor.WithClock(a.clock),
	)
}

// render prints v in structured formats and calls text otherwise.
func (a *app) render(text func(), v any) error {
	if a.out.Format() == tui.FormatText {
		text()
		return nil
	}
	return a.out.Value(v)
}

// printScalar writes strings, numbers and booleans bare in text output so
// shell scripts can capture them. Everything else goes through Value.
func (a *app) printScalar(v any) error {
	if a.out.Format() == tui.FormatText {
		switch v.(type) {
		case string, int, float64, bool:
			_, err := fmt.Fprintln(a.w, v)
			return err
		}
	}
	return a.out.Value(v)
}

