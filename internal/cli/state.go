package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/waypoint/internal/domain"
	"github.com/mrz1836/waypoint/internal/errors"
	"github.com/mrz1836/waypoint/internal/git"
	"github.com/mrz1836/waypoint/internal/state"
	"github.com/mrz1836/waypoint/internal/tui"
)

// AddStateCommand adds the state command group to the root command.
func AddStateCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Read and update the session state document",
		Long: `Read and update the session state document (.claude/session-state.json).

Fields are addressed by dotted paths using the JSON field names, with
numeric segments indexing into lists:

  current.phase
  timing.last_activity
  progress.tasks_completed.0

Every update re-stamps metadata.last_updated_at.`,
	}

	cmd.AddCommand(
		newStateShowCmd(flags),
		newStateGetCmd(flags),
		newStateSetCmd(flags),
		newStateBatchCmd(flags),
		newStateTouchCmd(flags),
		newStateSyncCmd(flags),
		newStateSyncGitCmd(flags),
		newStateCurrentCmd(flags),
		newStateTimingCmd(flags),
		newStateMetadataCmd(flags),
		newStateCompleteTaskCmd(flags),
		newStateSummaryCmd(flags),
	)
	root.AddCommand(cmd)
}

func newStateShowCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the whole session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			doc, err := a.store.ReadSessionState(a.ctx)
			if err != nil {
				return err
			}
			return a.out.Value(doc)
		},
	}
}

func newStateGetCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Print one field of the session state",
		Example: `  waypoint state get current.phase
  waypoint state get progress.tasks_completed --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			doc, err := a.store.ReadSessionState(a.ctx)
			if err != nil {
				return err
			}
			v, err := state.Lookup(doc, args[0])
			if err != nil {
				return err
			}
			return a.printScalar(v)
		},
	}
}

func newStateSetCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Assign one field of the session state",
		Long: `Assign one field of the session state.

The value is converted to the field's type. Lists accept a JSON array or a
comma-separated string.`,
		Example: `  waypoint state set current.task 1.0.3
  waypoint state set progress.tasks_total 12
  waypoint state set git_state.working_directory_clean true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			return runStateBatch(a, [][2]string{{args[0], args[1]}})
		},
	}
}

func newStateBatchCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <path=value>...",
		Short: "Assign several fields in a single write",
		Long: `Assign several fields of the session state in a single write.

Assignments apply in order, so a later path may address a list item set
earlier in the same batch. Either every assignment is applied or, if any of
them fails, none is.`,
		Example: `  waypoint state batch current.phase=2.0 current.task=2.0.1 current.task_name="Wire tokens"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs := make([][2]string, 0, len(args))
			for _, arg := range args {
				path, value, ok := strings.Cut(arg, "=")
				if !ok || strings.TrimSpace(path) == "" {
					return fmt.Errorf("%w: %q is not path=value", errors.ErrInvalidArgument, arg)
				}
				pairs = append(pairs, [2]string{strings.TrimSpace(path), value})
			}
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			return runStateBatch(a, pairs)
		},
	}
}

// runStateBatch applies the assignments in order in one write.
func runStateBatch(a *app, pairs [][2]string) error {
	updates := make([]state.RawFieldUpdate, len(pairs))
	paths := make([]string, len(pairs))
	for i, p := range pairs {
		updates[i] = state.RawFieldUpdate{Path: p[0], Value: p[1]}
		paths[i] = p[0]
	}

	if err := a.store.BatchUpdateRaw(a.ctx, updates...); err != nil {
		return err
	}

	return a.render(func() {
		a.out.Success("Updated " + strings.Join(paths, ", "))
	}, map[string]any{"updated": paths})
}

func newStateTouchCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "touch",
		Short: "Record activity now",
		Long:  "Stamp timing.last_activity and metadata.last_updated_at with the current time.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			if err := a.store.UpdateLastActivity(a.ctx); err != nil {
				return err
			}
			return renderTiming(a, "Activity recorded")
		},
	}
}

func newStateSyncCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Record a sync with the remote now",
		Long:  "Stamp timing.last_sync with the current time.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			if err := a.store.UpdateLastSync(a.ctx); err != nil {
				return err
			}
			return renderTiming(a, "Sync recorded")
		},
	}
}

// renderTiming re-reads the timing section and prints it after msg.
func renderTiming(a *app, msg string) error {
	doc, err := a.store.ReadSessionState(a.ctx)
	if err != nil {
		return err
	}
	return a.render(func() {
		a.out.Success(msg)
		a.out.Section("timing", timingFields(doc.Timing))
	}, doc.Timing)
}

func newStateSyncGitCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-git",
		Short: "Refresh git_state from the working tree",
		Long: `Run git status in the working directory and write the counters into
the git_state section of the session state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			runner, err := a.git()
			if err != nil {
				return err
			}
			status, err := runner.Status(a.ctx)
			if err != nil {
				return err
			}

			snapshot := gitStateFromStatus(status)
			if err := a.store.UpdateGitState(a.ctx, func(g *domain.GitState) { *g = snapshot }); err != nil {
				return err
			}
			a.logger.Debug().
				Str("branch", status.Branch).
				Int("uncommitted", snapshot.UncommittedChanges()).
				Msg("git state synced")

			return a.render(func() {
				a.out.Success("Git state synced")
				a.out.Section("git_state", gitStateFields(&snapshot))
			}, snapshot)
		},
	}
}

// gitStateFromStatus maps a porcelain status onto the git_state counters.
// Unstaged entries count as modified files.
func gitStateFromStatus(s *git.Status) domain.GitState {
	return domain.GitState{
		LocalCommitsAhead:     s.Ahead,
		RemoteCommitsAhead:    s.Behind,
		ModifiedFiles:         len(s.Unstaged),
		UntrackedFiles:        len(s.Untracked),
		StagedFiles:           len(s.Staged),
		WorkingDirectoryClean: s.IsClean(),
	}
}

// stateCurrentFlags holds the flags of the state current command.
type stateCurrentFlags struct {
	phase         string
	phaseName     string
	task          string
	taskName      string
	workingBranch string
	baseBranch    string
}

func newStateCurrentCmd(flags *GlobalFlags) *cobra.Command {
	cf := &stateCurrentFlags{}
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show or update the current phase, task and branches",
		Long: `Show the current section of the session state, or update the fields
given as flags. Fields without a flag are left unchanged.`,
		Example: `  waypoint state current
  waypoint state current --task 1.0.3 --task-name "Button variants"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			return runStateCurrent(a, cmd, cf)
		},
	}

	cmd.Flags().StringVar(&cf.phase, "phase", "", "phase identifier")
	cmd.Flags().StringVar(&cf.phaseName, "phase-name", "", "phase display name")
	cmd.Flags().StringVar(&cf.task, "task", "", "task identifier")
	cmd.Flags().StringVar(&cf.taskName, "task-name", "", "task display name")
	cmd.Flags().StringVar(&cf.workingBranch, "branch", "", "working branch")
	cmd.Flags().StringVar(&cf.baseBranch, "base-branch", "", "base branch")
	return cmd
}

func runStateCurrent(a *app, cmd *cobra.Command, cf *stateCurrentFlags) error {
	setters := map[string]func(*domain.CurrentState){
		"phase":       func(c *domain.CurrentState) { c.Phase = cf.phase },
		"phase-name":  func(c *domain.CurrentState) { c.PhaseName = cf.phaseName },
		"task":        func(c *domain.CurrentState) { c.Task = cf.task },
		"task-name":   func(c *domain.CurrentState) { c.TaskName = cf.taskName },
		"branch":      func(c *domain.CurrentState) { c.WorkingBranch = cf.workingBranch },
		"base-branch": func(c *domain.CurrentState) { c.BaseBranch = cf.baseBranch },
	}

	var changed []func(*domain.CurrentState)
	for name, set := range setters {
		if cmd.Flags().Changed(name) {
			changed = append(changed, set)
		}
	}

	if len(changed) > 0 {
		err := a.store.UpdateCurrent(a.ctx, func(c *domain.CurrentState) {
			for _, set := range changed {
				set(c)
			}
		})
		if err != nil {
			return err
		}
	}

	doc, err := a.store.ReadSessionState(a.ctx)
	if err != nil {
		return err
	}
	return a.render(func() {
		if len(changed) > 0 {
			a.out.Success("Current position updated")
		}
		a.out.Section("current", currentFields(doc.Current))
	}, doc.Current)
}

// stateTimingFlags holds the flags of the state timing command.
type stateTimingFlags struct {
	phaseStart   string
	taskStart    string
	lastActivity string
	lastSync     string
}

func newStateTimingCmd(flags *GlobalFlags) *cobra.Command {
	tf := &stateTimingFlags{}
	cmd := &cobra.Command{
		Use:   "timing",
		Short: "Show or update the timing timestamps",
		Long: `Show the timing section of the session state, or update the timestamps
given as flags. The value "now" stands for the current time; any other
value must be an ISO-8601 timestamp.`,
		Example: `  waypoint state timing
  waypoint state timing --task-start now
  waypoint state timing --phase-start 2025-01-10T09:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			return runStateTiming(a, cmd, tf)
		},
	}

	cmd.Flags().StringVar(&tf.phaseStart, "phase-start", "", "phase start time (or now)")
	cmd.Flags().StringVar(&tf.taskStart, "task-start", "", "task start time (or now)")
	cmd.Flags().StringVar(&tf.lastActivity, "last-activity", "", "last activity time (or now)")
	cmd.Flags().StringVar(&tf.lastSync, "last-sync", "", "last sync time (or now)")
	return cmd
}

func runStateTiming(a *app, cmd *cobra.Command, tf *stateTimingFlags) error {
	fields := []struct {
		flag   string
		raw    string
		target func(*domain.TimingInfo) *string
	}{
		{"phase-start", tf.phaseStart, func(t *domain.TimingInfo) *string { return &t.PhaseStart }},
		{"task-start", tf.taskStart, func(t *domain.TimingInfo) *string { return &t.TaskStart }},
		{"last-activity", tf.lastActivity, func(t *domain.TimingInfo) *string { return &t.LastActivity }},
		{"last-sync", tf.lastSync, func(t *domain.TimingInfo) *string { return &t.LastSync }},
	}

	type assignment struct {
		target func(*domain.TimingInfo) *string
		value  string
	}
	var changes []assignment
	for _, f := range fields {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		value, err := resolveTimestamp(a, f.raw)
		if err != nil {
			return fmt.Errorf("--%s: %w", f.flag, err)
		}
		changes = append(changes, assignment{f.target, value})
	}

	if len(changes) > 0 {
		err := a.store.UpdateTiming(a.ctx, func(t *domain.TimingInfo) {
			for _, c := range changes {
				*c.target(t) = c.value
			}
		})
		if err != nil {
			return err
		}
	}

	doc, err := a.store.ReadSessionState(a.ctx)
	if err != nil {
		return err
	}
	return a.render(func() {
		if len(changes) > 0 {
			a.out.Success("Timing updated")
		}
		a.out.Section("timing", timingFields(doc.Timing))
	}, doc.Timing)
}

// resolveTimestamp turns "now" into the current time and normalizes any
// other value through the timestamp parser.
func resolveTimestamp(a *app, raw string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(raw), "now") {
		return domain.FormatTimestamp(a.store.Now()), nil
	}
	t, err := domain.ParseTimestamp(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrInvalidArgument, err)
	}
	return domain.FormatTimestamp(t), nil
}

func newStateMetadataCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata <updated-by>",
		Short: "Record who last updated the session state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who := strings.TrimSpace(args[0])
			if who == "" {
				return fmt.Errorf("updated-by: %w", errors.ErrEmptyValue)
			}
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			if err := a.store.UpdateMetadata(a.ctx, who); err != nil {
				return err
			}
			doc, err := a.store.ReadSessionState(a.ctx)
			if err != nil {
				return err
			}
			return a.render(func() {
				a.out.Success("Metadata updated")
				a.out.Section("metadata", []tui.Field{
					{Key: "last_updated_by", Value: doc.Metadata.LastUpdatedBy},
					{Key: "last_updated_at", Value: doc.Metadata.LastUpdatedAt},
				})
			}, doc.Metadata)
		},
	}
}

func newStateCompleteTaskCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "complete-task <task-id>",
		Short: "Mark a task as completed",
		Long: `Add a task to progress.tasks_completed. A task already in the list is
not added again. When progress.tasks_total is set the completion
percentage is recomputed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := strings.TrimSpace(args[0])
			if taskID == "" {
				return fmt.Errorf("task id: %w", errors.ErrEmptyValue)
			}
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			if err := a.store.AddCompletedTask(a.ctx, taskID); err != nil {
				return err
			}
			doc, err := a.store.ReadSessionState(a.ctx)
			if err != nil {
				return err
			}
			return a.render(func() {
				a.out.Success("Task " + taskID + " completed")
				a.out.Section("progress", progressInfoFields(doc.Progress))
			}, doc.Progress)
		},
	}
}

// stateSummary is the structured form of the state summary command.
type stateSummary struct {
	Phase                    string  `json:"phase"`
	Task                     string  `json:"task"`
	Branch                   string  `json:"branch"`
	TasksCompleted           int     `json:"tasks_completed"`
	TasksTotal               int     `json:"tasks_total"`
	CompletionPercentage     float64 `json:"completion_percentage"`
	LastCheckpoint           string  `json:"last_checkpoint"`
	MinutesSinceLastActivity *int    `json:"minutes_since_last_activity"`
	PhaseDurationHours       *int    `json:"phase_duration_hours"`
	TaskDurationMinutes      *int    `json:"task_duration_minutes"`
	WorkingDirectoryClean    bool    `json:"working_directory_clean"`
	UncommittedChanges       int     `json:"uncommitted_changes"`
}

func newStateSummaryCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize where the session stands",
		Long: `Summarize the session: current position, completed tasks, last
checkpoint, elapsed times and working tree state. Elapsed times whose
timestamps are missing or unparseable are left out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			s, err := buildStateSummary(a)
			if err != nil {
				return err
			}
			return a.render(func() {
				a.out.Section("session", summaryFields(s))
			}, s)
		},
	}
}

func buildStateSummary(a *app) (*stateSummary, error) {
	ctx := a.ctx
	s := &stateSummary{}
	var err error
	if s.Phase, err = a.store.CurrentPhase(ctx); err != nil {
		return nil, err
	}
	if s.Task, err = a.store.CurrentTask(ctx); err != nil {
		return nil, err
	}
	if s.Branch, err = a.store.CurrentBranch(ctx); err != nil {
		return nil, err
	}
	if s.LastCheckpoint, err = a.store.LastCheckpointTag(ctx); err != nil {
		return nil, err
	}
	if s.WorkingDirectoryClean, err = a.store.IsWorkingDirectoryClean(ctx); err != nil {
		return nil, err
	}
	if s.UncommittedChanges, err = a.store.UncommittedChanges(ctx); err != nil {
		return nil, err
	}
	completed, err := a.store.CompletedTasks(ctx)
	if err != nil {
		return nil, err
	}
	s.TasksCompleted = len(completed)

	if doc := a.store.SafeReadSessionState(ctx); doc != nil && doc.Progress != nil {
		s.TasksTotal = doc.Progress.TasksTotal
		s.CompletionPercentage = doc.Progress.CompletionPercentage
	}

	s.MinutesSinceLastActivity = optionalElapsed(a, "last activity", a.store.MinutesSinceLastActivity)
	s.PhaseDurationHours = optionalElapsed(a, "phase duration", a.store.PhaseDurationHours)
	s.TaskDurationMinutes = optionalElapsed(a, "task duration", a.store.TaskDurationMinutes)
	return s, nil
}

func optionalElapsed(a *app, what string, fn func(context.Context) (int, error)) *int {
	n, err := fn(a.ctx)
	if err != nil {
		a.logger.Debug().Err(err).Str("elapsed", what).Msg("elapsed time unavailable")
		return nil
	}
	return &n
}

func summaryFields(s *stateSummary) []tui.Field {
	elapsed := func(n *int, unit string) string {
		if n == nil {
			return "-"
		}
		return strconv.Itoa(*n) + " " + unit
	}
	clean := "clean"
	if !s.WorkingDirectoryClean {
		clean = fmt.Sprintf("%d uncommitted", s.UncommittedChanges)
	}
	return []tui.Field{
		{Key: "phase", Value: orDash(s.Phase)},
		{Key: "task", Value: orDash(s.Task)},
		{Key: "branch", Value: orDash(s.Branch)},
		{Key: "tasks", Value: fmt.Sprintf("%d/%d (%s%%)", s.TasksCompleted, s.TasksTotal, strconv.FormatFloat(s.CompletionPercentage, 'f', -1, 64))},
		{Key: "last_checkpoint", Value: orDash(s.LastCheckpoint)},
		{Key: "last_activity", Value: elapsed(s.MinutesSinceLastActivity, "min ago")},
		{Key: "phase_duration", Value: elapsed(s.PhaseDurationHours, "h")},
		{Key: "task_duration", Value: elapsed(s.TaskDurationMinutes, "min")},
		{Key: "working_tree", Value: clean},
	}
}

func currentFields(c *domain.CurrentState) []tui.Field {
	if c == nil {
		c = &domain.CurrentState{}
	}
	return []tui.Field{
		{Key: "phase", Value: orDash(c.Phase)},
		{Key: "phase_name", Value: orDash(c.PhaseName)},
		{Key: "task", Value: orDash(c.Task)},
		{Key: "task_name", Value: orDash(c.TaskName)},
		{Key: "working_branch", Value: orDash(c.WorkingBranch)},
		{Key: "base_branch", Value: orDash(c.BaseBranch)},
	}
}

func timingFields(t *domain.TimingInfo) []tui.Field {
	if t == nil {
		t = &domain.TimingInfo{}
	}
	return []tui.Field{
		{Key: "phase_start", Value: orDash(t.PhaseStart)},
		{Key: "task_start", Value: orDash(t.TaskStart)},
		{Key: "last_activity", Value: orDash(t.LastActivity)},
		{Key: "last_sync", Value: orDash(t.LastSync)},
	}
}

func progressInfoFields(p *domain.ProgressInfo) []tui.Field {
	if p == nil {
		p = &domain.ProgressInfo{}
	}
	return []tui.Field{
		{Key: "tasks_completed", Value: strings.Join(p.TasksCompleted, ", ")},
		{Key: "tasks_total", Value: strconv.Itoa(p.TasksTotal)},
		{Key: "completion_percentage", Value: strconv.FormatFloat(p.CompletionPercentage, 'f', -1, 64)},
	}
}

func gitStateFields(g *domain.GitState) []tui.Field {
	return []tui.Field{
		{Key: "local_commits_ahead", Value: strconv.Itoa(g.LocalCommitsAhead)},
		{Key: "remote_commits_ahead", Value: strconv.Itoa(g.RemoteCommitsAhead)},
		{Key: "modified_files", Value: strconv.Itoa(g.ModifiedFiles)},
		{Key: "untracked_files", Value: strconv.Itoa(g.UntrackedFiles)},
		{Key: "staged_files", Value: strconv.Itoa(g.StagedFiles)},
		{Key: "working_directory_clean", Value: strconv.FormatBool(g.WorkingDirectoryClean)},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
