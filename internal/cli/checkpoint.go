package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/waypoint/internal/checkpoint"
	"github.com/mrz1836/waypoint/internal/domain"
	"github.com/mrz1836/waypoint/internal/tui"
)

// AddCheckpointCommand adds the checkpoint command group to the root command.
func AddCheckpointCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Record and inspect checkpoints",
		Long: `Record and inspect entries of the checkpoint history (.claude/checkpoints.json).

A checkpoint ties a tag to a commit, together with the branch and the diff
stats of that commit. The history is append-only.`,
	}
	cmd.AddCommand(newCheckpointAddCmd(flags), newCheckpointListCmd(flags), newCheckpointLastCmd(flags))
	root.AddCommand(cmd)
}

// checkpointAddFlags holds the flags of the checkpoint add command.
type checkpointAddFlags struct {
	kind    string
	tag     string
	phase   string
	task    string
	message string
	commit  string
}

func newCheckpointAddCmd(flags *GlobalFlags) *cobra.Command {
	cf := &checkpointAddFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a checkpoint to the history",
		Long: `Append a checkpoint to the history and point the session state at it.

The commit defaults to HEAD. Phase and task default to the session's current
position. Manual checkpoints without --tag get a generated manual-<id> tag.

Exit codes:
  0: Checkpoint recorded
  1: Git or file error
  2: Invalid type or missing tag`,
		Example: `  waypoint checkpoint add -m "before refactor"
  waypoint checkpoint add --type task --tag task-1.0.2 -m "Button component"
  waypoint checkpoint add --type phase --tag phase-1-complete`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			entry, err := a.checkpoints().Create(a.ctx, checkpoint.EntryRequest{
				Type:    domain.CheckpointType(strings.ToLower(cf.kind)),
				Tag:     cf.tag,
				Phase:   cf.phase,
				Task:    cf.task,
				Message: cf.message,
				Commit:  cf.commit,
			})
			if err != nil {
				return err
			}
			return a.render(func() {
				a.out.Success(fmt.Sprintf("Checkpoint %s recorded at %s", entry.Tag, shortCommit(entry.Commit)))
			}, entry)
		},
	}

	cmd.Flags().StringVarP(&cf.kind, "type", "t", string(domain.CheckpointManual), "checkpoint type (task|phase|manual)")
	cmd.Flags().StringVar(&cf.tag, "tag", "", "checkpoint tag")
	cmd.Flags().StringVar(&cf.phase, "phase", "", "phase (defaults to current phase)")
	cmd.Flags().StringVar(&cf.task, "task", "", "task (defaults to current task for task checkpoints)")
	cmd.Flags().StringVarP(&cf.message, "message", "m", "", "checkpoint message")
	cmd.Flags().StringVar(&cf.commit, "commit", "", "commit hash (defaults to HEAD)")
	return cmd
}

func newCheckpointListCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the checkpoint history in recorded order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			entries, err := a.checkpoints().Entries(a.ctx)
			if err != nil {
				return err
			}
			return a.render(func() {
				if len(entries) == 0 {
					a.out.Info("No checkpoints recorded")
					return
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.Tag, string(e.Type), e.Phase, orDash(e.Task), shortCommit(e.Commit), e.Timestamp, e.Message})
				}
				a.out.Table([]string{"TAG", "TYPE", "PHASE", "TASK", "COMMIT", "TIMESTAMP", "MESSAGE"}, rows)
			}, entries)
		},
	}
}

func newCheckpointLastCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Print the most recent checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			entry, err := a.checkpoints().LatestEntry(a.ctx)
			if err != nil {
				return err
			}
			return a.render(func() {
				if entry == nil {
					a.out.Info("No checkpoints recorded")
					return
				}
				a.out.Section("checkpoint", checkpointFields(entry))
			}, entry)
		},
	}
}

func checkpointFields(e *domain.CheckpointEntry) []tui.Field {
	return []tui.Field{
		{Key: "tag", Value: e.Tag},
		{Key: "type", Value: string(e.Type)},
		{Key: "commit", Value: e.Commit},
		{Key: "timestamp", Value: e.Timestamp},
		{Key: "phase", Value: orDash(e.Phase)},
		{Key: "task", Value: orDash(e.Task)},
		{Key: "message", Value: orDash(e.Message)},
		{Key: "branch", Value: orDash(e.GitState.Branch)},
		{Key: "diff", Value: fmt.Sprintf("%d files, +%d -%d", e.GitState.FilesChanged, e.GitState.Insertions, e.GitState.Deletions)},
	}
}

// shortCommit abbreviates a commit hash for display.
func shortCommit(commit string) string {
	const n = 7
	if len(commit) > n {
		return commit[:n]
	}
	return orDash(commit)
}

