package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/waypoint/internal/domain"
	"github.com/mrz1836/waypoint/internal/state"
	"github.com/mrz1836/waypoint/internal/tui"
)

// AddProgressCommand adds the progress command group to the root command.
func AddProgressCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Read and update the progress document",
		Long: `Read and update the per-project progress document (.claude/progress.json),
which lists every phase and task with its status.`,
	}
	cmd.AddCommand(newProgressShowCmd(flags), newProgressSetCmd(flags))
	root.AddCommand(cmd)
}

func newProgressShowCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print phases, tasks and the roll-up summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			doc, err := a.store.ReadProgress(a.ctx)
			if err != nil {
				return err
			}
			return a.render(func() {
				a.out.Table([]string{"", "PHASE", "NAME", "STATUS", "TASKS", "DONE"}, phaseRows(doc.Phases))
				if doc.Summary != nil {
					a.out.Section("summary", []tui.Field{
						{Key: "current_phase", Value: orDash(doc.Summary.CurrentPhase)},
						{Key: "phases", Value: fmt.Sprintf("%d/%d", doc.Summary.CompletedPhases, doc.Summary.TotalPhases)},
						{Key: "overall_completion", Value: formatPercent(doc.Summary.OverallCompletion)},
					})
				}
			}, doc)
		},
	}
}

func phaseRows(phases []domain.PhaseProgress) [][]string {
	rows := make([][]string, 0, len(phases))
	for _, p := range phases {
		done := 0
		for _, t := range p.Tasks {
			if t.Status == domain.TaskCompleted {
				done++
			}
		}
		rows = append(rows, []string{
			tui.PhaseStatusIcon(p.Status),
			p.Phase,
			p.PhaseName,
			string(p.Status),
			fmt.Sprintf("%d/%d", done, len(p.Tasks)),
			formatPercent(p.CompletionPercentage),
		})
	}
	return rows
}

func formatPercent(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64) + "%"
}

func newProgressSetCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Assign one field of the progress document",
		Example: `  waypoint progress set phases.0.status completed
  waypoint progress set phases.1.tasks.2.notes "waiting on review"
  waypoint progress set summary.current_phase 2.0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			doc, err := a.store.ReadProgress(a.ctx)
			if err != nil {
				return err
			}
			u, err := state.ParseFieldUpdate(doc, args[0], args[1])
			if err != nil {
				return err
			}
			if err := a.store.UpdateProgressField(a.ctx, u); err != nil {
				return err
			}
			return a.render(func() {
				a.out.Success("Updated " + u.Path)
			}, map[string]any{"updated": []string{u.Path}})
		},
	}
}
