package cli

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/waypoint/internal/tui"
)

// AddMonitorCommand adds the monitor command group to the root command.
func AddMonitorCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Periodic git status reminders",
		Long: `Count tool uses during a session and print a git status banner every
few uses (monitor.threshold, default 5). Intended to be called from an
editor or agent hook after each tool use.`,
	}
	cmd.AddCommand(
		newMonitorRecordCmd(flags),
		newMonitorCheckCmd(flags),
		newMonitorResetCmd(flags),
		newMonitorStateCmd(flags),
	)
	root.AddCommand(cmd)
}

// bannerWriter is where git status banners go: stdout for text output and
// stderr otherwise, so structured output stays parseable.
func bannerWriter(cmd *cobra.Command, a *app) io.Writer {
	if a.out.Format() == tui.FormatText {
		return a.w
	}
	return cmd.ErrOrStderr()
}

func newMonitorRecordCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Count one tool use, printing the banner at the threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			m := a.monitor(bannerWriter(cmd, a))
			count := m.Record(a.ctx)
			a.logger.Debug().Int("count", count).Int("threshold", m.Threshold()).Msg("tool use recorded")
			// Text output stays silent apart from the banner.
			return a.render(func() {}, map[string]int{"toolUseCount": count, "threshold": m.Threshold()})
		},
	}
}

func newMonitorCheckCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Print the git status banner now and reset the counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			m := a.monitor(bannerWriter(cmd, a))
			m.Check(a.ctx)
			return a.render(func() {}, m.State(a.ctx))
		},
	}
}

func newMonitorResetCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the tool use counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			m := a.monitor(bannerWriter(cmd, a))
			m.Reset(a.ctx)
			return a.render(func() {
				a.out.Success("Monitor counter reset")
			}, m.State(a.ctx))
		},
	}
}

func newMonitorStateCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the tool use counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			m := a.monitor(bannerWriter(cmd, a))
			st := m.State(a.ctx)
			return a.render(func() {
				deref := func(s *string) string {
					if s == nil {
						return "-"
					}
					return *s
				}
				a.out.Section("monitor", []tui.Field{
					{Key: "tool_use_count", Value: strconv.Itoa(st.ToolUseCount) + "/" + strconv.Itoa(m.Threshold())},
					{Key: "last_tool_use", Value: deref(st.LastToolUse)},
					{Key: "last_status_check", Value: deref(st.LastStatusCheck)},
				})
			}, st)
		},
	}
}
