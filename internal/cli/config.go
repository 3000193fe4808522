package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/waypoint/internal/config"
	"github.com/mrz1836/waypoint/internal/tui"
)

// AddConfigCommand adds the config command group to the root command.
func AddConfigCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect waypoint configuration",
	}
	cmd.AddCommand(newConfigShowCmd(flags))
	root.AddCommand(cmd)
}

// configView is the effective configuration as printed by config show.
type configView struct {
	Paths struct {
		SessionState string `json:"session_state"`
		Progress     string `json:"progress"`
		Checkpoints  string `json:"checkpoints"`
		MonitorState string `json:"monitor_state"`
	} `json:"paths"`
	Store struct {
		Locking     bool   `json:"locking"`
		LockTimeout string `json:"lock_timeout"`
	} `json:"store"`
	Validation struct {
		BranchPrefix  string `json:"branch_prefix"`
		SchemaVersion string `json:"schema_version"`
	} `json:"validation"`
	Project struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"project"`
	Monitor struct {
		Threshold int `json:"threshold"`
	} `json:"monitor"`
}

func newConfigView(cfg *config.Config) configView {
	var v configView
	v.Paths.SessionState = cfg.Paths.SessionState
	v.Paths.Progress = cfg.Paths.Progress
	v.Paths.Checkpoints = cfg.Paths.Checkpoints
	v.Paths.MonitorState = cfg.Paths.MonitorState
	v.Store.Locking = cfg.Store.Locking
	v.Store.LockTimeout = cfg.Store.LockTimeout.String()
	v.Validation.BranchPrefix = cfg.Validation.BranchPrefix
	v.Validation.SchemaVersion = cfg.Validation.SchemaVersion
	v.Project.Name = cfg.Project.Name
	v.Project.Version = cfg.Project.Version
	v.Monitor.Threshold = cfg.Monitor.Threshold
	return v
}

func newConfigShowCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the effective configuration after merging, highest first:
  - command-line flags
  - WAYPOINT_* environment variables
  - project .waypoint/config.yaml
  - global ~/.waypoint/config.yaml
  - built-in defaults`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			view := newConfigView(a.cfg)
			return a.render(func() {
				a.out.Section("paths", []tui.Field{
					{Key: "session_state", Value: view.Paths.SessionState},
					{Key: "progress", Value: view.Paths.Progress},
					{Key: "checkpoints", Value: view.Paths.Checkpoints},
					{Key: "monitor_state", Value: view.Paths.MonitorState},
				})
				a.out.Section("store", []tui.Field{
					{Key: "locking", Value: strconv.FormatBool(view.Store.Locking)},
					{Key: "lock_timeout", Value: view.Store.LockTimeout},
				})
				a.out.Section("validation", []tui.Field{
					{Key: "branch_prefix", Value: view.Validation.BranchPrefix},
					{Key: "schema_version", Value: view.Validation.SchemaVersion},
				})
				a.out.Section("project", []tui.Field{
					{Key: "name", Value: view.Project.Name},
					{Key: "version", Value: view.Project.Version},
				})
				a.out.Section("monitor", []tui.Field{
					{Key: "threshold", Value: strconv.Itoa(view.Monitor.Threshold)},
				})
			}, view)
		},
	}
}
