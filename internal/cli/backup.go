package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/waypoint/internal/tui"
)

// AddBackupCommands adds the backup, restore and backups commands to the root command.
func AddBackupCommands(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newBackupCmd(flags), newRestoreCmd(flags), newBackupsCmd(flags))
}

func newBackupCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copy the session state to a timestamped backup file",
		Long: `Copy the session state to a sibling file named
session-state.backup.<timestamp>.json and print its path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			path, err := a.checkpoints().Backup(a.ctx)
			if err != nil {
				return err
			}
			return a.render(func() {
				a.out.Success("Backed up to " + path)
			}, map[string]string{"path": path})
		},
	}
}

func newRestoreCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup> [target]",
		Short: "Overwrite the session state with a backup",
		Long: `Overwrite the session state with the contents of a backup file. The
target defaults to the configured session state path.

The current contents of the target are replaced without confirmation; run
'waypoint backup' first to keep them.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			target := ""
			if len(args) == 2 {
				target = args[1]
			}
			if err := a.checkpoints().Restore(a.ctx, args[0], target); err != nil {
				return err
			}
			if target == "" {
				target = a.store.Paths().SessionState
			}
			return a.render(func() {
				a.out.Success("Restored " + target + " from " + args[0])
			}, map[string]string{"backup": args[0], "target": target})
		},
	}
}

func newBackupsCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List session state backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			backups, err := a.checkpoints().ListBackups(a.ctx)
			if err != nil {
				return err
			}
			return a.render(func() {
				if len(backups) == 0 {
					a.out.Info("No backups found")
					return
				}
				rows := make([][]string, 0, len(backups))
				for _, b := range backups {
					rows = append(rows, []string{b.Path, tui.RelativeTime(b.CreatedAt, a.clock)})
				}
				a.out.Table([]string{"PATH", "CREATED"}, rows)
			}, backups)
		},
	}
}
