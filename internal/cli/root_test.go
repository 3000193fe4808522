package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/waypoint/internal/errors"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name     string
		info     BuildInfo
		expected string
	}{
		{"all fields", BuildInfo{Version: "1.2.0", Commit: "abc1234", Date: "2026-01-01"}, "1.2.0 (commit: abc1234, built: 2026-01-01)"},
		{"defaults", BuildInfo{}, "dev (commit: none, built: unknown)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatVersion(tt.info))
		})
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{})

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"state", "progress", "checkpoint", "backup", "restore", "backups", "validate", "safe", "monitor", "config"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_Version(t *testing.T) {
	newProject(t)
	var buf bytes.Buffer
	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{Version: "1.0.0", Commit: "abc", Date: "today"})
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, buf.String(), "1.0.0 (commit: abc, built: today)")
}

func TestRootCmd_InvalidOutputFormat(t *testing.T) {
	newSeededProject(t)

	_, err := execute(t, "state", "show", "-o", "xml")
	require.ErrorIs(t, err, errors.ErrInvalidOutputFormat)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRootCmd_OutputFromEnvironment(t *testing.T) {
	newSeededProject(t)
	t.Setenv("WAYPOINT_OUTPUT", "json")

	out, err := execute(t, "state", "get", "current.phase")
	require.NoError(t, err)
	assert.Equal(t, "\"1.0\"\n", out)
}

func TestRootCmd_VerboseAndQuietConflict(t *testing.T) {
	newSeededProject(t)

	_, err := execute(t, "state", "show", "-v", "-q")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRootCmd_CanceledContext(t *testing.T) {
	newSeededProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"state", "show"})
	require.ErrorIs(t, cmd.ExecuteContext(ctx), context.Canceled)
}
