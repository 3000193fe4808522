package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/waypoint/internal/clock"
	"github.com/mrz1836/waypoint/internal/domain"
	wperrors "github.com/mrz1836/waypoint/internal/errors"
)

func TestNewOutput(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"", FormatText},
		{"text", FormatText},
		{"JSON", FormatJSON},
		{"yaml", FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := NewOutput(&bytes.Buffer{}, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Format())
		})
	}

	_, err := NewOutput(&bytes.Buffer{}, "xml")
	require.ErrorIs(t, err, wperrors.ErrInvalidOutputFormat)
}

func TestTTYOutput_Messages(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	out := NewTTYOutput(&buf)

	out.Success("saved")
	out.Warning("careful")
	out.Info("fyi")
	out.Error(fmt.Errorf("read session: %w", wperrors.ErrDocumentRead))
	out.Error(fmt.Errorf("boom")) //nolint:err113 // test error

	output := buf.String()
	assert.Contains(t, output, "✓ saved")
	assert.Contains(t, output, "⚠ careful")
	assert.Contains(t, output, "fyi")
	assert.Contains(t, output, "✗ read session: failed to read document")
	assert.Contains(t, output, "▸ Try: Check that the file exists")
	assert.Contains(t, output, "✗ boom")
	assert.Equal(t, 1, strings.Count(output, "▸ Try:"))
}

func TestTTYOutput_Section(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	NewTTYOutput(&buf).Section("git_state", []Field{
		{Key: "modified_files", Value: "2"},
		{Key: "staged", Value: "3"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Git State", lines[0])
	assert.Equal(t, "  modified_files  2", lines[1])
	assert.Equal(t, "  staged          3", lines[2])
}

func TestTTYOutput_TableAlignsWideRunes(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	NewTTYOutput(&buf).Table([]string{"TAG", "MESSAGE"}, [][]string{
		{"ckpt-1.0.1", "done"},
		{"日本", "wide"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "TAG         MESSAGE", lines[0])
	assert.Equal(t, "ckpt-1.0.1  done", lines[1])
	assert.Equal(t, "日本        wide", lines[2])
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewJSONOutput(&buf)

	out.Error(fmt.Errorf("set field: %w", wperrors.ErrInvalidPath))
	var msg map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &msg))
	assert.Equal(t, "error", msg["type"])
	assert.Equal(t, "set field: invalid field path", msg["message"])
	assert.Equal(t, "The field path does not exist in the document.", msg["details"])
	assert.NotEmpty(t, msg["suggestion"])

	buf.Reset()
	out.Table([]string{"tag", "commit"}, [][]string{{"a", "1"}, {"b"}})
	var rows []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	assert.Equal(t, []map[string]string{{"tag": "a", "commit": "1"}, {"tag": "b", "commit": ""}}, rows)

	buf.Reset()
	out.Section("current", []Field{{Key: "phase", Value: "1.0"}})
	assert.JSONEq(t, `{"current":{"phase":"1.0"}}`, buf.String())
}

func TestYAMLOutput_ValueKeepsJSONNamesAndOrder(t *testing.T) {
	var buf bytes.Buffer
	doc := &domain.CheckpointsData{
		SchemaVersion: "1.0.0",
		Project:       &domain.ProjectRef{Name: "ui-library", Version: "1.0.0"},
		Checkpoints: []domain.CheckpointEntry{{
			Tag: "ckpt-1.0.1", Commit: "abc1234", Timestamp: "2025-01-10T09:00:00Z",
			Type: domain.CheckpointTask, Phase: "1.0", Message: "",
			GitState: domain.CheckpointGitState{Branch: "feature/phase-1", FilesChanged: 3},
		}},
	}
	require.NoError(t, NewYAMLOutput(&buf).Value(doc))

	output := buf.String()
	assert.True(t, strings.HasPrefix(output, "schema_version: 1.0.0\nproject:\n  name: ui-library\n"), output)
	assert.Contains(t, output, "    files_changed: 3\n")
	assert.Contains(t, output, "message: \"\"")
	assert.Less(t, strings.Index(output, "tag:"), strings.Index(output, "commit:"))

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "1.0.0", back["schema_version"])
}

func TestYAMLOutput_Messages(t *testing.T) {
	var buf bytes.Buffer
	out := NewYAMLOutput(&buf)
	out.Success("saved")
	out.Warning("careful")

	output := buf.String()
	assert.Contains(t, output, "type: success\nmessage: saved\n")
	assert.Contains(t, output, "---\n")
	assert.Contains(t, output, "type: warning\nmessage: careful\n")
}

func TestStatusIcons(t *testing.T) {
	assert.Equal(t, "✓", PhaseStatusIcon(domain.PhaseCompleted))
	assert.Equal(t, "●", PhaseStatusIcon(domain.PhaseInProgress))
	assert.Equal(t, "○", PhaseStatusIcon(domain.PhaseNotStarted))
	assert.Equal(t, "?", PhaseStatusIcon("bogus"))
	assert.Equal(t, "✗", TaskStatusIcon(domain.TaskBlocked))
	assert.Equal(t, "○", TaskStatusIcon(domain.TaskNotStarted))
}

func TestHasColorSupport(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.False(t, HasColorSupport())
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	c := clock.Fixed(now)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{42 * time.Minute, "42 minutes ago"},
		{time.Hour, "1 hour ago"},
		{5 * time.Hour, "5 hours ago"},
		{48 * time.Hour, "2 days ago"},
		{15 * 24 * time.Hour, "2 weeks ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeTime(now.Add(-tt.ago), c))
		})
	}
}
