package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/waypoint/internal/constants"
	"github.com/mrz1836/waypoint/internal/domain"
	"github.com/mrz1836/waypoint/internal/errors"
)

func TestStateShow(t *testing.T) {
	newSeededProject(t)

	out, err := execute(t, "state", "show", "-o", "json")
	require.NoError(t, err)

	var doc domain.SessionState
	decode(t, out, &doc)
	assert.Equal(t, fixtureSession(), &doc)
}

func TestStateShow_MissingDocument(t *testing.T) {
	newProject(t)

	_, err := execute(t, "state", "show")
	require.ErrorIs(t, err, errors.ErrDocumentRead)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, ExitError, ExitCodeForError(err))
}

func TestStateGet(t *testing.T) {
	newSeededProject(t)

	tests := []struct {
		name   string
		args   []string
		expect string
	}{
		{"string field", []string{"current.phase"}, "1.0\n"},
		{"int field", []string{"progress.tasks_total"}, "4\n"},
		{"bool field", []string{"git_state.working_directory_clean"}, "true\n"},
		{"list index", []string{"progress.tasks_completed.0"}, "1.0.1\n"},
		{"list as json", []string{"progress.tasks_completed", "-o", "json"}, "[\n  \"1.0.1\"\n]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"state", "get"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, out)
		})
	}
}

func TestStateGet_InvalidPath(t *testing.T) {
	newSeededProject(t)

	_, err := execute(t, "state", "get", "current.nope")
	require.ErrorIs(t, err, errors.ErrInvalidPath)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestStateSet(t *testing.T) {
	p := newSeededProject(t)

	_, err := execute(t, "state", "set", "progress.tasks_total", "8")
	require.NoError(t, err)
	_, err = execute(t, "state", "set", "progress.tasks_completed", "1.0.1, 1.0.2")
	require.NoError(t, err)

	doc := p.session(t)
	assert.Equal(t, 8, doc.Progress.TasksTotal)
	assert.Equal(t, []string{"1.0.1", "1.0.2"}, doc.Progress.TasksCompleted)
	assert.NotEqual(t, "2025-01-10T10:30:00.000Z", doc.Metadata.LastUpdatedAt)
}

func TestStateSet_TypeMismatch(t *testing.T) {
	p := newSeededProject(t)
	before, err := os.ReadFile(p.path(constants.SessionStateFileName))
	require.NoError(t, err)

	_, err = execute(t, "state", "set", "progress.tasks_total", "many")
	require.ErrorIs(t, err, errors.ErrTypeMismatch)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))

	after, err := os.ReadFile(p.path(constants.SessionStateFileName))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStateBatch(t *testing.T) {
	t.Run("applies every assignment", func(t *testing.T) {
		p := newSeededProject(t)

		out, err := execute(t, "state", "batch", "current.phase=2.0", "current.task=2.0.1", "current.task_name=Wire tokens", "-o", "json")
		require.NoError(t, err)

		var result map[string][]string
		decode(t, out, &result)
		assert.Equal(t, []string{"current.phase", "current.task", "current.task_name"}, result["updated"])

		doc := p.session(t)
		assert.Equal(t, "2.0", doc.Current.Phase)
		assert.Equal(t, "2.0.1", doc.Current.Task)
		assert.Equal(t, "Wire tokens", doc.Current.TaskName)
	})

	t.Run("one bad path writes nothing", func(t *testing.T) {
		p := newSeededProject(t)

		_, err := execute(t, "state", "batch", "current.phase=2.0", "current.bogus=x")
		require.ErrorIs(t, err, errors.ErrInvalidPath)
		assert.Equal(t, "1.0", p.session(t).Current.Phase)
	})

	t.Run("later paths see earlier assignments", func(t *testing.T) {
		p := newSeededProject(t)

		_, err := execute(t, "state", "batch", "progress.tasks_completed=a,b", "progress.tasks_completed.1=z")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "z"}, p.session(t).Progress.TasksCompleted)
	})

	t.Run("argument without equals sign", func(t *testing.T) {
		newSeededProject(t)

		_, err := execute(t, "state", "batch", "current.phase")
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
		assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
	})
}

func TestStateTouchAndSync(t *testing.T) {
	p := newSeededProject(t)

	_, err := execute(t, "state", "touch")
	require.NoError(t, err)
	_, err = execute(t, "state", "sync")
	require.NoError(t, err)

	doc := p.session(t)
	for _, ts := range []string{doc.Timing.LastActivity, doc.Timing.LastSync} {
		assert.NotEqual(t, "2025-01-10T10:30:00Z", ts)
		_, err := domain.ParseTimestamp(ts)
		require.NoError(t, err)
	}
	assert.Equal(t, "2025-01-10T09:00:00Z", doc.Timing.PhaseStart)
}

func TestStateCurrent(t *testing.T) {
	t.Run("shows without flags", func(t *testing.T) {
		newSeededProject(t)

		out, err := execute(t, "state", "current", "-o", "json")
		require.NoError(t, err)

		var current domain.CurrentState
		decode(t, out, &current)
		assert.Equal(t, *fixtureSession().Current, current)
	})

	t.Run("updates only the given fields", func(t *testing.T) {
		p := newSeededProject(t)

		_, err := execute(t, "state", "current", "--task", "1.0.3", "--task-name", "")
		require.NoError(t, err)

		doc := p.session(t)
		assert.Equal(t, "1.0.3", doc.Current.Task)
		assert.Empty(t, doc.Current.TaskName)
		assert.Equal(t, "1.0", doc.Current.Phase)
		assert.Equal(t, "feature/phase-1", doc.Current.WorkingBranch)
	})
}

func TestStateTiming(t *testing.T) {
	t.Run("normalizes explicit timestamps", func(t *testing.T) {
		p := newSeededProject(t)

		_, err := execute(t, "state", "timing", "--phase-start", "2025-02-01T08:00:00+02:00")
		require.NoError(t, err)
		assert.Equal(t, "2025-02-01T06:00:00.000Z", p.session(t).Timing.PhaseStart)
	})

	t.Run("now", func(t *testing.T) {
		p := newSeededProject(t)

		_, err := execute(t, "state", "timing", "--task-start", "now")
		require.NoError(t, err)

		_, err = domain.ParseTimestamp(p.session(t).Timing.TaskStart)
		require.NoError(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		newSeededProject(t)

		_, err := execute(t, "state", "timing", "--last-sync", "yesterday")
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
		assert.Contains(t, err.Error(), "--last-sync")
	})
}

func TestStateMetadata(t *testing.T) {
	p := newSeededProject(t)

	_, err := execute(t, "state", "metadata", "claude")
	require.NoError(t, err)
	assert.Equal(t, "claude", p.session(t).Metadata.LastUpdatedBy)

	_, err = execute(t, "state", "metadata", "  ")
	require.ErrorIs(t, err, errors.ErrEmptyValue)
}

func TestStateCompleteTask(t *testing.T) {
	p := newSeededProject(t)

	_, err := execute(t, "state", "complete-task", "1.0.2")
	require.NoError(t, err)
	_, err = execute(t, "state", "complete-task", "1.0.2")
	require.NoError(t, err)

	progress := p.session(t).Progress
	assert.Equal(t, []string{"1.0.1", "1.0.2"}, progress.TasksCompleted)
	assert.InDelta(t, 50.0, progress.CompletionPercentage, 0.001)
}

func TestStateSummary(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		newSeededProject(t)

		out, err := execute(t, "state", "summary", "-o", "json")
		require.NoError(t, err)

		var s stateSummary
		decode(t, out, &s)
		assert.Equal(t, "1.0", s.Phase)
		assert.Equal(t, "1.0.2", s.Task)
		assert.Equal(t, "feature/phase-1", s.Branch)
		assert.Equal(t, 1, s.TasksCompleted)
		assert.Equal(t, 4, s.TasksTotal)
		assert.Equal(t, "ckpt-1", s.LastCheckpoint)
		assert.True(t, s.WorkingDirectoryClean)
		require.NotNil(t, s.PhaseDurationHours)
		assert.Positive(t, *s.PhaseDurationHours)
	})

	t.Run("unparseable timestamps are left out", func(t *testing.T) {
		p := newSeededProject(t)
		doc := fixtureSession()
		doc.Timing.TaskStart = "soon"
		p.write(t, constants.SessionStateFileName, doc)

		out, err := execute(t, "state", "summary", "-o", "json")
		require.NoError(t, err)

		var s stateSummary
		decode(t, out, &s)
		assert.Nil(t, s.TaskDurationMinutes)
		assert.NotNil(t, s.MinutesSinceLastActivity)
	})

	t.Run("text", func(t *testing.T) {
		newSeededProject(t)

		out, err := execute(t, "state", "summary")
		require.NoError(t, err)
		assert.Contains(t, out, "1/4 (25%)")
		assert.Contains(t, out, "ckpt-1")
	})
}

func TestStateSyncGit(t *testing.T) {
	p := newSeededProject(t)
	initGitRepo(t, p.dir)

	require.NoError(t, os.WriteFile(filepath.Join(p.dir, "README.md"), []byte("# ui library\n"), 0o600))

	out, err := execute(t, "state", "sync-git", "-o", "json")
	require.NoError(t, err)

	var snapshot domain.GitState
	decode(t, out, &snapshot)
	assert.Equal(t, 1, snapshot.ModifiedFiles)
	assert.Equal(t, 3, snapshot.UntrackedFiles, "the three .claude documents are untracked")
	assert.Zero(t, snapshot.StagedFiles)
	assert.False(t, snapshot.WorkingDirectoryClean)

	assert.Equal(t, snapshot, *p.session(t).GitState)
}

func TestStateSyncGit_NotARepository(t *testing.T) {
	newSeededProject(t)

	_, err := execute(t, "state", "sync-git")
	require.ErrorIs(t, err, errors.ErrNotGitRepo)
}
