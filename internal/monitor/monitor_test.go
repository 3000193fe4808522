package monitor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/waypoint/internal/clock"
	"github.com/mrz1836/waypoint/internal/git"
	"github.com/mrz1836/waypoint/internal/testutil"
)

type fakeSource struct {
	status *git.Status
	err    error
	calls  int
}

func (f *fakeSource) Status(context.Context) (*git.Status, error) {
	f.calls++
	return f.status, f.err
}

func dirtyStatus() *git.Status {
	return &git.Status{
		Branch:    "feature/phase-1",
		Upstream:  "origin/feature/phase-1",
		Ahead:     2,
		Staged:    []git.FileChange{{Path: "a.ts", Status: git.ChangeModified}},
		Unstaged:  []git.FileChange{{Path: "a.ts", Status: git.ChangeModified}, {Path: "b.ts", Status: git.ChangeModified}},
		Untracked: []string{"notes.md"},
	}
}

func newTestMonitor(t *testing.T, src StatusSource, opts ...Option) (*Monitor, *bytes.Buffer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".claude", "monitor-state.json")
	var out bytes.Buffer
	opts = append([]Option{WithClock(clock.Fixed(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)))}, opts...)
	return New(path, src, &out, opts...), &out, path
}

func TestMonitor_RecordUntilThreshold(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{status: dirtyStatus()}
	m, out, path := newTestMonitor(t, src, WithThreshold(3))

	assert.Equal(t, 1, m.Record(ctx))
	assert.Equal(t, 2, m.Record(ctx))
	assert.Empty(t, out.String())
	assert.Zero(t, src.calls)

	assert.Equal(t, 0, m.Record(ctx))
	assert.Equal(t, 1, src.calls)
	assert.Contains(t, out.String(), "📊 GIT STATUS MONITOR")

	st := m.State(ctx)
	assert.Zero(t, st.ToolUseCount)
	require.NotNil(t, st.LastStatusCheck)
	require.NotNil(t, st.LastToolUse)
	assert.Equal(t, "2025-01-10T12:00:00.000Z", *st.LastToolUse)
	assert.FileExists(t, path)
}

func TestMonitor_DefaultThreshold(t *testing.T) {
	m, _, _ := newTestMonitor(t, &fakeSource{status: &git.Status{Branch: "main"}})
	assert.Equal(t, 5, m.Threshold())

	m, _, _ = newTestMonitor(t, nil, WithThreshold(0))
	assert.Equal(t, 5, m.Threshold())
}

func TestMonitor_CheckAndReset(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{status: &git.Status{Branch: "main"}}
	m, out, _ := newTestMonitor(t, src)

	m.Record(ctx)
	m.Record(ctx)
	m.Check(ctx)

	assert.Equal(t, 1, src.calls)
	assert.Contains(t, out.String(), "## main")
	assert.Zero(t, m.State(ctx).ToolUseCount)

	m.Record(ctx)
	m.Reset(ctx)
	st := m.State(ctx)
	assert.Zero(t, st.ToolUseCount)
	assert.NotNil(t, st.LastStatusCheck)
	assert.Equal(t, 1, src.calls, "reset does not query git")
}

func TestMonitor_StateFallbacks(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file is a zero state", func(t *testing.T) {
		m, _, _ := newTestMonitor(t, nil)
		st := m.State(ctx)
		assert.Equal(t, State{}, st)
	})

	t.Run("corrupt file is a zero state", func(t *testing.T) {
		m, _, path := newTestMonitor(t, nil)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte("{{"), 0o600))

		assert.Equal(t, State{}, m.State(ctx))
		assert.Equal(t, 1, m.Record(ctx))
	})

	t.Run("save failure is swallowed", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
		m := New(filepath.Join(blocker, "monitor-state.json"), nil, &bytes.Buffer{})

		assert.Equal(t, 1, m.Record(ctx))
		assert.Equal(t, 1, m.Record(ctx), "nothing persisted")
	})
}

func TestMonitor_StateFileFormat(t *testing.T) {
	ctx := context.Background()
	m, _, path := newTestMonitor(t, nil)
	m.Record(ctx)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"toolUseCount":1,"lastStatusCheck":null,"lastToolUse":"2025-01-10T12:00:00.000Z"}`, string(data))
}

func TestBanner(t *testing.T) {
	t.Run("dirty tree", func(t *testing.T) {
		b := Banner(dirtyStatus(), nil)
		rule := "============================================================"

		assert.Contains(t, b, "\n"+rule+"\n📊 GIT STATUS MONITOR\n"+rule+"\n")
		assert.Contains(t, b, "## feature/phase-1...origin/feature/phase-1 [ahead 2]\nMM a.ts\n M b.ts\n?? notes.md\n")
		assert.Contains(t, b, "⬆️  2 commit(s) ahead of remote - Consider pushing")
		assert.NotContains(t, b, "behind remote")
		assert.Contains(t, b, "   - 1 file(s) staged for commit")
		assert.Contains(t, b, "   - 2 file(s) modified but not staged")
		assert.Contains(t, b, "   - 1 untracked file(s)")
		assert.True(t, len(b) > 0 && b[len(b)-2:] == "\n\n")
	})

	t.Run("clean tree", func(t *testing.T) {
		b := Banner(&git.Status{Branch: "main", Upstream: "origin/main", Behind: 1}, nil)
		assert.Contains(t, b, "## main...origin/main [behind 1]\n")
		assert.Contains(t, b, "⬇️  1 commit(s) behind remote - Consider pulling")
		assert.NotContains(t, b, "Uncommitted changes")
	})

	t.Run("error", func(t *testing.T) {
		b := Banner(nil, testutil.ErrMockGitStatus)
		assert.Contains(t, b, "⚠️  Error: git status failed")

		b = Banner(nil, nil)
		assert.Contains(t, b, "⚠️  Error: not a git repository")
	})

	t.Run("renames", func(t *testing.T) {
		b := Banner(&git.Status{
			Branch: "main",
			Staged: []git.FileChange{{Path: "new.ts", OldPath: "old.ts", Status: git.ChangeRenamed}},
		}, nil)
		assert.Contains(t, b, "R  old.ts -> new.ts\n")
	})
}

func TestMonitor_NilSourcePrintsError(t *testing.T) {
	m, out, _ := newTestMonitor(t, nil)
	m.Check(context.Background())
	assert.Contains(t, out.String(), "not a git repository")
}
