package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/waypoint/internal/clock"
	"github.com/mrz1836/waypoint/internal/domain"
	wperrors "github.com/mrz1836/waypoint/internal/errors"
)

// fixedNow is the instant every test store reports as "now".
var fixedNow = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // test fixture

func sampleSession() *domain.SessionState {
	return &domain.SessionState{
		SchemaVersion: "1.0.0",
		Project:       &domain.ProjectInfo{Name: "ui-library", Version: "1.0.0", RemoteURL: "git@github.com:acme/ui.git"},
		Current: &domain.CurrentState{
			Phase: "1.0", PhaseName: "Foundation",
			Task: "1.0.2", TaskName: "Tokens",
			WorkingBranch: "feature/phase-1", BaseBranch: "main",
		},
		Timing: &domain.TimingInfo{
			PhaseStart:   "2025-01-10T09:00:00Z",
			TaskStart:    "2025-01-10T10:00:00Z",
			LastActivity: "2025-01-10T11:30:00Z",
			LastSync:     "2025-01-10T10:00:00Z",
		},
		Checkpoint: &domain.CheckpointInfo{Tag: "ckpt-1.0.1", Commit: "abc1234", Timestamp: "2025-01-10T09:55:00Z", Message: "done"},
		Progress:   &domain.ProgressInfo{TasksCompleted: []string{"1.0.1"}, TasksTotal: 4, CompletionPercentage: 25},
		GitState:   &domain.GitState{ModifiedFiles: 2, UntrackedFiles: 1, StagedFiles: 3},
		Metadata:   &domain.MetadataInfo{LastUpdatedBy: "tester", LastUpdatedAt: "2025-01-10T09:00:00.000Z"},
	}
}

func sampleProgress() *domain.ProgressData {
	return &domain.ProgressData{
		SchemaVersion: "1.0.0",
		Project:       &domain.ProjectRef{Name: "ui-library", Version: "1.0.0"},
		Phases: []domain.PhaseProgress{{
			Phase: "1.0", PhaseName: "Foundation", Status: domain.PhaseInProgress,
			StartDate: "2025-01-10",
			Tasks:     []domain.TaskProgress{{TaskID: "1.0.1", TaskName: "Setup", Status: domain.TaskCompleted}},
		}},
		Summary: &domain.ProgressSummary{TotalPhases: 1, CurrentPhase: "1.0"},
	}
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(clock.Fixed(fixedNow))}, opts...)
	return New(DefaultPaths(t.TempDir()), opts...)
}

func seedSession(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.WriteSessionState(context.Background(), sampleSession()))
}

func TestDefaultPaths(t *testing.T) {
	p := DefaultPaths("/repo")
	assert.Equal(t, filepath.Join("/repo", ".claude", "session-state.json"), p.SessionState)
	assert.Equal(t, filepath.Join("/repo", ".claude", "progress.json"), p.Progress)
	assert.Equal(t, filepath.Join("/repo", ".claude", "checkpoints.json"), p.Checkpoints)
}

func TestStore_WithPaths(t *testing.T) {
	s := New(DefaultPaths("/repo"))
	other := s.WithPaths(Paths{SessionState: "/tmp/x.json"})

	assert.Equal(t, "/tmp/x.json", other.Paths().SessionState)
	assert.Equal(t, s.Paths().Progress, other.Paths().Progress)
	assert.Equal(t, filepath.Join("/repo", ".claude", "session-state.json"), s.Paths().SessionState)
}

func TestStore_ReadWriteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	doc := sampleSession()
	require.NoError(t, s.WriteSessionState(ctx, doc))

	got, err := s.ReadSessionState(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
	assert.True(t, s.SessionStateExists())
}

func TestStore_WriteFormat(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.WriteSessionState(ctx, sampleSession()))

	data, err := os.ReadFile(s.Paths().SessionState)
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasSuffix(text, "}\n"), "trailing newline")
	assert.True(t, strings.HasPrefix(text, "{\n  \"schema_version\": \"1.0.0\",\n  \"project\": {\n    \"name\""))
	assert.Less(t, strings.Index(text, `"current"`), strings.Index(text, `"timing"`))
	assert.Less(t, strings.Index(text, `"git_state"`), strings.Index(text, `"metadata"`))
}

func TestStore_WriteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.WriteSessionState(ctx, sampleSession()))
	first, err := os.ReadFile(s.Paths().SessionState)
	require.NoError(t, err)

	doc, err := s.ReadSessionState(ctx)
	require.NoError(t, err)
	require.NoError(t, s.WriteSessionState(ctx, doc))
	second, err := os.ReadFile(s.Paths().SessionState)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestStore_WriteEmptyListsAsArrays(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	doc := sampleSession()
	doc.Progress.TasksCompleted = nil
	require.NoError(t, s.WriteSessionState(ctx, doc))
	require.NoError(t, s.WriteProgress(ctx, &domain.ProgressData{SchemaVersion: "1.0.0"}))
	require.NoError(t, s.WriteCheckpoints(ctx, &domain.CheckpointsData{SchemaVersion: "1.0.0"}))

	for _, path := range []string{s.Paths().SessionState, s.Paths().Progress, s.Paths().Checkpoints} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "null", path)
	}
}

func TestStore_WriteNilDocument(t *testing.T) {
	s := newTestStore(t)
	err := s.WriteSessionState(context.Background(), nil)
	require.ErrorIs(t, err, wperrors.ErrDocumentWrite)
	assert.False(t, s.SessionStateExists())
}

func TestStore_ReadErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.ReadSessionState(ctx)
		require.ErrorIs(t, err, wperrors.ErrDocumentRead)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Nil(t, s.SafeReadSessionState(ctx))
		assert.False(t, s.SessionStateExists())
	})

	t.Run("malformed JSON", func(t *testing.T) {
		s := newTestStore(t)
		path := s.Paths().Progress
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		_, err := s.ReadProgress(ctx)
		require.ErrorIs(t, err, wperrors.ErrDocumentRead)
		assert.Nil(t, s.SafeReadProgress(ctx))
		assert.True(t, s.ProgressExists())
	})

	t.Run("wrong field type", func(t *testing.T) {
		s := newTestStore(t)
		path := s.Paths().Checkpoints
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(`{"checkpoints": "nope"}`), 0o600))

		_, err := s.ReadCheckpoints(ctx)
		require.ErrorIs(t, err, wperrors.ErrDocumentRead)
		assert.Nil(t, s.SafeReadCheckpoints(ctx))
	})

	t.Run("canceled context", func(t *testing.T) {
		s := newTestStore(t)
		seedSession(t, s)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.ReadSessionState(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStore_NoCaching(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedSession(t, s)

	_, err := s.ReadSessionState(ctx)
	require.NoError(t, err)

	doc := sampleSession()
	doc.Current.Phase = "9.9"
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Paths().SessionState, data, 0o600))

	phase, err := s.CurrentPhase(ctx)
	require.NoError(t, err)
	assert.Equal(t, "9.9", phase)
}

func TestStore_WithLocking(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, WithLocking(2*time.Second))
	seedSession(t, s)

	var wg sync.WaitGroup
	ids := []string{"a", "b", "c", "d", "e", "f"}
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.AddCompletedTask(ctx, id)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	tasks, err := s.CompletedTasks(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, append([]string{"1.0.1"}, ids...), tasks)
	assert.FileExists(t, s.Paths().SessionState+".lock")
}

func TestStore_ModifyCheckpointsInit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.ModifyCheckpoints(ctx, nil, func(*domain.CheckpointsData) error { return nil })
	require.ErrorIs(t, err, wperrors.ErrDocumentRead)

	init := func() *domain.CheckpointsData {
		return &domain.CheckpointsData{SchemaVersion: "1.0.0"}
	}
	require.NoError(t, s.ModifyCheckpoints(ctx, init, func(d *domain.CheckpointsData) error {
		d.Checkpoints = append(d.Checkpoints, domain.CheckpointEntry{Tag: "t1"})
		return nil
	}))

	doc, err := s.ReadCheckpoints(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Checkpoints, 1)

	t.Run("malformed existing file is not reinitialized", func(t *testing.T) {
		require.NoError(t, os.WriteFile(s.Paths().Checkpoints, []byte("garbage"), 0o600))
		err := s.ModifyCheckpoints(ctx, init, func(*domain.CheckpointsData) error { return nil })
		require.ErrorIs(t, err, wperrors.ErrDocumentRead)
		data, readErr := os.ReadFile(s.Paths().Checkpoints)
		require.NoError(t, readErr)
		assert.Equal(t, "garbage", string(data))
	})
}
