package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrz1836/waypoint/internal/constants"
	"github.com/mrz1836/waypoint/internal/domain"
)

func fixtureSession() *domain.SessionState {
	return &domain.SessionState{
		SchemaVersion: constants.SchemaVersion,
		Project:       &domain.ProjectInfo{Name: "ui-library", Version: "1.0.0", RemoteURL: "git@github.com:acme/ui.git"},
		Current: &domain.CurrentState{
			Phase: "1.0", PhaseName: "Foundation",
			Task: "1.0.2", TaskName: "Tokens",
			WorkingBranch: "feature/phase-1", BaseBranch: "main",
		},
		Timing: &domain.TimingInfo{
			PhaseStart:   "2025-01-10T09:00:00Z",
			TaskStart:    "2025-01-10T10:00:00Z",
			LastActivity: "2025-01-10T10:30:00Z",
			LastSync:     "2025-01-10T10:00:00Z",
		},
		Checkpoint: &domain.CheckpointInfo{Tag: "ckpt-1", Commit: "abc1234", Timestamp: "2025-01-10T09:55:00Z"},
		Progress:   &domain.ProgressInfo{TasksCompleted: []string{"1.0.1"}, TasksTotal: 4, CompletionPercentage: 25},
		GitState:   &domain.GitState{WorkingDirectoryClean: true},
		Metadata:   &domain.MetadataInfo{LastUpdatedBy: "waypoint", LastUpdatedAt: "2025-01-10T10:30:00.000Z"},
	}
}

func fixtureProgress() *domain.ProgressData {
	return &domain.ProgressData{
		SchemaVersion: constants.SchemaVersion,
		Project:       &domain.ProjectRef{Name: "ui-library", Version: "1.0.0"},
		Phases: []domain.PhaseProgress{
			{
				Phase: "1.0", PhaseName: "Foundation", Status: domain.PhaseInProgress,
				Tasks: []domain.TaskProgress{
					{TaskID: "1.0.1", TaskName: "Setup", Status: domain.TaskCompleted},
					{TaskID: "1.0.2", TaskName: "Tokens", Status: domain.TaskInProgress},
				},
				CompletionPercentage: 50,
			},
		},
		Summary: &domain.ProgressSummary{TotalPhases: 1, CurrentPhase: "1.0", OverallCompletion: 25},
	}
}

func fixtureCheckpoints() *domain.CheckpointsData {
	return &domain.CheckpointsData{
		SchemaVersion: constants.SchemaVersion,
		Project:       &domain.ProjectRef{Name: "ui-library", Version: "1.0.0"},
		Checkpoints: []domain.CheckpointEntry{
			{Tag: "ckpt-0", Commit: "000aaaa", Timestamp: "2025-01-10T09:10:00Z", Type: domain.CheckpointTask, Phase: "1.0"},
			{Tag: "ckpt-1", Commit: "abc1234", Timestamp: "2025-01-10T09:55:00Z", Type: domain.CheckpointTask, Phase: "1.0"},
		},
	}
}

// project is a temp working directory with its own WAYPOINT_HOME.
type project struct {
	dir string
}

// newProject isolates configuration and chdirs into an empty project.
func newProject(t *testing.T) *project {
	t.Helper()
	t.Setenv(constants.HomeEnvVar, t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	t.Cleanup(CloseLogFile)
	return &project{dir: dir}
}

// newSeededProject is newProject with all three documents written.
func newSeededProject(t *testing.T) *project {
	t.Helper()
	p := newProject(t)
	p.write(t, constants.SessionStateFileName, fixtureSession())
	p.write(t, constants.ProgressFileName, fixtureProgress())
	p.write(t, constants.CheckpointsFileName, fixtureCheckpoints())
	return p
}

func (p *project) path(name string) string {
	return filepath.Join(p.dir, constants.StateDir, name)
}

func (p *project) write(t *testing.T, name string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	p.writeRaw(t, name, string(data))
}

func (p *project) writeRaw(t *testing.T, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(p.dir, constants.StateDir), 0o750))
	require.NoError(t, os.WriteFile(p.path(name), []byte(body), 0o600))
}

func (p *project) read(t *testing.T, name string, v any) {
	t.Helper()
	data, err := os.ReadFile(p.path(name)) //nolint:gosec // test fixture path
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func (p *project) session(t *testing.T) *domain.SessionState {
	t.Helper()
	var doc domain.SessionState
	p.read(t, constants.SessionStateFileName, &doc)
	return &doc
}

// execute runs the root command with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{Version: "test"})
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// decode unmarshals JSON command output into v.
func decode(t *testing.T, out string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(out), v), "output: %s", out)
}

// initGitRepo turns dir into a git repository with one commit. The test is
// skipped when git is not installed.
func initGitRepo(t *testing.T, dir string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	gitRun := func(args ...string) {
		t.Helper()
		cmd := exec.CommandContext(context.Background(), "git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	gitRun("init", "-q", "-b", "main")
	gitRun("config", "user.email", "dev@example.com")
	gitRun("config", "user.name", "Dev")
	gitRun("config", "commit.gpgsign", "false")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# ui\n"), 0o600))
	gitRun("add", "README.md")
	gitRun("commit", "-q", "-m", "initial")
}
