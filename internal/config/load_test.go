package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/waypoint/internal/constants"
	"github.com/mrz1836/waypoint/internal/errors"
)

// isolate points the global and project config lookups at empty temp dirs.
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	home = t.TempDir()
	project = t.TempDir()
	t.Setenv(constants.HomeEnvVar, home)
	t.Chdir(project)
	return home, project
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	isolate(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err, "Load should not fail when no config file exists")
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	home, project := isolate(t)

	writeConfig(t, filepath.Join(home, "config.yaml"), `
monitor:
  threshold: 8
store:
  lock_timeout: 2s
validation:
  branch_prefix: topic/
`)
	writeConfig(t, filepath.Join(project, ".waypoint", "config.yaml"), `
monitor:
  threshold: 3
store:
  locking: true
`)

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Monitor.Threshold, "project config should override global")
	assert.True(t, cfg.Store.Locking)
	assert.Equal(t, 2*time.Second, cfg.Store.LockTimeout, "global value should persist")
	assert.Equal(t, "topic/", cfg.Validation.BranchPrefix)
}

func TestLoad_EnvVarOverridesConfigFile(t *testing.T) {
	_, project := isolate(t)
	writeConfig(t, filepath.Join(project, ".waypoint", "config.yaml"), `
paths:
  session_state: from-file.json
monitor:
  threshold: 3
`)
	t.Setenv("WAYPOINT_MONITOR_THRESHOLD", "11")
	t.Setenv("WAYPOINT_PATHS_SESSION_STATE", "/tmp/env-state.json")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, cfg.Monitor.Threshold)
	assert.Equal(t, "/tmp/env-state.json", cfg.Paths.SessionState)
}

func TestLoad_InvalidConfig(t *testing.T) {
	_, project := isolate(t)
	writeConfig(t, filepath.Join(project, ".waypoint", "config.yaml"), `
monitor:
  threshold: 0
`)

	_, err := Load(context.Background())
	require.ErrorIs(t, err, errors.ErrConfigInvalidMonitor)
}

func TestLoad_MalformedProjectConfig(t *testing.T) {
	_, project := isolate(t)
	writeConfig(t, filepath.Join(project, ".waypoint", "config.yaml"), "monitor: [unclosed\n")

	_, err := Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read project config file")
}

func TestLoadFromPaths(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	global := filepath.Join(dir, "global.yaml")
	project := filepath.Join(dir, "project.yaml")

	writeConfig(t, global, `
project:
  name: acme
  version: 2.0.0
store:
  lock_timeout: 750ms
`)
	writeConfig(t, project, `
project:
  name: widgets
`)

	t.Run("both levels", func(t *testing.T) {
		cfg, err := LoadFromPaths(ctx, project, global)
		require.NoError(t, err)
		assert.Equal(t, "widgets", cfg.Project.Name)
		assert.Equal(t, "2.0.0", cfg.Project.Version)
		assert.Equal(t, 750*time.Millisecond, cfg.Store.LockTimeout)
	})

	t.Run("global only", func(t *testing.T) {
		cfg, err := LoadFromPaths(ctx, "", global)
		require.NoError(t, err)
		assert.Equal(t, "acme", cfg.Project.Name)
	})

	t.Run("missing files", func(t *testing.T) {
		cfg, err := LoadFromPaths(ctx, filepath.Join(dir, "nope.yaml"), filepath.Join(dir, "none.yaml"))
		require.NoError(t, err)
		assert.Equal(t, constants.PlaceholderProjectName, cfg.Project.Name)
	})

	t.Run("bad duration", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		writeConfig(t, bad, "store:\n  lock_timeout: soon\n")
		_, err := LoadFromPaths(ctx, bad, "")
		require.Error(t, err)
	})
}

func TestLoadWithOverrides(t *testing.T) {
	isolate(t)

	cfg, err := LoadWithOverrides(context.Background(), &Config{
		Paths:   PathsConfig{SessionState: "/x/state.json", Checkpoints: "/x/ckpt.json"},
		Store:   StoreConfig{Locking: true},
		Monitor: MonitorConfig{Threshold: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "/x/state.json", cfg.Paths.SessionState)
	assert.Equal(t, "/x/ckpt.json", cfg.Paths.Checkpoints)
	assert.Equal(t, DefaultConfig().Paths.Progress, cfg.Paths.Progress)
	assert.True(t, cfg.Store.Locking)
	assert.Equal(t, 2, cfg.Monitor.Threshold)

	cfg, err = LoadWithOverrides(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		root string
		path string
		want string
	}{
		{"relative", "/repo", ".claude/progress.json", filepath.Join("/repo", ".claude", "progress.json")},
		{"absolute", "/repo", "/elsewhere/p.json", "/elsewhere/p.json"},
		{"no root", "", "p.json", "p.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.root, tt.path))
		})
	}
}
