package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/waypoint/internal/errors"
)

func TestValidate_NilConfig(t *testing.T) {
	require.ErrorIs(t, Validate(nil), errors.ErrConfigNil)
}

func TestValidate_DefaultConfig(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
		wantMsg string
	}{
		{
			name:    "empty session path",
			mutate:  func(c *Config) { c.Paths.SessionState = "" },
			wantErr: errors.ErrConfigInvalidPaths,
			wantMsg: "paths.session_state",
		},
		{
			name:    "empty monitor path",
			mutate:  func(c *Config) { c.Paths.MonitorState = "" },
			wantErr: errors.ErrConfigInvalidPaths,
			wantMsg: "paths.monitor_state",
		},
		{
			name:    "zero lock timeout",
			mutate:  func(c *Config) { c.Store.LockTimeout = 0 },
			wantErr: errors.ErrConfigInvalidStore,
			wantMsg: "store.lock_timeout",
		},
		{
			name:    "empty schema version",
			mutate:  func(c *Config) { c.Validation.SchemaVersion = "" },
			wantErr: errors.ErrEmptyValue,
			wantMsg: "validation.schema_version",
		},
		{
			name:    "negative threshold",
			mutate:  func(c *Config) { c.Monitor.Threshold = -1 },
			wantErr: errors.ErrConfigInvalidMonitor,
			wantMsg: "got -1",
		},
		{
			name:   "empty branch prefix disables the check",
			mutate: func(c *Config) { c.Validation.BranchPrefix = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
