package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/waypoint/internal/constants"
)

// backupStampLayout is domain.TimestampFormat in UTC with ':' and '.'
// replaced by '-', which keeps backup names filesystem-safe.
const backupStampLayout = "2006-01-02T15-04-05-000Z"

// Backup describes one backup file of the session state.
type Backup struct {
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupPath returns the backup file name for path at time t, e.g.
// session-state.json -> session-state.backup.2025-01-10T09-30-00-000Z.json.
func BackupPath(path string, t time.Time) string {
	stamp := t.UTC().Format(backupStampLayout)
	base := strings.TrimSuffix(path, constants.JSONExtension)
	return base + constants.BackupInfix + stamp + constants.JSONExtension
}

// Backup copies the current session state to a timestamped sibling file
// and returns its path.
func (m *Manager) Backup(ctx context.Context) (string, error) {
	doc, err := m.store.ReadSessionState(ctx)
	if err != nil {
		return "", fmt.Errorf("backup session state: %w", err)
	}

	path := BackupPath(m.store.Paths().SessionState, m.now())
	if err := m.store.WriteSessionStateTo(ctx, path, doc); err != nil {
		return "", fmt.Errorf("backup session state: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("component", "checkpoint").
		Str("backup", path).
		Msg("session state backed up")
	return path, nil
}

// Restore overwrites targetPath with the session state in backupPath. An
// empty targetPath means the configured session state file. There is no
// confirmation step.
func (m *Manager) Restore(ctx context.Context, backupPath, targetPath string) error {
	if targetPath == "" {
		targetPath = m.store.Paths().SessionState
	}

	doc, err := m.store.ReadSessionStateFrom(ctx, backupPath)
	if err != nil {
		return fmt.Errorf("restore session state: %w", err)
	}
	if err := m.store.WriteSessionStateTo(ctx, targetPath, doc); err != nil {
		return fmt.Errorf("restore session state: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("component", "checkpoint").
		Str("backup", backupPath).
		Str("target", targetPath).
		Msg("session state restored")
	return nil
}

// ListBackups returns the backups of the configured session state file,
// newest first.
func (m *Manager) ListBackups(_ context.Context) ([]Backup, error) {
	path := m.store.Paths().SessionState
	prefix := filepath.Base(strings.TrimSuffix(path, constants.JSONExtension)) + constants.BackupInfix

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		if os.IsNotExist(err) {
			return []Backup{}, nil
		}
		return nil, fmt.Errorf("list backups: %w", err)
	}

	backups := []Backup{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, constants.JSONExtension) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), constants.JSONExtension)
		created, parseErr := time.Parse(backupStampLayout, stamp)
		if parseErr != nil {
			continue
		}
		backups = append(backups, Backup{Path: filepath.Join(filepath.Dir(path), name), CreatedAt: created})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}
