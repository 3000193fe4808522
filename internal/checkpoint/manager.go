// Package checkpoint maintains the append-only checkpoint history and
// timestamped backups of the session state document.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/waypoint/internal/clock"
	"github.com/mrz1836/waypoint/internal/constants"
	"github.com/mrz1836/waypoint/internal/domain"
	wperrors "github.com/mrz1836/waypoint/internal/errors"
	"github.com/mrz1836/waypoint/internal/git"
	"github.com/mrz1836/waypoint/internal/state"
)

// Manager appends checkpoint entries and manages session state backups.
type Manager struct {
	store   *state.Store
	git     git.Runner
	clock   clock.Clock
	project domain.ProjectRef
}

// Option configures a Manager.
type Option func(*Manager)

// WithGit sets the runner used to capture commit, branch and diff stats.
func WithGit(r git.Runner) Option {
	return func(m *Manager) {
		m.git = r
	}
}

// WithClock sets the clock used for entry and backup timestamps. The
// store's clock is used otherwise.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithProject sets the project reference written into a checkpoint history
// that has to be created from scratch.
func WithProject(name, version string) Option {
	return func(m *Manager) {
		if name != "" {
			m.project.Name = name
		}
		if version != "" {
			m.project.Version = version
		}
	}
}

// NewManager creates a Manager over store.
func NewManager(store *state.Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		project: domain.ProjectRef{
			Name:    constants.PlaceholderProjectName,
			Version: constants.PlaceholderProjectVersion,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddEntry appends entry to the checkpoint history. A missing history file
// is created first. Entries are never reordered or deduplicated.
func (m *Manager) AddEntry(ctx context.Context, entry domain.CheckpointEntry) error {
	err := m.store.ModifyCheckpoints(ctx, m.emptyHistory, func(doc *domain.CheckpointsData) error {
		doc.Checkpoints = append(doc.Checkpoints, entry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append checkpoint %s: %w", entry.Tag, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("component", "checkpoint").
		Str("tag", entry.Tag).
		Str("commit", entry.Commit).
		Str("type", string(entry.Type)).
		Msg("checkpoint recorded")
	return nil
}

// Entries returns the checkpoint history in stored order. A missing history
// file yields an empty list.
func (m *Manager) Entries(ctx context.Context) ([]domain.CheckpointEntry, error) {
	doc, err := m.store.ReadCheckpoints(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.CheckpointEntry{}, nil
		}
		return nil, err
	}
	return doc.Checkpoints, nil
}

// LatestEntry returns the last history entry, or nil when there is none.
func (m *Manager) LatestEntry(ctx context.Context) (*domain.CheckpointEntry, error) {
	entries, err := m.Entries(ctx)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	last := entries[len(entries)-1]
	return &last, nil
}

// EntryRequest describes a checkpoint to create. Empty fields are filled in
// by NewEntry.
type EntryRequest struct {
	Type    domain.CheckpointType
	Tag     string
	Phase   string
	Task    string
	Message string
	Commit  string
}

// NewEntry builds a checkpoint entry stamped now. The commit defaults to
// HEAD; branch and diff stats come from git when available. Phase and task
// default to the session's current position. Manual checkpoints without a
// tag get a generated one.
func (m *Manager) NewEntry(ctx context.Context, req EntryRequest) (domain.CheckpointEntry, error) {
	if req.Type == "" {
		req.Type = domain.CheckpointManual
	}
	if !req.Type.IsValid() {
		return domain.CheckpointEntry{}, fmt.Errorf("checkpoint type %q: %w", req.Type, wperrors.ErrInvalidArgument)
	}
	if req.Tag == "" {
		if req.Type != domain.CheckpointManual {
			return domain.CheckpointEntry{}, fmt.Errorf("checkpoint tag: %w", wperrors.ErrEmptyValue)
		}
		req.Tag = GenerateManualTag()
	}

	if session := m.store.SafeReadSessionState(ctx); session != nil && session.Current != nil {
		if req.Phase == "" {
			req.Phase = session.Current.Phase
		}
		if req.Task == "" && req.Type == domain.CheckpointTask {
			req.Task = session.Current.Task
		}
	}

	entry := domain.CheckpointEntry{
		Tag:       req.Tag,
		Commit:    req.Commit,
		Timestamp: domain.FormatTimestamp(m.now()),
		Type:      req.Type,
		Phase:     req.Phase,
		Task:      req.Task,
		Message:   req.Message,
	}

	if err := m.captureGit(ctx, &entry); err != nil {
		return domain.CheckpointEntry{}, err
	}
	return entry, nil
}

// Create builds an entry, appends it to the history and points the session
// state's checkpoint section at it. The session update is skipped when no
// session state file exists.
func (m *Manager) Create(ctx context.Context, req EntryRequest) (domain.CheckpointEntry, error) {
	entry, err := m.NewEntry(ctx, req)
	if err != nil {
		return domain.CheckpointEntry{}, err
	}
	if err := m.AddEntry(ctx, entry); err != nil {
		return domain.CheckpointEntry{}, err
	}
	if m.store.SessionStateExists() {
		if err := m.store.UpdateCheckpoint(ctx, entry.Tag, entry.Commit, entry.Message); err != nil {
			return entry, fmt.Errorf("update session checkpoint: %w", err)
		}
	}
	return entry, nil
}

// captureGit fills commit, branch and diff stats. Only a missing commit is
// fatal; branch and stats are best effort.
func (m *Manager) captureGit(ctx context.Context, entry *domain.CheckpointEntry) error {
	if m.git == nil {
		if entry.Commit == "" {
			return fmt.Errorf("checkpoint commit: %w", wperrors.ErrNotGitRepo)
		}
		return nil
	}

	gitCtx, cancel := context.WithTimeout(ctx, constants.GitCommandTimeout)
	defer cancel()
	logger := zerolog.Ctx(ctx)

	if entry.Commit == "" {
		commit, err := m.git.HeadCommit(gitCtx)
		if err != nil {
			return fmt.Errorf("checkpoint commit: %w", err)
		}
		entry.Commit = commit
	}

	if branch, err := m.git.CurrentBranch(gitCtx); err == nil {
		entry.GitState.Branch = branch
	} else {
		logger.Warn().Err(err).Str("component", "checkpoint").Msg("could not read current branch")
	}

	if stats, err := m.git.LastCommitStats(gitCtx); err == nil {
		entry.GitState.FilesChanged = stats.FilesChanged
		entry.GitState.Insertions = stats.Insertions
		entry.GitState.Deletions = stats.Deletions
	} else {
		logger.Warn().Err(err).Str("component", "checkpoint").Msg("could not read commit stats")
	}
	return nil
}

func (m *Manager) now() time.Time {
	if m.clock != nil {
		return m.clock.Now()
	}
	return m.store.Now()
}

func (m *Manager) emptyHistory() *domain.CheckpointsData {
	project := m.project
	return &domain.CheckpointsData{
		SchemaVersion: constants.SchemaVersion,
		Project:       &project,
		Checkpoints:   []domain.CheckpointEntry{},
	}
}

// GenerateManualTag creates a unique tag for a manual checkpoint.
// Format: manual-{uuid8} (e.g., manual-a1b2c3d4)
func GenerateManualTag() string {
	return "manual-" + uuid.New().String()[:8]
}
