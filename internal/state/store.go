// Package state reads and writes waypoint's tracked documents.
//
// Every operation goes to disk: documents are read fresh, modified in
// memory, and written back whole. There is no caching. Writes are atomic
// (temp file + rename) so a concurrent reader never sees a torn file, but
// concurrent writers are last-write-wins unless WithLocking is used.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/waypoint/internal/clock"
	"github.com/mrz1836/waypoint/internal/constants"
	"github.com/mrz1836/waypoint/internal/ctxutil"
	"github.com/mrz1836/waypoint/internal/domain"
	wperrors "github.com/mrz1836/waypoint/internal/errors"
	"github.com/mrz1836/waypoint/internal/flock"
)

// Paths locates the three tracked documents.
type Paths struct {
	SessionState string
	Progress     string
	Checkpoints  string
}

// DefaultPaths returns the conventional document locations under root.
func DefaultPaths(root string) Paths {
	dir := filepath.Join(root, constants.StateDir)
	return Paths{
		SessionState: filepath.Join(dir, constants.SessionStateFileName),
		Progress:     filepath.Join(dir, constants.ProgressFileName),
		Checkpoints:  filepath.Join(dir, constants.CheckpointsFileName),
	}
}

// Store provides read/write access to the tracked documents.
// A Store is immutable after construction and safe to share.
type Store struct {
	paths       Paths
	clock       clock.Clock
	locking     bool
	lockTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLocking serializes read-modify-write cycles across processes with an
// advisory lock on a sidecar "<document>.lock" file.
func WithLocking(timeout time.Duration) Option {
	return func(s *Store) {
		s.locking = true
		if timeout > 0 {
			s.lockTimeout = timeout
		}
	}
}

// WithClock sets the clock used for metadata stamps and elapsed-time accessors.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// New creates a Store for the given paths.
func New(paths Paths, opts ...Option) *Store {
	s := &Store{
		paths:       paths,
		clock:       clock.RealClock{},
		lockTimeout: constants.DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Paths returns the document paths this store is bound to.
func (s *Store) Paths() Paths {
	return s.paths
}

// WithPaths returns a copy of the store bound to other document paths.
// Empty fields in p keep the current path.
func (s *Store) WithPaths(p Paths) *Store {
	cp := *s
	if p.SessionState != "" {
		cp.paths.SessionState = p.SessionState
	}
	if p.Progress != "" {
		cp.paths.Progress = p.Progress
	}
	if p.Checkpoints != "" {
		cp.paths.Checkpoints = p.Checkpoints
	}
	return &cp
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// ReadSessionState loads the session state document.
func (s *Store) ReadSessionState(ctx context.Context) (*domain.SessionState, error) {
	return ReadJSON[domain.SessionState](ctx, s.paths.SessionState)
}

// ReadProgress loads the progress document.
func (s *Store) ReadProgress(ctx context.Context) (*domain.ProgressData, error) {
	return ReadJSON[domain.ProgressData](ctx, s.paths.Progress)
}

// ReadCheckpoints loads the checkpoint history document.
func (s *Store) ReadCheckpoints(ctx context.Context) (*domain.CheckpointsData, error) {
	return ReadJSON[domain.CheckpointsData](ctx, s.paths.Checkpoints)
}

// SafeReadSessionState is ReadSessionState that returns nil instead of an error.
func (s *Store) SafeReadSessionState(ctx context.Context) *domain.SessionState {
	doc, err := s.ReadSessionState(ctx)
	if err != nil {
		return nil
	}
	return doc
}

// SafeReadProgress is ReadProgress that returns nil instead of an error.
func (s *Store) SafeReadProgress(ctx context.Context) *domain.ProgressData {
	doc, err := s.ReadProgress(ctx)
	if err != nil {
		return nil
	}
	return doc
}

// SafeReadCheckpoints is ReadCheckpoints that returns nil instead of an error.
func (s *Store) SafeReadCheckpoints(ctx context.Context) *domain.CheckpointsData {
	doc, err := s.ReadCheckpoints(ctx)
	if err != nil {
		return nil
	}
	return doc
}

// SessionStateExists reports whether the session state file exists.
func (s *Store) SessionStateExists() bool {
	return fileExists(s.paths.SessionState)
}

// ProgressExists reports whether the progress file exists.
func (s *Store) ProgressExists() bool {
	return fileExists(s.paths.Progress)
}

// CheckpointsExist reports whether the checkpoints file exists.
func (s *Store) CheckpointsExist() bool {
	return fileExists(s.paths.Checkpoints)
}

// WriteSessionState replaces the session state document.
func (s *Store) WriteSessionState(ctx context.Context, doc *domain.SessionState) error {
	return s.WriteSessionStateTo(ctx, s.paths.SessionState, doc)
}

// WriteSessionStateTo writes a session state document to an explicit path.
// It is used for backups and restores, which target files other than the
// configured one.
func (s *Store) WriteSessionStateTo(ctx context.Context, path string, doc *domain.SessionState) error {
	if doc == nil {
		return errNilDocument(path)
	}
	return s.locked(ctx, path, func() error {
		return WriteJSON(ctx, path, normalizeSession(doc))
	})
}

// ReadSessionStateFrom loads a session state document from an explicit path.
func (s *Store) ReadSessionStateFrom(ctx context.Context, path string) (*domain.SessionState, error) {
	return ReadJSON[domain.SessionState](ctx, path)
}

// WriteProgress replaces the progress document.
func (s *Store) WriteProgress(ctx context.Context, doc *domain.ProgressData) error {
	if doc == nil {
		return errNilDocument(s.paths.Progress)
	}
	return s.locked(ctx, s.paths.Progress, func() error {
		return WriteJSON(ctx, s.paths.Progress, normalizeProgress(doc))
	})
}

// WriteCheckpoints replaces the checkpoint history document.
func (s *Store) WriteCheckpoints(ctx context.Context, doc *domain.CheckpointsData) error {
	if doc == nil {
		return errNilDocument(s.paths.Checkpoints)
	}
	return s.locked(ctx, s.paths.Checkpoints, func() error {
		return WriteJSON(ctx, s.paths.Checkpoints, normalizeCheckpoints(doc))
	})
}

// ModifySessionState performs a read-modify-write cycle on the session state.
// metadata.last_updated_at is stamped after fn succeeds. If fn returns an
// error nothing is written.
func (s *Store) ModifySessionState(ctx context.Context, fn func(*domain.SessionState) error) error {
	path := s.paths.SessionState
	return s.locked(ctx, path, func() error {
		doc, err := ReadJSON[domain.SessionState](ctx, path)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		s.stamp(doc)
		return WriteJSON(ctx, path, normalizeSession(doc))
	})
}

// ModifyProgress performs a read-modify-write cycle on the progress document.
func (s *Store) ModifyProgress(ctx context.Context, fn func(*domain.ProgressData) error) error {
	path := s.paths.Progress
	return s.locked(ctx, path, func() error {
		doc, err := ReadJSON[domain.ProgressData](ctx, path)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		return WriteJSON(ctx, path, normalizeProgress(doc))
	})
}

// ModifyCheckpoints performs a read-modify-write cycle on the checkpoint
// history. init supplies the document when the file does not exist yet;
// with a nil init a missing file is an error.
func (s *Store) ModifyCheckpoints(ctx context.Context, init func() *domain.CheckpointsData, fn func(*domain.CheckpointsData) error) error {
	path := s.paths.Checkpoints
	return s.locked(ctx, path, func() error {
		doc, err := ReadJSON[domain.CheckpointsData](ctx, path)
		if err != nil {
			if init == nil || fileExists(path) {
				return err
			}
			doc = init()
		}
		if err := fn(doc); err != nil {
			return err
		}
		return WriteJSON(ctx, path, normalizeCheckpoints(doc))
	})
}

// stamp sets metadata.last_updated_at, creating the section when absent.
func (s *Store) stamp(doc *domain.SessionState) {
	if doc.Metadata == nil {
		doc.Metadata = &domain.MetadataInfo{}
	}
	doc.Metadata.LastUpdatedAt = domain.FormatTimestamp(s.clock.Now())
}

// locked runs fn, holding the document's advisory lock when locking is enabled.
func (s *Store) locked(ctx context.Context, path string, fn func() error) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	if !s.locking {
		return fn()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%w: create directory for %s: %w", wperrors.ErrDocumentWrite, path, err)
	}
	lock := flock.New(path + constants.LockFileSuffix)
	if err := lock.Acquire(ctx, s.lockTimeout); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = lock.Release() }()

	return fn()
}

// ReadJSON loads and decodes a JSON document. Every failure wraps ErrDocumentRead.
func ReadJSON[T any](ctx context.Context, path string) (*T, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", wperrors.ErrDocumentRead, path, err)
	}

	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", wperrors.ErrDocumentRead, path, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("component", "state").
		Str("path", path).
		Int("bytes", len(data)).
		Msg("document read")

	return &doc, nil
}

// WriteJSON encodes v as 2-space indented JSON with a trailing newline
// and writes it atomically. Every failure wraps ErrDocumentWrite.
func WriteJSON(ctx context.Context, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", wperrors.ErrDocumentWrite, path, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%w: create directory for %s: %w", wperrors.ErrDocumentWrite, path, err)
	}
	if err := atomicWrite(path, data); err != nil {
		return fmt.Errorf("%w: %s: %w", wperrors.ErrDocumentWrite, path, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("component", "state").
		Str("path", path).
		Int("bytes", len(data)).
		Msg("document written")

	return nil
}

// atomicWrite writes data to a temp file in the target directory and renames it into place.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil { //nolint:gosec // documents are meant to be shared with other tools
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func errNilDocument(path string) error {
	return fmt.Errorf("%w: %s: nil document", wperrors.ErrDocumentWrite, path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// Lists are written as [] rather than null so the documents stay valid for
// readers that require arrays.

func normalizeSession(doc *domain.SessionState) *domain.SessionState {
	if doc.Progress != nil && doc.Progress.TasksCompleted == nil {
		doc.Progress.TasksCompleted = []string{}
	}
	return doc
}

func normalizeProgress(doc *domain.ProgressData) *domain.ProgressData {
	if doc.Phases == nil {
		doc.Phases = []domain.PhaseProgress{}
	}
	for i := range doc.Phases {
		if doc.Phases[i].Tasks == nil {
			doc.Phases[i].Tasks = []domain.TaskProgress{}
		}
	}
	return doc
}

func normalizeCheckpoints(doc *domain.CheckpointsData) *domain.CheckpointsData {
	if doc.Checkpoints == nil {
		doc.Checkpoints = []domain.CheckpointEntry{}
	}
	return doc
}
