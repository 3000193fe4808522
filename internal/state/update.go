package state

import (
	"context"
	"math"
	"slices"

	"github.com/rs/zerolog"

	"github.com/mrz1836/waypoint/internal/domain"
)

// UpdateSessionState merges patch into the stored session state. Every
// non-nil section of patch replaces the stored section whole; a non-empty
// SchemaVersion replaces the stored version.
func (s *Store) UpdateSessionState(ctx context.Context, patch *domain.SessionState) error {
	if patch == nil {
		return s.ModifySessionState(ctx, func(*domain.SessionState) error { return nil })
	}
	patch = patch.DeepCopy()
	return s.ModifySessionState(ctx, func(doc *domain.SessionState) error {
		if patch.SchemaVersion != "" {
			doc.SchemaVersion = patch.SchemaVersion
		}
		if patch.Project != nil {
			doc.Project = patch.Project
		}
		if patch.Current != nil {
			doc.Current = patch.Current
		}
		if patch.Timing != nil {
			doc.Timing = patch.Timing
		}
		if patch.Checkpoint != nil {
			doc.Checkpoint = patch.Checkpoint
		}
		if patch.Progress != nil {
			doc.Progress = patch.Progress
		}
		if patch.GitState != nil {
			doc.GitState = patch.GitState
		}
		if patch.Metadata != nil {
			doc.Metadata = patch.Metadata
		}
		return nil
	})
}

// UpdateField assigns one field of the session state by dotted path.
func (s *Store) UpdateField(ctx context.Context, u FieldUpdate) error {
	return s.BatchUpdate(ctx, u)
}

// BatchUpdate applies every update to one in-memory copy of the session
// state and writes it once. If any update fails, nothing is written.
func (s *Store) BatchUpdate(ctx context.Context, updates ...FieldUpdate) error {
	err := s.ModifySessionState(ctx, func(doc *domain.SessionState) error {
		for _, u := range updates {
			if err := apply(doc, u); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		zerolog.Ctx(ctx).Debug().
			Str("component", "state").
			Int("updates", len(updates)).
			Msg("session state fields updated")
	}
	return err
}

// RawFieldUpdate is a command-line assignment whose value has not been
// coerced to the field's type yet.
type RawFieldUpdate struct {
	Path  string
	Value string
}

// BatchUpdateRaw is BatchUpdate for command-line strings. Each value is
// coerced against the document as left by the updates before it, so later
// paths may address list items created earlier in the same batch.
func (s *Store) BatchUpdateRaw(ctx context.Context, updates ...RawFieldUpdate) error {
	err := s.ModifySessionState(ctx, func(doc *domain.SessionState) error {
		for _, r := range updates {
			u, err := ParseFieldUpdate(doc, r.Path, r.Value)
			if err != nil {
				return err
			}
			if err := apply(doc, u); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		zerolog.Ctx(ctx).Debug().
			Str("component", "state").
			Int("updates", len(updates)).
			Msg("session state fields updated")
	}
	return err
}

// UpdateProgressField assigns one field of the progress document by dotted path.
// The progress document carries no metadata, so nothing is stamped.
func (s *Store) UpdateProgressField(ctx context.Context, u FieldUpdate) error {
	return s.ModifyProgress(ctx, func(doc *domain.ProgressData) error {
		return apply(doc, u)
	})
}

// UpdateCurrent edits the current section in place, creating it when absent.
func (s *Store) UpdateCurrent(ctx context.Context, fn func(*domain.CurrentState)) error {
	return s.ModifySessionState(ctx, func(doc *domain.SessionState) error {
		if doc.Current == nil {
			doc.Current = &domain.CurrentState{}
		}
		fn(doc.Current)
		return nil
	})
}

// UpdateTiming edits the timing section in place, creating it when absent.
func (s *Store) UpdateTiming(ctx context.Context, fn func(*domain.TimingInfo)) error {
	return s.ModifySessionState(ctx, func(doc *domain.SessionState) error {
		if doc.Timing == nil {
			doc.Timing = &domain.TimingInfo{}
		}
		fn(doc.Timing)
		return nil
	})
}

// UpdateLastActivity stamps timing.last_activity with the current time.
func (s *Store) UpdateLastActivity(ctx context.Context) error {
	now := domain.FormatTimestamp(s.clock.Now())
	return s.UpdateTiming(ctx, func(t *domain.TimingInfo) { t.LastActivity = now })
}

// UpdateLastSync stamps timing.last_sync with the current time.
func (s *Store) UpdateLastSync(ctx context.Context) error {
	now := domain.FormatTimestamp(s.clock.Now())
	return s.UpdateTiming(ctx, func(t *domain.TimingInfo) { t.LastSync = now })
}

// UpdateCheckpoint replaces the checkpoint section with the given tag,
// commit and message, stamped now.
func (s *Store) UpdateCheckpoint(ctx context.Context, tag, commit, message string) error {
	return s.ModifySessionState(ctx, func(doc *domain.SessionState) error {
		doc.Checkpoint = &domain.CheckpointInfo{
			Tag:       tag,
			Commit:    commit,
			Timestamp: domain.FormatTimestamp(s.clock.Now()),
			Message:   message,
		}
		return nil
	})
}

// AddCompletedTask records taskID as completed. A task already in the list
// is not added twice. When tasks_total is positive the completion
// percentage is recomputed as round(completed/total*100), which is not
// capped at 100.
func (s *Store) AddCompletedTask(ctx context.Context, taskID string) error {
	return s.ModifySessionState(ctx, func(doc *domain.SessionState) error {
		if doc.Progress == nil {
			doc.Progress = &domain.ProgressInfo{}
		}
		p := doc.Progress
		if slices.Contains(p.TasksCompleted, taskID) {
			return nil
		}
		p.TasksCompleted = append(p.TasksCompleted, taskID)
		if p.TasksTotal > 0 {
			p.CompletionPercentage = math.Round(float64(len(p.TasksCompleted)) / float64(p.TasksTotal) * 100)
		}
		return nil
	})
}

// UpdateGitState edits the git_state section in place, creating it when absent.
func (s *Store) UpdateGitState(ctx context.Context, fn func(*domain.GitState)) error {
	return s.ModifySessionState(ctx, func(doc *domain.SessionState) error {
		if doc.GitState == nil {
			doc.GitState = &domain.GitState{}
		}
		fn(doc.GitState)
		return nil
	})
}

// UpdateMetadata records who last updated the session state.
func (s *Store) UpdateMetadata(ctx context.Context, updatedBy string) error {
	return s.ModifySessionState(ctx, func(doc *domain.SessionState) error {
		if doc.Metadata == nil {
			doc.Metadata = &domain.MetadataInfo{}
		}
		doc.Metadata.LastUpdatedBy = updatedBy
		return nil
	})
}

// Touch re-stamps metadata.last_updated_at without changing anything else.
func (s *Store) Touch(ctx context.Context) error {
	return s.UpdateSessionState(ctx, nil)
}
