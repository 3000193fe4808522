package state

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/mrz1836/waypoint/internal/domain"
)

// CurrentPhase returns current.phase, or "" when the section is missing.
func (s *Store) CurrentPhase(ctx context.Context) (string, error) {
	doc, err := s.ReadSessionState(ctx)
	if err != nil || doc.Current == nil {
		return "", err
	}
	return doc.Current.Phase, nil
}

// CurrentTask returns current.task, or "" when the section is missing.
func (s *Store) CurrentTask(ctx context.Context) (string, error) {
	doc, err := s.ReadSessionState(ctx)
	if err != nil || doc.Current == nil {
		return "", err
	}
	return doc.Current.Task, nil
}

// CurrentBranch returns current.working_branch, or "" when the section is missing.
func (s *Store) CurrentBranch(ctx context.Context) (string, error) {
	doc, err := s.ReadSessionState(ctx)
	if err != nil || doc.Current == nil {
		return "", err
	}
	return doc.Current.WorkingBranch, nil
}

// CompletedTasks returns a copy of progress.tasks_completed.
func (s *Store) CompletedTasks(ctx context.Context) ([]string, error) {
	doc, err := s.ReadSessionState(ctx)
	if err != nil {
		return nil, err
	}
	if doc.Progress == nil {
		return []string{}, nil
	}
	return slices.Clone(doc.Progress.TasksCompleted), nil
}

// IsTaskCompleted reports whether taskID is in progress.tasks_completed.
func (s *Store) IsTaskCompleted(ctx context.Context, taskID string) (bool, error) {
	doc, err := s.ReadSessionState(ctx)
	if err != nil || doc.Progress == nil {
		return false, err
	}
	return doc.Progress.HasCompleted(taskID), nil
}

// LastCheckpointTag returns checkpoint.tag, or "" when there is none.
func (s *Store) LastCheckpointTag(ctx context.Context) (string, error) {
	doc, err := s.ReadSessionState(ctx)
	if err != nil || doc.Checkpoint == nil {
		return "", err
	}
	return doc.Checkpoint.Tag, nil
}

// MinutesSinceLastActivity returns whole minutes elapsed since timing.last_activity.
func (s *Store) MinutesSinceLastActivity(ctx context.Context) (int, error) {
	return s.elapsed(ctx, "timing.last_activity", func(t *domain.TimingInfo) string { return t.LastActivity }, 1)
}

// PhaseDurationHours returns whole hours elapsed since timing.phase_start.
func (s *Store) PhaseDurationHours(ctx context.Context) (int, error) {
	return s.elapsed(ctx, "timing.phase_start", func(t *domain.TimingInfo) string { return t.PhaseStart }, 60)
}

// TaskDurationMinutes returns whole minutes elapsed since timing.task_start.
func (s *Store) TaskDurationMinutes(ctx context.Context) (int, error) {
	return s.elapsed(ctx, "timing.task_start", func(t *domain.TimingInfo) string { return t.TaskStart }, 1)
}

// elapsed floors (now - stored timestamp) in units of unitMinutes minutes.
func (s *Store) elapsed(ctx context.Context, field string, pick func(*domain.TimingInfo) string, unitMinutes float64) (int, error) {
	doc, err := s.ReadSessionState(ctx)
	if err != nil {
		return 0, err
	}
	var raw string
	if doc.Timing != nil {
		raw = pick(doc.Timing)
	}
	ts, err := domain.ParseTimestamp(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return int(math.Floor(s.clock.Now().Sub(ts).Minutes() / unitMinutes)), nil
}

// IsWorkingDirectoryClean returns git_state.working_directory_clean.
func (s *Store) IsWorkingDirectoryClean(ctx context.Context) (bool, error) {
	doc, err := s.ReadSessionState(ctx)
	if err != nil || doc.GitState == nil {
		return false, err
	}
	return doc.GitState.WorkingDirectoryClean, nil
}

// UncommittedChanges returns modified + untracked + staged file counts.
func (s *Store) UncommittedChanges(ctx context.Context) (int, error) {
	doc, err := s.ReadSessionState(ctx)
	if err != nil || doc.GitState == nil {
		return 0, err
	}
	return doc.GitState.UncommittedChanges(), nil
}
