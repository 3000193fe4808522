// Package domain provides the document schema for waypoint's tracked state.
// These types are used across all internal packages to ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use snake_case, and struct field order is the
// serialized key order.
package domain

import "slices"

// SessionState is the live cursor of a workflow: where it is, when it got
// there, the last checkpoint, and the repository state. There is exactly one
// per workflow.
//
// Sections are pointers so an absent section can be told apart from an
// empty one when validating hand-edited files.
//
// Example JSON representation:
//
//	{
//	    "schema_version": "1.0.0",
//	    "project": {"name": "ui-library", "version": "1.0.0", "remote_url": "..."},
//	    "current": {"phase": "1.0", "task": "1.0.2", "working_branch": "feature/phase-1", ...},
//	    "timing": {"phase_start": "2025-01-10T09:00:00Z", ...},
//	    ...
//	}
type SessionState struct {
	SchemaVersion string          `json:"schema_version"`
	Project       *ProjectInfo    `json:"project"`
	Current       *CurrentState   `json:"current"`
	Timing        *TimingInfo     `json:"timing"`
	Checkpoint    *CheckpointInfo `json:"checkpoint"`
	Progress      *ProgressInfo   `json:"progress"`
	GitState      *GitState       `json:"git_state"`
	Metadata      *MetadataInfo   `json:"metadata"`
}

// ProjectInfo is immutable reference data about the tracked project.
type ProjectInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	RemoteURL string `json:"remote_url"`
}

// CurrentState is the phase, task and branches the workflow is on right now.
type CurrentState struct {
	Phase         string `json:"phase"`
	PhaseName     string `json:"phase_name"`
	Task          string `json:"task"`
	TaskName      string `json:"task_name"`
	WorkingBranch string `json:"working_branch"`
	BaseBranch    string `json:"base_branch"`
}

// TimingInfo holds ISO-8601 timestamps. They are kept as strings so that an
// unparseable value survives a round trip and can be reported by validation.
// Invariant: TaskStart is not before PhaseStart.
type TimingInfo struct {
	PhaseStart   string `json:"phase_start"`
	TaskStart    string `json:"task_start"`
	LastActivity string `json:"last_activity"`
	LastSync     string `json:"last_sync"`
}

// CheckpointInfo references the most recent checkpoint.
// Tag and Commit are either both set or both empty.
type CheckpointInfo struct {
	Tag       string `json:"tag"`
	Commit    string `json:"commit"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// IsPartial reports whether exactly one of Tag and Commit is set.
func (c *CheckpointInfo) IsPartial() bool {
	return (c.Tag == "") != (c.Commit == "")
}

// ProgressInfo tracks task completion within the workflow.
// TasksCompleted is an ordered set: no duplicates, insertion order kept for display.
type ProgressInfo struct {
	TasksCompleted       []string `json:"tasks_completed"`
	TasksTotal           int      `json:"tasks_total"`
	CompletionPercentage float64  `json:"completion_percentage"`
}

// HasCompleted reports whether taskID is in TasksCompleted.
func (p *ProgressInfo) HasCompleted(taskID string) bool {
	return slices.Contains(p.TasksCompleted, taskID)
}

// GitState is a snapshot of repository counters.
type GitState struct {
	LocalCommitsAhead     int  `json:"local_commits_ahead"`
	RemoteCommitsAhead    int  `json:"remote_commits_ahead"`
	ModifiedFiles         int  `json:"modified_files"`
	UntrackedFiles        int  `json:"untracked_files"`
	StagedFiles           int  `json:"staged_files"`
	WorkingDirectoryClean bool `json:"working_directory_clean"`
}

// UncommittedChanges is the total of modified, untracked and staged files.
func (g *GitState) UncommittedChanges() int {
	return g.ModifiedFiles + g.UntrackedFiles + g.StagedFiles
}

// MetadataInfo records who touched the document last and when.
type MetadataInfo struct {
	LastUpdatedBy string `json:"last_updated_by"`
	LastUpdatedAt string `json:"last_updated_at"`
}

// DeepCopy returns an independent copy of the session state.
func (s *SessionState) DeepCopy() *SessionState {
	if s == nil {
		return nil
	}
	cp := &SessionState{SchemaVersion: s.SchemaVersion}
	if s.Project != nil {
		p := *s.Project
		cp.Project = &p
	}
	if s.Current != nil {
		c := *s.Current
		cp.Current = &c
	}
	if s.Timing != nil {
		t := *s.Timing
		cp.Timing = &t
	}
	if s.Checkpoint != nil {
		c := *s.Checkpoint
		cp.Checkpoint = &c
	}
	if s.Progress != nil {
		p := *s.Progress
		p.TasksCompleted = slices.Clone(s.Progress.TasksCompleted)
		cp.Progress = &p
	}
	if s.GitState != nil {
		g := *s.GitState
		cp.GitState = &g
	}
	if s.Metadata != nil {
		m := *s.Metadata
		cp.Metadata = &m
	}
	return cp
}
