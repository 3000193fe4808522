package validate

import (
	"strings"

	"github.com/mrz1836/waypoint/internal/domain"
)

// SessionState checks a session state document section by section.
func (v *Validator) SessionState(doc *domain.SessionState) Result {
	r := newResult()
	if doc == nil {
		doc = &domain.SessionState{}
	}

	switch {
	case doc.SchemaVersion == "":
		r.errorf("Missing schema_version")
	case doc.SchemaVersion != v.schemaVersion:
		r.warnf("Unexpected schema version: %s", doc.SchemaVersion)
	}

	v.checkProject(&r, doc.Project)
	v.checkCurrent(&r, doc.Current)
	checkTiming(&r, doc.Timing)
	checkCheckpoint(&r, doc.Checkpoint)
	checkProgress(&r, doc.Progress)
	checkGitState(&r, doc.GitState)
	checkMetadata(&r, doc.Metadata)

	return r
}

// IsStateSafe reports whether automation may proceed: the session state is
// valid and the working directory is clean. Counters missing from the file
// decode as zero, so gates over stored documents use IsStateSafeJSON.
func (v *Validator) IsStateSafe(doc *domain.SessionState) bool {
	if !v.SessionState(doc).Valid {
		return false
	}
	return doc.GitState != nil && doc.GitState.WorkingDirectoryClean
}

func (v *Validator) checkProject(r *Result, p *domain.ProjectInfo) {
	if p == nil {
		r.errorf("Missing project section")
		return
	}
	if p.Name == "" {
		r.errorf("Missing project.name")
	}
	if p.Version == "" {
		r.errorf("Missing project.version")
	}
	if p.RemoteURL == "" {
		r.warnf("Missing project.remote_url")
	}
}

func (v *Validator) checkCurrent(r *Result, c *domain.CurrentState) {
	if c == nil {
		r.errorf("Missing current section")
		return
	}
	required := []struct{ name, value string }{
		{"phase", c.Phase},
		{"phase_name", c.PhaseName},
		{"task", c.Task},
		{"task_name", c.TaskName},
		{"working_branch", c.WorkingBranch},
		{"base_branch", c.BaseBranch},
	}
	for _, f := range required {
		if f.value == "" {
			r.errorf("Missing current.%s", f.name)
		}
	}
	if v.branchPrefix != "" && c.WorkingBranch != "" && !strings.HasPrefix(c.WorkingBranch, v.branchPrefix) {
		r.warnf("Working branch should start with %s", v.branchPrefix)
	}
}

func checkTiming(r *Result, t *domain.TimingInfo) {
	if t == nil {
		r.errorf("Missing timing section")
		return
	}
	if t.PhaseStart == "" {
		r.errorf("Missing timing.phase_start")
	}
	if t.TaskStart == "" {
		r.errorf("Missing timing.task_start")
	}
	if t.LastActivity == "" {
		r.errorf("Missing timing.last_activity")
	}
	if t.LastSync == "" {
		r.warnf("Missing timing.last_sync")
	}

	stamps := []struct{ name, value string }{
		{"phase_start", t.PhaseStart},
		{"task_start", t.TaskStart},
		{"last_activity", t.LastActivity},
		{"last_sync", t.LastSync},
	}
	for _, ts := range stamps {
		if ts.value == "" {
			continue
		}
		if _, err := domain.ParseTimestamp(ts.value); err != nil {
			r.errorf("Invalid timestamp format for timing.%s: %s", ts.name, ts.value)
		}
	}

	phaseStart, phaseErr := domain.ParseTimestamp(t.PhaseStart)
	taskStart, taskErr := domain.ParseTimestamp(t.TaskStart)
	if phaseErr == nil && taskErr == nil && taskStart.Before(phaseStart) {
		r.errorf("task_start cannot be before phase_start")
	}
}

func checkCheckpoint(r *Result, c *domain.CheckpointInfo) {
	if c == nil {
		r.warnf("Missing checkpoint section")
		return
	}
	if c.Tag != "" && c.Commit == "" {
		r.errorf("Checkpoint has tag but missing commit")
	}
	if c.Commit != "" && c.Tag == "" {
		r.errorf("Checkpoint has commit but missing tag")
	}
}

func checkProgress(r *Result, p *domain.ProgressInfo) {
	if p == nil {
		r.errorf("Missing progress section")
		return
	}
	if p.TasksCompleted == nil {
		r.errorf("progress.tasks_completed must be an array")
	}
	if p.CompletionPercentage < 0 || p.CompletionPercentage > 100 {
		r.errorf("completion_percentage must be between 0 and 100")
	}
	if p.TasksTotal > 0 && len(p.TasksCompleted) > p.TasksTotal {
		r.warnf("More tasks completed than total tasks")
	}
}

func checkGitState(r *Result, g *domain.GitState) {
	if g == nil {
		r.warnf("Missing git_state section")
		return
	}
	counters := []struct {
		name  string
		value int
	}{
		{"local_commits_ahead", g.LocalCommitsAhead},
		{"remote_commits_ahead", g.RemoteCommitsAhead},
		{"modified_files", g.ModifiedFiles},
		{"untracked_files", g.UntrackedFiles},
		{"staged_files", g.StagedFiles},
	}
	for _, c := range counters {
		if c.value < 0 {
			r.errorf("git_state.%s must be a non-negative number", c.name)
		}
	}
}

func checkMetadata(r *Result, m *domain.MetadataInfo) {
	if m == nil {
		r.warnf("Missing metadata section")
		return
	}
	if m.LastUpdatedBy == "" {
		r.warnf("Missing metadata.last_updated_by")
	}
	if m.LastUpdatedAt == "" {
		r.errorf("Missing metadata.last_updated_at")
	} else if _, err := domain.ParseTimestamp(m.LastUpdatedAt); err != nil {
		r.errorf("Invalid timestamp format for metadata.last_updated_at")
	}
}
