package domain

// PhaseStatus is the lifecycle state of a phase.
type PhaseStatus string

// Phase statuses.
const (
	PhaseNotStarted PhaseStatus = "not_started"
	PhaseInProgress PhaseStatus = "in_progress"
	PhaseCompleted  PhaseStatus = "completed"
)

// IsValid reports whether s is one of the known phase statuses.
func (s PhaseStatus) IsValid() bool {
	switch s {
	case PhaseNotStarted, PhaseInProgress, PhaseCompleted:
		return true
	}
	return false
}

// TaskStatus is the lifecycle state of a task. Unlike phases, tasks can be blocked.
type TaskStatus string

// Task statuses.
const (
	TaskNotStarted TaskStatus = "not_started"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskBlocked    TaskStatus = "blocked"
)

// IsValid reports whether s is one of the known task statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskCompleted, TaskBlocked:
		return true
	}
	return false
}

// ProgressData is the per-project record of every phase and task.
type ProgressData struct {
	SchemaVersion string           `json:"schema_version"`
	Project       *ProjectRef      `json:"project"`
	Phases        []PhaseProgress  `json:"phases"`
	Summary       *ProgressSummary `json:"summary"`
}

// ProjectRef is the short project reference carried by the progress and
// checkpoints documents.
type ProjectRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PhaseProgress tracks one phase and its tasks in order.
type PhaseProgress struct {
	Phase                string         `json:"phase"`
	PhaseName            string         `json:"phase_name"`
	Status               PhaseStatus    `json:"status"`
	StartDate            string         `json:"start_date"`
	EndDate              string         `json:"end_date,omitempty"`
	Tasks                []TaskProgress `json:"tasks"`
	CompletionPercentage float64        `json:"completion_percentage"`
}

// TaskProgress tracks one task within a phase.
type TaskProgress struct {
	TaskID        string     `json:"task_id"`
	TaskName      string     `json:"task_name"`
	Status        TaskStatus `json:"status"`
	StartDate     string     `json:"start_date,omitempty"`
	EndDate       string     `json:"end_date,omitempty"`
	CheckpointTag string     `json:"checkpoint_tag,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// ProgressSummary is the roll-up of all phases.
// TotalPhases should equal len(ProgressData.Phases); this is checked, not enforced.
type ProgressSummary struct {
	TotalPhases       int     `json:"total_phases"`
	CompletedPhases   int     `json:"completed_phases"`
	CurrentPhase      string  `json:"current_phase"`
	OverallCompletion float64 `json:"overall_completion"`
}

// FindPhase returns the phase with the given identifier, or nil.
func (p *ProgressData) FindPhase(phase string) *PhaseProgress {
	for i := range p.Phases {
		if p.Phases[i].Phase == phase {
			return &p.Phases[i]
		}
	}
	return nil
}
