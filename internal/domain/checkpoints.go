package domain

// CheckpointType says what triggered a checkpoint.
type CheckpointType string

// Checkpoint types.
const (
	CheckpointTask   CheckpointType = "task"
	CheckpointPhase  CheckpointType = "phase"
	CheckpointManual CheckpointType = "manual"
)

// IsValid reports whether t is one of the known checkpoint types.
func (t CheckpointType) IsValid() bool {
	switch t {
	case CheckpointTask, CheckpointPhase, CheckpointManual:
		return true
	}
	return false
}

// CheckpointsData is the append-only checkpoint history.
// Entries are expected in non-decreasing timestamp order; out-of-order
// entries are reported by validation and never reordered.
type CheckpointsData struct {
	SchemaVersion string            `json:"schema_version"`
	Project       *ProjectRef       `json:"project"`
	Checkpoints   []CheckpointEntry `json:"checkpoints"`
}

// CheckpointEntry is one immutable history record.
type CheckpointEntry struct {
	Tag       string             `json:"tag"`
	Commit    string             `json:"commit"`
	Timestamp string             `json:"timestamp"`
	Type      CheckpointType     `json:"type"`
	Phase     string             `json:"phase"`
	Task      string             `json:"task,omitempty"`
	Message   string             `json:"message"`
	GitState  CheckpointGitState `json:"git_state"`
}

// CheckpointGitState is the repository snapshot stored with a checkpoint entry.
type CheckpointGitState struct {
	Branch       string `json:"branch"`
	FilesChanged int    `json:"files_changed"`
	Insertions   int    `json:"insertions"`
	Deletions    int    `json:"deletions"`
}

// Last returns the most recent entry, or nil when the history is empty.
func (c *CheckpointsData) Last() *CheckpointEntry {
	if len(c.Checkpoints) == 0 {
		return nil
	}
	return &c.Checkpoints[len(c.Checkpoints)-1]
}
