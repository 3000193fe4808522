package validate

import (
	"github.com/mrz1836/waypoint/internal/domain"
)

// Progress checks a progress document.
func (v *Validator) Progress(doc *domain.ProgressData) Result {
	r := newResult()
	if doc == nil {
		doc = &domain.ProgressData{}
	}

	if doc.SchemaVersion == "" {
		r.errorf("Missing schema_version")
	}
	if doc.Project == nil {
		r.errorf("Missing project section")
	}

	if doc.Phases == nil {
		r.errorf("phases must be an array")
	}
	for i, phase := range doc.Phases {
		if phase.Phase == "" {
			r.errorf("Phase %d: missing phase identifier", i)
		}
		if !phase.Status.IsValid() {
			r.errorf("Phase %d: invalid status %s", i, phase.Status)
		}
		if phase.Tasks == nil {
			r.errorf("Phase %d: tasks must be an array", i)
		}
		if phase.CompletionPercentage < 0 || phase.CompletionPercentage > 100 {
			r.errorf("Phase %d: completion_percentage must be between 0 and 100", i)
		}
	}

	if doc.Summary == nil {
		r.errorf("Missing summary section")
	} else if doc.Phases == nil || doc.Summary.TotalPhases != len(doc.Phases) {
		r.warnf("summary.total_phases does not match phases array length")
	}

	return r
}

// Checkpoints checks a checkpoint history document. Out-of-order entries
// are reported as warnings.
func (v *Validator) Checkpoints(doc *domain.CheckpointsData) Result {
	r := newResult()
	if doc == nil {
		doc = &domain.CheckpointsData{}
	}

	if doc.SchemaVersion == "" {
		r.errorf("Missing schema_version")
	}
	if doc.Project == nil {
		r.errorf("Missing project section")
	}

	if doc.Checkpoints == nil {
		r.errorf("checkpoints must be an array")
		return r
	}

	for i, c := range doc.Checkpoints {
		if c.Tag == "" {
			r.errorf("Checkpoint %d: missing tag", i)
		}
		if c.Commit == "" {
			r.errorf("Checkpoint %d: missing commit", i)
		}
		if c.Timestamp == "" {
			r.errorf("Checkpoint %d: missing timestamp", i)
		} else if _, err := domain.ParseTimestamp(c.Timestamp); err != nil {
			r.errorf("Checkpoint %d: invalid timestamp format", i)
		}
		if !c.Type.IsValid() {
			r.errorf("Checkpoint %d: invalid type %s", i, c.Type)
		}
		if c.Phase == "" {
			r.errorf("Checkpoint %d: missing phase", i)
		}
	}

	for i := 1; i < len(doc.Checkpoints); i++ {
		prev, prevErr := domain.ParseTimestamp(doc.Checkpoints[i-1].Timestamp)
		curr, currErr := domain.ParseTimestamp(doc.Checkpoints[i].Timestamp)
		if prevErr == nil && currErr == nil && curr.Before(prev) {
			r.warnf("Checkpoints %d and %d are not in chronological order", i-1, i)
		}
	}

	return r
}

// Consistency validates the session state and, when supplied, checks it
// against the progress and checkpoint documents. Each supplied document's
// own findings are folded into the result after the cross-document checks.
func (v *Validator) Consistency(session *domain.SessionState, progress *domain.ProgressData, checkpoints *domain.CheckpointsData) Result {
	r := v.SessionState(session)
	if session == nil {
		session = &domain.SessionState{}
	}

	if progress != nil {
		if session.Current != nil && progress.FindPhase(session.Current.Phase) == nil {
			r.errorf("Current phase %s not found in progress data", session.Current.Phase)
		}
		r.merge(v.Progress(progress))
	}

	if checkpoints != nil {
		if session.Checkpoint != nil && session.Checkpoint.Tag != "" {
			if last := checkpoints.Last(); last != nil && last.Tag != session.Checkpoint.Tag {
				r.warnf("Session state checkpoint does not match last checkpoint in history")
			}
		}
		r.merge(v.Checkpoints(checkpoints))
	}

	return r
}
