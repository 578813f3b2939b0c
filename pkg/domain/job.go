package domain

import "fmt"

// Job is a logical grouping identifier plus descriptive fields. It owns an
// ordered sequence of TaskTemplates by integer rank (Orden).
type Job struct {
	ID          string
	Name        string
	Description string
	Tasks       []*TaskTemplate
}

// TaskTemplate is the immutable template for a task within a job.
// machine_spec is one of: a single machine id, a non-empty subset of
// machine ids, or a wildcard. Duration and setup are integer minutes.
type TaskTemplate struct {
	ID          string
	JobID       string
	Name        string
	DurationMin int
	SetupMin    int
	MachineSpec MachineSpec
	Orden       int // unique within a job; 0 means "absent" (see scheduling's orderKey)
}

// Validate enforces the Task template invariants.
func (t *TaskTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task: id is required")
	}
	if t.DurationMin <= 0 {
		return fmt.Errorf("task %s: duration_min must be > 0, got %d", t.ID, t.DurationMin)
	}
	if t.SetupMin < 0 {
		return fmt.Errorf("task %s: setup_min must be >= 0, got %d", t.ID, t.SetupMin)
	}
	if t.MachineSpec.Kind == MachineSpecAlternatives && len(t.MachineSpec.Ids) == 0 {
		return fmt.Errorf("task %s: alternatives machine_spec must be non-empty", t.ID)
	}
	return nil
}

// ValidateJob checks job-level invariants: unique orden among tasks that
// declare one, and that every task belongs to the job.
func ValidateJob(job *Job) error {
	seenOrden := make(map[int]string)
	for _, t := range job.Tasks {
		if t.JobID != job.ID {
			return fmt.Errorf("job %s: task %s has mismatched job_id %s", job.ID, t.ID, t.JobID)
		}
		if err := t.Validate(); err != nil {
			return err
		}
		if t.Orden != 0 {
			if other, exists := seenOrden[t.Orden]; exists {
				return fmt.Errorf("job %s: orden %d used by both %s and %s", job.ID, t.Orden, other, t.ID)
			}
			seenOrden[t.Orden] = t.ID
		}
	}
	return nil
}
