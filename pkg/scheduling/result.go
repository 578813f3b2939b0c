package scheduling

import (
	"time"

	"github.com/prodsched/prodsched/pkg/domain"
)

// Status is the solver's outcome classification.
type Status string

const (
	StatusOptimal     Status = "OPTIMAL"
	StatusFeasible    Status = "FEASIBLE"
	StatusInfeasible  Status = "INFEASIBLE"
	StatusTimeout     Status = "TIMEOUT"
)

// Assignment is one task's solved placement on the flat [0,H] timeline.
type Assignment struct {
	TaskID     string
	TaskIndex  int
	Start      int
	End        int
	MachineID  string // "N/A" if extraction failed for this field
	OperatorID string // "N/A" if extraction failed for this field
}

// SolveResult is the scheduling engine's output.
type SolveResult struct {
	Status          Status
	WallTime        time.Duration
	ObjectiveValue  float64
	Assignments     []Assignment
	Makespan        int
	Objective       domain.Objective
}
