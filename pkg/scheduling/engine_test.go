package scheduling

import (
	"testing"

	"github.com/prodsched/prodsched/pkg/apperr"
	"github.com/prodsched/prodsched/pkg/domain"
)

func sampleInput(objective domain.Objective) Input {
	tasks := []*domain.TaskTemplate{
		{ID: "T1", JobID: "J1", DurationMin: 60, MachineSpec: domain.SingleMachine("M1"), Orden: 1},
		{ID: "T2", JobID: "J1", DurationMin: 30, MachineSpec: domain.AlternativeMachines("M1", "M2"), Orden: 2},
		{ID: "T3", JobID: "J2", DurationMin: 45, MachineSpec: domain.AnyMachine(), Orden: 1},
	}
	return Input{
		Tasks:        tasks,
		MachineIDs:   []string{"M1", "M2"},
		MachineCost:  map[string]float64{"M1": 10, "M2": 15},
		NumOperators: 2,
		LaborDays:    []string{"LUNES", "MARTES", "MIERCOLES", "JUEVES", "VIERNES"},
		Objective:    objective,
		HDayMin:      480,
		TimeBudget:   1,
	}
}

func TestSolveMinimizeMakespanFeasible(t *testing.T) {
	e := NewEngine()
	result, err := e.Solve(sampleInput(domain.MinimizeMakespan))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusOptimal && result.Status != StatusTimeout {
		t.Errorf("expected OPTIMAL or TIMEOUT, got %s", result.Status)
	}
	if len(result.Assignments) != 3 {
		t.Fatalf("expected 3 assignments, got %d", len(result.Assignments))
	}
	if err := VerifyResult(sampleInput(domain.MinimizeMakespan), result); err != nil {
		t.Errorf("verification failed: %v", err)
	}
}

func TestSolvePrecedenceWithinChain(t *testing.T) {
	e := NewEngine()
	input := sampleInput(domain.MinimizeMakespan)
	result, err := e.Solve(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	byID := make(map[string]Assignment)
	for _, a := range result.Assignments {
		byID[a.TaskID] = a
	}
	if byID["T2"].Start < byID["T1"].End {
		t.Errorf("T2 (start=%d) must not start before T1 ends (end=%d)", byID["T2"].Start, byID["T1"].End)
	}
}

func TestSolveAllFourObjectives(t *testing.T) {
	for _, obj := range []domain.Objective{domain.MinimizeMakespan, domain.MaximizeUtilization, domain.MinimizeCostProxy, domain.Balanced} {
		obj := obj
		t.Run(string(obj), func(t *testing.T) {
			e := NewEngine()
			result, err := e.Solve(sampleInput(obj))
			if err != nil {
				t.Fatalf("objective %s: unexpected error: %v", obj, err)
			}
			if err := VerifyResult(sampleInput(obj), result); err != nil {
				t.Errorf("objective %s: verification failed: %v", obj, err)
			}
		})
	}
}

func TestSolveInfeasibleWhenNoEligibleMachine(t *testing.T) {
	input := sampleInput(domain.MinimizeMakespan)
	input.Tasks = append(input.Tasks, &domain.TaskTemplate{
		ID: "T4", JobID: "J3", DurationMin: 10, MachineSpec: domain.SingleMachine("GHOST"), Orden: 1,
	})
	e := NewEngine()
	_, err := e.Solve(input)
	if err == nil {
		t.Fatal("expected an error for an unreachable machine id")
	}
	if !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("expected InvalidInput, got %v", err)
	}
}

func TestSolveRejectsEmptyTaskList(t *testing.T) {
	input := sampleInput(domain.MinimizeMakespan)
	input.Tasks = nil
	e := NewEngine()
	_, err := e.Solve(input)
	if !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("expected InvalidInput for empty task list, got %v", err)
	}
}

func TestSolveIsDeterministicInObjectiveValue(t *testing.T) {
	e := NewEngine()
	input := sampleInput(domain.MinimizeMakespan)
	r1, err := e.Solve(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := e.Solve(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r1.ObjectiveValue != r2.ObjectiveValue {
		t.Errorf("expected idempotent objective value across runs, got %v and %v", r1.ObjectiveValue, r2.ObjectiveValue)
	}
}

func TestVerifyResultCatchesOverlap(t *testing.T) {
	input := sampleInput(domain.MinimizeMakespan)
	result := &SolveResult{
		Assignments: []Assignment{
			{TaskID: "T1", Start: 0, End: 60, MachineID: "M1", OperatorID: "OP-0"},
			{TaskID: "T2", Start: 30, End: 90, MachineID: "M1", OperatorID: "OP-1"},
			{TaskID: "T3", Start: 90, End: 135, MachineID: "M2", OperatorID: "OP-0"},
		},
	}
	if err := VerifyResult(input, result); err == nil {
		t.Fatal("expected overlap detection to fail verification")
	} else if !apperr.Is(err, apperr.IntegrityError) {
		t.Errorf("expected IntegrityError, got %v", err)
	}
}

func TestVerifyResultCatchesIneligibleMachine(t *testing.T) {
	input := sampleInput(domain.MinimizeMakespan)
	result := &SolveResult{
		Assignments: []Assignment{
			{TaskID: "T1", Start: 0, End: 60, MachineID: "M2", OperatorID: "OP-0"},
			{TaskID: "T2", Start: 60, End: 90, MachineID: "M2", OperatorID: "OP-0"},
			{TaskID: "T3", Start: 90, End: 135, MachineID: "M1", OperatorID: "OP-0"},
		},
	}
	if err := VerifyResult(input, result); err == nil {
		t.Fatal("expected eligibility check to fail: T1 is pinned to M1")
	}
}
