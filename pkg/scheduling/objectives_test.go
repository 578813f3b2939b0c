package scheduling

import (
	"testing"

	"github.com/prodsched/prodsched/pkg/domain"
)

func TestObjectiveValueMinimizeMakespan(t *testing.T) {
	assignments := []Assignment{
		{TaskID: "T1", Start: 0, End: 60, MachineID: "M1"},
		{TaskID: "T2", Start: 0, End: 90, MachineID: "M2"},
	}
	got := ObjectiveValue(domain.MinimizeMakespan, assignments, Weights{}, nil, false)
	if got != 90 {
		t.Errorf("expected makespan 90, got %v", got)
	}
}

func TestObjectiveValueMaximizeUtilizationPenalizesImbalance(t *testing.T) {
	balanced := []Assignment{
		{TaskID: "T1", Start: 0, End: 50, MachineID: "M1"},
		{TaskID: "T2", Start: 0, End: 50, MachineID: "M2"},
	}
	imbalanced := []Assignment{
		{TaskID: "T1", Start: 0, End: 10, MachineID: "M1"},
		{TaskID: "T2", Start: 0, End: 90, MachineID: "M2"},
	}
	balancedValue := ObjectiveValue(domain.MaximizeUtilization, balanced, Weights{}, nil, false)
	imbalancedValue := ObjectiveValue(domain.MaximizeUtilization, imbalanced, Weights{}, nil, false)
	if imbalancedValue <= balancedValue {
		t.Errorf("expected the imbalanced schedule to score worse (higher): balanced=%v imbalanced=%v", balancedValue, imbalancedValue)
	}
}

func TestObjectiveValueMinimizeCostProxyWeighsByRate(t *testing.T) {
	assignments := []Assignment{
		{TaskID: "T1", Start: 0, End: 60, MachineID: "CHEAP"},
	}
	costs := map[string]float64{"CHEAP": 6, "EXPENSIVE": 60}
	cheap := ObjectiveValue(domain.MinimizeCostProxy, assignments, Weights{}, costs, true)

	assignments[0].MachineID = "EXPENSIVE"
	expensive := ObjectiveValue(domain.MinimizeCostProxy, assignments, Weights{}, costs, true)

	if expensive <= cheap {
		t.Errorf("expected the expensive machine to score worse: cheap=%v expensive=%v", cheap, expensive)
	}
}

func TestObjectiveValueSingleMachineCollapsesToMakespan(t *testing.T) {
	assignments := []Assignment{
		{TaskID: "T1", Start: 0, End: 40, MachineID: "M1"},
		{TaskID: "T2", Start: 40, End: 70, MachineID: "M1"},
	}
	got := ObjectiveValue(domain.Balanced, assignments, Weights{}, nil, false)
	if got != 70 {
		t.Errorf("expected a single-machine schedule to reduce to plain makespan (70), got %v", got)
	}
}

func TestWeightsOrDefaults(t *testing.T) {
	w := Weights{}.orDefaults()
	if w.UtilizationMakespan != 5 || w.UtilizationImbalance != 10 || w.BalancedMakespan != 7 || w.BalancedIdle != 3 {
		t.Errorf("unexpected defaults: %+v", w)
	}
}
