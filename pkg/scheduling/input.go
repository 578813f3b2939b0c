package scheduling

import (
	"regexp"
	"strconv"

	"github.com/prodsched/prodsched/pkg/domain"
)

// Input bundles everything build_and_solve needs.
type Input struct {
	Tasks         []*domain.TaskTemplate
	MachineIDs    []string // the full machine catalog, in catalog order
	MachineCost   map[string]float64 // machine id -> cost/hour, for MINIMIZE_COST_PROXY weighting
	NumOperators  int
	LaborDays     []string
	Objective     domain.Objective
	HDayMin       int
	LunchMin      int // informational only, never constrains the solver
	TimeBudget    int // seconds
	ConsiderSetup bool
	ConsiderOperatorSkills bool
	Qualifications map[string][]string // operator id (by index, "0".."N-1") -> qualified machine ids, used only when ConsiderOperatorSkills

	// Weights is the set of tunable objective-blend constants; zero-value
	// Weights resolves to the documented defaults via Weights.orDefaults().
	Weights Weights
}

// Weights are the tunable constants for the blended objectives; zero-value
// Weights resolves to the documented defaults.
type Weights struct {
	UtilizationMakespan  float64 // default 5
	UtilizationImbalance float64 // default 10
	BalancedMakespan     float64 // default 7
	BalancedIdle         float64 // default 3
}

func (w Weights) orDefaults() Weights {
	if w.UtilizationMakespan == 0 {
		w.UtilizationMakespan = 5
	}
	if w.UtilizationImbalance == 0 {
		w.UtilizationImbalance = 10
	}
	if w.BalancedMakespan == 0 {
		w.BalancedMakespan = 7
	}
	if w.BalancedIdle == 0 {
		w.BalancedIdle = 3
	}
	return w
}

var trailingDigits = regexp.MustCompile(`[0-9]+$`)

// orderKey returns the key used to sort tasks within a job: Orden when
// present (non-zero), else the numeric suffix of the task id.
func orderKey(t *domain.TaskTemplate) int {
	if t.Orden != 0 {
		return t.Orden
	}
	if m := trailingDigits.FindString(t.ID); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	return 0
}
