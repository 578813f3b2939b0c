package scheduling

import (
	"sort"

	"github.com/prodsched/prodsched/pkg/apperr"
)

// VerifyResult re-checks every hard constraint against a finished
// SolveResult: no-overlap per machine, no-overlap per operator,
// precedence within each job chain, and machine eligibility. It exists
// so callers that persist a schedule (or replay one loaded from storage)
// can catch a corrupted or hand-edited assignment set before it reaches
// planificada state.
func VerifyResult(input Input, result *SolveResult) error {
	if result == nil {
		return apperr.New(apperr.InvalidInput, "nil schedule result")
	}

	byID := make(map[string]Assignment, len(result.Assignments))
	for _, a := range result.Assignments {
		byID[a.TaskID] = a
	}

	if err := verifyEligibility(input, result); err != nil {
		return err
	}
	if err := verifyNoOverlap(result, func(a Assignment) string { return a.MachineID }, "machine"); err != nil {
		return err
	}
	if err := verifyNoOverlap(result, func(a Assignment) string { return a.OperatorID }, "operator"); err != nil {
		return err
	}
	if err := verifyPrecedence(input, byID); err != nil {
		return err
	}
	return nil
}

func verifyEligibility(input Input, result *SolveResult) error {
	taskByID := make(map[string]int)
	for i, t := range input.Tasks {
		taskByID[t.ID] = i
	}
	for _, a := range result.Assignments {
		idx, ok := taskByID[a.TaskID]
		if !ok {
			return apperr.New(apperr.IntegrityError, "assignment references unknown task %q", a.TaskID)
		}
		spec := input.Tasks[idx].MachineSpec
		if !spec.Eligible(a.MachineID, input.MachineIDs) {
			return apperr.New(apperr.IntegrityError, "task %q assigned to ineligible machine %q", a.TaskID, a.MachineID)
		}
	}
	return nil
}

func verifyNoOverlap(result *SolveResult, keyOf func(Assignment) string, resourceLabel string) error {
	byResource := make(map[string][]Assignment)
	for _, a := range result.Assignments {
		k := keyOf(a)
		byResource[k] = append(byResource[k], a)
	}
	for resource, assigns := range byResource {
		sort.Slice(assigns, func(i, j int) bool { return assigns[i].Start < assigns[j].Start })
		for i := 1; i < len(assigns); i++ {
			if assigns[i].Start < assigns[i-1].End {
				return apperr.New(apperr.IntegrityError,
					"%s %q has overlapping tasks %q[%d,%d) and %q[%d,%d)",
					resourceLabel, resource,
					assigns[i-1].TaskID, assigns[i-1].Start, assigns[i-1].End,
					assigns[i].TaskID, assigns[i].Start, assigns[i].End)
			}
		}
	}
	return nil
}

func verifyPrecedence(input Input, byID map[string]Assignment) error {
	chains := buildChains(input.Tasks)
	for _, c := range chains {
		for i := 1; i < len(c.tasks); i++ {
			prev, ok1 := byID[c.tasks[i-1].ID]
			cur, ok2 := byID[c.tasks[i].ID]
			if !ok1 || !ok2 {
				return apperr.New(apperr.IntegrityError, "job %q: missing assignment in chain", c.jobID)
			}
			if cur.Start < prev.End {
				return apperr.New(apperr.IntegrityError,
					"job %q: task %q starts at %d before predecessor %q ends at %d",
					c.jobID, cur.TaskID, cur.Start, prev.TaskID, prev.End)
			}
		}
	}
	return nil
}
