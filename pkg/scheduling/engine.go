// Package scheduling implements the constraint-satisfaction scheduling
// engine: it assigns each task a start time, a machine from its
// eligibility set, and an operator, subject to precedence within a job,
// no-overlap per machine and per operator, and a selectable objective.
//
// No CP-SAT binding is available (see DESIGN.md); the engine is a
// constructive list-scheduling heuristic with multi-start exploration
// bounded by the caller's time budget, in the idiom of a
// BatchScheduler.distributeJobs/findBestWindow score-driven greedy
// placement.
package scheduling

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/prodsched/prodsched/pkg/apperr"
	"github.com/prodsched/prodsched/pkg/domain"
)

// Engine builds and solves the scheduling model (the build_and_solve
// operation).
type Engine struct{}

// NewEngine creates a scheduling Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Solve runs build_and_solve: it validates the input, then repeatedly
// constructs a feasible greedy schedule (with randomized tie-breaking)
// until the time budget elapses or a restart cap (maxRestarts, scaled by
// task count) is reached, keeping the best-scoring result under the
// selected objective.
func (e *Engine) Solve(input Input) (*SolveResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(time.Duration(input.TimeBudget) * time.Second)
	if input.TimeBudget <= 0 {
		deadline = time.Now()
	}

	start := time.Now()
	var best *SolveResult
	var bestErr error
	restarts := 0

	for {
		restarts++
		seed := int64(restarts)*1103515245 + int64(len(input.Tasks))
		result, err := e.solveOnce(input, rand.New(rand.NewSource(seed)))
		if err != nil {
			if best == nil {
				bestErr = err
			}
		} else {
			if best == nil || result.ObjectiveValue < best.ObjectiveValue {
				best = result
			}
		}
		if time.Now().After(deadline) || restarts >= maxRestarts(len(input.Tasks)) {
			break
		}
	}

	if best == nil {
		if bestErr != nil {
			return nil, bestErr
		}
		return nil, apperr.New(apperr.Infeasible, "no feasible assignment found")
	}

	best.WallTime = time.Since(start)
	if input.TimeBudget > 0 && time.Since(start) >= time.Duration(input.TimeBudget)*time.Second && restarts <= 1 {
		best.Status = StatusTimeout
	}
	return best, nil
}

func maxRestarts(numTasks int) int {
	if numTasks == 0 {
		return 1
	}
	// Bound exploration so pathologically small time budgets still
	// terminate promptly; larger instances get fewer restarts per unit
	// time since each greedy pass costs more.
	switch {
	case numTasks > 200:
		return 5
	case numTasks > 50:
		return 15
	default:
		return 40
	}
}

func validateInput(input Input) error {
	if len(input.Tasks) == 0 {
		return apperr.New(apperr.InvalidInput, "no tasks to schedule")
	}
	if len(input.LaborDays) == 0 {
		return apperr.New(apperr.InvalidInput, "labor-day list must not be empty")
	}
	if input.NumOperators < 1 {
		return apperr.New(apperr.InvalidInput, "num_operadores must be >= 1")
	}
	if input.HDayMin <= 0 {
		return apperr.New(apperr.InvalidInput, "H_day must be > 0")
	}
	if !input.Objective.Valid() {
		return apperr.New(apperr.InvalidInput, "unrecognized objective %q", input.Objective)
	}
	seenIDs := make(map[string]bool)
	for _, t := range input.Tasks {
		if err := t.Validate(); err != nil {
			return apperr.Wrap(apperr.InvalidInput, err, "invalid task")
		}
		if seenIDs[t.ID] {
			return apperr.New(apperr.InvalidInput, "duplicate task id %q", t.ID)
		}
		seenIDs[t.ID] = true
		if len(t.MachineSpec.Candidates(input.MachineIDs)) == 0 {
			return apperr.New(apperr.InvalidInput, "task %q has no eligible machine in the catalog", t.ID)
		}
	}
	return nil
}

// chain is a job's tasks ordered for precedence: by Orden, falling back
// to the numeric suffix of the id.
type chain struct {
	jobID string
	tasks []*domain.TaskTemplate
}

func buildChains(tasks []*domain.TaskTemplate) []*chain {
	byJob := make(map[string]*chain)
	var order []string
	for _, t := range tasks {
		c, ok := byJob[t.JobID]
		if !ok {
			c = &chain{jobID: t.JobID}
			byJob[t.JobID] = c
			order = append(order, t.JobID)
		}
		c.tasks = append(c.tasks, t)
	}
	chains := make([]*chain, 0, len(order))
	for _, jobID := range order {
		c := byJob[jobID]
		sort.SliceStable(c.tasks, func(i, j int) bool {
			return orderKey(c.tasks[i]) < orderKey(c.tasks[j])
		})
		chains = append(chains, c)
	}
	return chains
}

func (e *Engine) solveOnce(input Input, rng *rand.Rand) (*SolveResult, error) {
	chains := buildChains(input.Tasks)

	predecessorOf := make(map[string]string)
	earliestStart := make(map[string]int)
	pending := make(map[string]int) // task id -> count of unscheduled predecessors (0 or 1)
	indexOf := make(map[string]int)
	for i, t := range input.Tasks {
		indexOf[t.ID] = i
	}

	var ready []*domain.TaskTemplate
	for _, c := range chains {
		for i, t := range c.tasks {
			if i == 0 {
				pending[t.ID] = 0
				ready = append(ready, t)
			} else {
				pending[t.ID] = 1
				predecessorOf[t.ID] = c.tasks[i-1].ID
			}
		}
	}

	machineTimelines := make(map[string]*timeline)
	for _, id := range input.MachineIDs {
		machineTimelines[id] = &timeline{}
	}
	operatorTimelines := make([]*timeline, input.NumOperators)
	for i := range operatorTimelines {
		operatorTimelines[i] = &timeline{}
	}

	assignments := make([]Assignment, 0, len(input.Tasks))
	scheduled := make(map[string]bool)

	for len(scheduled) < len(input.Tasks) {
		if len(ready) == 0 {
			return nil, apperr.New(apperr.InvalidInput, "precedence graph did not resolve: check job chains")
		}
		// Randomized tie-break among ready tasks with the same earliest start.
		sort.SliceStable(ready, func(i, j int) bool {
			si, sj := earliestStart[ready[i].ID], earliestStart[ready[j].ID]
			if si != sj {
				return si < sj
			}
			return indexOf[ready[i].ID] < indexOf[ready[j].ID]
		})
		// Shuffle within the first tie-band to explore alternatives across restarts.
		tieBand := 1
		for tieBand < len(ready) && earliestStart[ready[tieBand].ID] == earliestStart[ready[0].ID] {
			tieBand++
		}
		if tieBand > 1 {
			rng.Shuffle(tieBand, func(i, j int) { ready[i], ready[j] = ready[j], ready[i] })
		}

		t := ready[0]
		ready = ready[1:]

		length := t.DurationMin
		if input.ConsiderSetup {
			length += t.SetupMin
		}

		machineID, operatorIdx, s, end, err := e.chooseAssignment(input, t, earliestStart[t.ID], length, machineTimelines, operatorTimelines, rng)
		if err != nil {
			return nil, err
		}

		machineTimelines[machineID].insert(s, end)
		operatorTimelines[operatorIdx].insert(s, end)
		scheduled[t.ID] = true

		assignments = append(assignments, Assignment{
			TaskID:     t.ID,
			TaskIndex:  indexOf[t.ID],
			Start:      s,
			End:        end,
			MachineID:  machineID,
			OperatorID: operatorLabel(operatorIdx),
		})

		for _, c := range chains {
			for i, ct := range c.tasks {
				if i == 0 {
					continue
				}
				if predecessorOf[ct.ID] == t.ID {
					pending[ct.ID]--
					earliestStart[ct.ID] = end
					if pending[ct.ID] == 0 {
						ready = append(ready, ct)
					}
				}
			}
		}
	}

	sort.Slice(assignments, func(i, j int) bool { return assignments[i].TaskIndex < assignments[j].TaskIndex })

	objValue := ObjectiveValue(input.Objective, assignments, input.Weights, input.MachineCost, input.Objective == domain.MinimizeCostProxy)
	return &SolveResult{
		Status:         StatusOptimal,
		ObjectiveValue: objValue,
		Assignments:    assignments,
		Makespan:       makespanOf(assignments),
		Objective:      input.Objective,
	}, nil
}

func operatorLabel(idx int) string {
	return fmt.Sprintf("OP-%d", idx)
}

// chooseAssignment picks the (machine, operator) pair for task t that
// minimizes an objective-aware placement score, among all eligible pairs
// that can start no earlier than earliestStart.
func (e *Engine) chooseAssignment(input Input, t *domain.TaskTemplate, earliestStartAt, length int, machineTimelines map[string]*timeline, operatorTimelines []*timeline, rng *rand.Rand) (machineID string, operatorIdx int, s, end int, err error) {
	candidates := t.MachineSpec.Candidates(input.MachineIDs)
	if len(candidates) == 0 {
		return "", 0, 0, 0, apperr.New(apperr.Infeasible, "task %q has no eligible machine", t.ID)
	}

	type option struct {
		machineID  string
		operatorIdx int
		start, end int
		score      float64
	}
	var best *option

	for _, m := range candidates {
		mt := machineTimelines[m]
		for opIdx := 0; opIdx < input.NumOperators; opIdx++ {
			if input.ConsiderOperatorSkills {
				if !operatorQualified(input, opIdx, m) {
					continue
				}
			}
			ot := operatorTimelines[opIdx]
			start := earliestFitBoth(mt, ot, earliestStartAt, length)
			endTime := start + length
			score := e.placementScore(input, m, opIdx, start, endTime, length, machineTimelines)
			if best == nil || score < best.score || (score == best.score && rng.Intn(2) == 0) {
				best = &option{machineID: m, operatorIdx: opIdx, start: start, end: endTime, score: score}
			}
		}
	}

	if best == nil {
		return "", 0, 0, 0, apperr.New(apperr.Infeasible, "task %q has no qualified operator for any eligible machine", t.ID)
	}
	return best.machineID, best.operatorIdx, best.start, best.end, nil
}

func operatorQualified(input Input, operatorIdx int, machineID string) bool {
	quals, ok := input.Qualifications[fmt.Sprintf("%d", operatorIdx)]
	if !ok {
		return false
	}
	for _, id := range quals {
		if id == machineID {
			return true
		}
	}
	return false
}

// placementScore is the heuristic's internal ranking function; it is
// deliberately simpler than the exact objective formulas in objectives.go
// (which evaluate the *finished* schedule) — it only needs to steer the
// greedy construction toward schedules likely to score well under the
// selected objective.
func (e *Engine) placementScore(input Input, machineID string, operatorIdx, start, end, length int, machineTimelines map[string]*timeline) float64 {
	base := float64(end)
	switch input.Objective {
	case domain.MaximizeUtilization, domain.Balanced:
		load := 0
		for _, iv := range machineTimelines[machineID].busy {
			load += iv.end - iv.start
		}
		return base + 0.5*float64(load)
	case domain.MinimizeCostProxy:
		costPerMinute := input.MachineCost[machineID] / 60.0
		return base + costPerMinute*float64(length)
	default:
		return base
	}
}
