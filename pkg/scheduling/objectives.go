package scheduling

import "github.com/prodsched/prodsched/pkg/domain"

type machineAgg struct {
	occupancy  int // max end_i among tasks on this machine
	segmentSum int // sum of (end_i - start_i) among tasks on this machine
}

func aggregateByMachine(assignments []Assignment) map[string]*machineAgg {
	out := make(map[string]*machineAgg)
	for _, a := range assignments {
		agg, ok := out[a.MachineID]
		if !ok {
			agg = &machineAgg{}
			out[a.MachineID] = agg
		}
		if a.End > agg.occupancy {
			agg.occupancy = a.End
		}
		agg.segmentSum += a.End - a.Start
	}
	return out
}

func makespanOf(assignments []Assignment) int {
	makespan := 0
	for _, a := range assignments {
		if a.End > makespan {
			makespan = a.End
		}
	}
	return makespan
}

// ObjectiveValue evaluates the exact blended-objective formulas against a
// finished assignment set. costPerHour may be nil; it is only consulted
// when useCostWeighting is true.
func ObjectiveValue(objective domain.Objective, assignments []Assignment, weights Weights, costPerHour map[string]float64, useCostWeighting bool) float64 {
	weights = weights.orDefaults()
	makespan := makespanOf(assignments)
	byMachine := aggregateByMachine(assignments)

	switch objective {
	case domain.MinimizeMakespan:
		return float64(makespan)

	case domain.MaximizeUtilization:
		if len(byMachine) <= 1 {
			return float64(makespan)
		}
		minLoad, maxLoad := minMaxOccupancy(byMachine)
		return weights.UtilizationMakespan*float64(makespan) + weights.UtilizationImbalance*float64(maxLoad-minLoad)

	case domain.MinimizeCostProxy:
		total := 0.0
		for machineID, agg := range byMachine {
			if useCostWeighting && costPerHour != nil {
				total += float64(agg.occupancy) * (costPerHour[machineID] / 60.0)
			} else {
				total += float64(agg.occupancy)
			}
		}
		return total

	case domain.Balanced:
		if len(byMachine) <= 1 {
			return float64(makespan)
		}
		idleSum := 0
		for _, agg := range byMachine {
			idleSum += agg.occupancy - agg.segmentSum
		}
		return weights.BalancedMakespan*float64(makespan) + weights.BalancedIdle*float64(idleSum)

	default:
		return float64(makespan)
	}
}

func minMaxOccupancy(byMachine map[string]*machineAgg) (min, max int) {
	first := true
	for _, agg := range byMachine {
		if first {
			min, max = agg.occupancy, agg.occupancy
			first = false
			continue
		}
		if agg.occupancy < min {
			min = agg.occupancy
		}
		if agg.occupancy > max {
			max = agg.occupancy
		}
	}
	return
}
