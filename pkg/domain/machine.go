// Package domain defines the core types of the weekly production scheduler:
// machines, operators, jobs, tasks, programaciones, planned tasks, real
// executions and metrics. Downstream packages (scheduling, calendar,
// lifecycle, execution, kpi) operate exclusively on these types.
package domain

// Machine is a process-wide resource identified by an opaque id. Machines
// are created and updated out-of-band from programación scheduling and are
// never deleted while referenced by a plan.
type Machine struct {
	ID            string
	Name          string
	DefaultSetup  int     // catalog default setup minutes; the scheduler uses each task's own SetupMin, not this value
	CostPerHour   float64
}

// Operator is a process-wide resource qualified to run a subset of machines.
type Operator struct {
	ID                 string
	Name               string
	QualifiedMachineIDs map[string]struct{}
}

// NewOperator creates an Operator with an initialized qualification set.
func NewOperator(id, name string, qualifiedMachineIDs []string) *Operator {
	set := make(map[string]struct{}, len(qualifiedMachineIDs))
	for _, id := range qualifiedMachineIDs {
		set[id] = struct{}{}
	}
	return &Operator{ID: id, Name: name, QualifiedMachineIDs: set}
}

// Qualified reports whether the operator may run the given machine.
func (o *Operator) Qualified(machineID string) bool {
	if o == nil {
		return false
	}
	_, ok := o.QualifiedMachineIDs[machineID]
	return ok
}
