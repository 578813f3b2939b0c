package domain

// PlannedTask is produced by scheduling + calendar-mapping. It belongs to
// exactly one Programacion and snapshots the relevant template fields so
// later edits to templates do not mutate historical plans.
type PlannedTask struct {
	ID                string // "<task_id>" or "<task_id>.P<k>" for split parts
	ProgramacionID    string
	TaskTemplateID    string
	JobID             string
	Name              string
	Orden             int
	DurationMin       int // template duration, snapshotted
	SetupMin          int // template setup, snapshotted

	MachineID  string
	OperatorID string // operator index stringified, e.g. "OP-0"

	// Flat-minute timeline relative to week start, as emitted by the solver
	// for this part (InicioPlanificado/FinPlanificado cover only this part).
	InicioPlanificado int
	FinPlanificado    int

	DiaSemana  int    // 0..6
	InicioHora string // HH:MM
	FinHora    string // HH:MM

	EsDividida  bool
	ParteNumero int // >= 1
}

// EffectiveMinutes is FinPlanificado - InicioPlanificado for this part.
func (p *PlannedTask) EffectiveMinutes() int {
	return p.FinPlanificado - p.InicioPlanificado
}
