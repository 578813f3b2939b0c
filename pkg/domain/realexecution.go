package domain

import "time"

// EjecucionEstado is the derived completion state of a RealExecution.
type EjecucionEstado string

const (
	EjecucionCompletada EjecucionEstado = "COMPLETADA"
	EjecucionRetrasada  EjecucionEstado = "RETRASADA"
)

// ProblemCategory buckets free-text problem reports into a small set of
// canonical categories for reporting.
type ProblemCategory string

const (
	ProblemNone             ProblemCategory = "NINGUNO"
	ProblemBreakdown        ProblemCategory = "AVERIA"
	ProblemMaterialShortage ProblemCategory = "FALTA_MATERIAL"
	ProblemStaffingGap      ProblemCategory = "FALTA_OPERADOR"
	ProblemOther            ProblemCategory = "OTRO"
)

// RealExecution is attached 1:1 to a PlannedTask and records real-world
// execution data plus derived deviation fields.
type RealExecution struct {
	ID              string
	PlannedTaskID   string
	InicioReal      time.Time
	FinReal         time.Time
	MaquinaUsada    string
	OperadorEjecutor string
	TiempoParadas   int // minutes, >= 0
	Problemas       string
	ProblemCategory ProblemCategory
	Notas           string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	DesviacionInicio   int // minutes
	DesviacionFin      int // minutes
	DuracionReal       int // minutes
	DesviacionDuracion int // minutes

	Estado EjecucionEstado
}

// RetrasoThresholdMin is the deviation (minutes) above which an execution is
// classified as RETRASADA rather than COMPLETADA.
const RetrasoThresholdMin = 30

// Recompute derives DesviacionInicio, DesviacionFin, DuracionReal,
// DesviacionDuracion and Estado from the stored times, paradas and the
// template task's original duration (not the planned task's possibly
// split-elongated effective minutes). plannedInicio/plannedFin are the
// reconstructed datetimes for the planned task's primary window.
func (r *RealExecution) Recompute(plannedInicio, plannedFin time.Time, templateDurationMin int) {
	r.DesviacionInicio = roundToMinutes(r.InicioReal.Sub(plannedInicio))
	r.DesviacionFin = roundToMinutes(r.FinReal.Sub(plannedFin))
	r.DuracionReal = roundToMinutes(r.FinReal.Sub(r.InicioReal))

	r.DesviacionDuracion = maxInt(0, r.DuracionReal-r.TiempoParadas) - templateDurationMin

	if r.DesviacionDuracion > RetrasoThresholdMin {
		r.Estado = EjecucionRetrasada
	} else {
		r.Estado = EjecucionCompletada
	}

	r.ProblemCategory = CategorizeProblem(r.Problemas)
}

func roundToMinutes(d time.Duration) int {
	return int(d.Round(time.Minute) / time.Minute)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// CategorizeProblem is a small keyword-rule classifier over free-text
// problem reports.
func CategorizeProblem(text string) ProblemCategory {
	if text == "" {
		return ProblemNone
	}
	lower := toLowerASCII(text)
	switch {
	case containsAny(lower, "falla", "averia", "avería", "rotura"):
		return ProblemBreakdown
	case containsAny(lower, "material", "insumo", "stock"):
		return ProblemMaterialShortage
	case containsAny(lower, "operador", "ausente", "personal", "falta de personal"):
		return ProblemStaffingGap
	default:
		return ProblemOther
	}
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if len(sub) == 0 || len(s) < len(sub) {
			continue
		}
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
	}
	return false
}
