package domain

// Estado is a programación's lifecycle state.
type Estado string

const (
	EstadoSimulacion  Estado = "simulacion"
	EstadoPlanificada Estado = "planificada"
	EstadoEnEjecucion Estado = "en_ejecucion"
	EstadoCompletada  Estado = "completada"
	EstadoCancelada   Estado = "cancelada"
)

// Terminal reports whether no further transition is legal from this state.
func (e Estado) Terminal() bool {
	return e == EstadoCompletada || e == EstadoCancelada
}

// Active reports whether this state counts toward the per-week active
// programación uniqueness invariant.
func (e Estado) Active() bool {
	return e == EstadoPlanificada || e == EstadoEnEjecucion || e == EstadoCompletada
}
