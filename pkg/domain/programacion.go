package domain

import "time"

// ConfigSnapshot is the configuration recognized options stored verbatim on
// a programación.
type ConfigSnapshot struct {
	HorarioTrabajo           HorarioTrabajo           `json:"horario_trabajo"`
	Recursos                 Recursos                 `json:"recursos"`
	ParametrosOptimizacion   ParametrosOptimizacion   `json:"parametros_optimizacion"`
}

type HorarioTrabajo struct {
	Inicio              string              `json:"inicio"`          // HH:MM shift start
	Fin                 string              `json:"fin"`             // HH:MM shift end
	DescansoAlmuerzo    DescansoAlmuerzo    `json:"descanso_almuerzo"`
	DiasLaborales       []string            `json:"dias_laborales"` // ordered day names
}

type DescansoAlmuerzo struct {
	Inicio string `json:"inicio"`
	Fin    string `json:"fin"`
}

type Recursos struct {
	NumMaquinas   int `json:"num_maquinas"`
	NumOperadores int `json:"num_operadores"`
}

type ParametrosOptimizacion struct {
	TiempoMaximoResolucion int          `json:"tiempo_maximo_resolucion"` // seconds
	Objetivo               Objective    `json:"objetivo"`
	Restricciones          Restricciones `json:"restricciones"`
}

type Restricciones struct {
	ConsiderarSetup          bool `json:"considerar_setup"`
	ConsiderarHabilidadesOperador bool `json:"considerar_habilidades_operador"`
}

// Programacion is a weekly plan identified by (id, anio, semana).
type Programacion struct {
	ID             string
	Anio           int
	Semana         int // 1..53
	Estado         Estado
	Objetivo       Objective
	SolverWallTime time.Duration
	MakespanMin    int
	Config         ConfigSnapshot
	TrabajosCount  int
	TareasCount    int
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HDay returns the effective minutes per labor day implied by the config
// snapshot: shift length minus lunch minutes.
func (c ConfigSnapshot) HDay() (int, error) {
	start, err := ParseClock(c.HorarioTrabajo.Inicio)
	if err != nil {
		return 0, err
	}
	end, err := ParseClock(c.HorarioTrabajo.Fin)
	if err != nil {
		return 0, err
	}
	shiftMin := end - start
	lunchMin := 0
	if c.HorarioTrabajo.DescansoAlmuerzo.Inicio != "" && c.HorarioTrabajo.DescansoAlmuerzo.Fin != "" {
		lStart, err := ParseClock(c.HorarioTrabajo.DescansoAlmuerzo.Inicio)
		if err != nil {
			return 0, err
		}
		lEnd, err := ParseClock(c.HorarioTrabajo.DescansoAlmuerzo.Fin)
		if err != nil {
			return 0, err
		}
		lunchMin = lEnd - lStart
	}
	return shiftMin - lunchMin, nil
}
