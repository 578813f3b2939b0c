// Package calendar maps the scheduling engine's flat-minute timeline onto
// calendar coordinates: a labor day name and HH:MM clock times, splitting
// any task that straddles a day boundary into contiguous parts.
package calendar

import (
	"fmt"

	"github.com/prodsched/prodsched/pkg/apperr"
	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/scheduling"
)

// Mapper converts solver assignments into PlannedTasks with calendar
// coordinates.
type Mapper struct {
	HDayMin    int
	ShiftStart int // minutes since midnight
	ShiftEnd   int // minutes since midnight
	LaborDays  []string
}

// NewMapper builds a Mapper from a configuration snapshot and the effective
// minutes-per-day the solver was given.
func NewMapper(cfg domain.ConfigSnapshot, hDayMin int) (*Mapper, error) {
	start, err := domain.ParseClock(cfg.HorarioTrabajo.Inicio)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, err, "invalid shift start")
	}
	end, err := domain.ParseClock(cfg.HorarioTrabajo.Fin)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, err, "invalid shift end")
	}
	if len(cfg.HorarioTrabajo.DiasLaborales) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "dias_laborales must not be empty")
	}
	if hDayMin <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "H_day must be > 0")
	}
	return &Mapper{
		HDayMin:    hDayMin,
		ShiftStart: start,
		ShiftEnd:   end,
		LaborDays:  cfg.HorarioTrabajo.DiasLaborales,
	}, nil
}

// Map converts every solved assignment into one or more PlannedTasks,
// splitting at day boundaries.
func (m *Mapper) Map(programacionID string, taskByID map[string]*domain.TaskTemplate, assignments []scheduling.Assignment) ([]*domain.PlannedTask, error) {
	var out []*domain.PlannedTask
	for _, a := range assignments {
		tpl, ok := taskByID[a.TaskID]
		if !ok {
			return nil, apperr.New(apperr.IntegrityError, "assignment references unknown task template %q", a.TaskID)
		}
		parts, err := m.mapOne(programacionID, tpl, a)
		if err != nil {
			return nil, err
		}
		out = append(out, parts...)
	}
	return out, nil
}

func (m *Mapper) mapOne(programacionID string, tpl *domain.TaskTemplate, a scheduling.Assignment) ([]*domain.PlannedTask, error) {
	dayIndex, err := m.dayIndex(a.Start)
	if err != nil {
		return nil, err
	}
	// floor(end / H_day): step 2's literal condition.
	// Note an end that lands exactly on a day boundary floors to the
	// *next* day index, which routes it through the split branch (step 3)
	// even though it never touches a second labor day; step 4's edge rule
	// is what makes that branch still render a sensible shift-end clock.
	endDayIndex := a.End / m.HDayMin

	base := func(parteNumero int, start, end int, dividida bool) (*domain.PlannedTask, error) {
		day, err := m.dayIndex(start)
		if err != nil {
			return nil, err
		}
		if day >= len(m.LaborDays) {
			return nil, apperr.New(apperr.InvalidInput, "task %q starts on day index %d beyond the configured labor-day list (%d days)", tpl.ID, day, len(m.LaborDays))
		}
		id := tpl.ID
		if dividida {
			id = fmt.Sprintf("%s.P%d", tpl.ID, parteNumero)
		}
		return &domain.PlannedTask{
			ID:                id,
			ProgramacionID:    programacionID,
			TaskTemplateID:    tpl.ID,
			JobID:             tpl.JobID,
			Name:              tpl.Name,
			Orden:             tpl.Orden,
			DurationMin:       tpl.DurationMin,
			SetupMin:          tpl.SetupMin,
			MachineID:         a.MachineID,
			OperatorID:        a.OperatorID,
			InicioPlanificado: start,
			FinPlanificado:    end,
			DiaSemana:         day,
			InicioHora:        m.clockFor(start),
			FinHora:           m.endClockFor(end),
			EsDividida:        dividida,
			ParteNumero:       parteNumero,
		}, nil
	}

	if dayIndex == endDayIndex {
		pt, err := base(1, a.Start, a.End, false)
		if err != nil {
			return nil, err
		}
		return []*domain.PlannedTask{pt}, nil
	}

	var parts []*domain.PlannedTask
	cursor := a.Start
	parte := 1
	for cursor < a.End {
		remainingInDay := m.HDayMin - (cursor % m.HDayMin)
		chunk := remainingInDay
		if cursor+chunk > a.End {
			chunk = a.End - cursor
		}
		end := cursor + chunk
		pt, err := base(parte, cursor, end, true)
		if err != nil {
			return nil, err
		}
		parts = append(parts, pt)
		cursor = end
		parte++
	}
	return parts, nil
}

// dayIndex computes floor(minute / H_day).
func (m *Mapper) dayIndex(minute int) (int, error) {
	if minute < 0 {
		return 0, apperr.New(apperr.InvalidInput, "negative flat-minute timestamp %d", minute)
	}
	return minute / m.HDayMin, nil
}

// clockFor renders the shift-relative clock time for a flat-minute start.
func (m *Mapper) clockFor(minute int) string {
	offset := minute % m.HDayMin
	return domain.FormatClock(m.ShiftStart + offset)
}

// endClockFor applies the day-boundary edge rule: a part ending exactly
// on an H_day boundary reports the shift's end clock time, not the next
// day's shift-start equivalent (which would read as "00:00" offset).
func (m *Mapper) endClockFor(minute int) string {
	if minute%m.HDayMin == 0 {
		return domain.FormatClock(m.ShiftEnd)
	}
	offset := minute % m.HDayMin
	return domain.FormatClock(m.ShiftStart + offset)
}
