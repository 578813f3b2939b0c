package calendar

import (
	"testing"

	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/scheduling"
)

func testConfig() domain.ConfigSnapshot {
	return domain.ConfigSnapshot{
		HorarioTrabajo: domain.HorarioTrabajo{
			Inicio:        "08:00",
			Fin:           "18:00",
			DiasLaborales: []string{"LUNES", "MARTES", "MIERCOLES", "JUEVES", "VIERNES"},
		},
	}
}

func testTasks() map[string]*domain.TaskTemplate {
	return map[string]*domain.TaskTemplate{
		"T1": {ID: "T1", JobID: "J1", Name: "Corte", DurationMin: 60, MachineSpec: domain.SingleMachine("M1")},
	}
}

func TestMapSingleDayTask(t *testing.T) {
	m, err := NewMapper(testConfig(), 480)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assignments := []scheduling.Assignment{
		{TaskID: "T1", Start: 100, End: 160, MachineID: "M1", OperatorID: "OP-0"},
	}
	parts, err := m.Map("PROG-1", testTasks(), assignments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	p := parts[0]
	if p.EsDividida {
		t.Errorf("expected a same-day task to not be split")
	}
	if p.DiaSemana != 0 {
		t.Errorf("expected day 0, got %d", p.DiaSemana)
	}
	if p.InicioHora != "09:40" || p.FinHora != "10:40" {
		t.Errorf("expected 09:40-10:40, got %s-%s", p.InicioHora, p.FinHora)
	}
	if p.ID != "T1" {
		t.Errorf("expected an unsplit part id of T1, got %s", p.ID)
	}
}

func TestMapDayCrossingTaskSplits(t *testing.T) {
	m, err := NewMapper(testConfig(), 480)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assignments := []scheduling.Assignment{
		{TaskID: "T1", Start: 460, End: 520, MachineID: "M1", OperatorID: "OP-0"},
	}
	parts, err := m.Map("PROG-1", testTasks(), assignments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if !parts[0].EsDividida || !parts[1].EsDividida {
		t.Errorf("expected both parts marked es_dividida")
	}
	if parts[0].ID != "T1.P1" || parts[1].ID != "T1.P2" {
		t.Errorf("expected part ids T1.P1/T1.P2, got %s/%s", parts[0].ID, parts[1].ID)
	}
	if parts[0].DiaSemana != 0 || parts[1].DiaSemana != 1 {
		t.Errorf("expected parts on days 0 and 1, got %d and %d", parts[0].DiaSemana, parts[1].DiaSemana)
	}
	// part 1 ends exactly at the day boundary (480): edge rule applies.
	if parts[0].FinHora != "18:00" {
		t.Errorf("expected the day-boundary edge rule to report shift end 18:00, got %s", parts[0].FinHora)
	}
	if parts[1].InicioHora != "08:00" {
		t.Errorf("expected the second part to start at shift start 08:00, got %s", parts[1].InicioHora)
	}
}

func TestMapUnknownTaskIsIntegrityError(t *testing.T) {
	m, err := NewMapper(testConfig(), 480)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assignments := []scheduling.Assignment{
		{TaskID: "GHOST", Start: 0, End: 60, MachineID: "M1", OperatorID: "OP-0"},
	}
	if _, err := m.Map("PROG-1", testTasks(), assignments); err == nil {
		t.Fatal("expected an error for an unrecognized task id")
	}
}
