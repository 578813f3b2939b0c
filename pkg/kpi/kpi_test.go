package kpi

import (
	"context"
	"testing"
	"time"

	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/pricing"
	"github.com/prodsched/prodsched/pkg/store"
)

func seedCompletedWeek(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	prog := &domain.Programacion{
		ID: "PROG-2026-W01-001", Anio: 2026, Semana: 1,
		Estado:   domain.EstadoEnEjecucion,
		Objetivo: domain.MinimizeCostProxy,
		Config: domain.ConfigSnapshot{
			HorarioTrabajo: domain.HorarioTrabajo{
				Inicio:        "08:00",
				Fin:           "18:00",
				DiasLaborales: []string{"LUNES", "MARTES", "MIERCOLES", "JUEVES", "VIERNES"},
			},
		},
	}
	if err := s.CreateProgramacion(ctx, prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks := []*domain.PlannedTask{
		{ID: "T1", ProgramacionID: prog.ID, MachineID: "M1", SetupMin: 0, DurationMin: 60, DiaSemana: 0, InicioHora: "09:00", FinHora: "10:00"},
		{ID: "T2", ProgramacionID: prog.ID, MachineID: "M1", SetupMin: 0, DurationMin: 60, DiaSemana: 0, InicioHora: "10:00", FinHora: "11:00"},
	}
	if err := s.SavePlannedTasks(ctx, prog.ID, tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := domain.WeekStart(2026, 1).Add(9 * time.Hour)
	exec1 := &domain.RealExecution{
		PlannedTaskID: "T1", MaquinaUsada: "M1",
		InicioReal: base, FinReal: base.Add(60 * time.Minute),
		DuracionReal: 60, DesviacionDuracion: 0, Estado: domain.EjecucionCompletada,
	}
	exec2 := &domain.RealExecution{
		PlannedTaskID: "T2", MaquinaUsada: "M1",
		InicioReal: base.Add(time.Hour), FinReal: base.Add(2*time.Hour + 10*time.Minute),
		DuracionReal: 70, DesviacionDuracion: 10, Problemas: "falla de maquina",
		ProblemCategory: domain.ProblemBreakdown, Estado: domain.EjecucionCompletada,
	}
	if err := s.SaveExecution(ctx, exec1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SaveExecution(ctx, exec2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestComputeProducesPlausibleMetric(t *testing.T) {
	s := store.NewMemoryStore()
	seedCompletedWeek(t, s)
	costModel := pricing.NewCostModel(map[string]float64{"M1": 12}, 10)
	calc := NewCalculator(s, costModel, nil)

	m, err := calc.Compute(context.Background(), "PROG-2026-W01-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Calidad != 50 {
		t.Errorf("expected 50%% quality (1 of 2 tasks problem-free), got %v", m.Calidad)
	}
	if m.TareasATiempo != 1 || m.TareasRetrasadas != 1 {
		t.Errorf("expected 1 on-time and 1 late (10 min > 5 min tolerance), got %d/%d", m.TareasATiempo, m.TareasRetrasadas)
	}
	if m.CostoTotalEstimado <= 0 {
		t.Errorf("expected a positive cost estimate for MINIMIZE_COST_PROXY, got %v", m.CostoTotalEstimado)
	}
	if len(m.UtilizacionPorMaquina) != 1 || m.UtilizacionPorMaquina[0].MachineID != "M1" {
		t.Fatalf("expected one machine utilization entry for M1, got %+v", m.UtilizacionPorMaquina)
	}
}

func TestComputeFailsWithNoPlannedTasks(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	prog := &domain.Programacion{ID: "PROG-EMPTY", Config: domain.ConfigSnapshot{
		HorarioTrabajo: domain.HorarioTrabajo{Inicio: "08:00", Fin: "18:00", DiasLaborales: []string{"LUNES"}},
	}}
	_ = s.CreateProgramacion(ctx, prog)
	calc := NewCalculator(s, nil, nil)
	if _, err := calc.Compute(ctx, "PROG-EMPTY"); err == nil {
		t.Fatal("expected an error when there are no planned tasks")
	}
}

func TestCompareWeeksComputesDeltas(t *testing.T) {
	prior := &domain.Metric{ProgramacionID: "P1", OEE: 70, Disponibilidad: 90}
	current := &domain.Metric{ProgramacionID: "P2", OEE: 80, Disponibilidad: 85}
	cmp := CompareWeeks(prior, current)
	if cmp.DeltaOEE != 10 {
		t.Errorf("expected DeltaOEE=10, got %v", cmp.DeltaOEE)
	}
	if cmp.DeltaAvailability != -5 {
		t.Errorf("expected DeltaAvailability=-5, got %v", cmp.DeltaAvailability)
	}
}
