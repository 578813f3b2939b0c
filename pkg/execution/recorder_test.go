package execution

import (
	"context"
	"testing"
	"time"

	"github.com/prodsched/prodsched/pkg/apperr"
	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/store"
)

func seedProgramacionWithTask(t *testing.T, s store.Store, estado domain.Estado) *domain.PlannedTask {
	t.Helper()
	ctx := context.Background()
	p := &domain.Programacion{ID: "PROG-2026-W01-001", Anio: 2026, Semana: 1, Estado: estado}
	if err := s.CreateProgramacion(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	task := &domain.PlannedTask{
		ID:                "T1",
		ProgramacionID:    p.ID,
		DurationMin:       60,
		DiaSemana:         0,
		InicioHora:        "09:00",
		FinHora:           "10:00",
		InicioPlanificado: 60,
		FinPlanificado:    120,
	}
	if err := s.SavePlannedTasks(ctx, p.ID, []*domain.PlannedTask{task}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return task
}

func TestRegisterComputesDeviationsOnTime(t *testing.T) {
	s := store.NewMemoryStore()
	seedProgramacionWithTask(t, s, domain.EstadoEnEjecucion)
	r := NewRecorder(s, nil)

	plannedStart := domain.WeekStart(2026, 1).Add(9 * time.Hour)
	exec, err := r.Register(context.Background(), RegisterInput{
		PlannedTaskID: "T1",
		InicioReal:    plannedStart,
		FinReal:       plannedStart.Add(60 * time.Minute),
		MaquinaUsada:  "M1",
		Operador:      "OP-0",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.Estado != domain.EjecucionCompletada {
		t.Errorf("expected COMPLETADA for an on-time execution, got %s", exec.Estado)
	}
	if exec.DesviacionInicio != 0 || exec.DesviacionFin != 0 {
		t.Errorf("expected zero deviation, got inicio=%d fin=%d", exec.DesviacionInicio, exec.DesviacionFin)
	}
}

func TestRegisterFailsWhenProgramacionIsNotEnEjecucion(t *testing.T) {
	s := store.NewMemoryStore()
	seedProgramacionWithTask(t, s, domain.EstadoPlanificada)
	r := NewRecorder(s, nil)

	_, err := r.Register(context.Background(), RegisterInput{PlannedTaskID: "T1", InicioReal: time.Now(), FinReal: time.Now()})
	if !apperr.Is(err, apperr.StateTransitionRejected) {
		t.Errorf("expected StateTransitionRejected, got %v", err)
	}
}

func TestRegisterFailsOnDuplicate(t *testing.T) {
	s := store.NewMemoryStore()
	seedProgramacionWithTask(t, s, domain.EstadoEnEjecucion)
	r := NewRecorder(s, nil)
	ctx := context.Background()

	plannedStart := domain.WeekStart(2026, 1).Add(9 * time.Hour)
	in := RegisterInput{PlannedTaskID: "T1", InicioReal: plannedStart, FinReal: plannedStart.Add(time.Hour)}
	if _, err := r.Register(ctx, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Register(ctx, in); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("expected Conflict on duplicate registration, got %v", err)
	}
}

func TestRegisterMarksRetrasadaBeyondThreshold(t *testing.T) {
	s := store.NewMemoryStore()
	seedProgramacionWithTask(t, s, domain.EstadoEnEjecucion)
	r := NewRecorder(s, nil)

	plannedStart := domain.WeekStart(2026, 1).Add(9 * time.Hour)
	exec, err := r.Register(context.Background(), RegisterInput{
		PlannedTaskID: "T1",
		InicioReal:    plannedStart,
		FinReal:       plannedStart.Add(100 * time.Minute), // 40 min over the 60 min template
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.Estado != domain.EjecucionRetrasada {
		t.Errorf("expected RETRASADA for a 40-minute overrun, got %s", exec.Estado)
	}
}

func TestIsCompleteReflectsRegisteredExecutions(t *testing.T) {
	s := store.NewMemoryStore()
	seedProgramacionWithTask(t, s, domain.EstadoEnEjecucion)
	r := NewRecorder(s, nil)
	ctx := context.Background()

	complete, err := r.IsComplete(ctx, "PROG-2026-W01-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if complete {
		t.Fatal("expected incomplete before any execution is registered")
	}

	plannedStart := domain.WeekStart(2026, 1).Add(9 * time.Hour)
	if _, err := r.Register(ctx, RegisterInput{PlannedTaskID: "T1", InicioReal: plannedStart, FinReal: plannedStart.Add(time.Hour)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	complete, err = r.IsComplete(ctx, "PROG-2026-W01-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !complete {
		t.Error("expected complete once every planned task has an execution")
	}
}

func TestDeleteRejectedOnceCompletada(t *testing.T) {
	s := store.NewMemoryStore()
	seedProgramacionWithTask(t, s, domain.EstadoEnEjecucion)
	r := NewRecorder(s, nil)
	ctx := context.Background()

	plannedStart := domain.WeekStart(2026, 1).Add(9 * time.Hour)
	exec, err := r.Register(ctx, RegisterInput{PlannedTaskID: "T1", InicioReal: plannedStart, FinReal: plannedStart.Add(time.Hour)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prog, _ := s.GetProgramacion(ctx, "PROG-2026-W01-001")
	prog.Estado = domain.EstadoCompletada
	_ = s.UpdateProgramacion(ctx, prog)

	if err := r.Delete(ctx, exec.ID); !apperr.Is(err, apperr.StateTransitionRejected) {
		t.Errorf("expected StateTransitionRejected once completada, got %v", err)
	}
}
