package store

import (
	"context"
	"testing"

	"github.com/prodsched/prodsched/pkg/apperr"
	"github.com/prodsched/prodsched/pkg/domain"
)

func TestMemoryStoreProgramacionLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p := &domain.Programacion{ID: "PROG-2026-W01-001", Anio: 2026, Semana: 1, Estado: domain.EstadoSimulacion}
	if err := s.CreateProgramacion(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.CreateProgramacion(ctx, p); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("expected Conflict on duplicate create, got %v", err)
	}

	got, err := s.GetProgramacion(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Estado != domain.EstadoSimulacion {
		t.Errorf("expected simulacion, got %s", got.Estado)
	}

	got.Estado = domain.EstadoPlanificada
	if err := s.UpdateProgramacion(ctx, got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reread, _ := s.GetProgramacion(ctx, p.ID)
	if reread.Estado != domain.EstadoPlanificada {
		t.Errorf("expected update to persist, got %s", reread.Estado)
	}
}

func TestMemoryStoreCascadeDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p := &domain.Programacion{ID: "PROG-2026-W01-001", Anio: 2026, Semana: 1}
	if err := s.CreateProgramacion(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	task := &domain.PlannedTask{ID: "T1", ProgramacionID: p.ID}
	if err := s.SavePlannedTasks(ctx, p.ID, []*domain.PlannedTask{task}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exec := &domain.RealExecution{PlannedTaskID: "T1"}
	if err := s.SaveExecution(ctx, exec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	metric := &domain.Metric{ProgramacionID: p.ID}
	if err := s.SaveMetric(ctx, metric); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.DeleteProgramacion(ctx, p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.GetProgramacion(ctx, p.ID); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected programacion to be gone, got %v", err)
	}
	if _, err := s.GetPlannedTask(ctx, "T1"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected planned task to cascade-delete, got %v", err)
	}
	if _, err := s.GetExecutionByPlannedTask(ctx, "T1"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected execution to cascade-delete, got %v", err)
	}
	if _, err := s.GetMetric(ctx, p.ID); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected metric to cascade-delete, got %v", err)
	}
}

func TestMemoryStoreNextSequenceIsPerWeek(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, _ := s.NextSequence(ctx, 2026, 1)
	second, _ := s.NextSequence(ctx, 2026, 1)
	otherWeek, _ := s.NextSequence(ctx, 2026, 2)

	if first != 1 || second != 2 {
		t.Errorf("expected sequence 1 then 2, got %d then %d", first, second)
	}
	if otherWeek != 1 {
		t.Errorf("expected a different week to start its own sequence at 1, got %d", otherWeek)
	}
}

func TestMemoryStoreExecutionUniquePerPlannedTask(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p := &domain.Programacion{ID: "PROG-2026-W01-001"}
	_ = s.CreateProgramacion(ctx, p)
	_ = s.SavePlannedTasks(ctx, p.ID, []*domain.PlannedTask{{ID: "T1", ProgramacionID: p.ID}})

	e1 := &domain.RealExecution{PlannedTaskID: "T1"}
	if err := s.SaveExecution(ctx, e1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e2 := &domain.RealExecution{ID: "EXEC-OTHER", PlannedTaskID: "T1"}
	if err := s.SaveExecution(ctx, e2); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("expected Conflict for a second distinct execution id on the same planned task, got %v", err)
	}
}
