package lifecycle

import (
	"context"
	"testing"

	"github.com/prodsched/prodsched/pkg/apperr"
	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/store"
)

func newManager() (*Manager, store.Store) {
	s := store.NewMemoryStore()
	return NewManager(s, nil, nil), s
}

func TestCreateProgramacionAssignsIDScheme(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	p, err := m.CreateProgramacion(ctx, &domain.Programacion{Anio: 2026, Semana: 5, Objetivo: domain.MinimizeMakespan})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "PROG-2026-W05-001" {
		t.Errorf("expected PROG-2026-W05-001, got %s", p.ID)
	}
	if p.Estado != domain.EstadoSimulacion {
		t.Errorf("expected simulacion, got %s", p.Estado)
	}

	p2, err := m.CreateProgramacion(ctx, &domain.Programacion{Anio: 2026, Semana: 5, Objetivo: domain.MinimizeMakespan})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p2.ID != "PROG-2026-W05-002" {
		t.Errorf("expected the second programacion that week to get seq 002, got %s", p2.ID)
	}
}

func TestTransitionFollowsStateDiagram(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()
	p, _ := m.CreateProgramacion(ctx, &domain.Programacion{Anio: 2026, Semana: 1, Objetivo: domain.MinimizeMakespan})

	if err := m.Transition(ctx, p.ID, domain.EstadoEnEjecucion, "tester"); !apperr.Is(err, apperr.StateTransitionRejected) {
		t.Errorf("expected rejection skipping planificada, got %v", err)
	}
	if err := m.Transition(ctx, p.ID, domain.EstadoPlanificada, "tester"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Transition(ctx, p.ID, domain.EstadoEnEjecucion, "tester"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Transition(ctx, p.ID, domain.EstadoCompletada, "tester"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Transition(ctx, p.ID, domain.EstadoPlanificada, "tester"); !apperr.Is(err, apperr.StateTransitionRejected) {
		t.Errorf("expected terminal state to reject further transitions, got %v", err)
	}
}

func TestTransitionEnforcesPerWeekActiveUniqueness(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()
	a, _ := m.CreateProgramacion(ctx, &domain.Programacion{Anio: 2026, Semana: 1, Objetivo: domain.MinimizeMakespan})
	b, _ := m.CreateProgramacion(ctx, &domain.Programacion{Anio: 2026, Semana: 1, Objetivo: domain.MinimizeMakespan})

	if err := m.Transition(ctx, a.ID, domain.EstadoPlanificada, "tester"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Transition(ctx, b.ID, domain.EstadoPlanificada, "tester"); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("expected Conflict approving a second programacion for the same week, got %v", err)
	}
}

func TestDeletePolicyByState(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	sim, _ := m.CreateProgramacion(ctx, &domain.Programacion{Anio: 2026, Semana: 1, Objetivo: domain.MinimizeMakespan})
	if err := m.Delete(ctx, sim.ID, false); err != nil {
		t.Errorf("expected simulacion to delete freely, got %v", err)
	}

	planned, _ := m.CreateProgramacion(ctx, &domain.Programacion{Anio: 2026, Semana: 2, Objetivo: domain.MinimizeMakespan})
	_ = m.Transition(ctx, planned.ID, domain.EstadoPlanificada, "tester")
	if err := m.Delete(ctx, planned.ID, false); !apperr.Is(err, apperr.StateTransitionRejected) {
		t.Errorf("expected planificada to require force, got %v", err)
	}
	if err := m.Delete(ctx, planned.ID, true); err != nil {
		t.Errorf("expected planificada to delete with force=true, got %v", err)
	}

	running, _ := m.CreateProgramacion(ctx, &domain.Programacion{Anio: 2026, Semana: 3, Objetivo: domain.MinimizeMakespan})
	_ = m.Transition(ctx, running.ID, domain.EstadoPlanificada, "tester")
	_ = m.Transition(ctx, running.ID, domain.EstadoEnEjecucion, "tester")
	if err := m.Delete(ctx, running.ID, true); !apperr.Is(err, apperr.StateTransitionRejected) {
		t.Errorf("expected en_ejecucion to never be deletable, got %v", err)
	}
}
