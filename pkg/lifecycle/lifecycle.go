// Package lifecycle implements the programación state machine:
// transition validation, per-week active uniqueness, the
// PROG-<anio>-W<semana>-<seq> id scheme, and cascade deletion policy.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/prodsched/prodsched/pkg/apperr"
	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/kpi"
	"github.com/prodsched/prodsched/pkg/logging"
	"github.com/prodsched/prodsched/pkg/store"
)

// transitions enumerates the legal edges of the state machine.
var transitions = map[domain.Estado][]domain.Estado{
	domain.EstadoSimulacion:  {domain.EstadoPlanificada, domain.EstadoCancelada},
	domain.EstadoPlanificada: {domain.EstadoEnEjecucion, domain.EstadoCancelada},
	domain.EstadoEnEjecucion: {domain.EstadoCompletada, domain.EstadoCancelada},
	domain.EstadoCompletada:  {},
	domain.EstadoCancelada:   {},
}

// Manager drives programación creation, transitions and deletion.
type Manager struct {
	store  store.Store
	kpiCalc *kpi.Calculator
	log    *logging.Logger
}

// NewManager builds a Manager. kpiCalc may be nil; the transition to
// completada then skips KPI computation.
func NewManager(s store.Store, kpiCalc *kpi.Calculator, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Default()
	}
	return &Manager{store: s, kpiCalc: kpiCalc, log: log}
}

// CreateProgramacion assigns a PROG-<anio>-W<semana:02>-<seq:03> id and
// persists the programación in simulacion state.
func (m *Manager) CreateProgramacion(ctx context.Context, p *domain.Programacion) (*domain.Programacion, error) {
	if p.Anio <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "anio must be > 0")
	}
	if p.Semana < 1 || p.Semana > 53 {
		return nil, apperr.New(apperr.InvalidInput, "semana must be in [1, 53], got %d", p.Semana)
	}
	if !p.Objetivo.Valid() {
		return nil, apperr.New(apperr.InvalidInput, "unrecognized objetivo %q", p.Objetivo)
	}
	seq, err := m.store.NextSequence(ctx, p.Anio, p.Semana)
	if err != nil {
		return nil, err
	}
	p.ID = fmt.Sprintf("PROG-%d-W%02d-%03d", p.Anio, p.Semana, seq)
	p.Estado = domain.EstadoSimulacion
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := m.store.CreateProgramacion(ctx, p); err != nil {
		return nil, err
	}
	m.log.Infof("created programacion %s (anio=%d semana=%d)", p.ID, p.Anio, p.Semana)
	return p, nil
}

// Transition moves prog_id to target, enforcing the state diagram and the
// per-week active uniqueness invariant, and triggers KPI computation on
// arrival at completada.
func (m *Manager) Transition(ctx context.Context, progID string, target domain.Estado, actor string) error {
	p, err := m.store.GetProgramacion(ctx, progID)
	if err != nil {
		return err
	}

	allowed := transitions[p.Estado]
	if !containsEstado(allowed, target) {
		return apperr.NewStateTransitionRejected(string(p.Estado), estadoStrings(allowed),
			"cannot transition programacion %q from %s to %s", progID, p.Estado, target)
	}

	if target == domain.EstadoPlanificada || target == domain.EstadoEnEjecucion {
		if err := m.checkActiveUniqueness(ctx, p); err != nil {
			return err
		}
	}

	p.Estado = target
	p.UpdatedAt = time.Now().UTC()
	if err := m.store.UpdateProgramacion(ctx, p); err != nil {
		return err
	}
	m.log.Infof("programacion %s transitioned to %s by %s", progID, target, actor)

	if target == domain.EstadoCompletada && m.kpiCalc != nil {
		if _, err := m.kpiCalc.Compute(ctx, progID); err != nil {
			m.log.Errorf("KPI computation failed for %s after completion: %v", progID, err)
		}
	}
	return nil
}

// checkActiveUniqueness enforces that no other programación for the same
// (anio, semana) is already planificada, en_ejecucion or completada.
func (m *Manager) checkActiveUniqueness(ctx context.Context, p *domain.Programacion) error {
	anio, semana := p.Anio, p.Semana
	siblings, err := m.store.ListProgramaciones(ctx, store.ProgramacionFilter{Anio: &anio, Semana: &semana})
	if err != nil {
		return err
	}
	for _, sib := range siblings {
		if sib.ID == p.ID {
			continue
		}
		if sib.Estado.Active() {
			return apperr.New(apperr.Conflict,
				"programacion %q for %d-W%02d is already %s; only one active programacion per week is allowed",
				sib.ID, anio, semana, sib.Estado)
		}
	}
	return nil
}

// Delete enforces the per-state deletion policy:
// simulacion and cancelada delete freely; planificada requires force;
// en_ejecucion and completada are never deletable.
func (m *Manager) Delete(ctx context.Context, progID string, force bool) error {
	p, err := m.store.GetProgramacion(ctx, progID)
	if err != nil {
		return err
	}
	switch p.Estado {
	case domain.EstadoSimulacion, domain.EstadoCancelada:
		// always deletable
	case domain.EstadoPlanificada:
		if !force {
			return apperr.New(apperr.StateTransitionRejected, "programacion %q is planificada; deletion requires force=true", progID)
		}
	default:
		return apperr.New(apperr.StateTransitionRejected, "programacion %q is %s and can never be deleted", progID, p.Estado)
	}
	if err := m.store.DeleteProgramacion(ctx, progID); err != nil {
		return err
	}
	m.log.Infof("deleted programacion %s (force=%v)", progID, force)
	return nil
}

func containsEstado(list []domain.Estado, target domain.Estado) bool {
	for _, e := range list {
		if e == target {
			return true
		}
	}
	return false
}

func estadoStrings(list []domain.Estado) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = string(e)
	}
	return out
}
