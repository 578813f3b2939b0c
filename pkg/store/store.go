// Package store defines the persistence port for programaciones, planned
// tasks, real executions and metrics, plus two implementations: an
// in-memory store for tests and single-process use, and an S3-backed
// store for durable, shared deployments.
package store

import (
	"context"

	"github.com/prodsched/prodsched/pkg/domain"
)

// ProgramacionFilter narrows ListProgramaciones; nil fields are unfiltered.
type ProgramacionFilter struct {
	Anio   *int
	Semana *int
	Estado *domain.Estado
}

// Store is the persistence port every lifecycle, execution and KPI
// operation goes through. Implementations must make DeleteProgramacion
// atomic with respect to its cascaded children from the caller's point of
// view, even if the underlying medium (e.g. S3) has no native
// transactions.
type Store interface {
	CreateProgramacion(ctx context.Context, p *domain.Programacion) error
	GetProgramacion(ctx context.Context, id string) (*domain.Programacion, error)
	UpdateProgramacion(ctx context.Context, p *domain.Programacion) error
	ListProgramaciones(ctx context.Context, filter ProgramacionFilter) ([]*domain.Programacion, error)
	DeleteProgramacion(ctx context.Context, id string) error

	// NextSequence allocates the next unused seq for the PROG-<anio>-W<semana>-<seq>
	// id scheme, atomically with respect to concurrent callers.
	NextSequence(ctx context.Context, anio, semana int) (int, error)

	SavePlannedTasks(ctx context.Context, progID string, tasks []*domain.PlannedTask) error
	ListPlannedTasks(ctx context.Context, progID string) ([]*domain.PlannedTask, error)
	GetPlannedTask(ctx context.Context, id string) (*domain.PlannedTask, error)

	SaveExecution(ctx context.Context, e *domain.RealExecution) error
	GetExecution(ctx context.Context, id string) (*domain.RealExecution, error)
	GetExecutionByPlannedTask(ctx context.Context, plannedTaskID string) (*domain.RealExecution, error)
	ListExecutions(ctx context.Context, progID string) ([]*domain.RealExecution, error)
	DeleteExecution(ctx context.Context, id string) error

	SaveMetric(ctx context.Context, m *domain.Metric) error
	GetMetric(ctx context.Context, progID string) (*domain.Metric, error)
}
