// Package execution implements the execution recorder: registering,
// updating and deleting RealExecutions, recomputing their deviation
// fields against the reconstructed planned datetime, and checking a
// programación's completeness.
package execution

import (
	"context"
	"time"

	"github.com/prodsched/prodsched/pkg/apperr"
	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/logging"
	"github.com/prodsched/prodsched/pkg/store"
)

// Recorder registers and maintains RealExecutions.
type Recorder struct {
	store store.Store
	log   *logging.Logger
}

// NewRecorder builds a Recorder.
func NewRecorder(s store.Store, log *logging.Logger) *Recorder {
	if log == nil {
		log = logging.Default()
	}
	return &Recorder{store: s, log: log}
}

// RegisterInput bundles register()'s parameters.
type RegisterInput struct {
	PlannedTaskID string
	InicioReal    time.Time
	FinReal       time.Time
	MaquinaUsada  string
	Operador      string
	Problemas     string
	TiempoParadas int
	Notas         string
	CreatedBy     string
}

// Register creates a RealExecution for a planned task. It fails if one
// already exists for the task, or if the task's programación is not
// en_ejecucion.
func (r *Recorder) Register(ctx context.Context, in RegisterInput) (*domain.RealExecution, error) {
	task, prog, err := r.loadTaskAndProgramacion(ctx, in.PlannedTaskID)
	if err != nil {
		return nil, err
	}
	if prog.Estado != domain.EstadoEnEjecucion {
		return nil, apperr.New(apperr.StateTransitionRejected,
			"planned task %q belongs to programacion %q which is %s, not en_ejecucion", in.PlannedTaskID, prog.ID, prog.Estado)
	}
	if _, err := r.store.GetExecutionByPlannedTask(ctx, in.PlannedTaskID); err == nil {
		return nil, apperr.New(apperr.Conflict, "planned task %q already has a recorded execution", in.PlannedTaskID)
	} else if !apperr.Is(err, apperr.NotFound) {
		return nil, err
	}

	exec := &domain.RealExecution{
		PlannedTaskID:    in.PlannedTaskID,
		InicioReal:       in.InicioReal,
		FinReal:          in.FinReal,
		MaquinaUsada:     in.MaquinaUsada,
		OperadorEjecutor: in.Operador,
		TiempoParadas:    in.TiempoParadas,
		Problemas:        in.Problemas,
		Notas:            in.Notas,
		CreatedBy:        in.CreatedBy,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	if err := r.recompute(exec, task, prog); err != nil {
		return nil, err
	}
	if err := r.store.SaveExecution(ctx, exec); err != nil {
		return nil, err
	}
	r.log.Infof("registered execution %s for planned task %s (estado=%s)", exec.ID, in.PlannedTaskID, exec.Estado)
	return exec, nil
}

// UpdateInput carries the partial-update fields for update(); nil fields
// are left unchanged.
type UpdateInput struct {
	InicioReal    *time.Time
	FinReal       *time.Time
	MaquinaUsada  *string
	Operador      *string
	Problemas     *string
	TiempoParadas *int
	Notas         *string
}

// Update applies a partial update to an existing execution, recomputing
// deviations whenever times or paradas change.
func (r *Recorder) Update(ctx context.Context, executionID string, in UpdateInput) (*domain.RealExecution, error) {
	exec, err := r.store.GetExecution(ctx, executionID)
	if err != nil {
		return nil, err
	}
	task, prog, err := r.loadTaskAndProgramacion(ctx, exec.PlannedTaskID)
	if err != nil {
		return nil, err
	}

	timesOrParadasChanged := false
	if in.InicioReal != nil {
		exec.InicioReal = *in.InicioReal
		timesOrParadasChanged = true
	}
	if in.FinReal != nil {
		exec.FinReal = *in.FinReal
		timesOrParadasChanged = true
	}
	if in.TiempoParadas != nil {
		exec.TiempoParadas = *in.TiempoParadas
		timesOrParadasChanged = true
	}
	if in.MaquinaUsada != nil {
		exec.MaquinaUsada = *in.MaquinaUsada
	}
	if in.Operador != nil {
		exec.OperadorEjecutor = *in.Operador
	}
	if in.Problemas != nil {
		exec.Problemas = *in.Problemas
	}
	if in.Notas != nil {
		exec.Notas = *in.Notas
	}
	exec.UpdatedAt = time.Now().UTC()

	if timesOrParadasChanged {
		if err := r.recompute(exec, task, prog); err != nil {
			return nil, err
		}
	} else {
		exec.ProblemCategory = domain.CategorizeProblem(exec.Problemas)
	}

	if err := r.store.SaveExecution(ctx, exec); err != nil {
		return nil, err
	}
	return exec, nil
}

// Delete removes an execution. Allowed only while its programación is not
// completada.
func (r *Recorder) Delete(ctx context.Context, executionID string) error {
	exec, err := r.store.GetExecution(ctx, executionID)
	if err != nil {
		return err
	}
	_, prog, err := r.loadTaskAndProgramacion(ctx, exec.PlannedTaskID)
	if err != nil {
		return err
	}
	if prog.Estado == domain.EstadoCompletada {
		return apperr.New(apperr.StateTransitionRejected, "programacion %q is completada; executions are immutable history", prog.ID)
	}
	return r.store.DeleteExecution(ctx, executionID)
}

// IsComplete reports whether every PlannedTask in progID has a recorded
// RealExecution.
func (r *Recorder) IsComplete(ctx context.Context, progID string) (bool, error) {
	tasks, err := r.store.ListPlannedTasks(ctx, progID)
	if err != nil {
		return false, err
	}
	if len(tasks) == 0 {
		return false, nil
	}
	for _, t := range tasks {
		if _, err := r.store.GetExecutionByPlannedTask(ctx, t.ID); err != nil {
			if apperr.Is(err, apperr.NotFound) {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

func (r *Recorder) loadTaskAndProgramacion(ctx context.Context, plannedTaskID string) (*domain.PlannedTask, *domain.Programacion, error) {
	task, err := r.store.GetPlannedTask(ctx, plannedTaskID)
	if err != nil {
		return nil, nil, err
	}
	prog, err := r.store.GetProgramacion(ctx, task.ProgramacionID)
	if err != nil {
		return nil, nil, err
	}
	return task, prog, nil
}

// recompute reconstructs the planned datetimes for task's primary window
// and delegates to domain.RealExecution.Recompute.
func (r *Recorder) recompute(exec *domain.RealExecution, task *domain.PlannedTask, prog *domain.Programacion) error {
	plannedInicio, err := domain.PlannedDateTime(prog.Anio, prog.Semana, task.DiaSemana, task.InicioHora)
	if err != nil {
		return apperr.Wrap(apperr.IntegrityError, err, "failed to reconstruct planned start for task %q", task.ID)
	}
	plannedFin, err := domain.PlannedDateTime(prog.Anio, prog.Semana, task.DiaSemana, task.FinHora)
	if err != nil {
		return apperr.Wrap(apperr.IntegrityError, err, "failed to reconstruct planned end for task %q", task.ID)
	}
	exec.Recompute(plannedInicio, plannedFin, task.DurationMin)
	return nil
}
