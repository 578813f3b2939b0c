package store

import (
	"context"
	"sync"

	"github.com/prodsched/prodsched/pkg/apperr"
	"github.com/prodsched/prodsched/pkg/domain"
)

// MemoryStore is an in-process Store backed by plain maps guarded by a
// mutex. It is the default store for tests and single-node deployments;
// production multi-node deployments use S3Store instead.
type MemoryStore struct {
	mu sync.Mutex

	programaciones map[string]*domain.Programacion
	plannedTasks   map[string]*domain.PlannedTask   // id -> task
	tasksByProg    map[string]map[string]bool       // prog id -> set of task ids
	executions     map[string]*domain.RealExecution // id -> execution
	execByTask     map[string]string                // planned task id -> execution id
	execByProg     map[string]map[string]bool        // prog id -> set of execution ids (via planned task lookup)
	metrics        map[string]*domain.Metric         // prog id -> metric
	sequences      map[string]int                    // "anio:semana" -> last allocated seq
	execID         int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		programaciones: make(map[string]*domain.Programacion),
		plannedTasks:   make(map[string]*domain.PlannedTask),
		tasksByProg:    make(map[string]map[string]bool),
		executions:     make(map[string]*domain.RealExecution),
		execByTask:     make(map[string]string),
		execByProg:     make(map[string]map[string]bool),
		metrics:        make(map[string]*domain.Metric),
		sequences:      make(map[string]int),
	}
}

func (s *MemoryStore) CreateProgramacion(_ context.Context, p *domain.Programacion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.programaciones[p.ID]; exists {
		return apperr.New(apperr.Conflict, "programacion %q already exists", p.ID)
	}
	cp := *p
	s.programaciones[p.ID] = &cp
	return nil
}

func (s *MemoryStore) GetProgramacion(_ context.Context, id string) (*domain.Programacion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.programaciones[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "programacion %q not found", id)
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) UpdateProgramacion(_ context.Context, p *domain.Programacion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programaciones[p.ID]; !ok {
		return apperr.New(apperr.NotFound, "programacion %q not found", p.ID)
	}
	cp := *p
	s.programaciones[p.ID] = &cp
	return nil
}

func (s *MemoryStore) ListProgramaciones(_ context.Context, filter ProgramacionFilter) ([]*domain.Programacion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Programacion
	for _, p := range s.programaciones {
		if filter.Anio != nil && p.Anio != *filter.Anio {
			continue
		}
		if filter.Semana != nil && p.Semana != *filter.Semana {
			continue
		}
		if filter.Estado != nil && p.Estado != *filter.Estado {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) DeleteProgramacion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programaciones[id]; !ok {
		return apperr.New(apperr.NotFound, "programacion %q not found", id)
	}
	for taskID := range s.tasksByProg[id] {
		if execID, ok := s.execByTask[taskID]; ok {
			delete(s.executions, execID)
			delete(s.execByTask, taskID)
		}
		delete(s.plannedTasks, taskID)
	}
	delete(s.tasksByProg, id)
	delete(s.execByProg, id)
	delete(s.metrics, id)
	delete(s.programaciones, id)
	return nil
}

func (s *MemoryStore) NextSequence(_ context.Context, anio, semana int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sequenceKey(anio, semana)
	s.sequences[key]++
	return s.sequences[key], nil
}

func (s *MemoryStore) SavePlannedTasks(_ context.Context, progID string, tasks []*domain.PlannedTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programaciones[progID]; !ok {
		return apperr.New(apperr.NotFound, "programacion %q not found", progID)
	}
	if s.tasksByProg[progID] == nil {
		s.tasksByProg[progID] = make(map[string]bool)
	}
	for _, t := range tasks {
		cp := *t
		s.plannedTasks[t.ID] = &cp
		s.tasksByProg[progID][t.ID] = true
	}
	return nil
}

func (s *MemoryStore) ListPlannedTasks(_ context.Context, progID string) ([]*domain.PlannedTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.PlannedTask
	for taskID := range s.tasksByProg[progID] {
		t := s.plannedTasks[taskID]
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) GetPlannedTask(_ context.Context, id string) (*domain.PlannedTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.plannedTasks[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "planned task %q not found", id)
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) SaveExecution(_ context.Context, e *domain.RealExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	progID := s.progIDForTask(e.PlannedTaskID)
	if progID == "" {
		return apperr.New(apperr.NotFound, "planned task %q not found", e.PlannedTaskID)
	}
	if e.ID == "" {
		if existing, ok := s.execByTask[e.PlannedTaskID]; ok {
			e.ID = existing
		} else {
			s.execID++
			e.ID = sequenceExecID(s.execID)
		}
	} else if existing, ok := s.execByTask[e.PlannedTaskID]; ok && existing != e.ID {
		return apperr.New(apperr.Conflict, "planned task %q already has execution %q", e.PlannedTaskID, existing)
	}
	cp := *e
	s.executions[e.ID] = &cp
	s.execByTask[e.PlannedTaskID] = e.ID
	if s.execByProg[progID] == nil {
		s.execByProg[progID] = make(map[string]bool)
	}
	s.execByProg[progID][e.ID] = true
	return nil
}

func (s *MemoryStore) progIDForTask(taskID string) string {
	if _, ok := s.plannedTasks[taskID]; !ok {
		return ""
	}
	for progID, set := range s.tasksByProg {
		if set[taskID] {
			return progID
		}
	}
	return ""
}

func (s *MemoryStore) GetExecution(_ context.Context, id string) (*domain.RealExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.executions[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "execution %q not found", id)
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) GetExecutionByPlannedTask(_ context.Context, plannedTaskID string) (*domain.RealExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.execByTask[plannedTaskID]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "no execution recorded for planned task %q", plannedTaskID)
	}
	cp := *s.executions[id]
	return &cp, nil
}

func (s *MemoryStore) ListExecutions(_ context.Context, progID string) ([]*domain.RealExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.RealExecution
	for execID := range s.execByProg[progID] {
		cp := *s.executions[execID]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) DeleteExecution(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.executions[id]
	if !ok {
		return apperr.New(apperr.NotFound, "execution %q not found", id)
	}
	delete(s.executions, id)
	delete(s.execByTask, e.PlannedTaskID)
	for progID, set := range s.execByProg {
		if set[id] {
			delete(set, id)
			_ = progID
		}
	}
	return nil
}

func (s *MemoryStore) SaveMetric(_ context.Context, m *domain.Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programaciones[m.ProgramacionID]; !ok {
		return apperr.New(apperr.NotFound, "programacion %q not found", m.ProgramacionID)
	}
	cp := *m
	s.metrics[m.ProgramacionID] = &cp
	return nil
}

func (s *MemoryStore) GetMetric(_ context.Context, progID string) (*domain.Metric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.metrics[progID]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "no metric computed for programacion %q", progID)
	}
	cp := *m
	return &cp, nil
}
