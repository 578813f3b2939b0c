package store

import (
	"context"
	"sync"

	"github.com/prodsched/prodsched/pkg/apperr"
	"github.com/prodsched/prodsched/pkg/domain"
)

// CatalogStore holds the Machine/Operator reference data: process-wide
// resources created/updated out-of-band from programación scheduling. It
// is a separate, narrower port than Store because catalog writes don't
// participate in programación cascade semantics at all.
type CatalogStore interface {
	UpsertMachine(ctx context.Context, m *domain.Machine) error
	GetMachine(ctx context.Context, id string) (*domain.Machine, error)
	ListMachines(ctx context.Context) ([]*domain.Machine, error)

	UpsertOperator(ctx context.Context, o *domain.Operator) error
	GetOperator(ctx context.Context, id string) (*domain.Operator, error)
	ListOperators(ctx context.Context) ([]*domain.Operator, error)
}

// MemoryCatalogStore is an in-process CatalogStore, the default backend
// for the `prodsched catalog` command group.
type MemoryCatalogStore struct {
	mu        sync.Mutex
	machines  map[string]*domain.Machine
	operators map[string]*domain.Operator
}

// NewMemoryCatalogStore creates an empty MemoryCatalogStore.
func NewMemoryCatalogStore() *MemoryCatalogStore {
	return &MemoryCatalogStore{
		machines:  make(map[string]*domain.Machine),
		operators: make(map[string]*domain.Operator),
	}
}

func (c *MemoryCatalogStore) UpsertMachine(_ context.Context, m *domain.Machine) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *m
	c.machines[m.ID] = &cp
	return nil
}

func (c *MemoryCatalogStore) GetMachine(_ context.Context, id string) (*domain.Machine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.machines[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "machine %q not found", id)
	}
	cp := *m
	return &cp, nil
}

func (c *MemoryCatalogStore) ListMachines(_ context.Context) ([]*domain.Machine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*domain.Machine, 0, len(c.machines))
	for _, m := range c.machines {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (c *MemoryCatalogStore) UpsertOperator(_ context.Context, o *domain.Operator) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.operators[o.ID] = o
	return nil
}

func (c *MemoryCatalogStore) GetOperator(_ context.Context, id string) (*domain.Operator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.operators[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "operator %q not found", id)
	}
	return o, nil
}

func (c *MemoryCatalogStore) ListOperators(_ context.Context) ([]*domain.Operator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*domain.Operator, 0, len(c.operators))
	for _, o := range c.operators {
		out = append(out, o)
	}
	return out, nil
}
