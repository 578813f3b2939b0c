package store

import (
	"context"
	"testing"

	"github.com/prodsched/prodsched/pkg/apperr"
	"github.com/prodsched/prodsched/pkg/domain"
)

func TestMemoryCatalogStore(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalogStore()

	if err := c.UpsertMachine(ctx, &domain.Machine{ID: "M1", Name: "Lathe", CostPerHour: 12.5}); err != nil {
		t.Fatalf("UpsertMachine: %v", err)
	}
	m, err := c.GetMachine(ctx, "M1")
	if err != nil {
		t.Fatalf("GetMachine: %v", err)
	}
	if m.Name != "Lathe" {
		t.Errorf("Name = %q, want Lathe", m.Name)
	}

	if _, err := c.GetMachine(ctx, "missing"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}

	op := domain.NewOperator("O1", "Jane", []string{"M1"})
	if err := c.UpsertOperator(ctx, op); err != nil {
		t.Fatalf("UpsertOperator: %v", err)
	}
	machines, err := c.ListMachines(ctx)
	if err != nil || len(machines) != 1 {
		t.Fatalf("ListMachines: %v, %d", err, len(machines))
	}
	operators, err := c.ListOperators(ctx)
	if err != nil || len(operators) != 1 {
		t.Fatalf("ListOperators: %v, %d", err, len(operators))
	}
}
