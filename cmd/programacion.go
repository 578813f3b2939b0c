package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/kpi"
	"github.com/prodsched/prodsched/pkg/lifecycle"
	"github.com/prodsched/prodsched/pkg/monitoring"
	"github.com/prodsched/prodsched/pkg/schema"
	"github.com/prodsched/prodsched/pkg/store"
)

func newProgramacionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "programacion",
		Aliases: []string{"prog"},
		Short:   "Manage weekly programación lifecycle",
	}
	cmd.AddCommand(newProgCreateCmd())
	cmd.AddCommand(newProgListCmd())
	cmd.AddCommand(newProgGetCmd())
	cmd.AddCommand(newProgTransitionCmd())
	cmd.AddCommand(newProgDeleteCmd())
	return cmd
}

func newProgCreateCmd() *cobra.Command {
	var configPath string
	var anio, semana int
	var objective, createdBy string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a programación in simulacion state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			raw, err := rawJSONDoc(configPath)
			if err != nil {
				return err
			}
			validator, err := schema.NewConfigSnapshotValidator()
			if err != nil {
				return err
			}
			if err := validator.Validate(raw); err != nil {
				return err
			}
			var cfg domain.ConfigSnapshot
			if err := remarshalInto(raw, &cfg); err != nil {
				return err
			}
			obj := domain.Objective(objective)
			if !obj.Valid() {
				return fmt.Errorf("unrecognized --objective %q", objective)
			}

			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			calc := kpi.NewCalculator(s, newPriceSource(nil), log)
			mgr := lifecycle.NewManager(s, calc, log)

			p := &domain.Programacion{
				Anio:      anio,
				Semana:    semana,
				Objetivo:  obj,
				Config:    cfg,
				CreatedBy: createdBy,
			}
			created, err := mgr.CreateProgramacion(ctx, p)
			if err != nil {
				return err
			}
			fmt.Println(created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a ConfigSnapshot JSON document (required)")
	cmd.Flags().IntVar(&anio, "anio", 0, "ISO year (required)")
	cmd.Flags().IntVar(&semana, "semana", 0, "ISO week 1..53 (required)")
	cmd.Flags().StringVar(&objective, "objective", string(domain.MinimizeMakespan), "MINIMIZE_MAKESPAN | MAXIMIZE_UTILIZATION | MINIMIZE_COST_PROXY | BALANCED")
	cmd.Flags().StringVar(&createdBy, "created-by", "", "actor creating this programación")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("anio")
	_ = cmd.MarkFlagRequired("semana")
	return cmd
}

func newProgListCmd() *cobra.Command {
	var anio, semana int
	var estado string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List programaciones, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			filter := progFilter(cmd, anio, semana, estado)
			progs, err := s.ListProgramaciones(ctx, filter)
			if err != nil {
				return err
			}
			sort.Slice(progs, func(i, j int) bool { return progs[i].ID < progs[j].ID })
			for _, p := range progs {
				fmt.Printf("%-20s anio=%-5d semana=%-3d estado=%-14s objetivo=%-22s makespan=%d\n",
					p.ID, p.Anio, p.Semana, p.Estado, p.Objetivo, p.MakespanMin)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&anio, "anio", 0, "filter by year")
	cmd.Flags().IntVar(&semana, "semana", 0, "filter by week")
	cmd.Flags().StringVar(&estado, "estado", "", "filter by state")
	return cmd
}

func newProgGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a programación",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			p, err := s.GetProgramacion(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("id:        %s\n", p.ID)
			fmt.Printf("anio:      %d\n", p.Anio)
			fmt.Printf("semana:    %d\n", p.Semana)
			fmt.Printf("estado:    %s\n", p.Estado)
			fmt.Printf("objetivo:  %s\n", p.Objetivo)
			fmt.Printf("tareas:    %d\n", p.TareasCount)
			fmt.Printf("trabajos:  %d\n", p.TrabajosCount)
			fmt.Printf("makespan:  %d min\n", p.MakespanMin)
			fmt.Printf("created_by: %s at %s\n", p.CreatedBy, p.CreatedAt)
			fmt.Printf("updated_at: %s\n", p.UpdatedAt)
			return nil
		},
	}
}

func newProgTransitionCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "transition <id> <target-estado>",
		Short: "Transition a programación to a new lifecycle state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			p, err := s.GetProgramacion(ctx, args[0])
			if err != nil {
				return err
			}
			machines, err := catalogMachinesFor(ctx, p)
			if err != nil {
				return err
			}
			calc := kpi.NewCalculator(s, newPriceSource(machines), log)
			mgr := lifecycle.NewManager(s, calc, log)

			target := domain.Estado(args[1])
			if err := mgr.Transition(ctx, args[0], target, actor); err != nil {
				return err
			}
			fmt.Printf("%s -> %s\n", args[0], target)

			if collector := newMetricsCollector(ctx); collector != nil {
				if err := collector.PublishTransition(ctx, string(target), true); err != nil {
					log.Warnf("failed to publish transition metric: %v", err)
				}
				if target == domain.EstadoCompletada {
					publishVarianceAlarm(ctx, collector, s, args[0], p.MakespanMin)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "actor performing the transition")
	return cmd
}

func newProgDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a programación (cascades to its planned tasks, executions and metric)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			mgr := lifecycle.NewManager(s, nil, log)
			if err := mgr.Delete(ctx, args[0], force); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "required to delete a planificada programación")
	return cmd
}

// progFilter builds a store.ProgramacionFilter from flags the caller
// actually set, leaving the rest unfiltered.
func progFilter(cmd *cobra.Command, anio, semana int, estado string) store.ProgramacionFilter {
	var filter store.ProgramacionFilter
	if cmd.Flags().Changed("anio") {
		filter.Anio = &anio
	}
	if cmd.Flags().Changed("semana") {
		filter.Semana = &semana
	}
	if estado != "" {
		e := domain.Estado(estado)
		filter.Estado = &e
	}
	return filter
}

// catalogMachinesFor returns the current in-process (or --catalog-file)
// machine catalog, used to seed the cost model for commands that need one
// but were not given a jobs/catalog file directly.
func catalogMachinesFor(ctx context.Context, _ *domain.Programacion) ([]*domain.Machine, error) {
	cs, err := catalogStore(ctx)
	if err != nil {
		return nil, err
	}
	return cs.ListMachines(ctx)
}

// publishVarianceAlarm reports the just-completed programación's real
// makespan overrun against its planned makespan, once KPI computation
// (triggered by the Transition call that preceded this) has had a chance
// to persist a Metric.
func publishVarianceAlarm(ctx context.Context, collector *monitoring.Collector, s store.Store, progID string, plannedMakespan int) {
	if plannedMakespan <= 0 {
		return
	}
	m, err := s.GetMetric(ctx, progID)
	if err != nil {
		return
	}
	pctOver := float64(m.MakespanRealMin-plannedMakespan) / float64(plannedMakespan) * 100
	if err := collector.PublishScheduleVarianceAlarm(ctx, progID, pctOver); err != nil {
		log.Warnf("failed to publish variance alarm metric: %v", err)
	}
}
