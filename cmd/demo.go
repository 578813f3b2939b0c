package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prodsched/prodsched/pkg/calendar"
	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/execution"
	"github.com/prodsched/prodsched/pkg/kpi"
	"github.com/prodsched/prodsched/pkg/lifecycle"
	"github.com/prodsched/prodsched/pkg/scheduling"
)

// newDemoCmd runs the whole pipeline end to end in one process: it builds
// a small catalog and job set in memory, solves, maps, walks the
// programación through every lifecycle state and records executions for
// every planned task, printing the resulting KPIs. Separate CLI commands
// against --store=memory don't share state across process invocations, so
// this is the one-shot way to see the whole system run.
func newDemoCmd() *cobra.Command {
	var anio, semana int
	var objective string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run catalog setup, scheduling, lifecycle and KPI computation in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			obj := domain.Objective(objective)
			if !obj.Valid() {
				return fmt.Errorf("unrecognized --objective %q", objective)
			}

			machines := []*domain.Machine{
				{ID: "M1", Name: "Lathe 1", DefaultSetup: 10, CostPerHour: 45},
				{ID: "M2", Name: "Mill 1", DefaultSetup: 15, CostPerHour: 60},
			}
			operators := []*domain.Operator{
				domain.NewOperator("OP1", "Alice", []string{"M1", "M2"}),
				domain.NewOperator("OP2", "Bob", []string{"M1"}),
			}

			cs, err := catalogStore(ctx)
			if err != nil {
				return err
			}
			for _, m := range machines {
				if err := cs.UpsertMachine(ctx, m); err != nil {
					return err
				}
			}
			for _, o := range operators {
				if err := cs.UpsertOperator(ctx, o); err != nil {
					return err
				}
			}

			job := &domain.Job{ID: "J1", Name: "Bracket run", Tasks: []*domain.TaskTemplate{
				{ID: "T1", JobID: "J1", Name: "Cut", DurationMin: 90, SetupMin: 10, MachineSpec: domain.SingleMachine("M1"), Orden: 1},
				{ID: "T2", JobID: "J1", Name: "Mill", DurationMin: 120, SetupMin: 15, MachineSpec: domain.SingleMachine("M2"), Orden: 2},
				{ID: "T3", JobID: "J1", Name: "Finish", DurationMin: 60, SetupMin: 5, MachineSpec: domain.AnyMachine(), Orden: 3},
			}}
			if err := domain.ValidateJob(job); err != nil {
				return err
			}

			cfg := domain.ConfigSnapshot{
				HorarioTrabajo: domain.HorarioTrabajo{
					Inicio:           "08:00",
					Fin:              "17:00",
					DescansoAlmuerzo: domain.DescansoAlmuerzo{Inicio: "12:00", Fin: "13:00"},
					DiasLaborales:    []string{"lunes", "martes", "miercoles", "jueves", "viernes"},
				},
				Recursos: domain.Recursos{NumMaquinas: len(machines), NumOperadores: len(operators)},
				ParametrosOptimizacion: domain.ParametrosOptimizacion{
					TiempoMaximoResolucion: 10,
					Objetivo:               obj,
					Restricciones:          domain.Restricciones{ConsiderarSetup: true, ConsiderarHabilidadesOperador: true},
				},
			}

			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			priceSource := newPriceSource(machines)
			calc := kpi.NewCalculator(s, priceSource, log)
			lifeMgr := lifecycle.NewManager(s, calc, log)
			rec := execution.NewRecorder(s, log)

			prog, err := lifeMgr.CreateProgramacion(ctx, &domain.Programacion{
				Anio: anio, Semana: semana, Objetivo: obj, Config: cfg, CreatedBy: "demo",
			})
			if err != nil {
				return err
			}
			fmt.Printf("created %s\n", prog.ID)

			hDay, err := cfg.HDay()
			if err != nil {
				return err
			}
			qualifications := qualificationsByOperatorIndex(operators)
			input := scheduling.Input{
				Tasks:                  job.Tasks,
				MachineIDs:             []string{"M1", "M2"},
				MachineCost:            ratesByID(machines),
				NumOperators:           len(operators),
				LaborDays:              cfg.HorarioTrabajo.DiasLaborales,
				Objective:              obj,
				HDayMin:                hDay,
				LunchMin:               lunchMinutes(cfg),
				TimeBudget:             cfg.ParametrosOptimizacion.TiempoMaximoResolucion,
				ConsiderSetup:          true,
				ConsiderOperatorSkills: true,
				Qualifications:         qualifications,
			}
			result, err := scheduling.NewEngine().Solve(input)
			if err != nil {
				return fmt.Errorf("solve failed: %w", err)
			}
			fmt.Printf("solved status=%s makespan=%d\n", result.Status, result.Makespan)
			if result.Status == scheduling.StatusInfeasible {
				return fmt.Errorf("no feasible schedule found")
			}
			if err := scheduling.VerifyResult(input, result); err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}

			taskByID := make(map[string]*domain.TaskTemplate, len(job.Tasks))
			for _, t := range job.Tasks {
				taskByID[t.ID] = t
			}
			mapper, err := calendar.NewMapper(cfg, hDay)
			if err != nil {
				return err
			}
			planned, err := mapper.Map(prog.ID, taskByID, result.Assignments)
			if err != nil {
				return err
			}
			if err := s.SavePlannedTasks(ctx, prog.ID, planned); err != nil {
				return err
			}
			prog.TrabajosCount = 1
			prog.TareasCount = len(job.Tasks)
			prog.MakespanMin = result.Makespan
			prog.SolverWallTime = result.WallTime
			if err := s.UpdateProgramacion(ctx, prog); err != nil {
				return err
			}
			fmt.Printf("mapped %d planned tasks onto the calendar\n", len(planned))

			if err := lifeMgr.Transition(ctx, prog.ID, domain.EstadoPlanificada, "demo"); err != nil {
				return err
			}
			if err := lifeMgr.Transition(ctx, prog.ID, domain.EstadoEnEjecucion, "demo"); err != nil {
				return err
			}
			fmt.Println("transitioned to en_ejecucion")

			for _, t := range planned {
				plannedInicio, err := domain.PlannedDateTime(prog.Anio, prog.Semana, t.DiaSemana, t.InicioHora)
				if err != nil {
					return err
				}
				plannedFin, err := domain.PlannedDateTime(prog.Anio, prog.Semana, t.DiaSemana, t.FinHora)
				if err != nil {
					return err
				}
				_, err = rec.Register(ctx, execution.RegisterInput{
					PlannedTaskID: t.ID,
					InicioReal:    plannedInicio,
					FinReal:       plannedFin.Add(2 * time.Minute),
					MaquinaUsada:  t.MachineID,
					Operador:      t.OperatorID,
					CreatedBy:     "demo",
				})
				if err != nil {
					return err
				}
			}
			complete, err := rec.IsComplete(ctx, prog.ID)
			if err != nil {
				return err
			}
			fmt.Printf("recorded executions for %d tasks, complete=%v\n", len(planned), complete)

			if err := lifeMgr.Transition(ctx, prog.ID, domain.EstadoCompletada, "demo"); err != nil {
				return err
			}
			fmt.Println("transitioned to completada, KPIs computed")

			m, err := s.GetMetric(ctx, prog.ID)
			if err != nil {
				return err
			}
			printMetric(m)
			return nil
		},
	}
	cmd.Flags().IntVar(&anio, "anio", time.Now().Year(), "ISO year")
	cmd.Flags().IntVar(&semana, "semana", 1, "ISO week")
	cmd.Flags().StringVar(&objective, "objective", string(domain.MinimizeMakespan), "MINIMIZE_MAKESPAN | MAXIMIZE_UTILIZATION | MINIMIZE_COST_PROXY | BALANCED")
	return cmd
}
