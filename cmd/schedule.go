package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prodsched/prodsched/pkg/calendar"
	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/monitoring"
	"github.com/prodsched/prodsched/pkg/scheduling"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Build and solve a weekly schedule",
	}
	cmd.AddCommand(newScheduleSolveCmd())
	return cmd
}

func newScheduleSolveCmd() *cobra.Command {
	var jobsPath string
	var timeBudget int
	var outputPath string

	cmd := &cobra.Command{
		Use:   "solve <programacion-id>",
		Short: "Solve a programación's jobs and persist the resulting planned tasks",
		Long: `Loads a job/task-template file (as produced by "prodsched catalog import
--jobs-out"), solves it against the programación's configuration snapshot
and machine/operator catalog, verifies the result's hard constraints,
maps it onto the labor-day calendar, and persists the planned tasks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			progID := args[0]

			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			prog, err := s.GetProgramacion(ctx, progID)
			if err != nil {
				return err
			}
			if prog.Estado != domain.EstadoSimulacion {
				return fmt.Errorf("programacion %q is %s; solve only applies while simulacion", progID, prog.Estado)
			}

			var jobDocs []jobDTO
			if err := loadJSON(jobsPath, &jobDocs); err != nil {
				return err
			}
			var tasks []*domain.TaskTemplate
			for _, jd := range jobDocs {
				job, err := jobFromDTO(jd)
				if err != nil {
					return err
				}
				tasks = append(tasks, job.Tasks...)
			}
			if len(tasks) == 0 {
				return fmt.Errorf("no tasks found in %s", jobsPath)
			}

			cs, err := catalogStore(ctx)
			if err != nil {
				return err
			}
			machines, err := cs.ListMachines(ctx)
			if err != nil {
				return err
			}
			if len(machines) == 0 {
				return fmt.Errorf("catalog has no machines; run \"prodsched catalog machine add\" or \"catalog import\" first")
			}
			machineIDs := make([]string, 0, len(machines))
			for _, m := range machines {
				machineIDs = append(machineIDs, m.ID)
			}

			hDay, err := prog.Config.HDay()
			if err != nil {
				return err
			}
			budget := timeBudget
			if budget <= 0 {
				budget = prog.Config.ParametrosOptimizacion.TiempoMaximoResolucion
			}

			input := scheduling.Input{
				Tasks:                  tasks,
				MachineIDs:             machineIDs,
				MachineCost:            ratesByID(machines),
				NumOperators:           prog.Config.Recursos.NumOperadores,
				LaborDays:              prog.Config.HorarioTrabajo.DiasLaborales,
				Objective:              prog.Objetivo,
				HDayMin:                hDay,
				LunchMin:               lunchMinutes(prog.Config),
				TimeBudget:             budget,
				ConsiderSetup:          prog.Config.ParametrosOptimizacion.Restricciones.ConsiderarSetup,
				ConsiderOperatorSkills: prog.Config.ParametrosOptimizacion.Restricciones.ConsiderarHabilidadesOperador,
			}
			if input.ConsiderOperatorSkills {
				ops, err := cs.ListOperators(ctx)
				if err != nil {
					return err
				}
				input.Qualifications = qualificationsByOperatorIndex(ops)
			}

			engine := scheduling.NewEngine()
			result, err := engine.Solve(input)
			if err != nil {
				return fmt.Errorf("solve failed: %w", err)
			}
			fmt.Printf("status=%s objective=%.2f makespan=%d wall_time=%s\n",
				result.Status, result.ObjectiveValue, result.Makespan, result.WallTime)
			if result.Status == scheduling.StatusInfeasible {
				return fmt.Errorf("no feasible schedule found within the time budget")
			}
			if err := scheduling.VerifyResult(input, result); err != nil {
				return fmt.Errorf("solved schedule failed verification: %w", err)
			}

			taskByID := make(map[string]*domain.TaskTemplate, len(tasks))
			for _, t := range tasks {
				taskByID[t.ID] = t
			}
			mapper, err := calendar.NewMapper(prog.Config, hDay)
			if err != nil {
				return err
			}
			planned, err := mapper.Map(progID, taskByID, result.Assignments)
			if err != nil {
				return err
			}
			if err := s.SavePlannedTasks(ctx, progID, planned); err != nil {
				return err
			}

			jobIDs := make(map[string]struct{})
			for _, t := range tasks {
				jobIDs[t.JobID] = struct{}{}
			}
			prog.TrabajosCount = len(jobIDs)
			prog.TareasCount = len(tasks)
			prog.MakespanMin = result.Makespan
			prog.SolverWallTime = result.WallTime
			if err := s.UpdateProgramacion(ctx, prog); err != nil {
				return err
			}

			if outputPath != "" {
				if err := writeJSON(outputPath, planned); err != nil {
					return err
				}
			}

			if collector := newMetricsCollector(ctx); collector != nil {
				publishScheduleMetrics(ctx, collector, prog, result)
			}

			fmt.Printf("persisted %d planned tasks for %s\n", len(planned), progID)
			return nil
		},
	}
	cmd.Flags().StringVar(&jobsPath, "jobs", "", "path to the jobs JSON file (required)")
	cmd.Flags().IntVar(&timeBudget, "time-budget", 0, "solver time budget in seconds (default: the programación's tiempo_maximo_resolucion)")
	cmd.Flags().StringVar(&outputPath, "out", "", "optional path to also write the planned tasks as JSON")
	_ = cmd.MarkFlagRequired("jobs")
	return cmd
}

func ratesByID(machines []*domain.Machine) map[string]float64 {
	out := make(map[string]float64, len(machines))
	for _, m := range machines {
		out[m.ID] = m.CostPerHour
	}
	return out
}

func lunchMinutes(cfg domain.ConfigSnapshot) int {
	lunch := cfg.HorarioTrabajo.DescansoAlmuerzo
	if lunch.Inicio == "" || lunch.Fin == "" {
		return 0
	}
	start, err1 := domain.ParseClock(lunch.Inicio)
	end, err2 := domain.ParseClock(lunch.Fin)
	if err1 != nil || err2 != nil {
		return 0
	}
	return end - start
}

// qualificationsByOperatorIndex maps synthetic "0".."N-1" operator indices
// (the keys scheduling.Input.Qualifications is looked up by) onto the catalog operators'
// qualified machine sets, in catalog order.
func qualificationsByOperatorIndex(operators []*domain.Operator) map[string][]string {
	out := make(map[string][]string, len(operators))
	for i, o := range operators {
		ids := make([]string, 0, len(o.QualifiedMachineIDs))
		for id := range o.QualifiedMachineIDs {
			ids = append(ids, id)
		}
		out[fmt.Sprintf("%d", i)] = ids
	}
	return out
}

func publishScheduleMetrics(ctx context.Context, collector *monitoring.Collector, prog *domain.Programacion, result *scheduling.SolveResult) {
	err := collector.PublishScheduleMetrics(ctx, monitoring.ScheduleMetrics{
		Objective:    string(prog.Objetivo),
		Status:       string(result.Status),
		SolveTimeSec: result.WallTime.Seconds(),
		MakespanMin:  result.Makespan,
		TaskCount:    len(result.Assignments),
	})
	if err != nil {
		log.Warnf("failed to publish schedule metrics: %v", err)
	}
}
