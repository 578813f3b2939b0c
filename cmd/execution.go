package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prodsched/prodsched/pkg/execution"
)

const executionTimeLayout = time.RFC3339

func newExecutionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execution",
		Short: "Record and maintain real execution data against planned tasks",
	}
	cmd.AddCommand(newExecutionRegisterCmd())
	cmd.AddCommand(newExecutionUpdateCmd())
	cmd.AddCommand(newExecutionDeleteCmd())
	cmd.AddCommand(newExecutionCompleteCmd())
	return cmd
}

func newExecutionRegisterCmd() *cobra.Command {
	var plannedTaskID, inicio, fin, maquina, operador, problemas, notas, createdBy string
	var tiempoParadas int

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the real execution of a planned task",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			inicioT, err := time.Parse(executionTimeLayout, inicio)
			if err != nil {
				return fmt.Errorf("parse --inicio: %w", err)
			}
			finT, err := time.Parse(executionTimeLayout, fin)
			if err != nil {
				return fmt.Errorf("parse --fin: %w", err)
			}

			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			rec := execution.NewRecorder(s, log)
			exec, err := rec.Register(ctx, execution.RegisterInput{
				PlannedTaskID: plannedTaskID,
				InicioReal:    inicioT,
				FinReal:       finT,
				MaquinaUsada:  maquina,
				Operador:      operador,
				Problemas:     problemas,
				TiempoParadas: tiempoParadas,
				Notas:         notas,
				CreatedBy:     createdBy,
			})
			if err != nil {
				return err
			}
			fmt.Println(exec.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&plannedTaskID, "task", "", "planned task id (required)")
	cmd.Flags().StringVar(&inicio, "inicio", "", "actual start, RFC3339 (required)")
	cmd.Flags().StringVar(&fin, "fin", "", "actual end, RFC3339 (required)")
	cmd.Flags().StringVar(&maquina, "maquina", "", "machine actually used, if different from planned")
	cmd.Flags().StringVar(&operador, "operador", "", "operator who ran the task")
	cmd.Flags().StringVar(&problemas, "problemas", "", "free-text problem description, if any")
	cmd.Flags().IntVar(&tiempoParadas, "paradas", 0, "stoppage minutes within the window")
	cmd.Flags().StringVar(&notas, "notas", "", "free-text notes")
	cmd.Flags().StringVar(&createdBy, "created-by", "", "actor recording this execution")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("inicio")
	_ = cmd.MarkFlagRequired("fin")
	return cmd
}

func newExecutionUpdateCmd() *cobra.Command {
	var inicio, fin, maquina, operador, problemas, notas string
	var tiempoParadas int

	cmd := &cobra.Command{
		Use:   "update <execution-id>",
		Short: "Apply a partial update to a recorded execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := execution.UpdateInput{}
			if cmd.Flags().Changed("inicio") {
				t, err := time.Parse(executionTimeLayout, inicio)
				if err != nil {
					return fmt.Errorf("parse --inicio: %w", err)
				}
				in.InicioReal = &t
			}
			if cmd.Flags().Changed("fin") {
				t, err := time.Parse(executionTimeLayout, fin)
				if err != nil {
					return fmt.Errorf("parse --fin: %w", err)
				}
				in.FinReal = &t
			}
			if cmd.Flags().Changed("paradas") {
				in.TiempoParadas = &tiempoParadas
			}
			if cmd.Flags().Changed("maquina") {
				in.MaquinaUsada = &maquina
			}
			if cmd.Flags().Changed("operador") {
				in.Operador = &operador
			}
			if cmd.Flags().Changed("problemas") {
				in.Problemas = &problemas
			}
			if cmd.Flags().Changed("notas") {
				in.Notas = &notas
			}

			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			rec := execution.NewRecorder(s, log)
			exec, err := rec.Update(ctx, args[0], in)
			if err != nil {
				return err
			}
			fmt.Printf("updated %s (estado=%s)\n", exec.ID, exec.Estado)
			return nil
		},
	}
	cmd.Flags().StringVar(&inicio, "inicio", "", "actual start, RFC3339")
	cmd.Flags().StringVar(&fin, "fin", "", "actual end, RFC3339")
	cmd.Flags().StringVar(&maquina, "maquina", "", "machine actually used")
	cmd.Flags().StringVar(&operador, "operador", "", "operator who ran the task")
	cmd.Flags().StringVar(&problemas, "problemas", "", "free-text problem description")
	cmd.Flags().IntVar(&tiempoParadas, "paradas", 0, "stoppage minutes within the window")
	cmd.Flags().StringVar(&notas, "notas", "", "free-text notes")
	return cmd
}

func newExecutionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <execution-id>",
		Short: "Delete a recorded execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			rec := execution.NewRecorder(s, log)
			if err := rec.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func newExecutionCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <programacion-id>",
		Short: "Report whether every planned task has a recorded execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			rec := execution.NewRecorder(s, log)
			complete, err := rec.IsComplete(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(complete)
			return nil
		},
	}
}
