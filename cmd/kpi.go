package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/kpi"
)

func newKPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kpi",
		Short: "Compute and inspect weekly KPIs",
	}
	cmd.AddCommand(newKPIComputeCmd())
	cmd.AddCommand(newKPIGetCmd())
	cmd.AddCommand(newKPICompareCmd())
	return cmd
}

func newKPIComputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compute <programacion-id>",
		Short: "Compute and persist the KPI metric for a programación",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			machines, err := catalogMachinesFor(ctx, nil)
			if err != nil {
				return err
			}
			calc := kpi.NewCalculator(s, newPriceSource(machines), log)
			m, err := calc.Compute(ctx, args[0])
			if err != nil {
				return err
			}
			printMetric(m)

			if collector := newMetricsCollector(ctx); collector != nil {
				if err := collector.PublishKPI(ctx, args[0], m.OEE, m.OTIF, m.UtilizacionGlobal); err != nil {
					log.Warnf("failed to publish KPI metric: %v", err)
				}
			}
			return nil
		},
	}
}

func newKPIGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <programacion-id>",
		Short: "Show the last computed KPI metric for a programación",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			m, err := s.GetMetric(ctx, args[0])
			if err != nil {
				return err
			}
			printMetric(m)
			return nil
		},
	}
}

func newKPICompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <prior-programacion-id> <current-programacion-id>",
		Short: "Compare the KPI metrics of two weeks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newStore(ctx)
			if err != nil {
				return err
			}
			prior, err := s.GetMetric(ctx, args[0])
			if err != nil {
				return err
			}
			current, err := s.GetMetric(ctx, args[1])
			if err != nil {
				return err
			}
			cmp := kpi.CompareWeeks(prior, current)
			fmt.Printf("%s -> %s\n", cmp.PriorProgramacionID, cmp.CurrentProgramacionID)
			fmt.Printf("  OEE:          %+.1f\n", cmp.DeltaOEE)
			fmt.Printf("  Availability: %+.1f\n", cmp.DeltaAvailability)
			fmt.Printf("  Performance:  %+.1f\n", cmp.DeltaPerformance)
			fmt.Printf("  Quality:      %+.1f\n", cmp.DeltaQuality)
			fmt.Printf("  OTIF:         %+.1f\n", cmp.DeltaOTIF)
			fmt.Printf("  Utilizacion:  %+.1f\n", cmp.DeltaUtilizacionGlobal)
			return nil
		},
	}
}

func printMetric(m *domain.Metric) {
	fmt.Printf("programacion:   %s\n", m.ProgramacionID)
	fmt.Printf("availability:   %.1f\n", m.Disponibilidad)
	fmt.Printf("performance:    %.1f\n", m.Rendimiento)
	fmt.Printf("quality:        %.1f\n", m.Calidad)
	fmt.Printf("oee:            %.1f\n", m.OEE)
	fmt.Printf("otif:           %.1f (on_time=%d late=%d tolerance=%dmin)\n", m.OTIF, m.TareasATiempo, m.TareasRetrasadas, m.ToleranciaMin)
	fmt.Printf("utilizacion:    %.1f\n", m.UtilizacionGlobal)
	if m.MaquinaCuelloBotella != "" {
		fmt.Printf("bottleneck:     %s\n", m.MaquinaCuelloBotella)
	}
	fmt.Printf("makespan_real:  %d min\n", m.MakespanRealMin)
	if m.CostoTotalEstimado > 0 {
		fmt.Printf("cost_total:     %.2f\n", m.CostoTotalEstimado)
	}

	sort.Slice(m.UtilizacionPorMaquina, func(i, j int) bool {
		return m.UtilizacionPorMaquina[i].MachineID < m.UtilizacionPorMaquina[j].MachineID
	})
	for _, u := range m.UtilizacionPorMaquina {
		fmt.Printf("  %-12s productive=%-5d setup=%-5d utilization=%.1f\n", u.MachineID, u.ProductiveMin, u.SetupMin, u.UtilizationPct)
	}
	for _, d := range m.DeviationsByCategory {
		fmt.Printf("  problem[%s]=%d\n", d.Category, d.Count)
	}
}
