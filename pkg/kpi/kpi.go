// Package kpi implements the KPI calculator: Availability, Performance,
// Quality, OEE, OTIF, per-machine and global Utilization, bottleneck
// detection, and cost/trend enrichments, in the style of a
// DataAggregator's mean/percentile helpers generalized into this
// package's weighted-average and ratio computations.
package kpi

import (
	"context"
	"sort"
	"time"

	"github.com/prodsched/prodsched/pkg/apperr"
	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/logging"
	"github.com/prodsched/prodsched/pkg/pricing"
	"github.com/prodsched/prodsched/pkg/store"
)

// ToleranceMin is OTIF's default "on time" tolerance.
const ToleranceMin = 5

// UtilizationBottleneckThresholdPct is the utilization floor a machine
// must clear, in addition to having the highest productive time, to be
// flagged as the bottleneck.
const UtilizationBottleneckThresholdPct = 85.0

// Calculator computes and caches a programación's Metric.
type Calculator struct {
	store     store.Store
	costModel pricing.PriceSource
	log       *logging.Logger
}

// NewCalculator builds a Calculator. costModel may be nil; cost
// enrichments are then simply omitted from the resulting Metric.
func NewCalculator(s store.Store, costModel pricing.PriceSource, log *logging.Logger) *Calculator {
	if log == nil {
		log = logging.Default()
	}
	return &Calculator{store: s, costModel: costModel, log: log}
}

type taskStats struct {
	task *domain.PlannedTask
	exec *domain.RealExecution

	plannedEffectiveMin int
	realProductiveMin   int
	onTime              bool
	hadProblem          bool
}

// Compute runs the full KPI calculation for progID and stores the result.
// Callers decide when to invoke it (typically once, on transition to
// completada); Calculator itself does not gate on programación state
// beyond needing at least one planned task (executions may be absent).
func (c *Calculator) Compute(ctx context.Context, progID string) (*domain.Metric, error) {
	prog, err := c.store.GetProgramacion(ctx, progID)
	if err != nil {
		return nil, err
	}
	tasks, err := c.store.ListPlannedTasks(ctx, progID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "programacion %q has no planned tasks", progID)
	}
	executions, err := c.store.ListExecutions(ctx, progID)
	if err != nil {
		return nil, err
	}
	execByTask := make(map[string]*domain.RealExecution, len(executions))
	for _, e := range executions {
		execByTask[e.PlannedTaskID] = e
	}

	stats := make([]taskStats, 0, len(tasks))
	for _, t := range tasks {
		e := execByTask[t.ID]
		st := taskStats{task: t, exec: e, plannedEffectiveMin: t.EffectiveMinutes()}
		if e != nil {
			st.realProductiveMin = maxInt(0, e.DuracionReal-e.TiempoParadas)
			st.onTime = absInt(e.DesviacionDuracion) <= ToleranceMin
			st.hadProblem = e.Problemas != ""
		}
		stats = append(stats, st)
	}

	m := &domain.Metric{ProgramacionID: progID, FechaCalculo: time.Now().UTC()}
	m.Disponibilidad = availability(stats)
	m.Rendimiento = performance(stats)
	m.Calidad = quality(stats)
	m.OEE = clamp(m.Disponibilidad*m.Rendimiento*m.Calidad/10000, 0, 100)
	m.OTIF, m.TareasATiempo, m.TareasRetrasadas = otif(stats)
	m.ToleranciaMin = ToleranceMin

	hDay, err := prog.Config.HDay()
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, err, "invalid configuration snapshot for %q", progID)
	}
	laborDays := len(prog.Config.HorarioTrabajo.DiasLaborales)
	m.UtilizacionPorMaquina = utilizationByMachine(stats, laborDays, hDay)
	m.UtilizacionGlobal = globalUtilization(m.UtilizacionPorMaquina)
	m.MaquinaCuelloBotella = bottleneck(m.UtilizacionPorMaquina)
	m.MakespanRealMin = makespanReal(stats)
	m.DeviationsByCategory = deviationsByCategory(stats)

	if c.costModel != nil && (prog.Objetivo == domain.MinimizeCostProxy || prog.Objetivo == domain.Balanced) {
		m.CostoPorMaquina, m.CostoTotalEstimado = costReport(stats, c.costModel)
	}

	if err := c.store.SaveMetric(ctx, m); err != nil {
		return nil, err
	}
	c.log.Infof("computed KPIs for %s: OEE=%.1f OTIF=%.1f utilizacion=%.1f", progID, m.OEE, m.OTIF, m.UtilizacionGlobal)
	return m, nil
}

func availability(stats []taskStats) float64 {
	plannedTotal, paradasTotal := 0, 0
	for _, s := range stats {
		if s.exec == nil {
			continue
		}
		plannedTotal += s.plannedEffectiveMin
		paradasTotal += s.exec.TiempoParadas
	}
	if plannedTotal == 0 {
		return 0
	}
	return clamp(float64(plannedTotal-paradasTotal)/float64(plannedTotal)*100, 0, 100)
}

func performance(stats []taskStats) float64 {
	plannedTotal, realTotal := 0, 0
	for _, s := range stats {
		if s.exec == nil {
			continue
		}
		plannedTotal += s.plannedEffectiveMin
		realTotal += s.exec.DuracionReal
	}
	if realTotal == 0 {
		return 0
	}
	return float64(plannedTotal) / float64(realTotal) * 100
}

func quality(stats []taskStats) float64 {
	withExec := 0
	withoutProblems := 0
	for _, s := range stats {
		if s.exec == nil {
			continue
		}
		withExec++
		if !s.hadProblem {
			withoutProblems++
		}
	}
	if withExec == 0 {
		return 0
	}
	return float64(withoutProblems) / float64(withExec) * 100
}

func otif(stats []taskStats) (pct float64, onTime, late int) {
	total := 0
	for _, s := range stats {
		if s.exec == nil {
			continue
		}
		total++
		if s.onTime {
			onTime++
		} else {
			late++
		}
	}
	if total == 0 {
		return 0, 0, 0
	}
	return float64(onTime) / float64(total) * 100, onTime, late
}

func utilizationByMachine(stats []taskStats, laborDays, hDay int) []domain.MachineUtilization {
	capacity := float64(laborDays * hDay)
	byMachine := make(map[string]*domain.MachineUtilization)
	var order []string
	for _, s := range stats {
		if s.exec == nil {
			continue
		}
		machineID := s.exec.MaquinaUsada
		if machineID == "" {
			machineID = s.task.MachineID
		}
		agg, ok := byMachine[machineID]
		if !ok {
			agg = &domain.MachineUtilization{MachineID: machineID}
			byMachine[machineID] = agg
			order = append(order, machineID)
		}
		agg.ProductiveMin += s.realProductiveMin
		agg.SetupMin += s.task.SetupMin
	}
	sort.Strings(order)
	out := make([]domain.MachineUtilization, 0, len(order))
	for _, id := range order {
		agg := byMachine[id]
		if capacity > 0 {
			agg.UtilizationPct = float64(agg.ProductiveMin+agg.SetupMin) / capacity * 100
		}
		out = append(out, *agg)
	}
	return out
}

func globalUtilization(byMachine []domain.MachineUtilization) float64 {
	totalProductive := 0.0
	weighted := 0.0
	for _, m := range byMachine {
		totalProductive += float64(m.ProductiveMin)
		weighted += float64(m.ProductiveMin) * m.UtilizationPct
	}
	if totalProductive == 0 {
		return 0
	}
	return weighted / totalProductive
}

func bottleneck(byMachine []domain.MachineUtilization) string {
	best := ""
	bestProductive := -1
	for _, m := range byMachine {
		if m.UtilizationPct <= UtilizationBottleneckThresholdPct {
			continue
		}
		if m.ProductiveMin > bestProductive {
			bestProductive = m.ProductiveMin
			best = m.MachineID
		}
	}
	return best
}

func makespanReal(stats []taskStats) int {
	var earliest, latest time.Time
	found := false
	for _, s := range stats {
		if s.exec == nil {
			continue
		}
		if !found || s.exec.InicioReal.Before(earliest) {
			earliest = s.exec.InicioReal
		}
		if !found || s.exec.FinReal.After(latest) {
			latest = s.exec.FinReal
		}
		found = true
	}
	if !found {
		return 0
	}
	return int(latest.Sub(earliest) / time.Minute)
}

func deviationsByCategory(stats []taskStats) []domain.DeviationCategoryCount {
	counts := make(map[domain.ProblemCategory]int)
	for _, s := range stats {
		if s.exec == nil {
			continue
		}
		counts[s.exec.ProblemCategory]++
	}
	var order []domain.ProblemCategory
	for cat := range counts {
		order = append(order, cat)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]domain.DeviationCategoryCount, 0, len(order))
	for _, cat := range order {
		out = append(out, domain.DeviationCategoryCount{Category: cat, Count: counts[cat]})
	}
	return out
}

func costReport(stats []taskStats, model pricing.PriceSource) (map[string]float64, float64) {
	byMachine := make(map[string]float64)
	total := 0.0
	for _, s := range stats {
		if s.exec == nil {
			continue
		}
		machineID := s.exec.MaquinaUsada
		if machineID == "" {
			machineID = s.task.MachineID
		}
		hours := float64(s.realProductiveMin) / 60.0
		cost := hours * model.HourlyRate(machineID)
		byMachine[machineID] += cost
		total += cost
	}
	return byMachine, total
}

// CompareWeeks computes the trend delta between two consecutive weeks'
// metrics (see DESIGN.md).
func CompareWeeks(prior, current *domain.Metric) domain.WeekComparison {
	return domain.WeekComparison{
		PriorProgramacionID:   prior.ProgramacionID,
		CurrentProgramacionID: current.ProgramacionID,
		DeltaOEE:              current.OEE - prior.OEE,
		DeltaAvailability:     current.Disponibilidad - prior.Disponibilidad,
		DeltaPerformance:      current.Rendimiento - prior.Rendimiento,
		DeltaQuality:          current.Calidad - prior.Calidad,
		DeltaOTIF:             current.OTIF - prior.OTIF,
		DeltaUtilizacionGlobal: current.UtilizacionGlobal - prior.UtilizacionGlobal,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
