// Package pricing provides the per-machine hourly cost table that backs
// the MINIMIZE_COST_PROXY scheduling objective and the cost enrichments on
// a completed week's Metric, in the shape of an on-demand pricing table:
// a machine id plays the role an instance type would, and
// CostModel.HourlyRate plays the role a pricing service's rate lookup
// would, retargeted at a factory's machine catalog.
package pricing

import "fmt"

// CostModel is a static per-machine cost-per-hour table, with an optional
// default rate for machines not explicitly listed.
type CostModel struct {
	ratesPerHour map[string]float64
	defaultRate  float64
}

// NewCostModel builds a CostModel from an explicit rate table. defaultRate
// applies to any machine id not present in rates.
func NewCostModel(rates map[string]float64, defaultRate float64) *CostModel {
	cp := make(map[string]float64, len(rates))
	for k, v := range rates {
		cp[k] = v
	}
	return &CostModel{ratesPerHour: cp, defaultRate: defaultRate}
}

// HourlyRate returns the machine's cost per hour, falling back to the
// model's default rate for unlisted machines.
func (c *CostModel) HourlyRate(machineID string) float64 {
	if rate, ok := c.ratesPerHour[machineID]; ok {
		return rate
	}
	return c.defaultRate
}

// RatesByMachine returns the full per-machine rate map the scheduling
// engine needs for its MINIMIZE_COST_PROXY weighting, expanded to cover
// every machine id in the catalog (falling back to the default rate).
func (c *CostModel) RatesByMachine(machineIDs []string) map[string]float64 {
	out := make(map[string]float64, len(machineIDs))
	for _, id := range machineIDs {
		out[id] = c.HourlyRate(id)
	}
	return out
}

// String renders a human-readable summary, useful for CLI introspection of
// the currently configured cost table.
func (c *CostModel) String() string {
	return fmt.Sprintf("CostModel(%d explicit rates, default=%.4f/hr)", len(c.ratesPerHour), c.defaultRate)
}
