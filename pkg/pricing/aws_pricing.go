package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PriceSource is the port CostModel and LiveLookup both satisfy: given a
// machine id, return its cost per hour. The KPI calculator's cost
// enrichments consume this interface rather than CostModel directly, so a
// live lookup can stand in for the static table without the caller
// changing. The scheduling engine does not use it: its
// MINIMIZE_COST_PROXY objective reads the plain rate map in
// scheduling.Input.MachineCost.
type PriceSource interface {
	HourlyRate(machineID string) float64
}

// liveRate is the JSON shape returned by the rate endpoint.
type liveRate struct {
	MachineID   string  `json:"machine_id"`
	HourlyUSD   float64 `json:"hourly_usd"`
	LastUpdated string  `json:"last_updated"`
}

// LiveLookup fetches a machine's cost-per-hour from an external rate
// endpoint (e.g. an ERP cost-center API), caching results in memory and
// falling back to a static CostModel when the endpoint is unreachable or
// has no entry for the machine: hit an endpoint, fall back to a
// hardcoded table (see DESIGN.md).
type LiveLookup struct {
	client   *http.Client
	endpoint string // base URL; machine id is appended as a path segment
	fallback PriceSource
	cache    map[string]float64
}

// NewLiveLookup creates a LiveLookup that queries endpoint for rates not
// already cached, using fallback (typically a CostModel) when the
// endpoint errors or omits the machine.
func NewLiveLookup(endpoint string, fallback PriceSource) *LiveLookup {
	return &LiveLookup{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
		fallback: fallback,
		cache:    make(map[string]float64),
	}
}

// HourlyRate satisfies PriceSource: cache, then live fetch, then fallback.
func (l *LiveLookup) HourlyRate(machineID string) float64 {
	if rate, ok := l.cache[machineID]; ok {
		return rate
	}
	rate, err := l.fetch(context.Background(), machineID)
	if err != nil {
		if l.fallback != nil {
			return l.fallback.HourlyRate(machineID)
		}
		return 0
	}
	l.cache[machineID] = rate
	return rate
}

func (l *LiveLookup) fetch(ctx context.Context, machineID string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", l.endpoint, machineID), nil)
	if err != nil {
		return 0, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rate lookup for %s: %w", machineID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate lookup for %s: status %d", machineID, resp.StatusCode)
	}

	var rate liveRate
	if err := json.NewDecoder(resp.Body).Decode(&rate); err != nil {
		return 0, fmt.Errorf("decode rate for %s: %w", machineID, err)
	}
	return rate.HourlyUSD, nil
}
