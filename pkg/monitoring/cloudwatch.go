// Package monitoring publishes operational metrics for the scheduling and
// lifecycle operations of this module to CloudWatch, in a namespace and
// default-dimension shape common to operational metrics collectors. The
// UI and dashboards that would consume these metrics stay out of scope;
// this package is the observability surface an ambient stack carries
// regardless.
package monitoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Monitoring errors.
var (
	ErrInvalidMetricValue = errors.New("metric value is invalid")
	ErrMetricNameRequired  = errors.New("metric name is required")
)

// Collector publishes scheduling and lifecycle operational metrics to
// CloudWatch: a namespace, a client, and a set of default dimensions
// applied to every metric.
type Collector struct {
	client            *cloudwatch.Client
	namespace         string
	defaultDimensions []types.Dimension
}

// NewCollector creates a Collector configured for the given region.
func NewCollector(ctx context.Context, region string) (*Collector, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Collector{
		client:    cloudwatch.NewFromConfig(cfg),
		namespace: "ProdSched",
		defaultDimensions: []types.Dimension{
			{Name: aws.String("Project"), Value: aws.String("prodsched")},
			{Name: aws.String("Region"), Value: aws.String(region)},
		},
	}, nil
}

// ScheduleMetrics summarizes one build_and_solve invocation for
// publication.
type ScheduleMetrics struct {
	Objective    string
	Status       string // OPTIMAL | FEASIBLE | INFEASIBLE | TIMEOUT
	SolveTimeSec float64
	MakespanMin  int
	TaskCount    int
}

// PublishScheduleMetrics publishes solve duration, status and makespan for
// a completed build_and_solve call.
func (c *Collector) PublishScheduleMetrics(ctx context.Context, m ScheduleMetrics) error {
	dims := append(append([]types.Dimension{}, c.defaultDimensions...),
		types.Dimension{Name: aws.String("Objective"), Value: aws.String(m.Objective)},
		types.Dimension{Name: aws.String("Status"), Value: aws.String(m.Status)},
	)

	data := []types.MetricDatum{
		{
			MetricName: aws.String("SolveTime"),
			Value:      aws.Float64(m.SolveTimeSec),
			Unit:       types.StandardUnitSeconds,
			Dimensions: dims,
		},
		{
			MetricName: aws.String("Makespan"),
			Value:      aws.Float64(float64(m.MakespanMin)),
			Unit:       types.StandardUnitCount,
			Dimensions: dims,
		},
		{
			MetricName: aws.String("TaskCount"),
			Value:      aws.Float64(float64(m.TaskCount)),
			Unit:       types.StandardUnitCount,
			Dimensions: dims,
		},
	}
	return c.publish(ctx, data)
}

// PublishTransition publishes a single count metric for a lifecycle state
// transition, dimensioned by the target state, so
// that transition volume and rejection rate can be tracked per state.
func (c *Collector) PublishTransition(ctx context.Context, targetState string, ok bool) error {
	status := "rejected"
	if ok {
		status = "accepted"
	}
	dims := append(append([]types.Dimension{}, c.defaultDimensions...),
		types.Dimension{Name: aws.String("TargetState"), Value: aws.String(targetState)},
		types.Dimension{Name: aws.String("Result"), Value: aws.String(status)},
	)
	return c.publish(ctx, []types.MetricDatum{{
		MetricName: aws.String("Transition"),
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
		Dimensions: dims,
	}})
}

// PublishKPI publishes the headline KPI values computed for a completed
// programación, one datum per KPI.
func (c *Collector) PublishKPI(ctx context.Context, progID string, oee, otif, utilizacionGlobal float64) error {
	dims := append(append([]types.Dimension{}, c.defaultDimensions...),
		types.Dimension{Name: aws.String("ProgramacionID"), Value: aws.String(progID)},
	)
	data := []types.MetricDatum{
		{MetricName: aws.String("OEE"), Value: aws.Float64(oee), Unit: types.StandardUnitPercent, Dimensions: dims},
		{MetricName: aws.String("OTIF"), Value: aws.Float64(otif), Unit: types.StandardUnitPercent, Dimensions: dims},
		{MetricName: aws.String("UtilizacionGlobal"), Value: aws.Float64(utilizacionGlobal), Unit: types.StandardUnitPercent, Dimensions: dims},
	}
	return c.publish(ctx, data)
}

// PublishScheduleVarianceAlarm publishes the makespan-vs-plan variance
// metric that an external CloudWatch alarm (out of scope here) would act
// on. pctOver is (makespanReal-makespanPlan)/makespanPlan*100; the caller
// decides the alarm threshold.
func (c *Collector) PublishScheduleVarianceAlarm(ctx context.Context, progID string, pctOver float64) error {
	dims := append(append([]types.Dimension{}, c.defaultDimensions...),
		types.Dimension{Name: aws.String("ProgramacionID"), Value: aws.String(progID)},
	)
	return c.publish(ctx, []types.MetricDatum{{
		MetricName: aws.String("MakespanVariancePct"),
		Value:      aws.Float64(pctOver),
		Unit:       types.StandardUnitPercent,
		Dimensions: dims,
	}})
}

// publish batches metric data to CloudWatch, honoring the 1000-per-call
// PutMetricData limit.
func (c *Collector) publish(ctx context.Context, data []types.MetricDatum) error {
	const maxBatch = 1000
	for start := 0; start < len(data); start += maxBatch {
		end := start + maxBatch
		if end > len(data) {
			end = len(data)
		}
		_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(c.namespace),
			MetricData: data[start:end],
		})
		if err != nil {
			return fmt.Errorf("publish metrics: %w", err)
		}
	}
	return nil
}
