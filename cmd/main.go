// Package main provides the prodsched command-line interface: catalog
// management, weekly scheduling, programación lifecycle transitions,
// execution recording and KPI computation, backed by either an in-process
// store or a durable S3 store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/logging"
	"github.com/prodsched/prodsched/pkg/monitoring"
	"github.com/prodsched/prodsched/pkg/pricing"
	"github.com/prodsched/prodsched/pkg/store"
)

var (
	flagStoreKind      string
	flagS3Bucket       string
	flagS3Prefix       string
	flagS3StorageClass string
	flagRegion         string
	flagPriceEndpoint  string
	flagMetrics        bool
)

var log = logging.Default()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "prodsched",
		Short: "Weekly factory production scheduler",
		Long: `prodsched builds and solves the weekly production schedule for a factory
floor: jobs made of ordered tasks are assigned start times, machines and
operators under precedence, no-overlap and eligibility constraints, then
mapped onto a labor-day calendar, tracked through a programación's
lifecycle, and scored against real execution data once the week runs.`,
	}

	root.PersistentFlags().StringVar(&flagStoreKind, "store", "memory", "persistence backend: memory or s3")
	root.PersistentFlags().StringVar(&flagS3Bucket, "s3-bucket", "", "S3 bucket name (required when --store=s3)")
	root.PersistentFlags().StringVar(&flagS3Prefix, "s3-prefix", "prodsched/", "S3 key prefix")
	root.PersistentFlags().StringVar(&flagS3StorageClass, "s3-storage-class", "STANDARD", "S3 storage class")
	root.PersistentFlags().StringVar(&flagRegion, "region", "us-east-1", "AWS region for S3 and CloudWatch")
	root.PersistentFlags().StringVar(&flagPriceEndpoint, "price-endpoint", "", "live rate-lookup endpoint; falls back to the static cost table when unset or unreachable")
	root.PersistentFlags().BoolVar(&flagMetrics, "metrics", false, "publish operational metrics to CloudWatch")

	root.AddCommand(newCatalogCmd())
	root.AddCommand(newProgramacionCmd())
	root.AddCommand(newScheduleCmd())
	root.AddCommand(newExecutionCmd())
	root.AddCommand(newKPICmd())
	root.AddCommand(newDemoCmd())

	return root
}

// memoryStoreSingleton backs --store=memory across every subcommand run
// within this process. Separate process invocations each start with an
// empty store; --store=s3 is what durable, cross-invocation usage needs.
var memoryStoreSingleton = store.NewMemoryStore()

// memoryCatalogSingleton backs catalog commands the same way when no
// --catalog-file is given.
var memoryCatalogSingleton = store.NewMemoryCatalogStore()

func newStore(ctx context.Context) (store.Store, error) {
	switch flagStoreKind {
	case "", "memory":
		return memoryStoreSingleton, nil
	case "s3":
		if flagS3Bucket == "" {
			return nil, fmt.Errorf("--s3-bucket is required when --store=s3")
		}
		return store.NewS3Store(ctx, store.S3Config{
			BucketName:    flagS3Bucket,
			KeyPrefix:     flagS3Prefix,
			StorageClass:  flagS3StorageClass,
			RetryAttempts: 3,
		}, flagRegion)
	default:
		return nil, fmt.Errorf("unrecognized --store %q (want memory or s3)", flagStoreKind)
	}
}

// newPriceSource builds the PriceSource the KPI calculator uses, seeded from the machine catalog's cost_hour figures and
// optionally backed by a live rate endpoint.
func newPriceSource(machines []*domain.Machine) pricing.PriceSource {
	rates := make(map[string]float64, len(machines))
	for _, m := range machines {
		rates[m.ID] = m.CostPerHour
	}
	costModel := pricing.NewCostModel(rates, 0)
	if flagPriceEndpoint == "" {
		return costModel
	}
	return pricing.NewLiveLookup(flagPriceEndpoint, costModel)
}

func newMetricsCollector(ctx context.Context) *monitoring.Collector {
	if !flagMetrics {
		return nil
	}
	collector, err := monitoring.NewCollector(ctx, flagRegion)
	if err != nil {
		log.Warnf("metrics disabled: failed to create CloudWatch collector: %v", err)
		return nil
	}
	return collector
}
