package monitoring

import (
	"context"
	"testing"
)

const testRegion = "us-east-1"

// TestNewCollector relies on constructing a Collector only requiring a
// loadable AWS config, not a reachable CloudWatch endpoint, so this runs
// without network access in CI as long as the SDK can resolve a
// (possibly empty) default config.
func TestNewCollector(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping AWS-config-dependent test in short mode")
	}

	collector, err := NewCollector(context.Background(), testRegion)
	if err != nil {
		t.Logf("expected error without AWS credentials: %v", err)
		return
	}

	if collector.namespace != "ProdSched" {
		t.Errorf("namespace = %q, want %q", collector.namespace, "ProdSched")
	}
	if len(collector.defaultDimensions) != 2 {
		t.Errorf("default dimensions count = %d, want 2", len(collector.defaultDimensions))
	}
}
