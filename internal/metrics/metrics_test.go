package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.EndpointAttempt("1", "http://x", "ok")
	m.CacheLookup("token", true)
	m.Analysis("address", "ok", time.Second)
	m.Degraded()
}

func TestEndpointAttemptCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.EndpointAttempt("1", "http://a", "failed")
	m.EndpointAttempt("1", "http://a", "failed")

	got := testutil.ToFloat64(m.EndpointAttempts.WithLabelValues("1", "http://a", "failed"))
	if got != 2 {
		t.Fatalf("expected 2 attempts, got %v", got)
	}
}
