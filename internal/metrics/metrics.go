// Package metrics holds the Prometheus collectors of the analysis pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EndpointAttempts *prometheus.CounterVec
	AcquireFailures  *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	PriceQuotes      *prometheus.CounterVec
	AnalysisRequests *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	DecodeDegraded   prometheus.Counter
	SinkFailures     *prometheus.CounterVec
}

// New registers all collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		EndpointAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "txscope_endpoint_attempts_total",
			Help: "RPC endpoint liveness attempts by outcome",
		}, []string{"network", "url", "outcome"}),
		AcquireFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "txscope_endpoint_exhausted_total",
			Help: "Acquisitions where every configured endpoint failed",
		}, []string{"network"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "txscope_cache_lookups_total",
			Help: "Cache lookups by cache name and result",
		}, []string{"cache", "result"}),
		PriceQuotes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "txscope_price_quotes_total",
			Help: "Price quotes served by source",
		}, []string{"source"}),
		AnalysisRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "txscope_analysis_requests_total",
			Help: "Analysis requests by input kind and outcome",
		}, []string{"kind", "outcome"}),
		AnalysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "txscope_analysis_duration_seconds",
			Help:    "Wall-clock duration of analysis requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		DecodeDegraded: factory.NewCounter(prometheus.CounterOpts{
			Name: "txscope_decode_degraded_total",
			Help: "Logs demoted to other events",
		}),
		SinkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "txscope_sink_failures_total",
			Help: "Artifact sink write failures by sink",
		}, []string{"sink"}),
	}
}

func (m *Metrics) EndpointAttempt(network, url, outcome string) {
	if m == nil {
		return
	}
	m.EndpointAttempts.WithLabelValues(network, url, outcome).Inc()
}

func (m *Metrics) EndpointExhausted(network string) {
	if m == nil {
		return
	}
	m.AcquireFailures.WithLabelValues(network).Inc()
}

func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) PriceQuote(source string) {
	if m == nil {
		return
	}
	m.PriceQuotes.WithLabelValues(source).Inc()
}

func (m *Metrics) Analysis(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AnalysisRequests.WithLabelValues(kind, outcome).Inc()
	m.AnalysisDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) Degraded() {
	if m == nil {
		return
	}
	m.DecodeDegraded.Inc()
}

func (m *Metrics) SinkFailure(sink string) {
	if m == nil {
		return
	}
	m.SinkFailures.WithLabelValues(sink).Inc()
}
