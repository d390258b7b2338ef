package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	NavigationEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afi_report_navigation_events_total",
			Help: "Navigation events by page and transport",
		},
		[]string{"page", "transport"},
	)

	PanelRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afi_report_panel_renders_total",
			Help: "Panel renders by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	PanelRenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "afi_report_panel_render_duration_seconds",
			Help:    "Time spent producing a single panel",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"kind"},
	)

	ArtifactBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "afi_report_artifact_bytes",
			Help:    "Size of embedded visualization artifacts",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	ReconciliationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afi_report_reconciliation_total",
			Help: "State reconciliation runs by outcome",
		},
		[]string{"outcome"},
	)

	ReconciledRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "afi_report_reconciled_rows",
			Help: "Rows in the reconciled scored table",
		},
	)

	UnknownStateRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "afi_report_unknown_state_rows",
			Help: "Rows whose state fell back to the sentinel",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afi_report_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afi_report_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afi_report_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "afi_report_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

func Init() {
	prometheus.MustRegister(NavigationEvents)
	prometheus.MustRegister(PanelRenders)
	prometheus.MustRegister(PanelRenderDuration)
	prometheus.MustRegister(ArtifactBytes)
	prometheus.MustRegister(ReconciliationTotal)
	prometheus.MustRegister(ReconciledRows)
	prometheus.MustRegister(UnknownStateRows)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(RateLimited)
	prometheus.MustRegister(BreakerState)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
