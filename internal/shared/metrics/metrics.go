package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	analysesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_analyses_started_total",
		Help: "Total document analyses started",
	})
	analysesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_analyses_completed_total",
		Help: "Total document analyses completed",
	})
	analysesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_analyses_failed_total",
		Help: "Total document analyses failed",
	})
	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "audit_analysis_duration_seconds",
		Help:    "Document analysis duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})
	sideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_side_effect_failures_total",
		Help: "Side effect failures by kind",
	}, []string{"kind"})
)

// IncAnalysisStarted increments the started counter.
func IncAnalysisStarted() { analysesStarted.Inc() }

// IncAnalysisCompleted increments the completed counter.
func IncAnalysisCompleted() { analysesCompleted.Inc() }

// IncAnalysisFailed increments the failed counter.
func IncAnalysisFailed() { analysesFailed.Inc() }

// ObserveAnalysisDuration records an analysis duration in seconds.
func ObserveAnalysisDuration(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	analysisDuration.Observe(seconds)
}

// IncSideEffectFailure increments the failure counter for a side effect kind
// ("charts" or "email").
func IncSideEffectFailure(kind string) { sideEffectFailures.WithLabelValues(kind).Inc() }

// Handler exposes the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
