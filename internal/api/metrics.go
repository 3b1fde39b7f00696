package api

import "github.com/prometheus/client_golang/prometheus"

var (
	assessmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_assessments_total",
		Help: "Completed risk assessments by tier",
	}, []string{"tier"})

	assessmentFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_assessment_fallbacks_total",
		Help: "Assessments that used the degraded fallback interval",
	})

	predictLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentinel_predict_latency_seconds",
		Help:    "Latency of the risk prediction handler",
		Buckets: prometheus.DefBuckets,
	})

	recommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_recommendations_total",
		Help: "Recommendation requests by mode",
	}, []string{"mode"})

	recommendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentinel_recommend_latency_seconds",
		Help:    "Latency of the recommendation handlers",
		Buckets: prometheus.DefBuckets,
	})
)

// InitMetrics registers the handler metrics. Call once at startup.
func InitMetrics() {
	prometheus.MustRegister(
		assessmentsTotal,
		assessmentFallbacks,
		predictLatency,
		recommendationsTotal,
		recommendLatency,
	)
}

// PromMetrics adapts the registered collectors to the assessment pipeline's
// metrics hook.
type PromMetrics struct{}

func (PromMetrics) AssessmentCompleted(tier string, fallback bool) {
	assessmentsTotal.WithLabelValues(tier).Inc()
	if fallback {
		assessmentFallbacks.Inc()
	}
}
