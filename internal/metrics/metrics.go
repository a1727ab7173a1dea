// Package metrics exposes Prometheus collectors for section scoring and
// OpenTelemetry counters for judge token usage.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sectionEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "section_evaluations_total",
			Help: "Total number of section evaluations performed",
		},
		[]string{"section", "mode", "status"},
	)

	judgeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judge_failures_total",
			Help: "Total number of failed judge calls by failure kind",
		},
		[]string{"section", "kind"},
	)

	judgeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "judge_duration_seconds",
			Help:    "Latency of judge calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		},
		[]string{"section"},
	)

	totalPercentage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "evaluation_total_percentage",
			Help: "Total percentage of the most recent evaluation run (0-100)",
		},
	)
)

// SectionEvaluated counts one finished section evaluation.
func SectionEvaluated(section, mode, status string) {
	sectionEvaluations.With(prometheus.Labels{
		"section": section,
		"mode":    mode,
		"status":  status,
	}).Inc()
}

func JudgeFailed(section, kind string) {
	judgeFailures.With(prometheus.Labels{
		"section": section,
		"kind":    kind,
	}).Inc()
}

func ObserveJudgeDuration(section string, seconds float64) {
	judgeDuration.WithLabelValues(section).Observe(seconds)
}

func SetTotalPercentage(pct int) {
	totalPercentage.Set(float64(pct))
}
