package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	validationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clockchat_sql_validations_total",
			Help: "Total number of SQL validation verdicts by outcome.",
		},
		[]string{"verdict"},
	)
	validationIssuesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clockchat_sql_validation_issues_total",
			Help: "Total number of validation issues by severity.",
		},
		[]string{"severity"},
	)
	validationDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clockchat_sql_validation_duration_ms",
			Help:    "SQL validation latency in milliseconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		},
	)
	intentClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clockchat_intent_classifications_total",
			Help: "Total number of classified chat messages by intent.",
		},
		[]string{"intent"},
	)
	translationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "clockchat_translation_failures_total",
			Help: "Total number of failed natural-language-to-SQL translations.",
		},
	)
	ratingsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clockchat_ratings_submitted_total",
			Help: "Total number of response ratings recorded by type and value.",
		},
		[]string{"type", "value"},
	)
	exportObjectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clockchat_export_objects_total",
			Help: "Total number of report exports written by format.",
		},
		[]string{"format"},
	)
	exportBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "clockchat_export_bytes_total",
			Help: "Total bytes of report exports written to object storage.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		validationsTotal,
		validationIssuesTotal,
		validationDurationMs,
		intentClassificationsTotal,
		translationFailuresTotal,
		ratingsSubmittedTotal,
		exportObjectsTotal,
		exportBytesTotal,
	)
}

func ObserveValidation(allowed bool, issueSeverities []string, elapsed time.Duration) {
	verdict := "rejected"
	if allowed {
		verdict = "allowed"
	}
	validationsTotal.WithLabelValues(verdict).Inc()
	for _, severity := range issueSeverities {
		validationIssuesTotal.WithLabelValues(severity).Inc()
	}
	validationDurationMs.Observe(float64(elapsed.Microseconds()) / 1000.0)
}

func ObserveIntent(intent string) {
	intentClassificationsTotal.WithLabelValues(intent).Inc()
}

func IncrementTranslationFailure() {
	translationFailuresTotal.Inc()
}

func ObserveRating(ratingType, value string) {
	ratingsSubmittedTotal.WithLabelValues(ratingType, value).Inc()
}

func ObserveExport(format string, bytes int64) {
	exportObjectsTotal.WithLabelValues(format).Inc()
	if bytes > 0 {
		exportBytesTotal.Add(float64(bytes))
	}
}
