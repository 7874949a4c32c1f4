package selection

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// stageDuration tracks the time spent in each pipeline stage.
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "selection_stage_duration_seconds",
		Help:    "Time spent in each selection pipeline stage",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"stage"}) // stage: search, prescan, filter, rank, shortlist, quotes, best

	// requestSKUs tracks the distribution of request line counts.
	requestSKUs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "selection_request_skus_count",
		Help:    "Number of SKU lines in selection requests",
		Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
	})

	// candidateCount tracks pharmacy counts surviving each stage.
	candidateCount = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "selection_candidates_count",
		Help:    "Number of candidate pharmacies after each stage",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50, 100},
	}, []string{"stage"})

	// quoteCount tracks how many delivery quotes fed the final resolution.
	quoteCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "selection_quotes_count",
		Help:    "Number of delivery quotes considered per request",
		Buckets: []float64{0, 1, 2, 5, 10, 20},
	})

	// pricingFailures counts per-pharmacy delivery pricing failures.
	pricingFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "selection_pricing_failures_total",
		Help: "Delivery pricing failures by pharmacy source code",
	}, []string{"source_code"})

	// selectionOutcome counts final decision outcomes.
	selectionOutcome = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "selection_outcome_total",
		Help: "Selection outcomes by kind",
	}, []string{"outcome"}) // outcome: open, with_alternative, no_viable
)

// MetricsRecorder provides methods to record selection pipeline metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordStageDuration records the duration of one pipeline stage.
func (m *MetricsRecorder) RecordStageDuration(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRequestSKUs records the number of request lines.
func (m *MetricsRecorder) RecordRequestSKUs(n int) {
	requestSKUs.Observe(float64(n))
}

// RecordCandidates records surviving pharmacy counts for a stage.
func (m *MetricsRecorder) RecordCandidates(stage string, n int) {
	candidateCount.WithLabelValues(stage).Observe(float64(n))
}

// RecordQuoteCount records how many quotes reached the best-option resolver.
func (m *MetricsRecorder) RecordQuoteCount(n int) {
	quoteCount.Observe(float64(n))
}

// RecordPricingFailure records a per-pharmacy pricing failure.
func (m *MetricsRecorder) RecordPricingFailure(sourceCode string) {
	pricingFailures.WithLabelValues(sourceCode).Inc()
}

// RecordOutcome records the kind of final decision.
func (m *MetricsRecorder) RecordOutcome(outcome string) {
	selectionOutcome.WithLabelValues(outcome).Inc()
}
