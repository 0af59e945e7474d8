// Package metrics holds the Prometheus collectors for corpus preparation and
// the HTTP window service. Collectors live on the default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "embedprep"

var (
	documentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents read from the dataset, by split and outcome.",
		},
		[]string{"split", "outcome"},
	)

	tokensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Token ids emitted into corpus streams.",
		},
	)

	rowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_rows_total",
			Help:      "Sample rows generated, by table.",
		},
		[]string{"table"},
	)

	generateSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Time spent generating sample tables.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(documentsTotal, tokensTotal, rowsTotal, generateSeconds)
}

// Document outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
)

// Generation sources.
const (
	SourcePipeline   = "pipeline"
	SourceRegenerate = "regenerate"
	SourceAPI        = "api"
)

func DocumentProcessed(split string) {
	documentsTotal.WithLabelValues(split, OutcomeProcessed).Inc()
}

func DocumentSkipped(split string) {
	documentsTotal.WithLabelValues(split, OutcomeSkipped).Inc()
}

func TokensEmitted(n int) {
	tokensTotal.Add(float64(n))
}

// RowsGenerated records one generation call: its table sizes and how long it
// took.
func RowsGenerated(source string, cbow, skipgram int, elapsed time.Duration) {
	rowsTotal.WithLabelValues("cbow").Add(float64(cbow))
	rowsTotal.WithLabelValues("skipgram").Add(float64(skipgram))
	generateSeconds.WithLabelValues(source).Observe(elapsed.Seconds())
}
