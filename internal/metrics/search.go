package metrics

import "github.com/prometheus/client_golang/prometheus"

// Catalog search Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "promptsgo",
			Name:      "search_duration_seconds",
			Help:      "Catalog search duration in seconds, including catalog load",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"sort"},
	)

	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "promptsgo",
			Name:      "search_results",
			Help:      "Number of prompts matching a search before pagination",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"sort"},
	)

	CatalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "promptsgo",
			Name:      "catalog_prompts",
			Help:      "Number of prompts in the last loaded catalog snapshot",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers catalog search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(CatalogSize)
	searchMetricsRegistered = true
}
