package metrics

import "github.com/prometheus/client_golang/prometheus"

// Namespace prefixes every tourdex metric.
const Namespace = "tourdex"

// Search Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_duration_seconds",
			Help:      "Search pipeline duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"sort", "status"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_results",
			Help:      "Number of eligible documents per search before pagination",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 500, 1000},
		},
	)

	MatcherTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "matcher_requests_total",
			Help:      "Similarity matcher invocations by the matcher that served them",
		},
		[]string{"matcher", "status"},
	)

	DegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "degraded_total",
			Help:      "Searches served in a degraded mode",
		},
		[]string{"reason"},
	)

	IndexCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_cache_total",
			Help:      "Trigram index cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	AutocompleteTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "autocomplete_requests_total",
			Help:      "Autocomplete requests",
		},
		[]string{"status"},
	)
)

// Corpus Prometheus metrics.
var (
	CorpusDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "corpus_documents",
			Help:      "Documents in the most recent corpus snapshot",
		},
	)

	CorpusLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "corpus_loads_total",
			Help:      "Corpus snapshot loads",
		},
		[]string{"driver", "status"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and corpus metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(MatcherTotal)
	prometheus.MustRegister(DegradedTotal)
	prometheus.MustRegister(IndexCacheTotal)
	prometheus.MustRegister(AutocompleteTotal)
	prometheus.MustRegister(CorpusDocuments)
	prometheus.MustRegister(CorpusLoadsTotal)
	searchMetricsRegistered = true
}

// Status returns the "status" label for err.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
