package metrics

import "github.com/prometheus/client_golang/prometheus"

var Analyses = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "etfdesk",
		Name:      "analyses_total",
		Help:      "Analyses run, by outcome",
	},
	[]string{"outcome"},
)

var AnalysisDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "etfdesk",
		Name:      "analysis_duration_seconds",
		Help:      "Wall time of one fetch and compute pipeline run",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	},
)

var FetchDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "etfdesk",
		Name:      "fetch_duration_seconds",
		Help:      "Upstream request latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	},
	[]string{"source", "result"},
)

var HistoryCache = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "etfdesk",
		Name:      "history_cache_total",
		Help:      "History cache lookups",
	},
	[]string{"result"},
)

// Register adds all collectors to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(Analyses, AnalysisDuration, FetchDuration, HistoryCache)
}

// Result returns the label value for an error outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
