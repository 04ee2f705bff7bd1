package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quake_etl"

// Metrics holds the Prometheus counters and histograms for ingestion and the dashboard.
type Metrics struct {
	// Ingestion metrics.
	Windows       *prometheus.CounterVec // labels: outcome={success,http_error,transport_error,decode_error}
	EventsFetched prometheus.Counter
	FetchDuration prometheus.Histogram
	Persisted     *prometheus.CounterVec // labels: target={csv,sql,kafka}
	PersistErrors *prometheus.CounterVec // labels: target

	// Dashboard metrics.
	QueryDuration *prometheus.HistogramVec // labels: engine={memory,sql}
	LoaderSource  *prometheus.CounterVec   // labels: backend, outcome={success,error}
	LoaderCache   *prometheus.CounterVec   // labels: result={hit,miss}
	ResultCache   *prometheus.CounterVec   // labels: result={hit,miss}
	DatasetRows   prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Windows,
		m.EventsFetched,
		m.FetchDuration,
		m.Persisted,
		m.PersistErrors,
		m.QueryDuration,
		m.LoaderSource,
		m.LoaderCache,
		m.ResultCache,
		m.DatasetRows,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Windows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_total",
			Help:      "Fetch windows processed by outcome.",
		}, []string{"outcome"}),
		EventsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_fetched_total",
			Help:      "Total event records decoded from the USGS API.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single window request.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		Persisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_persisted_total",
			Help:      "Event records written per persistence target.",
		}, []string{"target"}),
		PersistErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Failed writes per persistence target.",
		}, []string{"target"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Catalog query evaluation time by engine.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"engine"}),
		LoaderSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loader_attempts_total",
			Help:      "Dataset load attempts by backend and outcome.",
		}, []string{"backend", "outcome"}),
		LoaderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loader_cache_total",
			Help:      "Dataset cache lookups by result.",
		}, []string{"result"}),
		ResultCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_total",
			Help:      "Query result cache lookups by result.",
		}, []string{"result"}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the most recently loaded dataset.",
		}),
	}
}
