package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gull_dashboard"

// Metrics holds the Prometheus collectors for the dashboard.
type Metrics struct {
	SessionsActive prometheus.Gauge
	Interactions   *prometheus.CounterVec // labels: kind={click,hover,reset,metric}
	ChartRenders   *prometheus.CounterVec // labels: chart={colony,aggregate}, outcome={rendered,suspended,error}

	DatasetRows prometheus.Gauge
	Colonies    prometheus.Gauge

	// Interaction-event stream.
	EventsEnqueued   prometheus.Counter
	EventsDropped    prometheus.Counter
	EventsPublished  prometheus.Counter
	PublishErrors    prometheus.Counter
	PublishBatchSize prometheus.Histogram
	PublishRunning   prometheus.Gauge
	PublishDuration  prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty,cached}
	GeocodeEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.SessionsActive,
		m.Interactions,
		m.ChartRenders,
		m.DatasetRows,
		m.Colonies,
		m.EventsEnqueued,
		m.EventsDropped,
		m.EventsPublished,
		m.PublishErrors,
		m.PublishBatchSize,
		m.PublishRunning,
		m.PublishDuration,
		m.GeocodeRequests,
		m.GeocodeEnabled,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      help("Browser sessions currently held in memory."),
		}),
		Interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      help("Map and control interactions by kind."),
		}, []string{"kind"}),
		ChartRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_renders_total",
			Help:      help("Chart requests by chart and outcome."),
		}, []string{"chart", "outcome"}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      help("Survey rows loaded at startup."),
		}),
		Colonies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "colonies",
			Help:      help("Colony markers built at startup."),
		}),
		EventsEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_enqueued_total",
			Help:      help("Interaction events accepted by the publish queue."),
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      help("Interaction events dropped because the publish queue was full."),
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      help("Interaction events written to the sink."),
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      help("Failed sink writes."),
		}),
		PublishBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_batch_size",
			Help:      help("Number of events per batch written to the sink."),
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		PublishRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publish_running",
			Help:      help("1 when the event publisher is active, 0 when shut down."),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_batch_duration_seconds",
			Help:      help("Duration of one batch write to the sink."),
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      help("Reverse geocoding lookups by outcome."),
		}, []string{"outcome"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      help("1 when marker geocoding is enabled, 0 otherwise."),
		}),
	}
}
