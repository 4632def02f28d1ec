package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the trigger service.
type Metrics struct {
	// Dispatch metrics.
	Dispatches       *prometheus.CounterVec   // labels: event, outcome={triggered,failed,unmatched,disabled,invalid}
	DispatchDuration *prometheus.HistogramVec // labels: event
	ModuleEnabled    prometheus.Gauge

	// Side effects written to the host.
	ActivitiesCreated   prometheus.Counter
	GeolocationsCreated prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	// Kafka ingress metrics.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	DecodeErrors            prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Dispatches,
		m.DispatchDuration,
		m.ModuleEnabled,
		m.ActivitiesCreated,
		m.GeolocationsCreated,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.DecodeErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
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
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm_triggers",
			Name:      "dispatches_total",
			Help:      "Dispatched events by event name and outcome.",
		}, []string{"event", "outcome"}),
		DispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crm_triggers",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of a handler run, including host and geocoding calls.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"event"}),
		ModuleEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crm_triggers",
			Name:      "module_enabled",
			Help:      "1 when the trigger module is enabled, 0 otherwise.",
		}),
		ActivitiesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crm_triggers",
			Name:      "activities_created_total",
			Help:      "Activity-log entries created by handlers.",
		}),
		GeolocationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crm_triggers",
			Name:      "geolocations_created_total",
			Help:      "Geolocation records created by handlers.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm_triggers",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm_triggers",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crm_triggers",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crm_triggers",
			Name:      "messages_consumed_total",
			Help:      "Total events read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crm_triggers",
			Name:      "messages_produced_total",
			Help:      "Total outcome records written to the sink topic.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crm_triggers",
			Name:      "decode_errors_total",
			Help:      "Source messages skipped because they are not valid events.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crm_triggers",
			Name:      "pipeline_running",
			Help:      "1 when the Kafka ingress loop is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crm_triggers",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crm_triggers",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-dispatch-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
