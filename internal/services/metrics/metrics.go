package metrics

import (
	"fmt"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const divisor = 100

// Metrics holds Prometheus metric vectors for the ingestion service.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP server metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain metrics
	IngestLocationsTotal *prometheus.CounterVec
	IngestRecordsTotal   prometheus.Counter
	EnrichBatchesTotal   *prometheus.CounterVec
	RelayBatchesTotal    *prometheus.CounterVec
	ScheduledRunsTotal   *prometheus.CounterVec
}

// NewMetrics constructs and registers all service metrics on a private registry.
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests received",
			},
			[]string{"method", "endpoint", "status_class"},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: serviceName,
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of HTTP request latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		IngestLocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "ingest_locations_total",
				Help:      "Requested locations by ingestion outcome",
			},
			[]string{"result"},
		),

		IngestRecordsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "ingest_records_total",
				Help:      "Observation records produced by ingestion",
			},
		),

		EnrichBatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "enrich_batches_total",
				Help:      "Enrichment batches by outcome",
			},
			[]string{"result"},
		),

		RelayBatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "relay_batches_total",
				Help:      "Batches delivered downstream by transport and outcome",
			},
			[]string{"transport", "result"},
		),

		ScheduledRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "scheduled_runs_total",
				Help:      "Scheduled pipeline runs by outcome",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.IngestLocationsTotal,
		m.IngestRecordsTotal,
		m.EnrichBatchesTotal,
		m.RelayBatchesTotal,
		m.ScheduledRunsTotal,
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(
				collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/sched/latencies:seconds")},
			),
		),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the registry for the /metrics handler and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// HTTPMiddleware returns a Gin middleware to instrument HTTP endpoints.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		d := time.Since(start)

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		m.HTTPRequestsTotal.With(prometheus.Labels{
			"method":       c.Request.Method,
			"endpoint":     endpoint,
			"status_class": getStatusClass(c.Writer.Status()),
		}).Inc()
		m.HTTPRequestDuration.With(prometheus.Labels{
			"method":   c.Request.Method,
			"endpoint": endpoint,
		}).Observe(d.Seconds())
	}
}

func (m *Metrics) RecordLocation(result string) {
	m.IngestLocationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordRecords(n int) {
	m.IngestRecordsTotal.Add(float64(n))
}

func (m *Metrics) RecordEnrich(result string) {
	m.EnrichBatchesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordRelay(transport, result string) {
	m.RelayBatchesTotal.WithLabelValues(transport, result).Inc()
}

func (m *Metrics) RecordRun(result string) {
	m.ScheduledRunsTotal.WithLabelValues(result).Inc()
}

func getStatusClass(code int) string {
	return fmt.Sprintf("%dxx", code/divisor)
}
