package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
	StagedChanges      *prometheus.CounterVec

	// Worker metrics
	RetentionPurged *prometheus.CounterVec
	WorkerRuns      *prometheus.CounterVec
	DigestsSent     *prometheus.CounterVec

	// Messaging metrics
	EventsPublished *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// falls back to the default registerer.
func NewMetrics(namespace, subsystem string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		StagedChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "unit_of_work_changes_total",
			Help:      "Changes flushed by unit of work commits",
		}, []string{"table", "kind"}),

		RetentionPurged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "retention_purged_rows_total",
			Help:      "Soft-deleted rows permanently removed by the retention worker",
		}, []string{"table"}),
		WorkerRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "worker_runs_total",
			Help:      "Background worker iterations",
		}, []string{"worker", "status"}),
		DigestsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "income_digests_total",
			Help:      "Daily income digest emails",
		}, []string{"status"}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_published_total",
			Help:      "Domain events published to the broker",
		}, []string{"event_type", "status"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveDatabase records one database operation.
func (m *Metrics) ObserveDatabase(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.DatabaseOperations.WithLabelValues(operation, status(err)).Inc()
	m.DatabaseLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveChange(table, kind string) {
	if m == nil {
		return
	}
	m.StagedChanges.WithLabelValues(table, kind).Inc()
}

func (m *Metrics) ObservePurge(table string, rows int) {
	if m == nil {
		return
	}
	m.RetentionPurged.WithLabelValues(table).Add(float64(rows))
}

func (m *Metrics) ObserveWorkerRun(worker string, err error) {
	if m == nil {
		return
	}
	m.WorkerRuns.WithLabelValues(worker, status(err)).Inc()
}

func (m *Metrics) ObserveDigest(err error) {
	if m == nil {
		return
	}
	m.DigestsSent.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) ObserveEvent(eventType string, err error) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType, status(err)).Inc()
}

// ObserveHTTP records one request. path is the route template, not the
// raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, path string, status int, started time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(method, path).Observe(time.Since(started).Seconds())
}
