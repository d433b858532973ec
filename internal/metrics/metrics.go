package metrics

import (
	"strconv"

	"github.com/alitto/pond/v2"
	"github.com/dlmiddlecote/sqlstats"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

type MetricsService interface {
	RegisterPoolMetrics(channel string, pool pond.Pool)
	GetRegistry() *prometheus.Registry
	// HTTP Request Metrics
	IncNumRequests(endpoint, method string, statusCode int)
	ObserveRequestDuration(endpoint, method string, duration float64)
	// Schema Refresh Metrics
	IncSchemaRefresh(backend, result string)
	ObserveSchemaRefreshDuration(backend string, duration float64)
	IncSchemaRefreshRetries(backend string)
	SetSchemaKnownNames(backend, kind string, count int)
	SetSchemaLastRefresh(backend string, unixSeconds float64)
	// Split Metrics
	ObserveSplitDuration(operation string, duration float64)
	IncSplitProjections(backend string)
	IncSplitUnserved()
	IncSplitErrors(operation, errorType string)
	// DB Query Metrics
	ObserveDBQueryDuration(queryType, table string, duration float64)
	IncDBQuery(queryType, table string)
	IncDBQueryError(queryType, table, errorType string)
}

// metricsService handles all metrics for the graphql-stitcher
type metricsService struct {
	registry *prometheus.Registry
	db       *sqlx.DB

	// HTTP Request Metrics
	numRequestsTotal *prometheus.CounterVec
	requestsDuration *prometheus.SummaryVec

	// Schema Refresh Metrics
	schemaRefreshTotal    *prometheus.CounterVec
	schemaRefreshDuration *prometheus.HistogramVec
	schemaRefreshRetries  *prometheus.CounterVec
	schemaKnownNames      *prometheus.GaugeVec
	schemaLastRefresh     *prometheus.GaugeVec

	// Split Metrics
	splitDuration    *prometheus.HistogramVec
	splitProjections *prometheus.CounterVec
	splitUnserved    prometheus.Counter
	splitErrors      *prometheus.CounterVec

	// DB Query Metrics
	dbQueryDuration *prometheus.SummaryVec
	dbQueriesTotal  *prometheus.CounterVec
	dbQueryErrors   *prometheus.CounterVec
}

// NewMetricsService creates a new metrics service with all metrics registered. db may be nil when the
// snapshot store is disabled.
func NewMetricsService(db *sqlx.DB) MetricsService {
	m := &metricsService{
		registry: prometheus.NewRegistry(),
		db:       db,
	}

	// HTTP Request Metrics
	m.numRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.requestsDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "http_request_duration_seconds",
			Help:       "Duration of HTTP requests",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"endpoint", "method"},
	)

	// Schema Refresh Metrics
	m.schemaRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schema_refresh_total",
			Help: "Total number of backend schema refreshes by result",
		},
		[]string{"backend", "result"},
	)
	m.schemaRefreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schema_refresh_duration_seconds",
			Help:    "Duration of backend schema refreshes, retries included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"backend"},
	)
	m.schemaRefreshRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schema_refresh_retries_total",
			Help: "Total number of retried introspection fetches",
		},
		[]string{"backend"},
	)
	m.schemaKnownNames = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "schema_known_names",
			Help: "Number of type, query field and mutation field names known for a backend",
		},
		[]string{"backend", "kind"},
	)
	m.schemaLastRefresh = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "schema_last_refresh_timestamp_seconds",
			Help: "Unix time of the last applied schema refresh",
		},
		[]string{"backend"},
	)

	// Split Metrics
	m.splitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "split_duration_seconds",
			Help:    "Duration of request splitting",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs .. ~0.8s
		},
		[]string{"operation"},
	)
	m.splitProjections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "split_projections_total",
			Help: "Total number of non-empty projections routed to a backend",
		},
		[]string{"backend"},
	)
	m.splitUnserved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "split_unserved_total",
			Help: "Total number of requests with a part no backend knows",
		},
	)
	m.splitErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "split_errors_total",
			Help: "Total number of requests that could not be split",
		},
		[]string{"operation", "error_type"},
	)

	// DB Query Metrics
	m.dbQueryDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "db_query_duration_seconds",
			Help:       "Duration of database queries",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"query_type", "table"},
	)
	m.dbQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"query_type", "table"},
	)
	m.dbQueryErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"query_type", "table", "error_type"},
	)

	m.registerMetrics()
	return m
}

func (m *metricsService) registerMetrics() {
	if m.db != nil {
		m.registry.MustRegister(sqlstats.NewStatsCollector("graphql-stitcher-db", m.db))
	}
	m.registry.MustRegister(
		m.numRequestsTotal,
		m.requestsDuration,
		m.schemaRefreshTotal,
		m.schemaRefreshDuration,
		m.schemaRefreshRetries,
		m.schemaKnownNames,
		m.schemaLastRefresh,
		m.splitDuration,
		m.splitProjections,
		m.splitUnserved,
		m.splitErrors,
		m.dbQueryDuration,
		m.dbQueriesTotal,
		m.dbQueryErrors,
	)
}

// RegisterPoolMetrics registers a worker pool for metrics collection
func (m *metricsService) RegisterPoolMetrics(channel string, pool pond.Pool) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "pool_workers_running",
			Help:        "Number of running worker goroutines",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.RunningWorkers())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_submitted_total",
			Help:        "Number of tasks submitted",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.SubmittedTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "pool_tasks_waiting",
			Help:        "Number of tasks currently waiting in the queue",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.WaitingTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_successful_total",
			Help:        "Number of tasks that completed successfully",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.SuccessfulTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_failed_total",
			Help:        "Number of tasks that completed with panic",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.FailedTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_completed_total",
			Help:        "Number of tasks that completed either successfully or with panic",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.CompletedTasks())
		},
	))
}

// GetRegistry returns the prometheus registry
func (m *metricsService) GetRegistry() *prometheus.Registry {
	return m.registry
}

// HTTP Request Metrics
func (m *metricsService) IncNumRequests(endpoint, method string, statusCode int) {
	m.numRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Inc()
}

func (m *metricsService) ObserveRequestDuration(endpoint, method string, duration float64) {
	m.requestsDuration.WithLabelValues(endpoint, method).Observe(duration)
}

// Schema Refresh Metrics
func (m *metricsService) IncSchemaRefresh(backend, result string) {
	m.schemaRefreshTotal.WithLabelValues(backend, result).Inc()
}

func (m *metricsService) ObserveSchemaRefreshDuration(backend string, duration float64) {
	m.schemaRefreshDuration.WithLabelValues(backend).Observe(duration)
}

func (m *metricsService) IncSchemaRefreshRetries(backend string) {
	m.schemaRefreshRetries.WithLabelValues(backend).Inc()
}

func (m *metricsService) SetSchemaKnownNames(backend, kind string, count int) {
	m.schemaKnownNames.WithLabelValues(backend, kind).Set(float64(count))
}

func (m *metricsService) SetSchemaLastRefresh(backend string, unixSeconds float64) {
	m.schemaLastRefresh.WithLabelValues(backend).Set(unixSeconds)
}

// Split Metrics
func (m *metricsService) ObserveSplitDuration(operation string, duration float64) {
	m.splitDuration.WithLabelValues(operation).Observe(duration)
}

func (m *metricsService) IncSplitProjections(backend string) {
	m.splitProjections.WithLabelValues(backend).Inc()
}

func (m *metricsService) IncSplitUnserved() {
	m.splitUnserved.Inc()
}

func (m *metricsService) IncSplitErrors(operation, errorType string) {
	m.splitErrors.WithLabelValues(operation, errorType).Inc()
}

// DB Query Metrics
func (m *metricsService) ObserveDBQueryDuration(queryType, table string, duration float64) {
	m.dbQueryDuration.WithLabelValues(queryType, table).Observe(duration)
}

func (m *metricsService) IncDBQuery(queryType, table string) {
	m.dbQueriesTotal.WithLabelValues(queryType, table).Inc()
}

func (m *metricsService) IncDBQueryError(queryType, table, errorType string) {
	m.dbQueryErrors.WithLabelValues(queryType, table, errorType).Inc()
}
