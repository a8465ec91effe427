// Package metrics exposes Prometheus collectors for HTTP traffic and the
// lead engine's batch runs.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	leadsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telesales_leads_created_total",
			Help: "Leads created, by source",
		},
		[]string{"source"},
	)

	duplicatesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telesales_duplicate_leads_total",
			Help: "Lead creations rejected as duplicates",
		},
	)

	leadsAssigned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telesales_leads_assigned_total",
			Help: "Assignments created, by mode",
		},
		[]string{"mode"},
	)

	leadsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telesales_leads_skipped_total",
			Help: "Leads left unassigned because every agent was at capacity",
		},
	)

	leadsRecycled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telesales_leads_recycled_total",
			Help: "Stale pending assignments reclaimed",
		},
	)

	callsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telesales_calls_logged_total",
			Help: "Calls logged, by outcome",
		},
		[]string{"outcome"},
	)

	ordersConverted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telesales_orders_converted_total",
			Help: "Orders created from converted leads",
		},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telesales_job_duration_seconds",
			Help:    "Duration of distribution, recycle and import runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

// Middleware records request counts and latency. The route template is used
// as the path label so ids do not explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		activeRequests.Inc()
		defer activeRequests.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordLeadCreated(source string) {
	leadsCreated.WithLabelValues(source).Inc()
}

func RecordDuplicateRejected() {
	duplicatesRejected.Inc()
}

func RecordAssignments(automatic bool, n int) {
	mode := "manual"
	if automatic {
		mode = "auto"
	}
	leadsAssigned.WithLabelValues(mode).Add(float64(n))
}

func RecordSkipped(n int) {
	leadsSkipped.Add(float64(n))
}

func RecordRecycled(n int) {
	leadsRecycled.Add(float64(n))
}

func RecordCall(outcome string) {
	callsLogged.WithLabelValues(outcome).Inc()
}

func RecordOrderConverted() {
	ordersConverted.Inc()
}

// ObserveJob records how long a batch run took.
func ObserveJob(job string, started time.Time) {
	jobDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
