package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inactivity_http_requests_total",
			Help: "Total number of HTTP requests processed by the inactivity service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inactivity_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	activityEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inactivity_activity_events_total",
			Help: "Total number of activity events recorded.",
		},
	)
	scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inactivity_scans_total",
			Help: "Total number of inactivity scans by outcome.",
		},
		[]string{"outcome"},
	)
	flaggedUsersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inactivity_flagged_users_total",
			Help: "Total number of users flagged as inactive across all scans.",
		},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inactivity_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inactivity_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inactivity_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		activityEventsTotal,
		scansTotal,
		flaggedUsersTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncActivityRecorded() {
	activityEventsTotal.Inc()
}

func IncScan(outcome string) {
	scansTotal.WithLabelValues(outcome).Inc()
}

func AddFlagged(n int) {
	flaggedUsersTotal.Add(float64(n))
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
