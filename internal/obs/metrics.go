package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// GateDecisions counts access-control decisions by action and route category.
	GateDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_gate_decisions_total",
			Help: "Access-control gate decisions.",
		},
		[]string{"action", "category"},
	)

	// RefreshOutcomes counts refresh attempts by result: ok, invalid, superseded, error.
	RefreshOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_refresh_total",
			Help: "Access token refresh attempts.",
		},
		[]string{"result"},
	)

	// TokenRejections counts tokens absorbed as unauthenticated, by reason.
	TokenRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_token_rejections_total",
			Help: "Access tokens that resolved to no identity.",
		},
		[]string{"reason"},
	)
)

// Init registers the metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		GateDecisions,
		RefreshOutcomes,
		TokenRejections,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument measures request count, latency and in-flight requests.
// Paths are labelled by route template to keep cardinality bounded.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		start := time.Now()

		c.Next()

		httpInFlight.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
