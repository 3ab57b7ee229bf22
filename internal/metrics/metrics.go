package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration tracks HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// OrdersPlaced tracks placed orders by outcome
	OrdersPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Total number of order placement attempts",
		},
		[]string{"outcome"},
	)

	// PaymentsConfirmed tracks payment confirmations by result
	PaymentsConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_confirmed_total",
			Help: "Total number of payment confirmations",
		},
		[]string{"result"},
	)

	// ResolverFallbacks tracks which step of the product fallback chain
	// answered a cart line
	ResolverFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_resolutions_total",
			Help: "Product resolutions by source",
		},
		[]string{"source"},
	)

	// RealtimeClients tracks connected websocket clients
	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_clients",
			Help: "Number of connected realtime clients",
		},
	)

	// GatewayBreakerState tracks the payment gateway circuit breaker
	// (0=closed, 1=half-open, 2=open)
	GatewayBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "payment_gateway_breaker_state",
			Help: "Payment gateway circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// Middleware records request counts and durations per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		RequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}
