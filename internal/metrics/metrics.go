// Package metrics holds the Prometheus instruments for the HTTP service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal counts handled requests by handler name and status code.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"handler", "code"},
	)

	// RequestDuration tracks wall time per handler.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "research_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"handler"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, RequestDuration)
}

// Observe records one finished request.
func Observe(handler string, code int, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(handler, strconv.Itoa(code)).Inc()
	RequestDuration.WithLabelValues(handler).Observe(elapsed.Seconds())
}
