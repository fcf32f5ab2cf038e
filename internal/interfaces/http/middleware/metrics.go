package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notaris/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics counts requests and records their latency per route.
type HTTPMetrics struct {
	requests *telemetry.Counter
	duration *telemetry.Histogram
}

// NewHTTPMetrics registers the request instruments on meter.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	if meter == nil {
		return nil, telemetry.ErrMeterNil
	}
	requests, err := telemetry.NewCounter(meter, "http_server_requests_total", "HTTP requests served", "{requests}")
	if err != nil {
		return nil, err
	}
	duration, err := telemetry.NewHistogram(meter, "http_server_request_duration_seconds",
		"HTTP request latency", "s", telemetry.HTTPDurationBuckets)
	if err != nil {
		return nil, err
	}
	return &HTTPMetrics{requests: requests, duration: duration}, nil
}

// Metrics records every request on m. Unmatched routes share one label so
// scanners cannot blow up the cardinality. A nil m disables the middleware.
func Metrics(m *HTTPMetrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx := c.Request.Context()
		method := telemetry.AttrHTTPMethod.String(c.Request.Method)
		path := telemetry.AttrHTTPRoute.String(route)
		status := telemetry.AttrHTTPStatusCode.String(strconv.Itoa(c.Writer.Status()))
		m.requests.Inc(ctx, method, path, status)
		m.duration.RecordDuration(ctx, time.Since(start), method, path, status)
	}
}
