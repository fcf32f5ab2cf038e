package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipPaths are not traced (health probes).
	SkipPaths []string
}

// Tracing opens a server span per request through otelgin. otelgin ends
// the span and records the status when the chain returns.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	base := otelgin.Middleware(cfg.ServiceName)
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		base(c)
	}
}

// SpanAttributes tags the active span with the request id and, after
// JWTAuth, the authenticated office, user and role.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if rid := GetRequestID(c); rid != "" {
				span.SetAttributes(attribute.String("request_id", rid))
			}
			if id, ok := GetIdentity(c); ok {
				span.SetAttributes(
					attribute.String("tenant_id", id.TenantID.String()),
					attribute.String("user_id", id.UserID.String()),
					attribute.String("role", string(id.Role)),
				)
			}
		}
		c.Next()
	}
}
