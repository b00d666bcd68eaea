package middleware

import (
	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/common"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Tracing starts a span per request using the global tracer provider.
// Health and metrics probes are not traced.
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName,
		otelgin.WithGinFilter(func(c *gin.Context) bool {
			p := c.Request.URL.Path
			return p != common.HealthPath && p != common.MetricsPath
		}),
	)
}
