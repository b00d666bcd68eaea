package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestTracing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = provider.Shutdown(context.Background())
	})

	var sawSpan bool
	router := gin.New()
	router.Use(Tracing("devserver-test"))
	router.GET("/index.html", func(c *gin.Context) {
		sawSpan = trace.SpanContextFromContext(c.Request.Context()).IsValid()
		c.Status(http.StatusOK)
	})
	router.GET(common.HealthPath, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("TracesRequests", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/index.html", nil))

		assert.True(t, sawSpan)
		require.NotEmpty(t, recorder.Ended())
	})

	t.Run("SkipsHealth", func(t *testing.T) {
		before := len(recorder.Ended())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, common.HealthPath, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, recorder.Ended(), before)
	})
}
