package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Haleralex/tokenforge-devserver/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("GeneratesUUID", func(t *testing.T) {
		var fromCtx, fromGin string

		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			fromGin = GetRequestID(c)
			fromCtx = logger.GetRequestID(c.Request.Context())
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		header := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(header)
		assert.NoError(t, err)
		assert.Equal(t, header, fromGin)
		assert.Equal(t, header, fromCtx)
	})

	t.Run("KeepsClientID", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "client-id-1")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, "client-id-1", w.Header().Get(RequestIDHeader))
	})

	t.Run("UniquePerRequest", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		ids := make(map[string]bool)
		for i := 0; i < 10; i++ {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
			ids[w.Header().Get(RequestIDHeader)] = true
		}

		assert.Len(t, ids, 10)
	})
}
