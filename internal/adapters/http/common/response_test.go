package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "github.com/Haleralex/tokenforge-devserver/internal/domain/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	c.Set(RequestIDKey, "test-request-123")
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var response APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// ============================================
// Test Request ID Functions
// ============================================

func TestGetRequestID(t *testing.T) {
	t.Run("ReturnsRequestID", func(t *testing.T) {
		c, _ := setupTestContext(http.MethodGet, "/")
		assert.Equal(t, "test-request-123", GetRequestID(c))
	})

	t.Run("ReturnsEmptyWhenNotSet", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.Empty(t, GetRequestID(c))
	})

	t.Run("IgnoresNonString", func(t *testing.T) {
		c, _ := setupTestContext(http.MethodGet, "/")
		c.Set(RequestIDKey, 42)
		assert.Empty(t, GetRequestID(c))
	})
}

func TestSetRequestID(t *testing.T) {
	c, w := setupTestContext(http.MethodGet, "/")
	SetRequestID(c, "new-id-456")

	assert.Equal(t, "new-id-456", GetRequestID(c))
	assert.Equal(t, "new-id-456", w.Header().Get(RequestIDKey))
}

// ============================================
// Test Responses
// ============================================

func TestSuccess(t *testing.T) {
	c, w := setupTestContext(http.MethodGet, "/")

	Success(c, http.StatusOK, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.True(t, response.Success)
	assert.NotNil(t, response.Data)
	assert.Nil(t, response.Error)
	assert.Equal(t, "test-request-123", response.RequestID)
	assert.False(t, response.Timestamp.IsZero())
}

func TestNotFoundResponse(t *testing.T) {
	c, w := setupTestContext(http.MethodGet, "/missing.js")

	NotFoundResponse(c, "/missing.js")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, c.IsAborted())
	response := decode(t, w)
	assert.False(t, response.Success)
	require.NotNil(t, response.Error)
	assert.Equal(t, ErrCodeNotFound, response.Error.Code)
	assert.Equal(t, "/missing.js", response.Error.Details["path"])
}

func TestInternalErrorResponse(t *testing.T) {
	c, w := setupTestContext(http.MethodGet, "/")

	InternalErrorResponse(c, "boom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	response := decode(t, w)
	assert.Equal(t, ErrCodeInternal, response.Error.Code)
	assert.Equal(t, "boom", response.Error.Message)
}

// ============================================
// Test HandleError
// ============================================

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		err     error
		status  int
		code    string
		hasMeth bool
	}{
		{"not found", http.MethodGet, domainerrors.NotFound("/a.html", nil), http.StatusNotFound, "NOT_FOUND", false},
		{"forbidden", http.MethodGet, domainerrors.Forbidden("/../etc/passwd"), http.StatusForbidden, "FORBIDDEN", false},
		{"method", http.MethodDelete, domainerrors.MethodNotAllowed("/a.html", http.MethodDelete), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", true},
		{"wrapped", http.MethodGet, fmt.Errorf("serve: %w", domainerrors.NotFound("/b", nil)), http.StatusNotFound, "NOT_FOUND", false},
		{"unknown", http.MethodGet, errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := setupTestContext(tt.method, "/")

			HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			response := decode(t, w)
			require.NotNil(t, response.Error)
			assert.Equal(t, tt.code, response.Error.Code)
			if tt.hasMeth {
				assert.Equal(t, tt.method, response.Error.Details["method"])
			}
			assert.NotContains(t, w.Body.String(), "disk on fire")
		})
	}
}
