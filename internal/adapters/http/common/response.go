// Package common содержит общие типы для HTTP слоя.
//
// Вынесен в отдельный пакет чтобы избежать циклических импортов
// между handlers, middleware и основным http пакетом.
package common

import (
	"net/http"
	"time"

	domainerrors "github.com/Haleralex/tokenforge-devserver/internal/domain/errors"
	"github.com/gin-gonic/gin"
)

// ============================================
// Standard Response Format
// ============================================

// APIResponse - стандартный формат JSON ответа.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError - структура ошибки.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ============================================
// Error Codes
// ============================================

const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ============================================
// Service Routes
// ============================================

// Служебные маршруты dev-сервера живут под отдельным префиксом,
// чтобы не перекрывать раздаваемые файлы.
const (
	DevPrefix   = "/__devserver"
	HealthPath  = DevPrefix + "/health"
	MetricsPath = DevPrefix + "/metrics"
)

// ============================================
// Request ID
// ============================================

// RequestIDKey - ключ Request ID в gin.Context и имя заголовка.
const RequestIDKey = "X-Request-ID"

// GetRequestID возвращает Request ID из контекста.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// SetRequestID устанавливает Request ID в контекст и в заголовок ответа.
func SetRequestID(c *gin.Context, id string) {
	c.Set(RequestIDKey, id)
	c.Header(RequestIDKey, id)
}

// ============================================
// Response Helpers
// ============================================

// Success отправляет успешный ответ.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Data:      data,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// Error отправляет ответ с ошибкой и прерывает цепочку handlers.
func Error(c *gin.Context, statusCode int, apiError *APIError) {
	c.AbortWithStatusJSON(statusCode, APIResponse{
		Success:   false,
		Error:     apiError,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// NotFoundResponse создаёт ответ для 404.
func NotFoundResponse(c *gin.Context, path string) {
	Error(c, http.StatusNotFound, &APIError{
		Code:    ErrCodeNotFound,
		Message: "File not found",
		Details: map[string]interface{}{
			"path": path,
		},
	})
}

// InternalErrorResponse создаёт ответ для внутренней ошибки.
func InternalErrorResponse(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, &APIError{
		Code:    ErrCodeInternal,
		Message: message,
	})
}

// ============================================
// Domain Error to HTTP Error Mapper
// ============================================

// HandleError преобразует ошибку обработки запроса в HTTP response.
//
// RequestError несёт свой статус; всё остальное - 500 без деталей.
func HandleError(c *gin.Context, err error) {
	if re, ok := domainerrors.AsRequestError(err); ok {
		apiErr := &APIError{
			Code:    re.Code,
			Message: re.Message,
			Details: map[string]interface{}{
				"path": re.Path,
			},
		}
		if re.Status == http.StatusMethodNotAllowed {
			apiErr.Details["method"] = c.Request.Method
		}
		Error(c, re.Status, apiErr)
		return
	}

	_ = c.Error(err)
	InternalErrorResponse(c, "An unexpected error occurred")
}
