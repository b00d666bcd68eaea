// Package middleware - Recovery middleware для обработки паник.
package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/common"
	"github.com/gin-gonic/gin"
)

// RecoveryConfig - конфигурация для recovery middleware.
type RecoveryConfig struct {
	Logger           *slog.Logger
	EnableStackTrace bool // Включать stack trace в логи
}

// DefaultRecoveryConfig - конфигурация по умолчанию.
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		Logger:           slog.Default(),
		EnableStackTrace: true,
	}
}

// Recovery middleware перехватывает панику и возвращает 500 ошибку.
//
// Паника в одном запросе не должна останавливать сервер.
// CORS заголовки, выставленные раньше, остаются в ответе.
func Recovery(config *RecoveryConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRecoveryConfig()
	}

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				attrs := []slog.Attr{
					slog.String("error", fmt.Sprintf("%v", err)),
					slog.String("path", c.Request.URL.Path),
					slog.String("method", c.Request.Method),
					slog.String("client_ip", c.ClientIP()),
				}

				if config.EnableStackTrace {
					attrs = append(attrs, slog.String("stack", string(debug.Stack())))
				}

				config.Logger.LogAttrs(c.Request.Context(), slog.LevelError, "Panic recovered", attrs...)

				// Если ответ уже начат, менять статус поздно
				if c.Writer.Written() {
					c.Abort()
					return
				}
				common.InternalErrorResponse(c, "An unexpected error occurred")
			}
		}()

		c.Next()
	}
}
