// Package middleware - Logging middleware для структурированного логирования.
package middleware

import (
	"log/slog"
	"time"

	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/common"
	"github.com/gin-gonic/gin"
)

// LoggingConfig - конфигурация для logging middleware.
type LoggingConfig struct {
	Logger    *slog.Logger
	SkipPaths []string // Пути для пропуска логирования (e.g., /__devserver/health)
}

// DefaultLoggingConfig - конфигурация по умолчанию.
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Logger:    slog.Default(),
		SkipPaths: []string{common.HealthPath, common.MetricsPath},
	}
}

// Logging middleware для структурированного логирования HTTP запросов.
//
// Логируемые данные: метод, путь, статус, время обработки,
// IP клиента, User-Agent, размер ответа. Request ID добавляет
// обработчик логгера из context.Context.
//
// Уровень: 5xx - error, 4xx - warn, остальное - info.
func Logging(config *LoggingConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultLoggingConfig()
	}

	skipMap := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipMap[path] = true
	}

	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", duration),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
			slog.Int("response_size", c.Writer.Size()),
		}

		if q := c.Request.URL.RawQuery; q != "" {
			attrs = append(attrs, slog.String("query", q))
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		config.Logger.LogAttrs(c.Request.Context(), level, "HTTP Request", attrs...)
	}
}
