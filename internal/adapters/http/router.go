// Package http содержит HTTP адаптер dev-сервера.
//
// Структура пакета:
// - common/: Общие типы и helpers (вынесены для избежания циклических импортов)
// - middleware/: HTTP middleware (CORS, logging, recovery, metrics, tracing)
// - handlers/: раздача файлов и служебные endpoints
// - router.go: Конфигурация маршрутов
// - server.go: HTTP server lifecycle
//
// Pattern: Composition Root
// - Все зависимости собираются здесь
// - Middleware применяется ко всем ответам, включая ошибки
package http

import (
	"log/slog"

	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/common"
	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/handlers"
	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ============================================
// Router Configuration
// ============================================

// RouterConfig - конфигурация роутера.
type RouterConfig struct {
	// Logger для middleware
	Logger *slog.Logger
	// Version приложения
	Version string
	// Environment (development, test, production)
	Environment string
	// CORS заголовки (nil - фиксированные значения по умолчанию)
	CORS *middleware.CORSConfig
	// MetricsEnabled включает /__devserver/metrics и сбор метрик
	MetricsEnabled bool
	// TracingEnabled включает otelgin middleware
	TracingEnabled bool
	// ServiceName для spans
	ServiceName string
}

// DefaultRouterConfig - конфигурация по умолчанию для development.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:         slog.Default(),
		Version:        "dev",
		Environment:    "development",
		CORS:           middleware.DefaultCORSConfig(),
		MetricsEnabled: true,
		ServiceName:    "tokenforge-devserver",
	}
}

// ============================================
// Router Builder
// ============================================

// RouterBuilder - builder для создания роутера.
//
// Pattern: Builder
// - Позволяет пошагово настроить роутер
// - Проще тестировать
type RouterBuilder struct {
	config *RouterConfig
	static *handlers.StaticHandler
}

// NewRouterBuilder создаёт новый builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RouterBuilder{
		config: config,
	}
}

// WithStaticHandler подключает раздачу файлов.
func (b *RouterBuilder) WithStaticHandler(h *handlers.StaticHandler) *RouterBuilder {
	b.static = h
	return b
}

// Build создаёт сконфигурированный Gin Engine.
func (b *RouterBuilder) Build() *gin.Engine {
	// Настраиваем режим Gin
	switch b.config.Environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	// Создаём router без default middleware
	router := gin.New()

	// ============================================
	// Global Middleware
	// ============================================

	// 1. Recovery - должен быть первым
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))

	// 2. Request ID
	router.Use(middleware.RequestID())

	// 3. CORS - до любого handler, чтобы заголовки были и в ошибках
	cors := b.config.CORS
	if cors == nil {
		cors = middleware.DefaultCORSConfig()
	}
	router.Use(middleware.CORS(cors))

	// 4. Tracing
	if b.config.TracingEnabled {
		router.Use(middleware.Tracing(b.config.ServiceName))
	}

	// 5. Logging
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		SkipPaths: []string{common.HealthPath, common.MetricsPath},
	}))

	// 6. Metrics (Prometheus)
	if b.config.MetricsEnabled {
		router.Use(middleware.Metrics())
	}

	// ============================================
	// Dev Endpoints
	// ============================================

	if b.config.MetricsEnabled {
		router.GET(common.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	dir, index := "", ""
	if b.static != nil {
		dir, index = b.static.Dir(), b.static.Index()
	}
	handlers.NewHealthHandler(b.config.Version, dir, index).RegisterRoutes(router)

	// ============================================
	// Static Files
	// ============================================

	if b.static != nil {
		router.NoRoute(b.static.Serve)
		return router
	}

	router.NoRoute(func(c *gin.Context) {
		common.NotFoundResponse(c, c.Request.URL.Path)
	})

	return router
}

// ============================================
// Quick Setup Functions
// ============================================

// NewRouter создаёт роутер, раздающий файлы через static.
func NewRouter(config *RouterConfig, static *handlers.StaticHandler) *gin.Engine {
	return NewRouterBuilder(config).WithStaticHandler(static).Build()
}
