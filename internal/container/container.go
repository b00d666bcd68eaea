// Package container - Dependency Injection container for the application.
//
// Container управляет жизненным циклом всех зависимостей:
// - Создание (логгер, tracing, роутер, сервер)
// - Доступ (getters)
// - Закрытие (cleanup)
//
// Pattern: Composition Root
// - Все зависимости собираются в одном месте
// - Легко тестировать
// - Легко заменять реализации (браузер, консоль)
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"

	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http"
	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/handlers"
	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/middleware"
	"github.com/Haleralex/tokenforge-devserver/internal/browser"
	"github.com/Haleralex/tokenforge-devserver/internal/config"
	"github.com/Haleralex/tokenforge-devserver/internal/console"
	"github.com/Haleralex/tokenforge-devserver/internal/pkg/logger"
	"github.com/Haleralex/tokenforge-devserver/internal/pkg/tracing"
	"github.com/gin-gonic/gin"
)

// ============================================
// Container
// ============================================

// Container - DI контейнер приложения.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	logCloser       io.Closer
	tracingShutdown tracing.ShutdownFunc

	// Operator-facing
	launcher browser.Launcher
	console  *console.Console

	// HTTP
	static     *handlers.StaticHandler
	router     *gin.Engine
	httpServer *http.Server
}

// New создаёт новый контейнер с заданной конфигурацией.
func New(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// ============================================
// Initialization
// ============================================

// Initialize инициализирует все зависимости.
func (c *Container) Initialize(ctx context.Context) error {
	if c.logger == nil {
		if err := c.initLogger(); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	c.logger.Debug("Initializing application container...")

	// 1. Tracing
	if err := c.initTracing(ctx); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// 2. Operator-facing
	c.initOperator()

	// 3. HTTP Server
	if err := c.initHTTPServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	c.logger.Debug("Container initialization complete",
		slog.String("dir", c.config.Static.Dir),
		slog.String("address", c.config.Server.Address()),
	)
	return nil
}

// initLogger инициализирует логгер.
func (c *Container) initLogger() error {
	out, closer, err := logger.OpenOutput(c.config.Log.Output, logger.FileConfig{
		Path:       c.config.Log.FilePath,
		MaxSize:    c.config.Log.MaxSize,
		MaxBackups: c.config.Log.MaxBackups,
		MaxAge:     c.config.Log.MaxAge,
		Compress:   c.config.Log.Compress,
	})
	if err != nil {
		return err
	}

	c.logger = logger.New(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		Output:    out,
		AddSource: c.config.Log.Level == "debug",
	})
	c.logCloser = closer
	slog.SetDefault(c.logger)

	return nil
}

// initTracing настраивает OTLP экспорт, если он включён.
func (c *Container) initTracing(ctx context.Context) error {
	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     c.config.Tracing.Enabled,
		Endpoint:    c.config.Tracing.Endpoint,
		ServiceName: c.config.Tracing.ServiceName,
		Version:     c.config.App.Version,
		Insecure:    c.config.Tracing.Insecure,
	})
	if err != nil {
		return err
	}
	c.tracingShutdown = shutdown
	return nil
}

// initOperator подставляет браузер и консоль, если их не задал builder.
func (c *Container) initOperator() {
	if c.launcher == nil {
		if c.config.Browser.Open {
			c.launcher = browser.NewSystem()
		} else {
			c.launcher = browser.Nop{}
		}
	}
	if c.console == nil {
		c.console = console.New()
	}
}

// initHTTPServer инициализирует HTTP сервер.
func (c *Container) initHTTPServer() error {
	// Режим Gin: debug-вывод маршрутов нужен только при log.level=debug
	switch {
	case c.config.App.Environment == "test":
		gin.SetMode(gin.TestMode)
	case c.config.Log.Level != "debug":
		gin.SetMode(gin.ReleaseMode)
	}

	static, err := handlers.NewStaticHandler(c.config.Static.Dir, c.config.Static.Index, c.logger)
	if err != nil {
		return err
	}
	c.static = static

	// Router Config
	routerConfig := &http.RouterConfig{
		Logger:      c.logger,
		Version:     c.config.App.Version,
		Environment: c.config.App.Environment,
		CORS: &middleware.CORSConfig{
			AllowOrigins: c.config.CORS.AllowedOrigins,
			AllowMethods: c.config.CORS.AllowedMethods,
			AllowHeaders: c.config.CORS.AllowedHeaders,
		},
		MetricsEnabled: c.config.Metrics.Enabled,
		TracingEnabled: c.config.Tracing.Enabled,
		ServiceName:    c.config.Tracing.ServiceName,
	}

	// Build Router
	c.router = http.NewRouterBuilder(routerConfig).
		WithStaticHandler(c.static).
		Build()

	// Server Config
	serverConfig := &http.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            c.config.Server.Port,
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}

	c.httpServer = http.NewServer(serverConfig, c.router)
	return nil
}

// ============================================
// Getters
// ============================================

// Config возвращает конфигурацию.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger возвращает логгер.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Router возвращает Gin engine.
func (c *Container) Router() *gin.Engine {
	return c.router
}

// HTTPServer возвращает HTTP сервер.
func (c *Container) HTTPServer() *http.Server {
	return c.httpServer
}

// Console возвращает консоль оператора.
func (c *Container) Console() *console.Console {
	return c.console
}

// ============================================
// Run
// ============================================

// Run занимает порт, печатает баннер, открывает браузер и обслуживает
// запросы до отмены ctx. Возвращает nil после graceful shutdown.
//
// Ошибка bind (*StartupError) возвращается сразу, без повторов.
func (c *Container) Run(ctx context.Context) error {
	if c.httpServer == nil {
		return errors.New("container is not initialized")
	}

	if err := c.httpServer.Start(); err != nil {
		c.logger.Error("Failed to start server", slog.String("error", err.Error()))
		c.console.StartupFailed(err)
		return err
	}

	port := c.httpServer.Port()
	pageURL := browser.PageURL(port, c.config.Static.Index)

	c.logger.Info("Starting dev server",
		slog.String("version", c.config.App.Version),
		slog.String("dir", c.config.Static.Dir),
		slog.String("address", net.JoinHostPort(c.config.Server.Host, strconv.Itoa(port))),
	)
	c.console.Banner(c.config.App.Name, c.config.Static.Dir, "http://localhost:"+strconv.Itoa(port), c.config.Browser.Open)

	if c.config.Browser.Open {
		if err := c.launcher.Open(pageURL); err != nil {
			c.logger.Warn("Could not open browser", slog.String("url", pageURL), slog.String("error", err.Error()))
			c.console.BrowserFailed(pageURL)
		}
	}

	c.console.Started()

	if err := c.httpServer.Run(ctx); err != nil {
		return err
	}

	c.console.Goodbye()
	return nil
}

// ============================================
// Shutdown
// ============================================

// Shutdown освобождает ресурсы контейнера. HTTP сервер к этому моменту
// уже остановлен в Run.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.logger != nil {
		c.logger.Debug("Shutting down container...")
	}

	var errs []error

	// 1. Static root
	if c.static != nil {
		if err := c.static.Close(); err != nil {
			errs = append(errs, fmt.Errorf("static dir close: %w", err))
		}
	}

	// 2. Tracing (дописываем оставшиеся spans)
	if c.tracingShutdown != nil {
		if err := c.tracingShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
	}

	// 3. Log file
	if c.logCloser != nil {
		if err := c.logCloser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("log close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

// ============================================
// Builder Pattern (Alternative)
// ============================================

// ContainerBuilder - builder для создания контейнера с кастомными компонентами.
type ContainerBuilder struct {
	cfg      *config.Config
	logger   *slog.Logger
	launcher browser.Launcher
	console  *console.Console
}

// NewBuilder создаёт новый builder.
func NewBuilder(cfg *config.Config) *ContainerBuilder {
	return &ContainerBuilder{
		cfg: cfg,
	}
}

// WithLogger устанавливает кастомный логгер.
func (b *ContainerBuilder) WithLogger(logger *slog.Logger) *ContainerBuilder {
	b.logger = logger
	return b
}

// WithLauncher устанавливает способ открытия браузера.
func (b *ContainerBuilder) WithLauncher(l browser.Launcher) *ContainerBuilder {
	b.launcher = l
	return b
}

// WithConsole устанавливает консоль оператора.
func (b *ContainerBuilder) WithConsole(c *console.Console) *ContainerBuilder {
	b.console = c
	return b
}

// Build создаёт и инициализирует контейнер.
func (b *ContainerBuilder) Build(ctx context.Context) (*Container, error) {
	c := New(b.cfg)
	c.logger = b.logger
	c.launcher = b.launcher
	c.console = b.console

	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
