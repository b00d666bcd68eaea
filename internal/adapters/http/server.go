// Package http - HTTP Server configuration and lifecycle management.
//
// Server управляет жизненным циклом HTTP сервера:
// - Синхронный bind (ошибка порта видна сразу)
// - Graceful shutdown по отмене контекста
// - Timeout configuration
package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	domainerrors "github.com/Haleralex/tokenforge-devserver/internal/domain/errors"
	"github.com/gin-gonic/gin"
)

// ============================================
// Server Configuration
// ============================================

// ServerConfig - конфигурация HTTP сервера.
type ServerConfig struct {
	// Host для прослушивания ("" - все интерфейсы)
	Host string
	// Port для прослушивания (0 - любой свободный)
	Port int
	// ReadTimeout - максимальное время чтения запроса
	ReadTimeout time.Duration
	// WriteTimeout - максимальное время записи ответа
	WriteTimeout time.Duration
	// IdleTimeout - максимальное время ожидания следующего запроса
	IdleTimeout time.Duration
	// ShutdownTimeout - время на graceful shutdown
	ShutdownTimeout time.Duration
	// Logger для логирования
	Logger *slog.Logger
}

// DefaultServerConfig - конфигурация по умолчанию.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:            "",
		Port:            8000,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		Logger:          slog.Default(),
	}
}

// Address возвращает адрес для прослушивания.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ============================================
// Server
// ============================================

// Server - HTTP сервер с graceful shutdown.
type Server struct {
	config     *ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	listener   net.Listener
}

// NewServer создаёт новый HTTP сервер.
func NewServer(config *ServerConfig, router *gin.Engine) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	httpServer := &http.Server{
		Addr:         config.Address(),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		config:     config,
		httpServer: httpServer,
		router:     router,
	}
}

// Start занимает порт. Запросы начинают обслуживаться только в Serve.
//
// Ошибка bind возвращается как *StartupError и не повторяется.
func (s *Server) Start() error {
	if s.listener != nil {
		return nil
	}

	addr := s.config.Address()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return domainerrors.NewStartupError(addr, err)
	}
	s.listener = ln

	s.config.Logger.Info("HTTP server listening",
		slog.String("address", ln.Addr().String()),
	)
	return nil
}

// Serve обслуживает запросы на занятом порту до Shutdown.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("server is not started")
	}

	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr возвращает фактический адрес прослушивания (nil до Start).
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port возвращает фактический порт; при Port=0 он известен только после Start.
func (s *Server) Port() int {
	if tcp, ok := s.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return s.config.Port
}

// Shutdown выполняет graceful shutdown сервера.
//
// Если активные запросы не успели завершиться за ShutdownTimeout,
// оставшиеся соединения закрываются принудительно. Это не ошибка:
// порт всё равно освобождён.
func (s *Server) Shutdown(ctx context.Context) error {
	s.config.Logger.Info("Shutting down HTTP server...")

	// Создаём контекст с таймаутом для shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			s.config.Logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			return err
		}

		s.config.Logger.Warn("Shutdown timeout exceeded, closing active connections",
			slog.Duration("timeout", s.config.ShutdownTimeout),
		)
		if err := s.httpServer.Close(); err != nil {
			s.config.Logger.Error("HTTP server close error", slog.String("error", err.Error()))
			return err
		}
		return nil
	}

	s.config.Logger.Info("HTTP server stopped gracefully")
	return nil
}

// ============================================
// Run with Graceful Shutdown
// ============================================

// Run обслуживает запросы до отмены контекста.
//
// Если Start ещё не вызывался, порт занимается здесь же.
// При отмене ctx:
// 1. Прекращает приём новых соединений
// 2. Дожидается завершения активных запросов (не дольше ShutdownTimeout)
// 3. Обрывает запросы, не успевшие за ShutdownTimeout
// 4. Освобождает порт и возвращает nil
//
// Ошибка возвращается только если сервер упал сам или закрыть его не удалось.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	// Канал для ошибок сервера
	errChan := make(chan error, 1)

	// Запускаем сервер в горутине
	go func() {
		errChan <- s.Serve()
	}()

	// Ждём либо ошибку, либо отмену контекста
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.config.Logger.Info("Context cancelled, initiating shutdown")
	}

	// Родительский ctx уже отменён, shutdown получает свой
	return s.Shutdown(context.Background())
}
