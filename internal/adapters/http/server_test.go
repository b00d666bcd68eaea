package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	domainerrors "github.com/Haleralex/tokenforge-devserver/internal/domain/errors"
	"github.com/Haleralex/tokenforge-devserver/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServerConfig(port int) *ServerConfig {
	return &ServerConfig{
		Host:            "127.0.0.1",
		Port:            port,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		ShutdownTimeout: time.Second,
		Logger:          logger.Discard(),
	}
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()

	assert.Equal(t, "", cfg.Host)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.NotNil(t, cfg.Logger)
}

func TestServerConfig_Address(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		port     int
		expected string
	}{
		{"AllInterfaces", "", 8000, ":8000"},
		{"Localhost", "localhost", 3000, "localhost:3000"},
		{"IPv4", "127.0.0.1", 9000, "127.0.0.1:9000"},
		{"IPv6", "::1", 8000, "[::1]:8000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &ServerConfig{Host: tt.host, Port: tt.port}
			assert.Equal(t, tt.expected, cfg.Address())
		})
	}
}

func TestNewServer_NilConfig(t *testing.T) {
	server := NewServer(nil, gin.New())

	require.NotNil(t, server)
	assert.Equal(t, ":8000", server.httpServer.Addr)
	assert.Nil(t, server.Addr())
}

func TestNewServer_HttpServerConfiguration(t *testing.T) {
	cfg := testServerConfig(1234)
	server := NewServer(cfg, gin.New())

	assert.Equal(t, "127.0.0.1:1234", server.httpServer.Addr)
	assert.Equal(t, time.Second, server.httpServer.ReadTimeout)
	assert.Equal(t, time.Second, server.httpServer.WriteTimeout)
	assert.Equal(t, time.Second, server.httpServer.IdleTimeout)
}

func TestServer_StartPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	server := NewServer(testServerConfig(port), gin.New())

	err = server.Start()

	require.Error(t, err)
	assert.True(t, domainerrors.IsStartupError(err))
	assert.True(t, domainerrors.IsPortInUse(err))
	assert.Contains(t, err.Error(), fmt.Sprintf("127.0.0.1:%d", port))
}

func TestServer_RunPortInUseReturnsImmediately(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	server := NewServer(testServerConfig(ln.Addr().(*net.TCPAddr).Port), gin.New())

	err = server.Run(context.Background())

	assert.True(t, domainerrors.IsPortInUse(err))
}

func TestServer_ServeBeforeStart(t *testing.T) {
	server := NewServer(testServerConfig(0), gin.New())

	assert.Error(t, server.Serve())
}

func TestServer_RunServesAndShutsDown(t *testing.T) {
	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	server := NewServer(testServerConfig(0), router)
	require.NoError(t, server.Start())
	port := server.Port()
	assert.NotZero(t, port)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()

	// Порт уже занят в Start, поэтому запрос проходит без ожидания
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/test", port))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shutdown in time")
	}

	// Порт освобождён
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	ln.Close()
}

func TestServer_ShutdownWaitsForInFlight(t *testing.T) {
	started := make(chan struct{})
	router := gin.New()
	router.GET("/slow", func(c *gin.Context) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		c.String(http.StatusOK, "done")
	})

	server := NewServer(testServerConfig(0), router)
	require.NoError(t, server.Start())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()

	type result struct {
		body string
		err  error
	}
	got := make(chan result, 1)
	go func() {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/slow", server.Port()))
		if err != nil {
			got <- result{err: err}
			return
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		got <- result{body: string(b), err: err}
	}()

	<-started
	cancel()

	r := <-got
	require.NoError(t, r.err)
	assert.Equal(t, "done", r.body)
	assert.NoError(t, <-done)
}

func TestServer_ShutdownTimeoutClosesSlowRequests(t *testing.T) {
	started := make(chan struct{})
	router := gin.New()
	router.GET("/download", func(c *gin.Context) {
		close(started)
		select {
		case <-c.Request.Context().Done():
		case <-time.After(5 * time.Second):
		}
		c.String(http.StatusOK, "late")
	})

	cfg := testServerConfig(0)
	cfg.ShutdownTimeout = 100 * time.Millisecond
	server := NewServer(cfg, router)
	require.NoError(t, server.Start())
	port := server.Port()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()

	go func() {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/download", port))
		if err == nil {
			resp.Body.Close()
		}
	}()

	<-started
	start := time.Now()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Less(t, time.Since(start), 2*time.Second)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shutdown in time")
	}

	// Порт освобождён
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	ln.Close()
}
