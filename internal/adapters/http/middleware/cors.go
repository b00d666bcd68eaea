// Package middleware - CORS middleware.
//
// Cross-Origin Resource Sharing (CORS) позволяет странице кошелька,
// открытой с другого origin, обращаться к файлам dev-сервера.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig - конфигурация CORS.
type CORSConfig struct {
	// AllowOrigins - разрешённые origins (домены)
	// "*" - разрешить все
	AllowOrigins []string
	// AllowMethods - разрешённые HTTP методы
	AllowMethods []string
	// AllowHeaders - разрешённые заголовки запроса
	AllowHeaders []string
	// ExposeHeaders - заголовки, доступные клиенту (пусто - не отправляется)
	ExposeHeaders []string
	// AllowCredentials - разрешить credentials (cookies, auth headers)
	AllowCredentials bool
	// MaxAge - время кеширования preflight запроса (секунды, 0 - не отправляется)
	MaxAge int
}

// DefaultCORSConfig - конфигурация по умолчанию.
//
// Ровно три заголовка с фиксированными значениями:
// Allow-Origin "*", Allow-Methods "GET, POST, OPTIONS", Allow-Headers "Content-Type".
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Content-Type",
		},
	}
}

// CORS middleware для обработки Cross-Origin запросов.
//
// Заголовки ставятся до вызова следующего handler, поэтому попадают
// в любой ответ: файл, 404, 403, 405 и 500 из Recovery.
//
// Preflight (OPTIONS) завершается здесь же: 200 OK с пустым телом.
func CORS(config *CORSConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultCORSConfig()
	}

	// Предварительно формируем строки для заголовков
	allowMethods := strings.Join(config.AllowMethods, ", ")
	allowHeaders := strings.Join(config.AllowHeaders, ", ")
	exposeHeaders := strings.Join(config.ExposeHeaders, ", ")
	maxAge := strconv.Itoa(config.MaxAge)

	// Создаём map для быстрой проверки origins
	allowAllOrigins := len(config.AllowOrigins) == 1 && config.AllowOrigins[0] == "*"
	originsMap := make(map[string]bool)
	if !allowAllOrigins {
		for _, origin := range config.AllowOrigins {
			originsMap[origin] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Определяем, разрешён ли origin
		var allowedOrigin string
		if allowAllOrigins {
			allowedOrigin = "*"
		} else if originsMap[origin] {
			allowedOrigin = origin
		}

		if allowedOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowedOrigin)
			c.Header("Access-Control-Allow-Methods", allowMethods)
			c.Header("Access-Control-Allow-Headers", allowHeaders)
			if exposeHeaders != "" {
				c.Header("Access-Control-Expose-Headers", exposeHeaders)
			}
			if config.MaxAge > 0 {
				c.Header("Access-Control-Max-Age", maxAge)
			}
			if config.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
			if !allowAllOrigins {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}

		// Обрабатываем preflight запрос
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
