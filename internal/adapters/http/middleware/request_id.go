// Package middleware содержит HTTP middleware для обработки запросов.
//
// Middleware в Gin - это функции, которые выполняются до/после handlers.
// Они используются для cross-cutting concerns: CORS, логирование, метрики.
//
// Pattern: Chain of Responsibility
package middleware

import (
	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/common"
	"github.com/Haleralex/tokenforge-devserver/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader - имя заголовка для Request ID
const RequestIDHeader = common.RequestIDKey

// RequestID middleware добавляет уникальный ID к каждому запросу.
//
// Если клиент передаёт X-Request-ID - используем его,
// иначе генерируем новый UUID. ID попадает в заголовок ответа
// и в context.Context запроса, откуда его берёт логгер.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		common.SetRequestID(c, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// GetRequestID извлекает Request ID из контекста Gin.
func GetRequestID(c *gin.Context) string {
	return common.GetRequestID(c)
}
