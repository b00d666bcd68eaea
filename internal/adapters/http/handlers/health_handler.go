// Package handlers - Health check handler.
//
// Health check показывает, что dev-сервер жив и какой каталог он раздаёт.
package handlers

import (
	"net/http"
	"time"

	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/common"
	"github.com/gin-gonic/gin"
)

// ============================================
// Health Check Handler
// ============================================

// HealthHandler обрабатывает health check запросы.
type HealthHandler struct {
	version   string
	dir       string
	index     string
	startTime time.Time
}

// NewHealthHandler создаёт новый HealthHandler.
func NewHealthHandler(version, dir, index string) *HealthHandler {
	return &HealthHandler{
		version:   version,
		dir:       dir,
		index:     index,
		startTime: time.Now(),
	}
}

// ============================================
// Response Types
// ============================================

// HealthResponse - ответ health check.
type HealthResponse struct {
	Status    string    `json:"status"`    // "healthy"
	Version   string    `json:"version"`   // Версия приложения
	Uptime    string    `json:"uptime"`    // Время работы
	Dir       string    `json:"dir"`       // Раздаваемый каталог
	Index     string    `json:"index"`     // Имя index-файла
	Timestamp time.Time `json:"timestamp"` // Текущее время
}

// ============================================
// HTTP Handlers
// ============================================

// Health возвращает базовый health статус.
func (h *HealthHandler) Health(c *gin.Context) {
	uptime := time.Since(h.startTime).Round(time.Second).String()

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    uptime,
		Dir:       h.dir,
		Index:     h.index,
		Timestamp: time.Now().UTC(),
	})
}

// RegisterRoutes регистрирует health check маршрут.
//
// Routes:
// - GET /__devserver/health - Basic health check
func (h *HealthHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET(common.HealthPath, h.Health)
}
