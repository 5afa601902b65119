package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/Farmanaslam/Infofix-New-App/internal/services"
	"github.com/Farmanaslam/Infofix-New-App/pkg/genai"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	db     *gorm.DB
	ai     genai.GeminiInterface
	hub    *services.WebSocketHub
	logger *logrus.Logger
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(db *gorm.DB, ai genai.GeminiInterface, hub *services.WebSocketHub, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		ai:     ai,
		hub:    hub,
		logger: logger,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	GoVersion string                 `json:"go_version"`
	Services  map[string]ServiceInfo `json:"services"`
}

// ServiceInfo 服务信息
type ServiceInfo struct {
	Status  string      `json:"status"`
	Latency string      `json:"latency,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

var startTime = time.Now()

// Health 健康检查端点
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(startTime).String(),
		GoVersion: runtime.Version(),
		Services:  make(map[string]ServiceInfo),
	}

	h.checkDatabase(ctx, &response)
	h.checkAI(&response)

	if h.hub != nil {
		response.Services["websocket"] = ServiceInfo{
			Status:  "healthy",
			Details: map[string]interface{}{"clients": h.hub.GetClientCount()},
		}
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

// checkDatabase 检查数据库连通性
func (h *HealthHandler) checkDatabase(ctx context.Context, response *HealthResponse) {
	start := time.Now()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}

	if err != nil {
		h.logger.Errorf("Database health check failed: %v", err)
		response.Services["database"] = ServiceInfo{
			Status:  "unhealthy",
			Latency: time.Since(start).String(),
			Error:   err.Error(),
		}
		response.Status = "unhealthy"
		return
	}

	response.Services["database"] = ServiceInfo{
		Status:  "healthy",
		Latency: time.Since(start).String(),
	}
}

// checkAI 检查 AI 服务配置状态。未配置时应用仍可用（有兜底文案），只标记降级。
func (h *HealthHandler) checkAI(response *HealthResponse) {
	if h.ai != nil && h.ai.Configured() {
		response.Services["ai"] = ServiceInfo{Status: "healthy"}
		return
	}

	response.Services["ai"] = ServiceInfo{
		Status: "degraded",
		Error:  "AI API key not configured, fallback replies in use",
	}
	if response.Status == "healthy" {
		response.Status = "degraded"
	}
}
