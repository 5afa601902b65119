package handlers

import (
	"net/http"

	"github.com/Farmanaslam/Infofix-New-App/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SettingsHandler 应用设置处理器
type SettingsHandler struct {
	settingsService *services.SettingsService
	logger          *logrus.Logger
}

// NewSettingsHandler 创建应用设置处理器
func NewSettingsHandler(settingsService *services.SettingsService, logger *logrus.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// GetSettings 获取表单选项
// @Summary 获取表单选项
// @Description 返回门店与设备类型等表单选项
// @Tags 设置
// @Accept json
// @Produce json
// @Success 200 {object} services.AppSettings
// @Failure 500 {object} ErrorResponse
// @Router /api/settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.GetSettings(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to load settings: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to load settings",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// RegisterSettingsRoutes 注册设置路由
func RegisterSettingsRoutes(r *gin.RouterGroup, handler *SettingsHandler) {
	r.GET("/settings", handler.GetSettings)
}
