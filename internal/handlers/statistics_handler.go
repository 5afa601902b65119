package handlers

import (
	"net/http"

	"github.com/Farmanaslam/Infofix-New-App/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StatisticsHandler 统计分析处理器
type StatisticsHandler struct {
	statisticsService *services.StatisticsService
	logger            *logrus.Logger
}

// NewStatisticsHandler 创建统计分析处理器
func NewStatisticsHandler(statisticsService *services.StatisticsService, logger *logrus.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
		logger:            logger,
	}
}

// GetOverview 获取统计总览
// @Summary 获取统计总览
// @Description 按时间范围与门店过滤的 KPI、分布与趋势
// @Tags 统计
// @Accept json
// @Produce json
// @Param range_days query int false "时间范围（天），0 表示全部"
// @Param store query string false "门店过滤"
// @Success 200 {object} services.OverviewStats
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/statistics/overview [get]
func (h *StatisticsHandler) GetOverview(c *gin.Context) {
	var req services.OverviewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid query parameters",
			Message: err.Error(),
		})
		return
	}

	stats, err := h.statisticsService.Overview(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorf("Failed to build overview: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to build overview",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// RegisterStatisticsRoutes 注册统计路由
func RegisterStatisticsRoutes(r *gin.RouterGroup, handler *StatisticsHandler) {
	statistics := r.Group("/statistics")
	{
		statistics.GET("/overview", handler.GetOverview)
	}
}
