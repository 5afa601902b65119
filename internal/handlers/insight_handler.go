package handlers

import (
	"net/http"

	"github.com/Farmanaslam/Infofix-New-App/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// InsightHandler 规律洞察处理器
type InsightHandler struct {
	insightService *services.InsightService
	logger         *logrus.Logger
}

// NewInsightHandler 创建规律洞察处理器
func NewInsightHandler(insightService *services.InsightService, logger *logrus.Logger) *InsightHandler {
	return &InsightHandler{
		insightService: insightService,
		logger:         logger,
	}
}

// formalizeRequest 草拟协议请求
type formalizeRequest struct {
	PatternID string `json:"pattern_id" binding:"required"`
}

// ListPatterns 获取故障规律
// @Summary 获取故障规律
// @Description 从已完成工单中聚类重复出现的故障模式
// @Tags 洞察
// @Accept json
// @Produce json
// @Success 200 {array} services.Pattern
// @Failure 500 {object} ErrorResponse
// @Router /api/insights/patterns [get]
func (h *InsightHandler) ListPatterns(c *gin.Context) {
	patterns, err := h.insightService.MinePatterns(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to mine patterns: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to mine patterns",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, patterns)
}

// FormalizePattern 草拟协议
// @Summary 草拟协议
// @Description 基于故障规律由 AI 草拟标准作业程序，返回草稿供人工确认
// @Tags 洞察
// @Accept json
// @Produce json
// @Param pattern body formalizeRequest true "规律ID"
// @Success 200 {object} services.GuidelineDraft
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/insights/formalize [post]
func (h *InsightHandler) FormalizePattern(c *gin.Context) {
	var req formalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	draft, err := h.insightService.FormalizePatternByID(c.Request.Context(), req.PatternID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Pattern not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, draft)
}

// RegisterInsightRoutes 注册洞察路由
func RegisterInsightRoutes(r *gin.RouterGroup, handler *InsightHandler) {
	insights := r.Group("/insights")
	{
		insights.GET("/patterns", handler.ListPatterns)
		insights.POST("/formalize", handler.FormalizePattern)
	}
}
