package handlers

import (
	"errors"
	"net/http"

	"github.com/Farmanaslam/Infofix-New-App/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GuidelineHandler 知识库处理器
type GuidelineHandler struct {
	guidelineService *services.GuidelineService
	logger           *logrus.Logger
}

// NewGuidelineHandler 创建知识库处理器
func NewGuidelineHandler(guidelineService *services.GuidelineService, logger *logrus.Logger) *GuidelineHandler {
	return &GuidelineHandler{
		guidelineService: guidelineService,
		logger:           logger,
	}
}

// ListGuidelines 获取知识条目列表
// @Summary 获取知识条目列表
// @Description 获取知识库条目，支持按品牌、分类和关键词过滤
// @Tags 知识库
// @Accept json
// @Produce json
// @Param brand query string false "品牌（general 表示通用条目）"
// @Param category query string false "分类过滤"
// @Param search query string false "搜索关键词"
// @Success 200 {array} models.Guideline
// @Failure 500 {object} ErrorResponse
// @Router /api/guidelines [get]
func (h *GuidelineHandler) ListGuidelines(c *gin.Context) {
	guidelines, err := h.guidelineService.ListGuidelines(
		c.Request.Context(), c.Query("brand"), c.Query("category"), c.Query("search"))
	if err != nil {
		h.logger.Errorf("Failed to list guidelines: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to list guidelines",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, guidelines)
}

// GetGuideline 获取知识条目详情
// @Summary 获取知识条目详情
// @Tags 知识库
// @Accept json
// @Produce json
// @Param id path int true "条目ID"
// @Success 200 {object} models.Guideline
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/guidelines/{id} [get]
func (h *GuidelineHandler) GetGuideline(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid guideline ID",
			Message: "ID must be a valid number",
		})
		return
	}

	guideline, err := h.guidelineService.GetGuideline(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Guideline not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, guideline)
}

// CreateGuideline 创建知识条目
// @Summary 创建知识条目
// @Description 新增知识库条目，包括 AI 草拟后人工确认的协议
// @Tags 知识库
// @Accept json
// @Produce json
// @Param guideline body services.GuidelineCreateRequest true "条目信息"
// @Success 201 {object} models.Guideline
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/guidelines [post]
func (h *GuidelineHandler) CreateGuideline(c *gin.Context) {
	var req services.GuidelineCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	guideline, err := h.guidelineService.CreateGuideline(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorf("Failed to create guideline: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to create guideline",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, guideline)
}

// UpdateGuideline 更新知识条目
// @Summary 更新知识条目
// @Tags 知识库
// @Accept json
// @Produce json
// @Param id path int true "条目ID"
// @Param guideline body services.GuidelineUpdateRequest true "更新信息"
// @Success 200 {object} models.Guideline
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/guidelines/{id} [put]
func (h *GuidelineHandler) UpdateGuideline(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid guideline ID",
			Message: "ID must be a valid number",
		})
		return
	}

	var req services.GuidelineUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	guideline, err := h.guidelineService.UpdateGuideline(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "Guideline not found",
				Message: err.Error(),
			})
			return
		}
		h.logger.Errorf("Failed to update guideline %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to update guideline",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, guideline)
}

// DeleteGuideline 删除知识条目
// @Summary 删除知识条目
// @Tags 知识库
// @Accept json
// @Produce json
// @Param id path int true "条目ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/guidelines/{id} [delete]
func (h *GuidelineHandler) DeleteGuideline(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid guideline ID",
			Message: "ID must be a valid number",
		})
		return
	}

	if err := h.guidelineService.DeleteGuideline(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "Guideline not found",
				Message: err.Error(),
			})
			return
		}
		h.logger.Errorf("Failed to delete guideline %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to delete guideline",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Guideline deleted"})
}

// RegisterGuidelineRoutes 注册知识库路由
func RegisterGuidelineRoutes(r *gin.RouterGroup, handler *GuidelineHandler) {
	guidelines := r.Group("/guidelines")
	{
		guidelines.GET("", handler.ListGuidelines)
		guidelines.POST("", handler.CreateGuideline)
		guidelines.GET(":id", handler.GetGuideline)
		guidelines.PUT(":id", handler.UpdateGuideline)
		guidelines.DELETE(":id", handler.DeleteGuideline)
	}
}
