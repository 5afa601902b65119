package handlers

import (
	"errors"
	"net/http"

	"github.com/Farmanaslam/Infofix-New-App/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReportHandler 质检报告处理器
type ReportHandler struct {
	reportService *services.ReportService
	logger        *logrus.Logger
}

// NewReportHandler 创建质检报告处理器
func NewReportHandler(reportService *services.ReportService, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// SaveReport 保存质检报告
// @Summary 保存质检报告
// @Description 新建或更新报告，并记录检查项变更历史
// @Tags 质检报告
// @Accept json
// @Produce json
// @Param report body services.ReportSaveRequest true "报告信息"
// @Success 200 {object} models.QCReport
// @Success 201 {object} models.QCReport
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/reports [post]
func (h *ReportHandler) SaveReport(c *gin.Context) {
	var req services.ReportSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	report, err := h.reportService.SaveReport(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrUnknownChecklistItem) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Unknown checklist item",
				Message: err.Error(),
			})
			return
		}
		h.logger.Errorf("Failed to save report: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to save report",
			Message: err.Error(),
		})
		return
	}

	if req.ID == nil {
		c.JSON(http.StatusCreated, report)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetReport 获取报告详情
// @Summary 获取报告详情
// @Description 根据ID获取质检报告及其历史
// @Tags 质检报告
// @Accept json
// @Produce json
// @Param id path int true "报告ID"
// @Success 200 {object} models.QCReport
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/reports/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid report ID",
			Message: "ID must be a valid number",
		})
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Report not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ListReports 获取报告列表
// @Summary 获取报告列表
// @Description 获取质检报告列表，支持按经销商与技术员过滤
// @Tags 质检报告
// @Accept json
// @Produce json
// @Param dealer query string false "经销商过滤"
// @Param technician query string false "技术员过滤"
// @Success 200 {array} models.QCReport
// @Failure 500 {object} ErrorResponse
// @Router /api/reports [get]
func (h *ReportHandler) ListReports(c *gin.Context) {
	reports, err := h.reportService.ListReports(c.Request.Context(), c.Query("dealer"), c.Query("technician"))
	if err != nil {
		h.logger.Errorf("Failed to list reports: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to list reports",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, reports)
}

// ToggleChecklistItem 切换检查项
// @Summary 切换检查项
// @Description 切换单个检查项状态，重复同值即取消；进度首次达到 100% 时返回 celebrate
// @Tags 质检报告
// @Accept json
// @Produce json
// @Param id path int true "报告ID"
// @Param item body services.ToggleRequest true "检查项切换"
// @Success 200 {object} services.ToggleResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/reports/{id}/toggle [post]
func (h *ReportHandler) ToggleChecklistItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid report ID",
			Message: "ID must be a valid number",
		})
		return
	}

	var req services.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	result, err := h.reportService.ToggleItem(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "Report not found",
				Message: err.Error(),
			})
		case errors.Is(err, services.ErrUnknownChecklistItem):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Unknown checklist item",
				Message: err.Error(),
			})
		default:
			h.logger.Errorf("Failed to toggle item on report %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "Failed to toggle checklist item",
				Message: err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// SetActionRequired 设置处理动作
// @Summary 设置处理动作
// @Description 显式设置或清除报告的处理动作，取值限定在固定集合内
// @Tags 质检报告
// @Accept json
// @Produce json
// @Param id path int true "报告ID"
// @Param action body services.ActionRequiredRequest true "处理动作"
// @Success 200 {object} models.QCReport
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/reports/{id}/action [put]
func (h *ReportHandler) SetActionRequired(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid report ID",
			Message: "ID must be a valid number",
		})
		return
	}

	var req services.ActionRequiredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	report, err := h.reportService.SetActionRequired(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "Report not found",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid action required value",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetChecklistSchema 获取检查项清单
// @Summary 获取检查项清单
// @Description 返回固定的质检检查项分类与条目
// @Tags 质检报告
// @Accept json
// @Produce json
// @Success 200 {array} services.ChecklistCategory
// @Router /api/reports/checklist [get]
func (h *ReportHandler) GetChecklistSchema(c *gin.Context) {
	c.JSON(http.StatusOK, services.ChecklistSchema)
}

// GetDashboard 获取质检看板
// @Summary 获取质检看板
// @Description 按经销商与技术员聚合的质检统计
// @Tags 质检报告
// @Accept json
// @Produce json
// @Success 200 {object} services.QCDashboard
// @Failure 500 {object} ErrorResponse
// @Router /api/reports/dashboard [get]
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to build QC dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to build dashboard",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// RegisterReportRoutes 注册质检报告路由
func RegisterReportRoutes(r *gin.RouterGroup, handler *ReportHandler) {
	reports := r.Group("/reports")
	{
		reports.POST("", handler.SaveReport)
		reports.GET("", handler.ListReports)
		reports.GET("/checklist", handler.GetChecklistSchema)
		reports.GET("/dashboard", handler.GetDashboard)
		reports.GET(":id", handler.GetReport)
		reports.POST(":id/toggle", handler.ToggleChecklistItem)
		reports.PUT(":id/action", handler.SetActionRequired)
	}
}
