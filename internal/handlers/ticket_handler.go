package handlers

import (
	"errors"
	"net/http"

	"github.com/Farmanaslam/Infofix-New-App/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TicketHandler 工单处理器
type TicketHandler struct {
	ticketService *services.TicketService
	logger        *logrus.Logger
}

// NewTicketHandler 创建工单处理器
func NewTicketHandler(ticketService *services.TicketService, logger *logrus.Logger) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		logger:        logger,
	}
}

// actorRequest 审批/驳回操作的执行人
type actorRequest struct {
	Actor string `json:"actor" binding:"required"`
}

// CreateTicket 创建工单
// @Summary 创建工单
// @Description 客户提交维修请求，生成 REQ- 编号并进入待审批状态
// @Tags 工单
// @Accept json
// @Produce json
// @Param ticket body services.TicketCreateRequest true "工单信息"
// @Success 201 {object} models.Ticket
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/tickets [post]
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	var req services.TicketCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	ticket, err := h.ticketService.CreateTicket(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorf("Failed to create ticket: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to create ticket",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

// GetTicket 获取工单详情
// @Summary 获取工单详情
// @Description 根据ID获取工单的详细信息
// @Tags 工单
// @Accept json
// @Produce json
// @Param id path int true "工单ID"
// @Success 200 {object} models.Ticket
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/tickets/{id} [get]
func (h *TicketHandler) GetTicket(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid ticket ID",
			Message: "ID must be a valid number",
		})
		return
	}

	ticket, err := h.ticketService.GetTicket(c.Request.Context(), id)
	if err != nil {
		h.logger.Errorf("Failed to get ticket %d: %v", id, err)
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Ticket not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// GetTicketByCode 按编号获取工单
// @Summary 按编号获取工单
// @Description 根据 REQ-/IF- 编号获取工单详情
// @Tags 工单
// @Accept json
// @Produce json
// @Param code path string true "工单编号"
// @Success 200 {object} models.Ticket
// @Failure 404 {object} ErrorResponse
// @Router /api/tickets/code/{code} [get]
func (h *TicketHandler) GetTicketByCode(c *gin.Context) {
	code := c.Param("code")

	ticket, err := h.ticketService.GetTicketByCode(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Ticket not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// ListTickets 获取工单列表
// @Summary 获取工单列表
// @Description 获取工单列表，支持分页和过滤
// @Tags 工单
// @Accept json
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页大小"
// @Param status query string false "状态过滤"
// @Param store query string false "门店过滤"
// @Param device_type query string false "设备类型过滤"
// @Param customer_id query int false "客户ID过滤"
// @Param search query string false "搜索关键词"
// @Success 200 {object} PaginatedResponse{data=[]models.Ticket}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/tickets [get]
func (h *TicketHandler) ListTickets(c *gin.Context) {
	var req services.TicketListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid query parameters",
			Message: err.Error(),
		})
		return
	}

	tickets, total, err := h.ticketService.ListTickets(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorf("Failed to list tickets: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to list tickets",
			Message: err.Error(),
		})
		return
	}

	pages := int(total) / req.PageSize
	if int(total)%req.PageSize > 0 {
		pages++
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:     tickets,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Pages:    pages,
	})
}

// ApproveTicket 审批工单
// @Summary 审批工单
// @Description 审批通过后编号由 REQ- 改写为 IF-，状态进入 New
// @Tags 工单
// @Accept json
// @Produce json
// @Param id path int true "工单ID"
// @Param actor body actorRequest true "审批人"
// @Success 200 {object} models.Ticket
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/tickets/{id}/approve [post]
func (h *TicketHandler) ApproveTicket(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid ticket ID",
			Message: "ID must be a valid number",
		})
		return
	}

	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	ticket, err := h.ticketService.ApproveTicket(c.Request.Context(), id, req.Actor)
	if err != nil {
		h.handleTransitionError(c, id, "approve", err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// RejectTicket 驳回工单
// @Summary 驳回工单
// @Description 驳回待审批的工单并软删除
// @Tags 工单
// @Accept json
// @Produce json
// @Param id path int true "工单ID"
// @Param actor body actorRequest true "驳回人"
// @Success 200 {object} models.Ticket
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/tickets/{id}/reject [post]
func (h *TicketHandler) RejectTicket(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid ticket ID",
			Message: "ID must be a valid number",
		})
		return
	}

	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	ticket, err := h.ticketService.RejectTicket(c.Request.Context(), id, req.Actor)
	if err != nil {
		h.handleTransitionError(c, id, "reject", err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// UpdateTicketStatus 更新工单状态
// @Summary 更新工单状态
// @Description 运营侧状态流转：开始维修、挂起、完成等
// @Tags 工单
// @Accept json
// @Produce json
// @Param id path int true "工单ID"
// @Param status body services.TicketStatusRequest true "状态流转信息"
// @Success 200 {object} models.Ticket
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/tickets/{id}/status [put]
func (h *TicketHandler) UpdateTicketStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid ticket ID",
			Message: "ID must be a valid number",
		})
		return
	}

	var req services.TicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	ticket, err := h.ticketService.UpdateStatus(c.Request.Context(), id, &req)
	if err != nil {
		h.handleTransitionError(c, id, "update status of", err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// GetTicketTimeline 获取工单时间线
// @Summary 获取工单时间线
// @Description 获取工单全部历史事件，按时间倒序
// @Tags 工单
// @Accept json
// @Produce json
// @Param id path int true "工单ID"
// @Success 200 {array} models.TicketHistoryEvent
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/tickets/{id}/timeline [get]
func (h *TicketHandler) GetTicketTimeline(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid ticket ID",
			Message: "ID must be a valid number",
		})
		return
	}

	events, err := h.ticketService.Timeline(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Ticket not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, events)
}

// GetCustomerStats 获取客户工单统计
// @Summary 获取客户工单统计
// @Description 获取指定客户的工单总数、进行中与已完成数量
// @Tags 工单
// @Accept json
// @Produce json
// @Param id path int true "客户ID"
// @Success 200 {object} services.CustomerTicketStats
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/tickets/customer/{id}/stats [get]
func (h *TicketHandler) GetCustomerStats(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid customer ID",
			Message: "ID must be a valid number",
		})
		return
	}

	stats, err := h.ticketService.CustomerStats(c.Request.Context(), id)
	if err != nil {
		h.logger.Errorf("Failed to get stats for customer %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to get customer stats",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// handleTransitionError 统一处理状态流转错误
func (h *TicketHandler) handleTransitionError(c *gin.Context, id uint, op string, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Ticket not found",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "Invalid status transition",
			Message: err.Error(),
		})
	default:
		h.logger.Errorf("Failed to %s ticket %d: %v", op, id, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to update ticket",
			Message: err.Error(),
		})
	}
}

// RegisterTicketRoutes 注册工单路由
func RegisterTicketRoutes(r *gin.RouterGroup, handler *TicketHandler) {
	tickets := r.Group("/tickets")
	{
		tickets.POST("", handler.CreateTicket)
		tickets.GET("", handler.ListTickets)
		tickets.GET("/code/:code", handler.GetTicketByCode)
		tickets.GET("/customer/:id/stats", handler.GetCustomerStats)
		tickets.GET(":id", handler.GetTicket)
		tickets.GET(":id/timeline", handler.GetTicketTimeline)
		tickets.POST(":id/approve", handler.ApproveTicket)
		tickets.POST(":id/reject", handler.RejectTicket)
		tickets.PUT(":id/status", handler.UpdateTicketStatus)
	}
}
