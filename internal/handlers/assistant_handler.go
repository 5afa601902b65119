package handlers

import (
	"net/http"

	"github.com/Farmanaslam/Infofix-New-App/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AssistantHandler AI 助手处理器
type AssistantHandler struct {
	assistantService *services.AssistantService
	logger           *logrus.Logger
}

// NewAssistantHandler 创建 AI 助手处理器
func NewAssistantHandler(assistantService *services.AssistantService, logger *logrus.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistantService: assistantService,
		logger:           logger,
	}
}

// brandChatRequest 品牌助手聊天请求
type brandChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// brandInfo 品牌助手概要
type brandInfo struct {
	Key            string `json:"key"`
	Name           string `json:"name"`
	WelcomeMessage string `json:"welcome_message"`
}

// WorkspaceChat 工作台聊天
// @Summary 工作台聊天
// @Description 面向服务经理的对话，自动注入系统负载、知识库协议与当前工单上下文；AI 失败时返回兜底文案
// @Tags AI助手
// @Accept json
// @Produce json
// @Param chat body services.ChatRequest true "聊天请求"
// @Success 200 {object} services.ChatResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/assistant/chat [post]
func (h *AssistantHandler) WorkspaceChat(c *gin.Context) {
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	resp := h.assistantService.WorkspaceChat(c.Request.Context(), &req)
	c.JSON(http.StatusOK, resp)
}

// BrandChat 品牌助手聊天
// @Summary 品牌助手聊天
// @Description 面向经销商的品牌支持对话，注入对应品牌的知识库协议
// @Tags AI助手
// @Accept json
// @Produce json
// @Param brand path string true "品牌标识"
// @Param chat body brandChatRequest true "聊天请求"
// @Success 200 {object} services.ChatResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/assistant/brands/{brand}/chat [post]
func (h *AssistantHandler) BrandChat(c *gin.Context) {
	var req brandChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.assistantService.BrandChat(c.Request.Context(), c.Param("brand"), req.Message)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Unknown brand",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListBrands 获取品牌助手列表
// @Summary 获取品牌助手列表
// @Tags AI助手
// @Accept json
// @Produce json
// @Success 200 {array} brandInfo
// @Router /api/assistant/brands [get]
func (h *AssistantHandler) ListBrands(c *gin.Context) {
	brands := make([]brandInfo, 0, len(services.Brands))
	for _, b := range services.Brands {
		brands = append(brands, brandInfo{
			Key:            b.Key,
			Name:           b.Name,
			WelcomeMessage: b.WelcomeMessage,
		})
	}
	c.JSON(http.StatusOK, brands)
}

// RegisterAssistantRoutes 注册 AI 助手路由
func RegisterAssistantRoutes(r *gin.RouterGroup, handler *AssistantHandler) {
	assistant := r.Group("/assistant")
	{
		assistant.POST("/chat", handler.WorkspaceChat)
		assistant.GET("/brands", handler.ListBrands)
		assistant.POST("/brands/:brand/chat", handler.BrandChat)
	}
}
