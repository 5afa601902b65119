package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"
	"github.com/Farmanaslam/Infofix-New-App/pkg/genai"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AI 不可用时的兜底文案。AI 调用永远不会把错误抛给调用方，只会降级为这些文案。
const (
	FallbackMissingKey   = "API Key is missing. Please configure the Gemini API key to use AI features."
	FallbackEmptyReply   = "I couldn't generate a response at this time."
	FallbackGeneralError = "Sorry, I encountered an error while processing your request."
	FallbackConnectivity = "I'm having trouble connecting to the AI service right now. Please check your internet connection."
)

// AssistantService 工作区与品牌服务台的 AI 聊天
type AssistantService struct {
	db     *gorm.DB
	logger *logrus.Logger
	ai     genai.GeminiInterface
}

// NewAssistantService 创建 AI 助手服务
func NewAssistantService(db *gorm.DB, logger *logrus.Logger, ai genai.GeminiInterface) *AssistantService {
	if logger == nil {
		logger = logrus.New()
	}

	return &AssistantService{
		db:     db,
		logger: logger,
		ai:     ai,
	}
}

// ChatRequest 工作区聊天请求
type ChatRequest struct {
	Message  string `json:"message" binding:"required"`
	TicketID *uint  `json:"ticket_id"`
}

// ChatResponse 聊天响应
type ChatResponse struct {
	Reply string `json:"reply"`
}

// Complete 单轮补全：查询 + 应用状态上下文。任何失败都转为兜底文案返回。
func (s *AssistantService) Complete(ctx context.Context, query, appContext string) string {
	reply, err := s.generate(ctx, query, appContext)
	if err != nil {
		return s.fallbackFor(err, FallbackGeneralError)
	}
	return reply
}

// generate 组装通用提示词并调用 Gemini，失败返回错误由调用方降级
func (s *AssistantService) generate(ctx context.Context, query, appContext string) (string, error) {
	if appContext == "" {
		appContext = "No specific context provided."
	}

	prompt := fmt.Sprintf(`You are a helpful AI assistant embedded within a web application.

Context about the current application state:
%s

User Query: %s

Keep your answer concise and helpful.`, appContext, query)

	reply, err := s.ai.GenerateContent(ctx, prompt)
	if err != nil {
		s.logger.Errorf("Gemini API error: %v", err)
		return "", err
	}
	if reply == "" {
		return FallbackEmptyReply, nil
	}
	return reply, nil
}

func (s *AssistantService) fallbackFor(err error, fallback string) string {
	if errors.Is(err, genai.ErrMissingAPIKey) {
		return FallbackMissingKey
	}
	return fallback
}

// WorkspaceChat 工作区经理聊天：系统统计 + 通用协议知识库 + 可选的活动工单上下文
func (s *AssistantService) WorkspaceChat(ctx context.Context, req *ChatRequest) *ChatResponse {
	kbContext := s.workspaceKB(ctx)
	stats := s.systemStats(ctx)

	ticketContext := "NO ACTIVE TICKET SELECTED. User is asking general questions."
	if req.TicketID != nil {
		var ticket models.Ticket
		if err := s.db.WithContext(ctx).Preload("History").First(&ticket, *req.TicketID).Error; err != nil {
			s.logger.Warnf("Chat ticket context %d not found: %v", *req.TicketID, err)
		} else {
			ticketContext = buildTicketContext(&ticket)
		}
	}

	systemPrompt := fmt.Sprintf(`You are a Self-Improving AI Service Manager for "INFOFIX SERVICES".

SYSTEM STATS: %s

INTERNAL KNOWLEDGE BASE (Your primary source of truth):
%s

%s

GOAL:
1. If a Protocol exists in the Knowledge Base, follow it.
2. If discussing a specific ticket, use its details and history.
3. If the user asks to "Draft a message", write a polite SMS/Email for the customer.
4. If providing a technical solution not in the Knowledge Base, label it as "Suggested Fix".

Tone: Professional, Data-Driven, Concise.`, stats, kbContext, ticketContext)

	reply, err := s.generate(ctx, req.Message, systemPrompt)
	if err != nil {
		return &ChatResponse{Reply: s.fallbackFor(err, FallbackConnectivity)}
	}
	return &ChatResponse{Reply: reply}
}

// BrandChat 品牌服务台聊天：同一条代码路径，品牌差异全部来自 BrandConfig
func (s *AssistantService) BrandChat(ctx context.Context, brandKey, message string) (*ChatResponse, error) {
	brand, ok := BrandByKey(brandKey)
	if !ok {
		return nil, fmt.Errorf("unknown brand %q", brandKey)
	}

	var protocols []models.Guideline
	if err := s.db.WithContext(ctx).
		Where("brand = ?", brand.Key).
		Order("created_at ASC").
		Find(&protocols).Error; err != nil {
		s.logger.Errorf("Failed to load %s protocols: %v", brand.Name, err)
	}

	systemPrompt := brand.SystemPrompt(brand.KBContext(protocols))

	reply, err := s.generate(ctx, message, systemPrompt)
	if err != nil {
		return &ChatResponse{Reply: s.fallbackFor(err, FallbackConnectivity)}, nil
	}
	return &ChatResponse{Reply: reply}, nil
}

// workspaceKB 通用工作区协议渲染为 [PROTOCOL: ...] 段落
func (s *AssistantService) workspaceKB(ctx context.Context) string {
	var guidelines []models.Guideline
	if err := s.db.WithContext(ctx).
		Where("brand = ?", "").
		Order("created_at ASC").
		Find(&guidelines).Error; err != nil {
		s.logger.Errorf("Failed to load support guidelines: %v", err)
		return ""
	}

	entries := make([]string, 0, len(guidelines))
	for _, g := range guidelines {
		entries = append(entries, fmt.Sprintf("[PROTOCOL: %s]\nCategory: %s\n%s", g.Title, g.Category, g.Content))
	}
	return strings.Join(entries, "\n\n")
}

// systemStats 聊天提示里的店面负载快照
func (s *AssistantService) systemStats(ctx context.Context) string {
	var total, open, today int64

	s.db.WithContext(ctx).Model(&models.Ticket{}).Count(&total)
	s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("status NOT IN ?", []string{models.StatusResolved, models.StatusRejected}).
		Count(&open)

	dayStart := time.Now().Truncate(24 * time.Hour)
	s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("created_at >= ?", dayStart).
		Count(&today)

	load := "LIGHT WORKLOAD"
	if today > 3 {
		load = "HEAVY WORKLOAD"
	}

	return fmt.Sprintf("Total Tickets: %d, Open: %d. Shop Load: %s (%d tickets today).", total, open, load, today)
}

// buildTicketContext 活动工单上下文，含按时间线排序的历史日志
func buildTicketContext(ticket *models.Ticket) string {
	var sb strings.Builder
	sb.WriteString("CURRENT ACTIVE TICKET:\n")
	sb.WriteString(fmt.Sprintf("ID: %s\n", ticket.TicketCode))
	sb.WriteString(fmt.Sprintf("Device: %s %s (%s)\n", ticket.Brand, ticket.Model, ticket.DeviceType))
	sb.WriteString(fmt.Sprintf("Issue: %s\n", ticket.IssueDescription))
	sb.WriteString(fmt.Sprintf("Priority: %s\n", ticket.Priority))
	sb.WriteString(fmt.Sprintf("Status: %s\n", ticket.Status))

	note := ticket.ProgressNote
	if note == "" {
		note = "None"
	}
	sb.WriteString(fmt.Sprintf("Internal Notes: %s", note))

	if events := DeriveTimeline(ticket); len(events) > 0 {
		sb.WriteString("\nTICKET HISTORY LOGS:")
		for _, h := range events {
			sb.WriteString(fmt.Sprintf("\n- %s: %s (%s)", h.Date, h.Action, h.Details))
		}
	}
	return sb.String()
}
