package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrInvalidTransition 状态机前置条件不满足
var ErrInvalidTransition = errors.New("invalid status transition")

// EventPublisher 变更事件发布（由 WebSocket Hub 实现）
type EventPublisher interface {
	Publish(eventType string, data interface{})
}

// TicketService 工单管理服务
type TicketService struct {
	db        *gorm.DB
	logger    *logrus.Logger
	publisher EventPublisher
}

// NewTicketService 创建工单服务
func NewTicketService(db *gorm.DB, logger *logrus.Logger) *TicketService {
	if logger == nil {
		logger = logrus.New()
	}

	return &TicketService{
		db:     db,
		logger: logger,
	}
}

// SetEventPublisher 注入变更事件发布器
func (s *TicketService) SetEventPublisher(p EventPublisher) {
	s.publisher = p
}

// TicketCreateRequest 创建工单请求
type TicketCreateRequest struct {
	CustomerID       uint     `json:"customer_id" binding:"required"`
	DeviceType       string   `json:"device_type" binding:"required"`
	Brand            string   `json:"brand"`
	Model            string   `json:"model"`
	IssueDescription string   `json:"issue_description" binding:"required"`
	Store            string   `json:"store"`
	Priority         string   `json:"priority"`
	Warranty         bool     `json:"warranty"`
	EstimatedAmount  *float64 `json:"estimated_amount"`
}

// TicketListRequest 工单列表请求
type TicketListRequest struct {
	Page       int    `form:"page,default=1"`
	PageSize   int    `form:"page_size,default=20"`
	Status     string `form:"status"`
	Store      string `form:"store"`
	DeviceType string `form:"device_type"`
	CustomerID *uint  `form:"customer_id"`
	Search     string `form:"search"`
}

// TicketStatusRequest 运营侧状态流转请求
type TicketStatusRequest struct {
	Status       string   `json:"status" binding:"required"`
	Actor        string   `json:"actor" binding:"required"`
	ActorRole    string   `json:"actor_role"`
	HoldReason   string   `json:"hold_reason"`
	ProgressNote string   `json:"progress_note"`
	FinalAmount  *float64 `json:"final_amount"`
}

// CustomerTicketStats 客户侧工单统计
type CustomerTicketStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Resolved int64 `json:"resolved"`
}

// CreateTicket 创建工单：REQ- 前缀的时间戳编号 + 初始历史事件
func (s *TicketService) CreateTicket(ctx context.Context, req *TicketCreateRequest) (*models.Ticket, error) {
	// 验证客户是否存在
	var customer models.User
	if err := s.db.WithContext(ctx).First(&customer, req.CustomerID).Error; err != nil {
		return nil, fmt.Errorf("customer not found: %w", err)
	}

	if req.Priority == "" {
		req.Priority = "Medium"
	}

	ticket := &models.Ticket{
		TicketCode:       fmt.Sprintf("REQ-%d", time.Now().UnixMilli()),
		CustomerID:       customer.ID,
		Name:             customer.Name,
		Email:            customer.Email,
		Phone:            customer.Phone,
		Address:          customer.Address,
		DeviceType:       req.DeviceType,
		Brand:            req.Brand,
		Model:            req.Model,
		IssueDescription: req.IssueDescription,
		Store:            req.Store,
		Status:           models.StatusPendingApproval,
		Priority:         req.Priority,
		Warranty:         req.Warranty,
		EstimatedAmount:  req.EstimatedAmount,
	}

	if err := s.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.appendHistory(ctx, ticket.ID, historyEntry{
		ActorName: customer.Name,
		ActorRole: "CUSTOMER",
		Action:    "Ticket Created",
		Kind:      models.EventKindCreated,
		Details:   "Service request submitted via Customer Portal.",
	})

	s.logger.Infof("Created ticket %s for customer %d", ticket.TicketCode, customer.ID)
	s.publish("ticket.created", ticket)

	return s.GetTicket(ctx, ticket.ID)
}

// ApproveTicket 审批通过：仅允许 Pending Approval，改写编号前缀 REQ -> IF
func (s *TicketService) ApproveTicket(ctx context.Context, id uint, approver string) (*models.Ticket, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	if ticket.Status != models.StatusPendingApproval {
		return nil, fmt.Errorf("%w: cannot approve ticket in status %q", ErrInvalidTransition, ticket.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"ticket_code": strings.Replace(ticket.TicketCode, "REQ", "IF", 1),
		"status":      models.StatusNew,
		"approved_by": approver,
		"approved_at": &now,
	}

	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to approve ticket: %w", err)
	}

	s.appendHistory(ctx, id, historyEntry{
		ActorName: approver,
		ActorRole: "STAFF",
		Action:    "Approved",
		Kind:      models.EventKindApproved,
		Details:   "Service request approved and moved to the active queue.",
	})

	s.logger.Infof("Approved ticket %d by %s", id, approver)

	ticket, err = s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish("ticket.updated", ticket)
	return ticket, nil
}

// RejectTicket 审批拒绝：仅允许 Pending Approval。软删除语义，记录保留并标记 Rejected。
func (s *TicketService) RejectTicket(ctx context.Context, id uint, rejecter string) (*models.Ticket, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	if ticket.Status != models.StatusPendingApproval {
		return nil, fmt.Errorf("%w: cannot reject ticket in status %q", ErrInvalidTransition, ticket.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      models.StatusRejected,
		"rejected_by": rejecter,
		"rejected_at": &now,
	}

	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to reject ticket: %w", err)
	}

	s.appendHistory(ctx, id, historyEntry{
		ActorName: rejecter,
		ActorRole: "STAFF",
		Action:    "Rejected",
		Kind:      models.EventKindRejected,
		Details:   "Service request rejected during review.",
	})

	s.logger.Infof("Rejected ticket %d by %s", id, rejecter)

	ticket, err = s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish("ticket.updated", ticket)
	return ticket, nil
}

// 运营侧允许的流转表
var allowedTransitions = map[string][]string{
	models.StatusNew:        {models.StatusInProgress, models.StatusOnHold, models.StatusResolved},
	models.StatusInProgress: {models.StatusOnHold, models.StatusResolved},
	models.StatusOnHold:     {models.StatusInProgress, models.StatusResolved},
}

// UpdateStatus 运营侧状态流转（In Progress / On Hold / Resolved），每次流转追加一条历史
func (s *TicketService) UpdateStatus(ctx context.Context, id uint, req *TicketStatusRequest) (*models.Ticket, error) {
	if !models.ValidStatus(req.Status) {
		return nil, fmt.Errorf("unknown status %q", req.Status)
	}

	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, to := range allowedTransitions[ticket.Status] {
		if to == req.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, ticket.Status, req.Status)
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.HoldReason != "" {
		updates["hold_reason"] = req.HoldReason
	}
	if req.ProgressNote != "" {
		updates["progress_note"] = req.ProgressNote
	}
	if req.FinalAmount != nil {
		updates["estimated_amount"] = *req.FinalAmount
	}

	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update ticket status: %w", err)
	}

	actorRole := req.ActorRole
	if actorRole == "" {
		actorRole = "STAFF"
	}

	entry := historyEntry{ActorName: req.Actor, ActorRole: actorRole}
	switch req.Status {
	case models.StatusInProgress:
		entry.Action = "Repair Started"
		entry.Kind = models.EventKindUpdate
		entry.Details = "Device repair is now in progress."
	case models.StatusOnHold:
		entry.Action = "On Hold"
		entry.Kind = models.EventKindHold
		entry.Details = fmt.Sprintf("Ticket placed on hold. Reason: %s", req.HoldReason)
	case models.StatusResolved:
		entry.Action = "Resolved"
		entry.Kind = models.EventKindResolved
		entry.Details = "Device repaired and ready for pickup."
	default:
		entry.Action = "Updated"
		entry.Kind = models.EventKindUpdate
		entry.Details = fmt.Sprintf("Status changed to %s.", req.Status)
	}
	if req.ProgressNote != "" {
		entry.Details = fmt.Sprintf("%s Note: %s", entry.Details, req.ProgressNote)
	}
	s.appendHistory(ctx, id, entry)

	s.logger.Infof("Ticket %d moved from %s to %s by %s", id, ticket.Status, req.Status, req.Actor)

	ticket, err = s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish("ticket.updated", ticket)
	return ticket, nil
}

// GetTicket 按主键获取工单（含历史）
func (s *TicketService) GetTicket(ctx context.Context, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).Preload("History").First(&ticket, id).Error; err != nil {
		return nil, fmt.Errorf("ticket not found: %w", err)
	}
	return &ticket, nil
}

// GetTicketByCode 按展示编号获取工单
func (s *TicketService) GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).Preload("History").Where("ticket_code = ?", code).First(&ticket).Error; err != nil {
		return nil, fmt.Errorf("ticket not found: %w", err)
	}
	return &ticket, nil
}

// ListTickets 分页 + 过滤查询
func (s *TicketService) ListTickets(ctx context.Context, req *TicketListRequest) ([]models.Ticket, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Ticket{})

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Store != "" {
		query = query.Where("store = ?", req.Store)
	}
	if req.DeviceType != "" {
		query = query.Where("device_type = ?", req.DeviceType)
	}
	if req.CustomerID != nil {
		query = query.Where("customer_id = ?", *req.CustomerID)
	}
	if req.Search != "" {
		like := "%" + req.Search + "%"
		query = query.Where("ticket_code LIKE ? OR name LIKE ? OR issue_description LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	var tickets []models.Ticket
	err := query.Preload("History").
		Order("created_at DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&tickets).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tickets: %w", err)
	}

	return tickets, total, nil
}

// Timeline 派生展示时间线
func (s *TicketService) Timeline(ctx context.Context, id uint) ([]models.TicketHistoryEvent, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	return DeriveTimeline(ticket), nil
}

// DeriveTimeline 纯函数的时间线派生，供 HTTP 层与订阅推送复用。
// 历史为空时合成一条兜底事件；按毫秒时间戳倒序，新事件在前；
// 排序键相同时按事件 ID 倒序，保证幂等。
func DeriveTimeline(ticket *models.Ticket) []models.TicketHistoryEvent {
	if len(ticket.History) == 0 {
		created := ticket.CreatedAt
		return []models.TicketHistoryEvent{
			{
				TicketID:  ticket.ID,
				Timestamp: created.UnixMilli(),
				Date:      created.Format("2006-01-02 15:04:05"),
				ActorName: "System",
				ActorRole: "System",
				Action:    "Ticket Created",
				Kind:      models.EventKindCreated,
				Details:   "Service request received.",
			},
		}
	}

	events := make([]models.TicketHistoryEvent, len(ticket.History))
	copy(events, ticket.History)
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp > events[j].Timestamp
		}
		return events[i].ID > events[j].ID
	})
	return events
}

// CustomerStats 客户侧统计：总数 / 进行中（非 Resolved 且非 Rejected）/ 已解决
func (s *TicketService) CustomerStats(ctx context.Context, customerID uint) (*CustomerTicketStats, error) {
	var stats CustomerTicketStats

	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("customer_id = ?", customerID).
		Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("customer_id = ?", customerID).
		Where("status NOT IN ?", []string{models.StatusResolved, models.StatusRejected}).
		Count(&stats.Active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active tickets: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("customer_id = ?", customerID).
		Where("status = ?", models.StatusResolved).
		Count(&stats.Resolved).Error; err != nil {
		return nil, fmt.Errorf("failed to count resolved tickets: %w", err)
	}

	return &stats, nil
}

type historyEntry struct {
	ActorName string
	ActorRole string
	Action    string
	Kind      string
	Details   string
}

// appendHistory 追加一条历史事件。历史只追加，任何路径都不得修改或删除已有事件。
func (s *TicketService) appendHistory(ctx context.Context, ticketID uint, entry historyEntry) {
	now := time.Now()
	event := &models.TicketHistoryEvent{
		TicketID:  ticketID,
		Timestamp: now.UnixMilli(),
		Date:      now.Format("2006-01-02 15:04:05"),
		ActorName: entry.ActorName,
		ActorRole: entry.ActorRole,
		Action:    entry.Action,
		Kind:      entry.Kind,
		Details:   entry.Details,
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		s.logger.Errorf("Failed to record ticket history: %v", err)
	}
}

func (s *TicketService) publish(eventType string, data interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(eventType, data)
	}
}
