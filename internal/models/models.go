package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// 工单状态（闭集）
const (
	StatusPendingApproval = "Pending Approval"
	StatusNew             = "New"
	StatusInProgress      = "In Progress"
	StatusOnHold          = "On Hold"
	StatusResolved        = "Resolved"
	StatusRejected        = "Rejected"
)

// ValidStatus 判断状态是否属于闭集
func ValidStatus(s string) bool {
	switch s {
	case StatusPendingApproval, StatusNew, StatusInProgress, StatusOnHold, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// TerminalStatus 终态：已解决 / 已拒绝
func TerminalStatus(s string) bool {
	return s == StatusResolved || s == StatusRejected
}

// 历史事件类型（闭集，用于时间线图标/配色的纯映射）
const (
	EventKindCreated  = "created"
	EventKindApproved = "approved"
	EventKindRejected = "rejected"
	EventKindHold     = "hold"
	EventKindResolved = "resolved"
	EventKindUpdate   = "update"
)

// 用户模型（客户与员工共用，按 role 区分）
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"index" json:"email"`
	Phone     string         `json:"phone"`
	Address   string         `json:"address"`
	Role      string         `gorm:"default:'customer'" json:"role"` // customer, staff, technician, admin
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// 工单模型
type Ticket struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	TicketCode       string     `gorm:"unique;not null;index" json:"ticket_code"` // REQ-<millis>，审批后改写为 IF-<millis>
	CustomerID       uint       `gorm:"index" json:"customer_id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Address          string     `json:"address"`
	DeviceType       string     `gorm:"not null" json:"device_type"`
	Brand            string     `json:"brand"`
	Model            string     `json:"model"`
	IssueDescription string     `gorm:"type:text;not null" json:"issue_description"`
	Store            string     `gorm:"index" json:"store"`
	Status           string     `gorm:"default:'Pending Approval';index" json:"status"`
	Priority         string     `gorm:"default:'Medium'" json:"priority"` // Low, Medium, High
	Warranty         bool       `gorm:"default:false" json:"warranty"`
	EstimatedAmount  *float64   `json:"estimated_amount,omitempty"`
	HoldReason       string     `json:"hold_reason,omitempty"`
	ProgressNote     string     `json:"progress_note,omitempty"`
	AssignedTo       string     `gorm:"index" json:"assigned_to,omitempty"`
	ApprovedBy       string     `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	RejectedBy       string     `json:"rejected_by,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Customer *User                `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	History  []TicketHistoryEvent `gorm:"foreignKey:TicketID" json:"history,omitempty"`
}

// 工单历史事件（只追加，永不修改或删除）
type TicketHistoryEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TicketID  uint      `gorm:"index;not null" json:"ticket_id"`
	Timestamp int64     `gorm:"index;not null" json:"timestamp"` // 毫秒，排序键
	Date      string    `json:"date"`                            // 展示用
	ActorName string    `json:"actor_name"`
	ActorRole string    `json:"actor_role"` // CUSTOMER, STAFF, System
	Action    string    `json:"action"`     // Ticket Created, Approved, ...
	Kind      string    `gorm:"index" json:"kind"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// ChecklistState 检查表结果映射：item id -> "pass" | "fail"（缺省即未检）
type ChecklistState map[string]string

// Value 实现 driver.Valuer，序列化为 JSON 文本入库
func (c ChecklistState) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (c *ChecklistState) Scan(value interface{}) error {
	if value == nil {
		*c = ChecklistState{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported checklist column type %T", value)
	}
	if len(data) == 0 {
		*c = ChecklistState{}
		return nil
	}
	return json.Unmarshal(data, c)
}

// 笔记本质检报告
type QCReport struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ReportNo       string         `gorm:"unique;not null" json:"report_no"`
	Date           string         `json:"date"`
	LaptopNo       string         `gorm:"not null;index" json:"laptop_no"`
	DealerName     string         `gorm:"index" json:"dealer_name"`
	TechnicianName string         `gorm:"index" json:"technician_name"`
	Checklist      ChecklistState `gorm:"type:text" json:"checklist"`
	BatteryCharge  string         `json:"battery_charge,omitempty"`    // 充电百分比
	BatteryRemain  string         `json:"battery_remaining,omitempty"` // 剩余电量
	BatteryTime    string         `json:"battery_duration,omitempty"`  // 续航时长
	BatteryHealth  string         `json:"battery_health,omitempty"`
	ActionRequired *string        `json:"action_required,omitempty"` // 粘性分类，仅显式清除
	Notes          string         `gorm:"type:text" json:"notes"`
	Status         string         `gorm:"default:'Draft'" json:"status"` // Draft, Completed（由进度派生）
	Progress       int            `gorm:"default:0" json:"progress"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	History []QCReportHistoryEvent `gorm:"foreignKey:ReportID" json:"history,omitempty"`
}

// 质检报告历史事件（actor 为姓名，无角色字段）
type QCReportHistoryEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReportID  uint      `gorm:"index;not null" json:"report_id"`
	Timestamp int64     `gorm:"index;not null" json:"timestamp"`
	Date      string    `json:"date"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"` // Report Created, Report Updated
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// 知识库协议 / 服务规程
type Guideline struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Brand     string    `gorm:"index" json:"brand"` // 空串表示通用工作区协议
	Title     string    `gorm:"not null" json:"title"`
	Category  string    `gorm:"index" json:"category"` // Repair, Policy, Troubleshoot, Specs, AI-Learned
	Content   string    `gorm:"type:text" json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// 门店配置
type Store struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// 设备类型配置
type DeviceTypeOption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// 每日统计汇总
type DailyStats struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Date            time.Time `gorm:"uniqueIndex" json:"date"`
	TicketsCreated  int       `json:"tickets_created"`
	TicketsResolved int       `json:"tickets_resolved"`
	Revenue         float64   `json:"revenue"`
	ReportsSaved    int       `json:"reports_saved"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AllModels 用于 AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Ticket{},
		&TicketHistoryEvent{},
		&QCReport{},
		&QCReportHistoryEvent{},
		&Guideline{},
		&Store{},
		&DeviceTypeOption{},
		&DailyStats{},
	}
}
