package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 质检分类处理动作（闭集）
var ActionRequiredOptions = []string{
	"Return to Dealers",
	"Sent to Service Centre",
	"Parts Sent to Dealers",
	"Own Services",
}

// DefaultActionRequired 出现失败项且尚未分类时的默认处理动作
const DefaultActionRequired = "Return to Dealers"

// ErrUnknownChecklistItem 条目不在固定检查表中
var ErrUnknownChecklistItem = errors.New("unknown checklist item")

// ReportService 笔记本质检报告服务
type ReportService struct {
	db        *gorm.DB
	logger    *logrus.Logger
	publisher EventPublisher
}

// NewReportService 创建质检报告服务
func NewReportService(db *gorm.DB, logger *logrus.Logger) *ReportService {
	if logger == nil {
		logger = logrus.New()
	}

	return &ReportService{
		db:     db,
		logger: logger,
	}
}

// SetEventPublisher 注入变更事件发布器
func (s *ReportService) SetEventPublisher(p EventPublisher) {
	s.publisher = p
}

// ReportSaveRequest 保存报告请求。ID 为空表示新建。
type ReportSaveRequest struct {
	ID             *uint                 `json:"id"`
	LaptopNo       string                `json:"laptop_no" binding:"required"`
	DealerName     string                `json:"dealer_name"`
	TechnicianName string                `json:"technician_name"`
	Checklist      models.ChecklistState `json:"checklist"`
	BatteryCharge  string                `json:"battery_charge"`
	BatteryRemain  string                `json:"battery_remaining"`
	BatteryTime    string                `json:"battery_duration"`
	BatteryHealth  string                `json:"battery_health"`
	ActionRequired *string               `json:"action_required"`
	Notes          string                `json:"notes"`
	Actor          string                `json:"actor" binding:"required"`
}

// ToggleRequest 检查项切换请求
type ToggleRequest struct {
	ItemID string `json:"item_id" binding:"required"`
	Status string `json:"status" binding:"required,oneof=pass fail"`
}

// ToggleResult 切换结果。Celebrate 仅在进度本次首次达到 100% 时为真。
type ToggleResult struct {
	Report    *models.QCReport `json:"report"`
	Celebrate bool             `json:"celebrate"`
}

// ActionRequiredRequest 显式设置/清除处理动作
type ActionRequiredRequest struct {
	Value *string `json:"value"`
}

// DealerStat 按经销商聚合
type DealerStat struct {
	Name       string `json:"name"`
	Total      int    `json:"total"`
	Issues     int    `json:"issues"`
	Passed     int    `json:"passed"`
	DefectRate int    `json:"defect_rate"`
	PassRate   int    `json:"pass_rate"`
}

// TechnicianStat 按技术员聚合
type TechnicianStat struct {
	Name       string `json:"name"`
	Total      int    `json:"total"`
	Efficiency int    `json:"efficiency"` // 平均进度
}

// QCDashboard 质检看板
type QCDashboard struct {
	TotalReports int              `json:"total_reports"`
	TotalIssues  int              `json:"total_issues"`
	Dealers      []DealerStat     `json:"dealers"`
	Technicians  []TechnicianStat `json:"technicians"`
}

// computeProgress 进度 = round(100 * 已勾选 / 固定条目总数)
func computeProgress(checklist models.ChecklistState) int {
	total := ChecklistTotal()
	checked := 0
	for _, v := range checklist {
		if v != "" {
			checked++
		}
	}
	return int(math.Round(float64(checked) * 100 / float64(total)))
}

func hasFailures(checklist models.ChecklistState) bool {
	for _, v := range checklist {
		if v == CheckFail {
			return true
		}
	}
	return false
}

func deriveStatus(progress int) string {
	if progress == 100 {
		return "Completed"
	}
	return "Draft"
}

// ToggleItem 切换单个检查项：同值再点即清除，异值覆盖。
// 重算进度；出现失败项且未分类时默认 "Return to Dealers"；
// 分类是粘性的，失败项清零不会自动清除，只能显式清除。
func (s *ReportService) ToggleItem(ctx context.Context, reportID uint, req *ToggleRequest) (*ToggleResult, error) {
	if !ValidChecklistItem(req.ItemID) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChecklistItem, req.ItemID)
	}
	if req.Status != CheckPass && req.Status != CheckFail {
		return nil, fmt.Errorf("invalid checklist status %q", req.Status)
	}

	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	checklist := models.ChecklistState{}
	for k, v := range report.Checklist {
		checklist[k] = v
	}

	if checklist[req.ItemID] == req.Status {
		delete(checklist, req.ItemID)
	} else {
		checklist[req.ItemID] = req.Status
	}

	prevProgress := report.Progress
	progress := computeProgress(checklist)
	celebrate := progress == 100 && prevProgress < 100

	actionRequired := report.ActionRequired
	if hasFailures(checklist) && actionRequired == nil {
		def := DefaultActionRequired
		actionRequired = &def
	}

	updates := map[string]interface{}{
		"checklist":       checklist,
		"progress":        progress,
		"action_required": actionRequired,
	}
	if err := s.db.WithContext(ctx).Model(&models.QCReport{}).Where("id = ?", reportID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to toggle checklist item: %w", err)
	}

	report, err = s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	s.publish("report.updated", report)

	return &ToggleResult{Report: report, Celebrate: celebrate}, nil
}

// SetActionRequired 显式设置或清除处理动作分类
func (s *ReportService) SetActionRequired(ctx context.Context, reportID uint, req *ActionRequiredRequest) (*models.QCReport, error) {
	if req.Value != nil {
		valid := false
		for _, opt := range ActionRequiredOptions {
			if *req.Value == opt {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("unknown action classification %q", *req.Value)
		}
	}

	if _, err := s.GetReport(ctx, reportID); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.QCReport{}).Where("id = ?", reportID).
		Update("action_required", req.Value).Error; err != nil {
		return nil, fmt.Errorf("failed to set action classification: %w", err)
	}

	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	s.publish("report.updated", report)
	return report, nil
}

// SaveReport 保存报告：对上一版本做逐项 diff，生成变更摘要，每次保存恰好追加一条历史。
// 状态由进度派生（100% 即 Completed），覆盖任何手工值。
func (s *ReportService) SaveReport(ctx context.Context, req *ReportSaveRequest) (*models.QCReport, error) {
	if strings.TrimSpace(req.LaptopNo) == "" {
		return nil, fmt.Errorf("laptop number is required")
	}

	checklist := req.Checklist
	if checklist == nil {
		checklist = models.ChecklistState{}
	}
	for itemID := range checklist {
		if !ValidChecklistItem(itemID) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownChecklistItem, itemID)
		}
	}

	progress := computeProgress(checklist)
	status := deriveStatus(progress)

	if req.ID == nil {
		actionRequired := req.ActionRequired
		if hasFailures(checklist) && actionRequired == nil {
			def := DefaultActionRequired
			actionRequired = &def
		}

		report := &models.QCReport{
			ReportNo:       uuid.NewString(),
			Date:           time.Now().Format("2006-01-02"),
			LaptopNo:       req.LaptopNo,
			DealerName:     req.DealerName,
			TechnicianName: req.TechnicianName,
			Checklist:      checklist,
			BatteryCharge:  req.BatteryCharge,
			BatteryRemain:  req.BatteryRemain,
			BatteryTime:    req.BatteryTime,
			BatteryHealth:  req.BatteryHealth,
			ActionRequired: actionRequired,
			Notes:          req.Notes,
			Status:         status,
			Progress:       progress,
		}

		if err := s.db.WithContext(ctx).Create(report).Error; err != nil {
			return nil, fmt.Errorf("failed to create report: %w", err)
		}

		s.appendReportHistory(ctx, report.ID, req.Actor, "Report Created",
			fmt.Sprintf("New report created for Laptop %s", req.LaptopNo))

		s.logger.Infof("Created QC report %s for laptop %s", report.ReportNo, report.LaptopNo)

		saved, err := s.GetReport(ctx, report.ID)
		if err != nil {
			return nil, err
		}
		s.publish("report.updated", saved)
		return saved, nil
	}

	previous, err := s.GetReport(ctx, *req.ID)
	if err != nil {
		return nil, err
	}

	// 分类具有粘性：请求未携带时沿用库中值，清除只走显式接口
	actionRequired := req.ActionRequired
	if actionRequired == nil {
		actionRequired = previous.ActionRequired
	}
	if hasFailures(checklist) && actionRequired == nil {
		def := DefaultActionRequired
		actionRequired = &def
	}

	details := fmt.Sprintf("Report updated. Progress: %d%%. Status: %s", progress, status)
	if changes := diffChecklist(previous.Checklist, checklist); len(changes) > 0 {
		details += "\nChanges: " + strings.Join(changes, ", ")
	}

	updates := map[string]interface{}{
		"laptop_no":       req.LaptopNo,
		"dealer_name":     req.DealerName,
		"technician_name": req.TechnicianName,
		"checklist":       checklist,
		"battery_charge":  req.BatteryCharge,
		"battery_remain":  req.BatteryRemain,
		"battery_time":    req.BatteryTime,
		"battery_health":  req.BatteryHealth,
		"action_required": actionRequired,
		"notes":           req.Notes,
		"status":          status,
		"progress":        progress,
	}
	if err := s.db.WithContext(ctx).Model(&models.QCReport{}).Where("id = ?", *req.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}

	s.appendReportHistory(ctx, *req.ID, req.Actor, "Report Updated", details)

	s.logger.Infof("Updated QC report %d (progress %d%%)", *req.ID, progress)

	saved, err := s.GetReport(ctx, *req.ID)
	if err != nil {
		return nil, err
	}
	s.publish("report.updated", saved)
	return saved, nil
}

// diffChecklist 按检查表固定顺序枚举变化项，格式 "<label> [Pass|Fail|Unchecked]"
func diffChecklist(prev, next models.ChecklistState) []string {
	var changes []string
	for _, item := range ChecklistItems() {
		oldVal := prev[item.ID]
		newVal := next[item.ID]
		if oldVal == newVal {
			continue
		}
		label := "Unchecked"
		switch newVal {
		case CheckPass:
			label = "Pass"
		case CheckFail:
			label = "Fail"
		}
		changes = append(changes, fmt.Sprintf("%s [%s]", item.Label, label))
	}
	return changes
}

// GetReport 按主键获取报告（含历史）
func (s *ReportService) GetReport(ctx context.Context, id uint) (*models.QCReport, error) {
	var report models.QCReport
	if err := s.db.WithContext(ctx).Preload("History").First(&report, id).Error; err != nil {
		return nil, fmt.Errorf("report not found: %w", err)
	}
	if report.Checklist == nil {
		report.Checklist = models.ChecklistState{}
	}
	return &report, nil
}

// ListReports 报告列表，新报告在前
func (s *ReportService) ListReports(ctx context.Context, dealer, technician string) ([]models.QCReport, error) {
	query := s.db.WithContext(ctx).Model(&models.QCReport{})
	if dealer != "" {
		query = query.Where("dealer_name = ?", dealer)
	}
	if technician != "" {
		query = query.Where("technician_name = ?", technician)
	}

	var reports []models.QCReport
	if err := query.Preload("History").Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// Dashboard 质检看板：经销商按问题数倒序，技术员按报告数倒序
func (s *ReportService) Dashboard(ctx context.Context) (*QCDashboard, error) {
	var reports []models.QCReport
	if err := s.db.WithContext(ctx).Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}

	type dealerAgg struct{ total, issues int }
	type techAgg struct{ total, progressSum int }

	dealers := map[string]*dealerAgg{}
	techs := map[string]*techAgg{}
	totalIssues := 0

	for _, r := range reports {
		dealer := r.DealerName
		if dealer == "" {
			dealer = "Unknown Dealer"
		}
		tech := r.TechnicianName
		if tech == "" {
			tech = "Unassigned"
		}
		hasIssue := r.ActionRequired != nil

		if dealers[dealer] == nil {
			dealers[dealer] = &dealerAgg{}
		}
		dealers[dealer].total++
		if hasIssue {
			dealers[dealer].issues++
			totalIssues++
		}

		if techs[tech] == nil {
			techs[tech] = &techAgg{}
		}
		techs[tech].total++
		techs[tech].progressSum += r.Progress
	}

	dashboard := &QCDashboard{
		TotalReports: len(reports),
		TotalIssues:  totalIssues,
	}

	for name, agg := range dealers {
		passed := agg.total - agg.issues
		dashboard.Dealers = append(dashboard.Dealers, DealerStat{
			Name:       name,
			Total:      agg.total,
			Issues:     agg.issues,
			Passed:     passed,
			DefectRate: int(math.Round(float64(agg.issues) * 100 / float64(agg.total))),
			PassRate:   int(math.Round(float64(passed) * 100 / float64(agg.total))),
		})
	}
	sort.SliceStable(dashboard.Dealers, func(i, j int) bool {
		if dashboard.Dealers[i].Issues != dashboard.Dealers[j].Issues {
			return dashboard.Dealers[i].Issues > dashboard.Dealers[j].Issues
		}
		return dashboard.Dealers[i].Name < dashboard.Dealers[j].Name
	})

	for name, agg := range techs {
		dashboard.Technicians = append(dashboard.Technicians, TechnicianStat{
			Name:       name,
			Total:      agg.total,
			Efficiency: int(math.Round(float64(agg.progressSum) / float64(agg.total))),
		})
	}
	sort.SliceStable(dashboard.Technicians, func(i, j int) bool {
		if dashboard.Technicians[i].Total != dashboard.Technicians[j].Total {
			return dashboard.Technicians[i].Total > dashboard.Technicians[j].Total
		}
		return dashboard.Technicians[i].Name < dashboard.Technicians[j].Name
	})

	return dashboard, nil
}

// appendReportHistory 追加一条报告历史（只追加）
func (s *ReportService) appendReportHistory(ctx context.Context, reportID uint, actor, action, details string) {
	now := time.Now()
	event := &models.QCReportHistoryEvent{
		ReportID:  reportID,
		Timestamp: now.UnixMilli(),
		Date:      now.Format("2006-01-02 15:04:05"),
		Actor:     actor,
		Action:    action,
		Details:   details,
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		s.logger.Errorf("Failed to record report history: %v", err)
	}
}

func (s *ReportService) publish(eventType string, data interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(eventType, data)
	}
}
