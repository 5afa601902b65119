package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StatisticsService 分析看板与每日汇总
type StatisticsService struct {
	db     *gorm.DB
	logger *logrus.Logger
	stopCh chan struct{}
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(db *gorm.DB, logger *logrus.Logger) *StatisticsService {
	if logger == nil {
		logger = logrus.New()
	}

	return &StatisticsService{
		db:     db,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// OverviewRequest 看板查询参数。RangeDays 取 7/30/90，0 表示全部。
type OverviewRequest struct {
	RangeDays int    `form:"range_days"`
	Store     string `form:"store"`
}

// NameCount 名称-数量对
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TrendPoint 按天的趋势点
type TrendPoint struct {
	Date    string  `json:"date"`
	Tickets int     `json:"tickets"`
	Revenue float64 `json:"revenue"`
}

// OverviewStats 分析看板
type OverviewStats struct {
	TotalTickets   int          `json:"total_tickets"`
	Resolved       int          `json:"resolved"`
	OpenTickets    int          `json:"open_tickets"`
	TotalRevenue   float64      `json:"total_revenue"`
	AvgTATDays     float64      `json:"avg_tat_days"`
	ResolutionRate int          `json:"resolution_rate"`
	StatusData     []NameCount  `json:"status_data"`
	DeviceData     []NameCount  `json:"device_data"`
	TechData       []NameCount  `json:"tech_data"` // 前 5 名
	Trend          []TrendPoint `json:"trend"`
}

// Overview 分析看板：KPI、状态/设备分布、技术员排名、按天趋势。
// 周转天数取创建时间到 Resolved 历史事件的间隔均值。
func (s *StatisticsService) Overview(ctx context.Context, req *OverviewRequest) (*OverviewStats, error) {
	query := s.db.WithContext(ctx).Model(&models.Ticket{}).Preload("History")

	if req.RangeDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -req.RangeDays)
		query = query.Where("created_at >= ?", cutoff)
	}
	if req.Store != "" {
		query = query.Where("store = ?", req.Store)
	}

	var tickets []models.Ticket
	if err := query.Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}

	stats := &OverviewStats{TotalTickets: len(tickets)}

	statusCounts := map[string]int{}
	deviceCounts := map[string]int{}
	techCounts := map[string]int{}
	trendByDay := map[string]*TrendPoint{}

	var tatSumDays float64
	var tatSamples int

	for _, t := range tickets {
		statusCounts[t.Status]++
		deviceCounts[t.DeviceType]++
		if t.AssignedTo != "" {
			techCounts[t.AssignedTo]++
		}

		if t.EstimatedAmount != nil {
			stats.TotalRevenue += *t.EstimatedAmount
		}

		switch t.Status {
		case models.StatusResolved:
			stats.Resolved++
			if resolvedAt, ok := resolvedTimestamp(&t); ok {
				tatSumDays += resolvedAt.Sub(t.CreatedAt).Hours() / 24
				tatSamples++
			}
		case models.StatusRejected:
			// 终态但不计入开放数
		default:
			stats.OpenTickets++
		}

		day := t.CreatedAt.Format("2006-01-02")
		if trendByDay[day] == nil {
			trendByDay[day] = &TrendPoint{Date: day}
		}
		trendByDay[day].Tickets++
		if t.EstimatedAmount != nil {
			trendByDay[day].Revenue += *t.EstimatedAmount
		}
	}

	if tatSamples > 0 {
		stats.AvgTATDays = math.Round(tatSumDays/float64(tatSamples)*10) / 10
	}
	if stats.TotalTickets > 0 {
		stats.ResolutionRate = int(math.Round(float64(stats.Resolved) * 100 / float64(stats.TotalTickets)))
	}

	stats.StatusData = sortedCounts(statusCounts)
	stats.DeviceData = sortedCounts(deviceCounts)

	stats.TechData = sortedCounts(techCounts)
	if len(stats.TechData) > 5 {
		stats.TechData = stats.TechData[:5]
	}

	for _, point := range trendByDay {
		stats.Trend = append(stats.Trend, *point)
	}
	sort.Slice(stats.Trend, func(i, j int) bool {
		return stats.Trend[i].Date < stats.Trend[j].Date
	})

	return stats, nil
}

// resolvedTimestamp 从历史里找 Resolved 事件的时间
func resolvedTimestamp(ticket *models.Ticket) (time.Time, bool) {
	for _, h := range ticket.History {
		if h.Kind == models.EventKindResolved {
			return time.UnixMilli(h.Timestamp), true
		}
	}
	return time.Time{}, false
}

func sortedCounts(m map[string]int) []NameCount {
	list := make([]NameCount, 0, len(m))
	for name, count := range m {
		list = append(list, NameCount{Name: name, Count: count})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Name < list[j].Name
	})
	return list
}

// RollupDaily 汇总某一天的工单/报告数据并落库（upsert 语义）
func (s *StatisticsService) RollupDaily(ctx context.Context, day time.Time) error {
	dayStart := day.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	var created, reports int64
	var resolved int64

	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Count(&created).Error; err != nil {
		return fmt.Errorf("failed to count created tickets: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.TicketHistoryEvent{}).
		Where("kind = ? AND created_at >= ? AND created_at < ?", models.EventKindResolved, dayStart, dayEnd).
		Count(&resolved).Error; err != nil {
		return fmt.Errorf("failed to count resolved tickets: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.QCReport{}).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Count(&reports).Error; err != nil {
		return fmt.Errorf("failed to count reports: %w", err)
	}

	var revenue float64
	row := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Select("COALESCE(SUM(estimated_amount), 0)").Row()
	if err := row.Scan(&revenue); err != nil {
		return fmt.Errorf("failed to sum revenue: %w", err)
	}

	var existing models.DailyStats
	err := s.db.WithContext(ctx).Where("date = ?", dayStart).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load daily stats: %w", err)
	}

	existing.Date = dayStart
	existing.TicketsCreated = int(created)
	existing.TicketsResolved = int(resolved)
	existing.ReportsSaved = int(reports)
	existing.Revenue = revenue

	if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return fmt.Errorf("failed to save daily stats: %w", err)
	}

	s.logger.Debugf("Rolled up daily stats for %s: %d created, %d resolved", dayStart.Format("2006-01-02"), created, resolved)
	return nil
}

// StartRollupWorker 后台定时汇总当日数据
func (s *StatisticsService) StartRollupWorker(interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.RollupDaily(context.Background(), time.Now()); err != nil {
					s.logger.Errorf("Daily stats rollup failed: %v", err)
				}
			case <-s.stopCh:
				return
			}
		}
	}()
}

// StopRollupWorker 停止汇总任务
func (s *StatisticsService) StopRollupWorker() {
	close(s.stopCh)
}
