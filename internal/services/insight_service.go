package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 聚类关键词，顺序即优先级（先命中者归类）
var insightKeywords = []string{
	"screen",
	"display",
	"battery",
	"charging",
	"water",
	"dead",
	"software",
	"keyboard",
	"hinge",
	"heat",
}

// 单个分桶的最小样本量
const minPatternCount = 2

// Pattern 从已解决工单中挖掘出的高频问题模式
type Pattern struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Count          int             `json:"count"`
	Description    string          `json:"description"`
	RelatedTickets []models.Ticket `json:"related_tickets"`
}

// GuidelineDraft 由 AI 起草、待人工确认入库的协议草稿
type GuidelineDraft struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Content  string `json:"content"`
}

// InsightService 已解决工单的模式挖掘与协议固化
type InsightService struct {
	db        *gorm.DB
	logger    *logrus.Logger
	assistant *AssistantService
}

// NewInsightService 创建模式挖掘服务
func NewInsightService(db *gorm.DB, logger *logrus.Logger, assistant *AssistantService) *InsightService {
	if logger == nil {
		logger = logrus.New()
	}

	return &InsightService{
		db:        db,
		logger:    logger,
		assistant: assistant,
	}
}

// MinePatterns 扫描已解决工单并按关键词分桶。
// 文本 = 小写(问题描述 + 设备类型)；按关键词表顺序取第一个命中；
// 未命中归入 general。样本量小于 2 的桶和 general 桶一律丢弃，
// 输出按数量倒序。
func (s *InsightService) MinePatterns(ctx context.Context) ([]Pattern, error) {
	var resolved []models.Ticket
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusResolved).
		Order("created_at ASC").
		Find(&resolved).Error; err != nil {
		return nil, fmt.Errorf("failed to load resolved tickets: %w", err)
	}

	return ClusterResolvedTickets(resolved), nil
}

// ClusterResolvedTickets 纯函数的分桶逻辑，供测试与订阅推送复用
func ClusterResolvedTickets(resolved []models.Ticket) []Pattern {
	buckets := map[string][]models.Ticket{}
	var order []string

	for _, t := range resolved {
		text := strings.ToLower(t.IssueDescription + " " + t.DeviceType)
		key := "general"
		for _, kw := range insightKeywords {
			if strings.Contains(text, kw) {
				key = fmt.Sprintf("%s - %s", t.DeviceType, capitalize(kw))
				break
			}
		}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], t)
	}

	patterns := make([]Pattern, 0, len(buckets))
	idx := 0
	for _, key := range order {
		list := buckets[key]
		if len(list) < minPatternCount || key == "general" {
			continue
		}
		patterns = append(patterns, Pattern{
			ID:             fmt.Sprintf("pattern-%d", idx),
			Title:          fmt.Sprintf("%s Issues", key),
			Count:          len(list),
			Description:    fmt.Sprintf("Found %d resolved cases matching this pattern.", len(list)),
			RelatedTickets: list,
		})
		idx++
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Count > patterns[j].Count
	})
	return patterns
}

// FormalizePattern 将一个模式交给 AI 起草标准服务协议（SOP）。
// 最多取 5 个样例工单；AI 的返回原样填入草稿，不做校验。
func (s *InsightService) FormalizePattern(ctx context.Context, pattern *Pattern) *GuidelineDraft {
	var examples []string
	limit := len(pattern.RelatedTickets)
	if limit > 5 {
		limit = 5
	}
	for _, t := range pattern.RelatedTickets[:limit] {
		examples = append(examples, fmt.Sprintf("- %s (Status: %s)", t.IssueDescription, t.Status))
	}

	prompt := fmt.Sprintf(`Based on these %d resolved tickets about "%s", draft a standard service protocol.

Ticket Examples:
%s

Format:
1. Diagnosis Steps
2. Repair Solution
3. Testing Verification`,
		pattern.Count, pattern.Title, strings.Join(examples, "\n"))

	content := s.assistant.Complete(ctx, prompt, "Drafting a Standard Operating Procedure (SOP).")

	s.logger.Infof("Formalized pattern %q into protocol draft", pattern.Title)

	return &GuidelineDraft{
		Title:    fmt.Sprintf("SOP: %s", pattern.Title),
		Category: "AI-Learned",
		Content:  content,
	}
}

// FormalizePatternByID 重新挖掘后按 ID 定位模式并固化
func (s *InsightService) FormalizePatternByID(ctx context.Context, patternID string) (*GuidelineDraft, error) {
	patterns, err := s.MinePatterns(ctx)
	if err != nil {
		return nil, err
	}
	for i := range patterns {
		if patterns[i].ID == patternID {
			return s.FormalizePattern(ctx, &patterns[i]), nil
		}
	}
	return nil, fmt.Errorf("pattern %q not found", patternID)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
