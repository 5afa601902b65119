package services

import (
	"context"
	"fmt"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GuidelineService 知识库协议管理
type GuidelineService struct {
	db        *gorm.DB
	logger    *logrus.Logger
	publisher EventPublisher
}

// NewGuidelineService 创建知识库服务
func NewGuidelineService(db *gorm.DB, logger *logrus.Logger) *GuidelineService {
	if logger == nil {
		logger = logrus.New()
	}

	return &GuidelineService{
		db:     db,
		logger: logger,
	}
}

// SetEventPublisher 注入变更事件发布器
func (s *GuidelineService) SetEventPublisher(p EventPublisher) {
	s.publisher = p
}

// GuidelineCreateRequest 新建协议请求
type GuidelineCreateRequest struct {
	Brand    string `json:"brand"`
	Title    string `json:"title" binding:"required"`
	Category string `json:"category" binding:"required"`
	Content  string `json:"content" binding:"required"`
	ImageURL string `json:"image_url"`
}

// GuidelineUpdateRequest 更新协议请求
type GuidelineUpdateRequest struct {
	Title    *string `json:"title"`
	Category *string `json:"category"`
	Content  *string `json:"content"`
	ImageURL *string `json:"image_url"`
}

// ListGuidelines 按品牌/分类/关键词过滤
func (s *GuidelineService) ListGuidelines(ctx context.Context, brand, category, search string) ([]models.Guideline, error) {
	query := s.db.WithContext(ctx).Model(&models.Guideline{})

	if brand != "" {
		if brand == "general" {
			query = query.Where("brand = ?", "")
		} else {
			query = query.Where("brand = ?", brand)
		}
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", like, like)
	}

	var guidelines []models.Guideline
	if err := query.Order("created_at ASC").Find(&guidelines).Error; err != nil {
		return nil, fmt.Errorf("failed to list guidelines: %w", err)
	}
	return guidelines, nil
}

// GetGuideline 按主键获取协议
func (s *GuidelineService) GetGuideline(ctx context.Context, id uint) (*models.Guideline, error) {
	var guideline models.Guideline
	if err := s.db.WithContext(ctx).First(&guideline, id).Error; err != nil {
		return nil, fmt.Errorf("guideline not found: %w", err)
	}
	return &guideline, nil
}

// CreateGuideline 新建协议
func (s *GuidelineService) CreateGuideline(ctx context.Context, req *GuidelineCreateRequest) (*models.Guideline, error) {
	guideline := &models.Guideline{
		Brand:    req.Brand,
		Title:    req.Title,
		Category: req.Category,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	}

	if err := s.db.WithContext(ctx).Create(guideline).Error; err != nil {
		return nil, fmt.Errorf("failed to create guideline: %w", err)
	}

	s.logger.Infof("Created guideline %q (brand=%s, category=%s)", guideline.Title, guideline.Brand, guideline.Category)
	s.publish("guideline.updated", guideline)
	return guideline, nil
}

// UpdateGuideline 更新协议
func (s *GuidelineService) UpdateGuideline(ctx context.Context, id uint, req *GuidelineUpdateRequest) (*models.Guideline, error) {
	guideline, err := s.GetGuideline(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(guideline).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update guideline: %w", err)
		}
	}

	guideline, err = s.GetGuideline(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish("guideline.updated", guideline)
	return guideline, nil
}

// DeleteGuideline 删除协议
func (s *GuidelineService) DeleteGuideline(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Guideline{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete guideline: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("guideline not found: %w", gorm.ErrRecordNotFound)
	}

	s.logger.Infof("Deleted guideline %d", id)
	s.publish("guideline.deleted", map[string]uint{"id": id})
	return nil
}

func (s *GuidelineService) publish(eventType string, data interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(eventType, data)
	}
}
