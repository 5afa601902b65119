package services

import (
	"context"
	"fmt"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserService 客户与员工档案
type UserService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = logrus.New()
	}

	return &UserService{
		db:     db,
		logger: logger,
	}
}

// UserCreateRequest 新建用户请求
type UserCreateRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Role    string `json:"role"`
}

// CreateUser 新建用户，缺省角色 customer
func (s *UserService) CreateUser(ctx context.Context, req *UserCreateRequest) (*models.User, error) {
	if req.Role == "" {
		req.Role = "customer"
	}

	user := &models.User{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Role:    req.Role,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infof("Created user %d (%s)", user.ID, user.Role)
	return user, nil
}

// GetUser 按主键获取用户
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return &user, nil
}

// ListUsers 按角色过滤
func (s *UserService) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
