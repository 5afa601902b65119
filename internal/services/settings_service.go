package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 迁移时播种的默认门店与设备类型
var (
	DefaultStores      = []string{"Main Branch", "City Centre", "Tech Park"}
	DefaultDeviceTypes = []string{"Laptop", "Smartphone", "Tablet", "Desktop", "TV", "Printer", "Other"}
)

// SettingsService 应用设置：门店与设备类型清单
type SettingsService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewSettingsService 创建设置服务
func NewSettingsService(db *gorm.DB, logger *logrus.Logger) *SettingsService {
	if logger == nil {
		logger = logrus.New()
	}

	return &SettingsService{
		db:     db,
		logger: logger,
	}
}

// AppSettings 表单选项集合
type AppSettings struct {
	Stores      []string `json:"stores"`
	DeviceTypes []string `json:"device_types"`
}

// GetSettings 读取全部表单选项
func (s *SettingsService) GetSettings(ctx context.Context) (*AppSettings, error) {
	var stores []models.Store
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	var deviceTypes []models.DeviceTypeOption
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&deviceTypes).Error; err != nil {
		return nil, fmt.Errorf("failed to list device types: %w", err)
	}

	settings := &AppSettings{}
	for _, store := range stores {
		settings.Stores = append(settings.Stores, store.Name)
	}
	for _, dt := range deviceTypes {
		settings.DeviceTypes = append(settings.DeviceTypes, dt.Name)
	}
	return settings, nil
}

// SeedDefaults 播种默认门店、设备类型与品牌协议（幂等）
func (s *SettingsService) SeedDefaults(ctx context.Context) error {
	for _, name := range DefaultStores {
		var existing models.Store
		err := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := s.db.WithContext(ctx).Create(&models.Store{Name: name}).Error; err != nil {
				return fmt.Errorf("failed to seed store %q: %w", name, err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to check store %q: %w", name, err)
		}
	}

	for _, name := range DefaultDeviceTypes {
		var existing models.DeviceTypeOption
		err := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := s.db.WithContext(ctx).Create(&models.DeviceTypeOption{Name: name}).Error; err != nil {
				return fmt.Errorf("failed to seed device type %q: %w", name, err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to check device type %q: %w", name, err)
		}
	}

	for _, brand := range Brands {
		for _, protocol := range brand.Protocols {
			var existing models.Guideline
			err := s.db.WithContext(ctx).
				Where("brand = ? AND title = ?", protocol.Brand, protocol.Title).
				First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				p := protocol
				if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
					return fmt.Errorf("failed to seed protocol %q: %w", p.Title, err)
				}
			} else if err != nil {
				return fmt.Errorf("failed to check protocol %q: %w", protocol.Title, err)
			}
		}
	}

	s.logger.Info("Seeded default stores, device types and brand protocols")
	return nil
}
