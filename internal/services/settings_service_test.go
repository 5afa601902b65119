package services

import (
	"context"
	"testing"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSettingsServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&models.Store{}, &models.DeviceTypeOption{}, &models.Guideline{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func TestSettingsService_SeedDefaults(t *testing.T) {
	db := newSettingsServiceTestDB(t)
	service := NewSettingsService(db, nil)

	if err := service.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}

	var stores, deviceTypes, protocols int64
	db.Model(&models.Store{}).Count(&stores)
	db.Model(&models.DeviceTypeOption{}).Count(&deviceTypes)
	db.Model(&models.Guideline{}).Count(&protocols)

	if int(stores) != len(DefaultStores) {
		t.Errorf("stores = %d, want %d", stores, len(DefaultStores))
	}
	if int(deviceTypes) != len(DefaultDeviceTypes) {
		t.Errorf("device types = %d, want %d", deviceTypes, len(DefaultDeviceTypes))
	}

	wantProtocols := 0
	for _, brand := range Brands {
		wantProtocols += len(brand.Protocols)
	}
	if int(protocols) != wantProtocols {
		t.Errorf("brand protocols = %d, want %d", protocols, wantProtocols)
	}

	// 重复播种不应新增任何记录
	if err := service.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("SeedDefaults() second run error = %v", err)
	}

	var storesAgain int64
	db.Model(&models.Store{}).Count(&storesAgain)
	if storesAgain != stores {
		t.Errorf("stores after reseed = %d, want %d", storesAgain, stores)
	}

	var protocolsAgain int64
	db.Model(&models.Guideline{}).Count(&protocolsAgain)
	if protocolsAgain != protocols {
		t.Errorf("protocols after reseed = %d, want %d", protocolsAgain, protocols)
	}
}

func TestSettingsService_GetSettings(t *testing.T) {
	db := newSettingsServiceTestDB(t)
	service := NewSettingsService(db, nil)

	if err := service.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}

	settings, err := service.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}

	wantStores := []string{"City Centre", "Main Branch", "Tech Park"}
	if len(settings.Stores) != len(wantStores) {
		t.Fatalf("Stores length = %d, want %d", len(settings.Stores), len(wantStores))
	}
	for i, want := range wantStores {
		if settings.Stores[i] != want {
			t.Errorf("Stores[%d] = %q, want %q", i, settings.Stores[i], want)
		}
	}

	if len(settings.DeviceTypes) != len(DefaultDeviceTypes) {
		t.Fatalf("DeviceTypes length = %d, want %d", len(settings.DeviceTypes), len(DefaultDeviceTypes))
	}
	for i := 1; i < len(settings.DeviceTypes); i++ {
		if settings.DeviceTypes[i-1] > settings.DeviceTypes[i] {
			t.Errorf("DeviceTypes not sorted: %q before %q", settings.DeviceTypes[i-1], settings.DeviceTypes[i])
		}
	}
}
