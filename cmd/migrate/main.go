package main

import (
	"context"
	"log"
	"os"

	"github.com/Farmanaslam/Infofix-New-App/internal/config"
	"github.com/Farmanaslam/Infofix-New-App/internal/models"
	"github.com/Farmanaslam/Infofix-New-App/internal/services"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// 加载配置
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
	cfg := config.Load()

	// 连接数据库
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Starting database migration...")

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Println("Database migration completed successfully!")

	// 创建索引
	log.Println("Creating additional indexes...")

	// 为工单表创建复合索引
	db.Exec("CREATE INDEX IF NOT EXISTS idx_tickets_status_created ON tickets(status, created_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_tickets_customer_created ON tickets(customer_id, created_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_tickets_store_status ON tickets(store, status)")

	// 为历史事件表创建复合索引（时间线按时间戳倒序读取）
	db.Exec("CREATE INDEX IF NOT EXISTS idx_ticket_history_ticket_ts ON ticket_history_events(ticket_id, timestamp)")

	// 为质检报告表创建索引
	db.Exec("CREATE INDEX IF NOT EXISTS idx_qc_reports_dealer ON qc_reports(dealer_name)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_qc_reports_technician ON qc_reports(technician_name)")

	// 为知识库表创建索引
	db.Exec("CREATE INDEX IF NOT EXISTS idx_guidelines_brand_category ON guidelines(brand, category)")

	// 为统计表创建索引
	db.Exec("CREATE INDEX IF NOT EXISTS idx_daily_stats_date ON daily_stats(date)")

	log.Println("Additional indexes created successfully!")

	// 插入默认数据
	if len(os.Args) > 1 && os.Args[1] == "--seed" {
		log.Println("Seeding default data...")
		seedDefaultData(db)
		log.Println("Default data seeded successfully!")
	}

	log.Println("Migration process completed!")
}

func seedDefaultData(db *gorm.DB) {
	// 门店、设备类型与默认品牌协议
	settingsService := services.NewSettingsService(db, logrus.StandardLogger())
	if err := settingsService.SeedDefaults(context.Background()); err != nil {
		log.Fatalf("Failed to seed settings: %v", err)
	}

	// 创建默认管理员
	var adminUser models.User
	if err := db.Where("email = ?", "admin@infofix.com").First(&adminUser).Error; err != nil {
		adminUser = models.User{
			Name:  "System Administrator",
			Email: "admin@infofix.com",
			Role:  "admin",
		}
		db.Create(&adminUser)
		log.Println("Created default admin user")
	}

	// 创建测试客户
	var testCustomer models.User
	if err := db.Where("email = ?", "customer@test.com").First(&testCustomer).Error; err != nil {
		testCustomer = models.User{
			Name:    "Test Customer",
			Email:   "customer@test.com",
			Phone:   "9876543210",
			Address: "12 MG Road",
			Role:    "customer",
		}
		db.Create(&testCustomer)
		log.Println("Created test customer")
	}

	// 创建测试技术员
	var testTechnician models.User
	if err := db.Where("email = ?", "technician@test.com").First(&testTechnician).Error; err != nil {
		testTechnician = models.User{
			Name:  "Test Technician",
			Email: "technician@test.com",
			Role:  "technician",
		}
		db.Create(&testTechnician)
		log.Println("Created test technician")
	}

	// 创建示例通用知识条目
	var existingGuideline models.Guideline
	if err := db.Where("title = ?", "Welcome to INFOFIX").First(&existingGuideline).Error; err != nil {
		guideline := models.Guideline{
			Title:    "Welcome to INFOFIX",
			Category: "Getting Started",
			Content:  "INFOFIX SERVICES handles device repair intake, approval, repair tracking and quality checks. Use the workspace assistant for protocol lookups.",
		}
		db.Create(&guideline)
		log.Println("Created sample guideline")
	}
}
