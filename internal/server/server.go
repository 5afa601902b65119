package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Farmanaslam/Infofix-New-App/internal/config"
	"github.com/Farmanaslam/Infofix-New-App/internal/handlers"
	"github.com/Farmanaslam/Infofix-New-App/internal/models"
	"github.com/Farmanaslam/Infofix-New-App/internal/observability"
	"github.com/Farmanaslam/Infofix-New-App/internal/services"
	"github.com/Farmanaslam/Infofix-New-App/pkg/genai"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormtracing "gorm.io/plugin/opentelemetry/tracing"
)

// Run 启动 HTTP 服务并阻塞至收到退出信号
func Run(cfg *config.Config) error {
	// 环境变量覆盖关键配置
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.AI.Gemini.APIKey = key
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}

	if err := config.InitLogger(cfg); err != nil {
		logrus.Warnf("init logger: %v", err)
	}
	appLogger := logrus.StandardLogger()

	// OpenTelemetry 初始化（可选）
	shutdownOTel, err := observability.SetupTracing(context.Background(), cfg)
	if err != nil {
		appLogger.Warnf("init tracing: %v", err)
	} else {
		defer func() { _ = shutdownOTel(context.Background()) }()
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Monitoring.Tracing.Enabled {
		_ = db.Use(gormtracing.NewPlugin())
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// AI 客户端
	aiClient := genai.NewClient(&genai.Config{
		BaseURL:    cfg.AI.Gemini.BaseURL,
		APIKey:     cfg.AI.Gemini.APIKey,
		Model:      cfg.AI.Gemini.Model,
		Timeout:    cfg.AI.Gemini.Timeout,
		MaxRetries: cfg.AI.Gemini.MaxRetries,
		RetryDelay: cfg.AI.Gemini.RetryDelay,
	}, appLogger)
	if !aiClient.Configured() {
		appLogger.Warn("Gemini API key not configured, assistant will serve fallback replies")
	}

	// 实时推送
	wsHub := services.NewWebSocketHub()
	go wsHub.Run()

	// 业务服务
	ticketService := services.NewTicketService(db, appLogger)
	ticketService.SetEventPublisher(wsHub)
	reportService := services.NewReportService(db, appLogger)
	reportService.SetEventPublisher(wsHub)
	guidelineService := services.NewGuidelineService(db, appLogger)
	guidelineService.SetEventPublisher(wsHub)
	assistantService := services.NewAssistantService(db, appLogger, aiClient)
	insightService := services.NewInsightService(db, appLogger, assistantService)
	statisticsService := services.NewStatisticsService(db, appLogger)
	settingsService := services.NewSettingsService(db, appLogger)
	userService := services.NewUserService(db, appLogger)

	if err := settingsService.SeedDefaults(context.Background()); err != nil {
		appLogger.Warnf("Failed to seed defaults: %v", err)
	}

	// 每日统计汇总后台任务
	if cfg.Stats.RollupEnabled {
		statisticsService.StartRollupWorker(cfg.Stats.RollupInterval)
		defer statisticsService.StopRollupWorker()
	}

	// 初始化 Gin
	if cfg.Server.Mode == "debug" || cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddlewareWithConfig(cfg))
	if cfg.Monitoring.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Monitoring.Tracing.ServiceName))
	}

	// 健康检查
	healthHandler := handlers.NewHealthHandler(db, aiClient, wsHub, appLogger)
	r.GET("/health", healthHandler.Health)

	// API 路由组
	api := r.Group("/api")
	handlers.RegisterTicketRoutes(api, handlers.NewTicketHandler(ticketService, appLogger))
	handlers.RegisterReportRoutes(api, handlers.NewReportHandler(reportService, appLogger))
	handlers.RegisterInsightRoutes(api, handlers.NewInsightHandler(insightService, appLogger))
	handlers.RegisterGuidelineRoutes(api, handlers.NewGuidelineHandler(guidelineService, appLogger))
	handlers.RegisterAssistantRoutes(api, handlers.NewAssistantHandler(assistantService, appLogger))
	handlers.RegisterStatisticsRoutes(api, handlers.NewStatisticsHandler(statisticsService, appLogger))
	handlers.RegisterSettingsRoutes(api, handlers.NewSettingsHandler(settingsService, appLogger))
	handlers.RegisterUserRoutes(api, handlers.NewUserHandler(userService, appLogger))

	// WebSocket 实时事件流
	api.GET("/ws", wsHub.HandleWebSocket)

	// 启动服务器
	listenAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: listenAddr, Handler: r}
	go func() {
		appLogger.Infof("Starting server on %s", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	appLogger.Info("Server exited")
	return nil
}

// corsMiddlewareWithConfig CORS 中间件
func corsMiddlewareWithConfig(cfg *config.Config) gin.HandlerFunc {
	allowedOrigins := "*"
	allowedMethods := "GET, POST, PUT, DELETE, OPTIONS"
	allowedHeaders := "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization"
	if cfg != nil && cfg.Security.CORS.Enabled {
		if len(cfg.Security.CORS.AllowedOrigins) > 0 {
			allowedOrigins = strings.Join(cfg.Security.CORS.AllowedOrigins, ", ")
		}
		if len(cfg.Security.CORS.AllowedMethods) > 0 {
			allowedMethods = strings.Join(cfg.Security.CORS.AllowedMethods, ", ")
		}
		if len(cfg.Security.CORS.AllowedHeaders) > 0 {
			allowedHeaders = strings.Join(cfg.Security.CORS.AllowedHeaders, ", ")
		}
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigins)
		c.Header("Access-Control-Allow-Methods", allowedMethods)
		c.Header("Access-Control-Allow-Headers", allowedHeaders)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
