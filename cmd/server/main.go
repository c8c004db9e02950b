package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phamquangminh/mealio/internal/config"
	"github.com/phamquangminh/mealio/internal/handler"
	"github.com/phamquangminh/mealio/internal/jobs"
	"github.com/phamquangminh/mealio/internal/middleware"
	"github.com/phamquangminh/mealio/internal/model"
	"github.com/phamquangminh/mealio/internal/notify"
	"github.com/phamquangminh/mealio/internal/repository"
	"github.com/phamquangminh/mealio/internal/service"
	"github.com/phamquangminh/mealio/migrations"
	"github.com/phamquangminh/mealio/pkg/auth"
	"github.com/phamquangminh/mealio/pkg/mailer"
	"github.com/phamquangminh/mealio/pkg/push"
	"github.com/phamquangminh/mealio/pkg/storage"
)

// @title           Mealio API
// @version         1.0
// @description     Meal logging API with AI analysis, streaks and smart push notifications.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  support@mealio.local

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	log.Printf("🚀 Starting Mealio API Server [env=%s]", cfg.App.Env)

	// ==================== Database (PostgreSQL) ====================
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.App.Env == "production" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	// ==================== Run Migrations ====================
	if err := migrations.Run(cfg.DB.URL()); err != nil {
		log.Printf("⚠️  Migration warning: %v", err)
		log.Println("📦 Falling back to GORM AutoMigrate...")
		// Fallback to AutoMigrate if migration files fail
		if err := db.AutoMigrate(
			&model.User{},
			&model.OTPCode{},
			&model.MealLog{},
			&model.UserDevice{},
			&model.NotificationSettings{},
			&model.Subscription{},
			&model.NotificationAttempt{},
		); err != nil {
			log.Fatalf("❌ Failed to migrate database: %v", err)
		}
	}
	log.Println("✅ Database migrated successfully")

	// ==================== Redis ====================
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Connected to Redis")

	// ==================== Email (SMTP / Mailpit) ====================
	mailClient := mailer.New(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	log.Printf("📧 SMTP configured: %s:%s", cfg.SMTP.Host, cfg.SMTP.Port)

	// ==================== Structured Logger ====================
	zapLogger, err := zap.NewProduction()
	if cfg.App.Env != "production" {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("❌ Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// ==================== Initialize Layers ====================
	// JWT Manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	mealRepo := repository.NewMealRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	subsRepo := repository.NewSubscriptionRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, otpRepo, jwtManager, mailClient, rdb)
	mealService := service.NewMealService(mealRepo, userRepo, settingsRepo)
	usageService := service.NewUsageService(rdb, subsRepo, cfg.Usage.FreeMonthly)

	// ==================== Push Transport & Dispatch Engine ====================
	transport, err := push.NewFCMTransport(cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("❌ Failed to initialize push transport: %v", err)
	}

	engineOpts := notify.Options{
		Interval:    cfg.Notify.Interval,
		UserBatch:   cfg.Notify.UserBatch,
		DeviceBatch: cfg.Notify.DeviceBatch,
		DryRun:      cfg.Notify.DryRun,
	}
	if transport == nil && !engineOpts.DryRun {
		log.Println("⚠️  No push transport, notification engine running in dry-run mode")
		engineOpts.DryRun = true
	}

	engine := notify.NewEngine(notify.Deps{
		Users:        userRepo,
		Settings:     settingsRepo,
		Devices:      deviceRepo,
		Attempts:     attemptRepo,
		Logs:         mealRepo,
		Streaks:      userRepo,
		Entitlements: subsRepo,
		Usage:        usageService,
		Transport:    transport,
	}, engineOpts, zapLogger.Named("notify"))

	engineCtx, engineCancel := context.WithCancel(context.Background())
	defer engineCancel()
	go engine.Run(engineCtx)

	// ==================== Retention Cleanup Job ====================
	retentionJob := jobs.NewRetentionJob(mealRepo, otpRepo, zapLogger.Named("retention"))
	if err := retentionJob.Start(); err != nil {
		log.Fatalf("❌ Failed to start retention job: %v", err)
	}

	// ==================== MinIO Storage ====================
	minioStorage, err := storage.NewMinIO(storage.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		PublicURL: cfg.MinIO.PublicURL,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		log.Printf("⚠️  MinIO not available: %v (photo upload disabled)", err)
	}
	if minioStorage != nil {
		log.Println("✅ Connected to MinIO")
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	mealHandler := handler.NewMealHandler(mealService, usageService)
	notificationHandler := handler.NewNotificationHandler(settingsRepo, deviceRepo, attemptRepo)
	uploadHandler := handler.NewUploadHandler(minioStorage)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Swagger configuration
	// Serve swagger.json at /docs/swagger.json to avoid conflict with /swagger/* wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")

	// Swagger UI handling
	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	// Global middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "mealio-api",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	{
		// Auth routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/verify-otp", authHandler.VerifyOTP)
			authGroup.POST("/resend-otp", authHandler.ResendOTP)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/forgot-password", authHandler.ForgotPassword)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager, rdb))
		{
			// Auth
			protected.POST("/auth/logout", authHandler.Logout)
			protected.GET("/auth/profile", authHandler.GetProfile)

			// Meals
			protected.POST("/meals", mealHandler.CreateLog)
			protected.GET("/meals", mealHandler.ListDay)
			protected.DELETE("/meals/:id", mealHandler.DeleteLog)
			protected.POST("/meals/analyze", mealHandler.Analyze)
			protected.GET("/meals/usage", mealHandler.GetUsage)

			// Notifications
			protected.GET("/notifications/settings", notificationHandler.GetSettings)
			protected.PUT("/notifications/settings", notificationHandler.UpdateSettings)
			protected.POST("/notifications/devices", notificationHandler.RegisterDevice)
			protected.DELETE("/notifications/devices/:token", notificationHandler.UnregisterDevice)
			protected.GET("/notifications/history", notificationHandler.ListAttempts)

			// Upload
			protected.POST("/upload", uploadHandler.UploadPhoto)
		}
	}

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	log.Printf("🌐 Mealio API running on http://0.0.0.0:%s", cfg.App.Port)
	log.Printf("📋 API docs: http://0.0.0.0:%s/swagger/index.html", cfg.App.Port)
	log.Printf("📄 Swagger JSON: http://0.0.0.0:%s/docs/swagger.json", cfg.App.Port)
	log.Printf("📧 Mailpit UI: http://localhost:8025")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	engineCancel()
	retentionJob.Stop()
	log.Println("✅ Server exited gracefully")
}
