// Package main runs the academy management HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mataleao/backend/config"
	"github.com/mataleao/backend/internal/auth"
	"github.com/mataleao/backend/internal/catalog"
	"github.com/mataleao/backend/internal/checkin"
	"github.com/mataleao/backend/internal/classes"
	"github.com/mataleao/backend/internal/middleware"
	"github.com/mataleao/backend/internal/models"
	"github.com/mataleao/backend/internal/users"
	"github.com/mataleao/backend/pkg/database"
	"github.com/mataleao/backend/pkg/queue"
	"github.com/mataleao/backend/pkg/redis"
	"github.com/mataleao/backend/pkg/response"
	"github.com/mataleao/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	loc, err := time.LoadLocation(cfg.Academy.Timezone)
	if err != nil {
		logger.Fatal("load academy timezone", zap.String("timezone", cfg.Academy.Timezone), zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			AvatarsBucket:        cfg.AWS.AvatarsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	codeTTL := time.Duration(cfg.Academy.CodeExpireMinutes) * time.Minute

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, jobQueue, codeTTL, logger)

	// Catalog (belts, categories)
	catalogRepo := catalog.NewRepository(pool)
	catalogHandler := catalog.NewHandler(catalogRepo, logger)

	// Classes
	classRepo := classes.NewRepository(pool)
	classHandler := classes.NewHandler(classRepo, loc, logger)

	// Check-ins
	checkinRepo := checkin.NewRepository(pool)
	checkinService := checkin.NewService(checkinRepo, loc, logger)
	checkinHandler := checkin.NewHandler(checkinService, logger)

	// Users
	userRepo := users.NewRepository(pool)
	userHandler := users.NewHandler(userRepo, s3Client, loc, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/activate", authHandler.Activate)
		authGroup.POST("/resend-code", authHandler.ResendCode)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/auth/me", authHandler.Me)

		// Catalog
		api.GET("/belts", catalogHandler.ListBelts)
		api.GET("/categories", catalogHandler.ListCategories)
		api.POST("/categories", middleware.RequireRole(models.RoleAdmin), catalogHandler.CreateCategory)

		// Classes
		api.GET("/classes", classHandler.List)
		api.GET("/classes/recent", classHandler.Recent)
		api.GET("/classes/:id", classHandler.GetByID)
		api.POST("/classes", middleware.RequireRole(models.RoleAdmin, models.RoleInstructor), classHandler.Create)
		api.POST("/classes/bulk", middleware.RequireRole(models.RoleAdmin, models.RoleInstructor), classHandler.CreateBulk)

		// Check-ins
		api.POST("/checkins", checkinHandler.Create)
		api.PATCH("/checkins/cancel", checkinHandler.Cancel)

		// Users
		api.GET("/users/profile", userHandler.Profile)
		api.PATCH("/users/profile", userHandler.UpdateProfile)
		api.GET("/users/summary", userHandler.GetSummary)
		api.GET("/users/ranking", userHandler.GetRanking)
		api.GET("/users/upcoming-classes", userHandler.GetUpcomingClasses)
		api.POST("/users/avatar", userHandler.UploadAvatar)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
