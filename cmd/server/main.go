// Package main runs the field-service HTTP API with graceful shutdown.
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

	"github.com/fieldserve/backend/config"
	"github.com/fieldserve/backend/internal/auth"
	"github.com/fieldserve/backend/internal/clients"
	"github.com/fieldserve/backend/internal/events"
	"github.com/fieldserve/backend/internal/interventions"
	"github.com/fieldserve/backend/internal/middleware"
	"github.com/fieldserve/backend/internal/models"
	"github.com/fieldserve/backend/internal/technicians"
	"github.com/fieldserve/backend/pkg/database"
	"github.com/fieldserve/backend/pkg/redis"
	"github.com/fieldserve/backend/pkg/response"
	"github.com/fieldserve/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
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
			Bucket:               cfg.AWS.AttachmentsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("attachment storage disabled", zap.Error(err))
		}
	}

	// Access guard
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireMinutes)
	authRepo := auth.NewRepository(pool)
	denylist := auth.NewDenylist(rdb.Client)
	guard := auth.NewGuard(jwtService, denylist, authRepo)
	authHandler := auth.NewHandler(authRepo, jwtService, guard, logger)

	// Clients
	clientRepo := clients.NewRepository(pool)
	clientSvc := clients.NewService(clientRepo, logger)
	clientHandler := clients.NewHandler(clientSvc)

	// Technicians
	technicianRepo := technicians.NewRepository(pool)
	technicianSvc := technicians.NewService(technicianRepo, logger)
	technicianHandler := technicians.NewHandler(technicianSvc)

	// Interventions
	interventionRepo := interventions.NewRepository(pool)
	interventionSvc := interventions.NewService(interventionRepo, clientRepo, technicianRepo, logger)
	interventionHandler := interventions.NewHandler(interventionSvc)

	// Event timeline
	eventRepo := events.NewRepository(pool)
	eventSvc := events.NewService(eventRepo, interventionRepo, technicianRepo, logger)
	var presigner events.Presigner
	if s3Client != nil {
		presigner = s3Client
	}
	eventHandler := events.NewHandler(eventSvc, presigner)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public login, authenticated logout)
	router.POST("/auth/login", authHandler.Login)

	// Protected API (JWT required); mutations additionally require the
	// technician role.
	api := router.Group("")
	api.Use(middleware.JWT(guard))
	technicianOnly := middleware.RequireRole(models.RoleTechnician)
	{
		api.POST("/auth/logout", authHandler.Logout)

		// Clients
		api.POST("/clients", technicianOnly, clientHandler.Create)
		api.GET("/clients", clientHandler.List)
		api.GET("/clients/:id", clientHandler.Get)
		api.PATCH("/clients/:id", technicianOnly, clientHandler.Update)
		api.DELETE("/clients/:id", technicianOnly, clientHandler.Delete)

		// Technicians
		api.POST("/technicians", technicianOnly, technicianHandler.Create)
		api.GET("/technicians", technicianHandler.List)
		api.GET("/technicians/:id", technicianHandler.Get)
		api.PATCH("/technicians/:id", technicianOnly, technicianHandler.Update)
		api.DELETE("/technicians/:id", technicianOnly, technicianHandler.Delete)

		// Interventions
		api.POST("/interventions", technicianOnly, interventionHandler.Create)
		api.GET("/interventions", interventionHandler.List)
		api.GET("/interventions/:id", interventionHandler.Get)
		api.PATCH("/interventions/:id", technicianOnly, interventionHandler.Update)
		api.DELETE("/interventions/:id", technicianOnly, interventionHandler.Delete)

		// Event timeline
		api.POST("/interventions/:id/events", technicianOnly, eventHandler.Append)
		api.GET("/interventions/:id/events", eventHandler.List)

		// Attachments (503 when storage is not configured)
		api.POST("/interventions/:id/attachments", technicianOnly, eventHandler.CreateAttachment)
		api.GET("/interventions/:id/attachments/url", eventHandler.AttachmentURL)
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
