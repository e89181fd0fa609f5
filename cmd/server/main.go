// Package main runs the event registration and check-in HTTP server with
// WebSocket dashboards and graceful shutdown.
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

	"github.com/KATHANJAIN1311/creative-era-event/config"
	"github.com/KATHANJAIN1311/creative-era-event/internal/admin"
	"github.com/KATHANJAIN1311/creative-era-event/internal/checkin"
	"github.com/KATHANJAIN1311/creative-era-event/internal/credential"
	"github.com/KATHANJAIN1311/creative-era-event/internal/events"
	"github.com/KATHANJAIN1311/creative-era-event/internal/middleware"
	"github.com/KATHANJAIN1311/creative-era-event/internal/realtime"
	"github.com/KATHANJAIN1311/creative-era-event/internal/registrations"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/database"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/queue"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/redis"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/response"
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

	if cfg.Credential.SigningSecret == "" {
		logger.Warn("CREDENTIAL_SIGNING_SECRET not set; issuing unsigned credentials")
	}
	codec := credential.NewCodec(cfg.Credential.SigningSecret)
	jwtService := admin.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Events
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, logger)

	// Registrations
	registrationRepo := registrations.NewRepository(pool)
	registrationHandler := registrations.NewHandler(registrationRepo, eventRepo, codec, hub, jobQueue, logger)

	// Check-in
	checkinRepo := checkin.NewRepository(pool)
	checkinService := checkin.NewService(codec, checkinRepo, eventRepo, hub, logger)
	checkinHandler := checkin.NewHandler(checkinService, checkinRepo, logger)

	// Admin
	adminRepo := admin.NewRepository(pool)
	adminHandler := admin.NewHandler(adminRepo, registrationRepo, jwtService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	api := router.Group("/api")

	// Health
	api.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: browse events, register, self-service lookup, check-in scan.
	api.GET("/events", eventHandler.List)
	api.GET("/events/:id", eventHandler.GetByID)
	api.POST("/registrations", registrationHandler.Create)
	api.GET("/registrations", registrationHandler.Search)
	api.GET("/registrations/:id", registrationHandler.GetByID)
	api.POST("/checkins/verify", checkinHandler.Verify)
	api.POST("/admin/login", adminHandler.Login)

	// Admin (JWT required)
	protected := api.Group("")
	protected.Use(middleware.JWT(jwtService), middleware.RequireRole("admin"))
	{
		protected.POST("/events", eventHandler.Create)
		protected.PUT("/events/:id", eventHandler.Update)
		protected.DELETE("/events/:id", eventHandler.Delete)
		protected.GET("/registrations/all", registrationHandler.List)
		protected.GET("/registrations/event/:eventId", registrationHandler.ListByEvent)
		protected.GET("/checkins/event/:eventId", checkinHandler.ListByEvent)
		protected.GET("/admin/dashboard/:eventId", adminHandler.Dashboard)
	}

	// WebSocket dashboards (event_id in query)
	router.GET("/ws", realtime.ServeWs(hub, logger))

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
