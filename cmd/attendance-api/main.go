package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/geoattend/attendance-api/api/swagger"
	"github.com/geoattend/attendance-api/internal/handler"
	"github.com/geoattend/attendance-api/internal/middleware"
	"github.com/geoattend/attendance-api/internal/realtime"
	"github.com/geoattend/attendance-api/internal/repository"
	"github.com/geoattend/attendance-api/internal/service"
	"github.com/geoattend/attendance-api/pkg/cache"
	"github.com/geoattend/attendance-api/pkg/config"
	"github.com/geoattend/attendance-api/pkg/database"
	"github.com/geoattend/attendance-api/pkg/logger"
	corsmiddleware "github.com/geoattend/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/geoattend/attendance-api/pkg/middleware/requestid"
)

// @title Campus Attendance Realtime API
// @version 1.0.0
// @description Geolocation and session broadcast backend for campus attendance marking
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, session cache disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	state := realtime.NewState(cfg.Realtime.DefaultRangeMeters)
	hub := realtime.NewHub(state, realtime.Options{
		HeartbeatInterval: cfg.Realtime.HeartbeatInterval,
		HeartbeatTimeout:  cfg.Realtime.HeartbeatTimeout,
		WriteTimeout:      cfg.Realtime.WriteTimeout,
		SendBufferSize:    cfg.Realtime.SendBufferSize,
	}, logr, metricsSvc)

	sessionRepo := repository.NewSessionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr, metricsSvc)

	authSvc := service.NewAuthService(cfg.JWT.Secret, cfg.JWT.Expiration)
	adminSvc := service.NewAdminService(state, hub, logr)
	sessionSvc := service.NewSessionService(sessionRepo, hub, cacheRepo, nil, logr,
		cfg.Sessions.QRCodeTTL, cfg.Sessions.CacheTTL, cfg.Sessions.CacheEnabled && redisClient != nil)

	adminHandler := handler.NewAdminHandler(adminSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	wsHandler := handler.NewWSHandler(hub, cfg.CORS.AllowedOrigins, logr)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/ws", wsHandler.Serve)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		admin := api.Group("/admin")
		admin.POST("/location", adminHandler.UpdateLocation)
		admin.GET("/location", adminHandler.Location)
		admin.GET("/settings", adminHandler.Settings)
		admin.GET("/data", adminHandler.Data)

		sessions := api.Group("/sessions")
		sessions.POST("/start", middleware.JWT(authSvc), sessionHandler.Start)
		sessions.POST("/end", middleware.JWT(authSvc), sessionHandler.End)
		sessions.GET("/active/:lecturerId", sessionHandler.Active)
		sessions.GET("/:sessionId", sessionHandler.Get)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting",
		zap.String("addr", addr),
		zap.String("env", cfg.Env),
		zap.Strings("allowed_origins", cfg.CORS.AllowedOrigins))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
