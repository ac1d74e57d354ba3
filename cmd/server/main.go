// Package main runs the visitor registration HTTP server with the live
// arrivals feed and graceful shutdown.
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

	"github.com/sgs-visits/backend/config"
	"github.com/sgs-visits/backend/internal/auth"
	"github.com/sgs-visits/backend/internal/checkin"
	"github.com/sgs-visits/backend/internal/emaillogs"
	"github.com/sgs-visits/backend/internal/middleware"
	"github.com/sgs-visits/backend/internal/realtime"
	"github.com/sgs-visits/backend/internal/visits"
	"github.com/sgs-visits/backend/pkg/database"
	"github.com/sgs-visits/backend/pkg/queue"
	"github.com/sgs-visits/backend/pkg/redis"
	"github.com/sgs-visits/backend/pkg/response"
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

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authHandler, err := auth.NewHandler(cfg.Dashboard.Password, jwtService, logger)
	if err != nil {
		logger.Fatal("auth", zap.Error(err))
	}
	gateEnabled := authHandler.Enabled()
	if !gateEnabled {
		logger.Warn("dashboard password not set, admin surface is open")
	}

	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Visits
	visitRepo := visits.NewRepository(pool)
	emailLogsRepo := emaillogs.NewRepository(pool)
	notifier := emaillogs.NewNotifier(emailLogsRepo, jobQueue, logger)

	var gate visits.GateFunc
	if gateEnabled {
		gate = func(c *gin.Context) error {
			return middleware.RequireDashboardToken(c, jwtService)
		}
	}
	visitHandler := visits.NewHandler(visitRepo, notifier, gate, logger)

	// Check-in
	checkinRepo := checkin.NewRepository(pool)
	checkinHandler := checkin.NewHandler(checkinRepo, hub, logger)

	// Email logs (dashboard)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo, visitRepo, jobQueue, logger)

	// WebSocket token check (query param; no Authorization header on upgrades)
	var wsValidate realtime.TokenValidator
	if gateEnabled {
		wsValidate = func(token string) error {
			claims, err := jwtService.Validate(token)
			if err != nil {
				return err
			}
			if claims.Role != auth.RoleDashboard {
				return auth.ErrInvalidToken
			}
			return nil
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	router.POST("/auth/dashboard", authHandler.Login)

	// Visits. GET serves both the public pre-registration lookup and the
	// dashboard listing; the handler gates the listing branch itself.
	router.POST("/visits", visitHandler.Create)
	router.GET("/visits", visitHandler.Get)
	router.GET("/visits/:id/qr", visitHandler.QRImage)
	router.POST("/visits/check-in", checkinHandler.CheckIn)

	// Dashboard-only record management
	dashboardGate := middleware.DashboardGate(jwtService, gateEnabled)
	router.PUT("/visits", dashboardGate, visitHandler.Update)
	router.DELETE("/visits", dashboardGate, visitHandler.Delete)
	router.GET("/emails", dashboardGate, emailLogsHandler.List)
	router.POST("/emails/:id/resend", dashboardGate, emailLogsHandler.Resend)

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws/arrivals", realtime.ServeWs(hub, logger, wsValidate))

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
