package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/housing-board-api/api/swagger"
	"github.com/noah-isme/housing-board-api/internal/handler"
	internalmiddleware "github.com/noah-isme/housing-board-api/internal/middleware"
	"github.com/noah-isme/housing-board-api/internal/realtime"
	"github.com/noah-isme/housing-board-api/internal/repository"
	"github.com/noah-isme/housing-board-api/internal/service"
	"github.com/noah-isme/housing-board-api/pkg/cache"
	"github.com/noah-isme/housing-board-api/pkg/config"
	"github.com/noah-isme/housing-board-api/pkg/database"
	"github.com/noah-isme/housing-board-api/pkg/hardware"
	"github.com/noah-isme/housing-board-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/housing-board-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/housing-board-api/pkg/middleware/requestid"
)

// @title Housing Board API
// @version 1.0.0
// @description Party announcements, read receipts and disturbance alerts for a student housing complex
// @BasePath /api
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Sugar().Fatalw("migration failed", "error", err)
		}
	}
	if cfg.Database.Seed {
		seeded, err := database.Seed(ctx, db)
		if err != nil {
			logr.Sugar().Fatalw("seed failed", "error", err)
		}
		logr.Info("seed checked", zap.Bool("inserted", seeded))
	}

	metricsSvc := service.NewMetricsService()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, readers cache disabled", zap.Error(err))
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ReadersTTL, logr, redisClient != nil)

	sink, closeSink := openSink(ctx, cfg.Hardware, metricsSvc, logr)
	defer closeSink()

	corsPolicy := corsmiddleware.NewPolicy(cfg.CORS.AllowedOrigins)
	hub := realtime.NewHub(realtime.Options{
		SendBuffer:   cfg.Realtime.SendBuffer,
		WriteTimeout: cfg.Realtime.WriteTimeout,
		PingInterval: cfg.Realtime.PingInterval,
		CheckOrigin:  corsPolicy.CheckOrigin,
		Relay:        sink,
		Metrics:      metricsSvc,
		Logger:       logr,
	})

	validate := validator.New()
	triggerSvc := service.NewTriggerService(hub, sink, metricsSvc, cfg.Realtime, logr)
	announcementSvc := service.NewAnnouncementService(repository.NewAnnouncementRepository(db, metricsSvc), triggerSvc, validate, time.Local, logr)
	readSvc := service.NewReadTrackingService(repository.NewViewRepository(db, metricsSvc), cacheSvc, metricsSvc, validate, logr)
	reportSvc := service.NewReportService(repository.NewReportRepository(db, metricsSvc), triggerSvc, validate, logr)
	studentSvc := service.NewStudentService(repository.NewStudentRepository(db, metricsSvc))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.Middleware(corsPolicy))
	r.Use(internalmiddleware.Metrics(metricsSvc, cfg.Realtime.Path))

	handler.Routes{
		Announcements: handler.NewAnnouncementHandler(announcementSvc, readSvc),
		Reports:       handler.NewReportHandler(reportSvc),
		Students:      handler.NewStudentHandler(studentSvc),
		Metrics:       handler.NewMetricsHandler(metricsSvc, db),
		Realtime:      hub,
	}.Register(r, cfg.APIPrefix, cfg.Realtime.Path)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "realtime", cfg.Realtime.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	// Upgraded connections are not tracked by Shutdown; the hub closes them.
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func openSink(ctx context.Context, cfg config.HardwareConfig, metricsSvc *service.MetricsService, logr *zap.Logger) (hardware.Sink, func()) {
	if !cfg.Enabled {
		return hardware.NewLogSink(logr), func() {}
	}
	device, err := hardware.OpenSerial(cfg)
	if err != nil {
		logr.Warn("serial device unavailable, logging hardware commands instead", zap.String("port", cfg.Port), zap.Error(err))
		return hardware.NewLogSink(logr), func() {}
	}
	logr.Info("serial device opened", zap.String("port", cfg.Port), zap.Int("baud", cfg.BaudRate))

	queued := hardware.NewQueuedSink(context.WithoutCancel(ctx), device, hardware.QueuedSinkConfig{
		BufferSize: cfg.QueueSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logr,
		OnResult: func(cmd hardware.Command, err error) {
			metricsSvc.ObserveHardwareCommand("device", err)
			if err != nil {
				logr.Warn("serial write failed", zap.String("command", string(cmd)), zap.Error(err))
			}
		},
	})
	return queued, func() {
		queued.Stop()
		if err := device.Close(); err != nil {
			logr.Warn("close serial device", zap.Error(err))
		}
	}
}
