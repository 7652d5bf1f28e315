package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/trainer-availability-api/api/swagger"
	"github.com/noah-isme/trainer-availability-api/internal/handler"
	"github.com/noah-isme/trainer-availability-api/internal/maintenance"
	"github.com/noah-isme/trainer-availability-api/internal/middleware"
	"github.com/noah-isme/trainer-availability-api/internal/models"
	"github.com/noah-isme/trainer-availability-api/internal/notification"
	"github.com/noah-isme/trainer-availability-api/internal/repository"
	"github.com/noah-isme/trainer-availability-api/internal/service"
	"github.com/noah-isme/trainer-availability-api/pkg/cache"
	"github.com/noah-isme/trainer-availability-api/pkg/config"
	"github.com/noah-isme/trainer-availability-api/pkg/database"
	"github.com/noah-isme/trainer-availability-api/pkg/jobs"
	"github.com/noah-isme/trainer-availability-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/trainer-availability-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/trainer-availability-api/pkg/middleware/requestid"
)

// @title Trainer Availability API
// @version 1.0.0
// @description Availability storage and slot suggestions for trainers
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	checks := map[string]handler.Pinger{"postgres": db}

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduling.SuggestionTTL, logr, true)
		checks["redis"] = redisPinger{client: redisClient}
	}

	defaults, err := service.InstitutionDefaultsFromConfig(cfg.Scheduling)
	if err != nil {
		logr.Sugar().Fatalw("invalid scheduling defaults", "error", err)
	}

	availabilityRepo := repository.NewAvailabilityRepository(db)
	trainerRepo := repository.NewTrainerRepository(db)
	institutionRepo := repository.NewInstitutionRepository(db)
	institutions := service.NewInstitutionConstraintProvider(institutionRepo, cacheSvc, cfg.Institutions.CacheTTL, defaults, logr)

	notifier, closeNotifier := buildNotifier(cfg, metricsSvc, logr)
	defer closeNotifier()

	validate := validator.New()
	scheduling := service.NewSchedulingService(
		db,
		availabilityRepo,
		trainerRepo,
		institutions,
		notifier,
		cacheSvc,
		metricsSvc,
		service.SchedulingOptions{
			Location:         defaults.Location,
			LookaheadMonths:  cfg.Scheduling.LookaheadMonths,
			Workers:          cfg.Scheduling.Workers,
			MaxSuggestions:   cfg.Scheduling.MaxSuggestions,
			MaxOccurrences:   cfg.Scheduling.MaxOccurrences,
			StrictCalendar:   cfg.Scheduling.StrictCalendar,
			RequestTimeout:   cfg.Scheduling.RequestTimeout,
			CacheSuggestions: cfg.Scheduling.CacheSuggestions,
			SuggestionTTL:    cfg.Scheduling.SuggestionTTL,
		},
		validate,
		logr,
	)
	maintenanceSvc := service.NewMaintenanceService(availabilityRepo, cacheSvc, metricsSvc, cfg.Maintenance.Retention, logr)

	scheduler, err := maintenance.NewScheduler(maintenanceSvc, cfg.Maintenance.Schedule, cfg.Maintenance.Timezone, logr)
	if err != nil {
		logr.Sugar().Fatalw("invalid maintenance schedule", "error", err)
	}
	if cfg.Maintenance.Enabled {
		scheduler.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			scheduler.Stop(stopCtx)
		}()
	}

	tokens := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	availabilityHandler := handler.NewAvailabilityHandler(scheduling)
	suggestionHandler := handler.NewSuggestionHandler(scheduling, validate)
	maintenanceHandler := handler.NewMaintenanceHandler(scheduler, cfg.Maintenance.Enabled)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokens))
	{
		writers := middleware.RequireRoles(models.RoleTrainer, models.RoleAdmin)
		api.POST("/availabilities", writers, availabilityHandler.Create)
		api.DELETE("/availabilities/:id", writers, availabilityHandler.Delete)
		api.GET("/availabilities", middleware.RequireRoles(models.RoleTrainer, models.RoleAdmin, models.RoleCoordinator), availabilityHandler.List)

		suggest := []gin.HandlerFunc{middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)}
		if cfg.RateLimit.Enabled {
			limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logr)
			suggest = append(suggest, limiter.Middleware())
		}
		suggest = append(suggest, suggestionHandler.Suggest)
		api.POST("/suggestions", suggest...)

		admin := middleware.RequireRoles(models.RoleAdmin)
		api.POST("/maintenance/purge", admin, maintenanceHandler.Purge)
		api.GET("/maintenance/status", admin, maintenanceHandler.Status)
		api.GET("/metrics/summary", admin, metricsHandler.Summary)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type notificationSink interface {
	Notify(ctx context.Context, event models.AvailabilityChanged)
}

// buildNotifier returns the asynq-backed sink when notifications are enabled and
// falls back to logging events otherwise.
func buildNotifier(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (notificationSink, func()) {
	if !cfg.Notifications.Enabled {
		return notification.NewLogSink(metrics, logr), func() {}
	}

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cache.Addr(cfg.Redis),
		Password: cfg.Redis.Password,
		DB:       cfg.Notifications.RedisDB,
	})
	publisher := notification.NewPublisher(client, cfg.Notifications.Queue, cfg.Notifications.MaxRetries)
	sink := notification.NewSink(publisher, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, metrics, logr)
	// Workers outlive the signal context so Stop can drain queued events.
	sink.Start(context.Background())

	return sink, func() {
		sink.Stop()
		if err := client.Close(); err != nil {
			logr.Warn("close asynq client", zap.Error(err))
		}
	}
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
