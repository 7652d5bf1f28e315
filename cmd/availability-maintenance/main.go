package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/trainer-availability-api/internal/repository"
	"github.com/noah-isme/trainer-availability-api/internal/service"
	"github.com/noah-isme/trainer-availability-api/pkg/cache"
	"github.com/noah-isme/trainer-availability-api/pkg/config"
	"github.com/noah-isme/trainer-availability-api/pkg/database"
	"github.com/noah-isme/trainer-availability-api/pkg/logger"
)

// One-shot purge of expired availability, for cron jobs or Kubernetes CronJobs
// running outside the API process.
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
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(ctx, cfg.Redis); err != nil {
		logr.Warn("redis unavailable, suggestion cache not invalidated", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient, logr), nil, 0, logr, true)
	}

	svc := service.NewMaintenanceService(repository.NewAvailabilityRepository(db), cacheSvc, nil, cfg.Maintenance.Retention, logr)
	result, err := svc.PurgeExpired(ctx)
	if err != nil {
		logr.Sugar().Fatalw("purge failed", "error", err)
	}
	logr.Info("purge complete", zap.Time("horizon", result.Horizon), zap.Int64("purged", result.Purged))
}
