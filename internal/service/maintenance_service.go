package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/trainer-availability-api/internal/dto"
	appErrors "github.com/noah-isme/trainer-availability-api/pkg/errors"
)

// DefaultRetention keeps expired availability for a year before purging.
const DefaultRetention = 365 * 24 * time.Hour

type expiredAvailabilityPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// MaintenanceService removes availability that can no longer produce occurrences.
// PurgeExpired is idempotent, so the cron scheduler, the one-shot binary and the
// admin endpoint may all trigger it.
type MaintenanceService struct {
	store     expiredAvailabilityPurger
	cache     *CacheService
	metrics   *MetricsService
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewMaintenanceService constructs the service.
func NewMaintenanceService(store expiredAvailabilityPurger, cache *CacheService, metrics *MetricsService, retention time.Duration, logger *zap.Logger) *MaintenanceService {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{store: store, cache: cache, metrics: metrics, retention: retention, logger: logger, now: time.Now}
}

// PurgeExpired deletes records that ended before now minus the retention period.
func (s *MaintenanceService) PurgeExpired(ctx context.Context) (*dto.PurgeResponse, error) {
	horizon := s.now().UTC().Add(-s.retention)
	purged, err := s.store.PurgeExpired(ctx, horizon)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge expired availability")
	}
	s.metrics.AddPurged(purged)
	if purged > 0 {
		s.cache.Invalidate(ctx, suggestionCachePattern)
	}
	s.logger.Info("expired availability purged", zap.Time("horizon", horizon), zap.Int64("purged", purged))
	return &dto.PurgeResponse{Horizon: horizon, Purged: purged}, nil
}
