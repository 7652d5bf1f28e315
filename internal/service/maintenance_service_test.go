package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/trainer-availability-api/pkg/errors"
)

type purgerStub struct {
	before time.Time
	purged int64
	err    error
}

func (p *purgerStub) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	p.before = before
	return p.purged, p.err
}

func TestMaintenanceServicePurgeExpired(t *testing.T) {
	store := &purgerStub{purged: 3}
	cacheRepo := &memoryCacheRepo{values: map[string]interface{}{"suggestions:a": 1}}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewMaintenanceService(store, cache, NewMetricsService(), 30*24*time.Hour, nil)
	now := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	result, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Purged)
	assert.Equal(t, now.Add(-30*24*time.Hour), store.before)
	assert.Equal(t, store.before, result.Horizon)
	assert.Empty(t, cacheRepo.values)
}

func TestMaintenanceServicePurgeFailure(t *testing.T) {
	svc := NewMaintenanceService(&purgerStub{err: errors.New("timeout")}, nil, nil, 0, nil)
	_, err := svc.PurgeExpired(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
