package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trainer-availability-api/internal/models"
	"github.com/noah-isme/trainer-availability-api/pkg/config"
	appErrors "github.com/noah-isme/trainer-availability-api/pkg/errors"
)

type institutionReaderStub struct {
	settings *models.InstitutionSettings
	err      error
	calls    int
}

func (s *institutionReaderStub) FindSettings(context.Context, string) (*models.InstitutionSettings, error) {
	s.calls++
	return s.settings, s.err
}

type memoryCacheRepo struct {
	values map[string]interface{}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if settings, ok := dest.(*models.InstitutionSettings); ok {
		*settings = v.(models.InstitutionSettings)
	}
	return nil
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	n := len(m.values)
	m.values = map[string]interface{}{}
	return n, nil
}

func TestInstitutionConstraintProviderAppliesDefaults(t *testing.T) {
	reader := &institutionReaderStub{settings: &models.InstitutionSettings{
		ID:                "inst-1",
		Timezone:          "Asia/Jakarta",
		WorkingHoursStart: "07:30",
		WorkingDays:       []int{1, 2, 3, 4, 5, 6},
	}}
	provider := NewInstitutionConstraintProvider(reader, nil, 0, DefaultInstitutionDefaults(), nil)

	constraints, err := provider.Get(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", constraints.Timezone)
	assert.Equal(t, models.TimeOfDay(7*60+30), constraints.WorkingHoursStart)
	assert.Equal(t, models.TimeOfDay(18*60), constraints.WorkingHoursEnd)
	assert.True(t, constraints.IsWorkingDay(models.Saturday))
	assert.False(t, constraints.IsWorkingDay(models.Sunday))
}

func TestInstitutionConstraintProviderFallsBackOnBadValues(t *testing.T) {
	reader := &institutionReaderStub{settings: &models.InstitutionSettings{
		ID:                "inst-1",
		Timezone:          "Mars/Olympus",
		WorkingHoursStart: "19:00",
		WorkingHoursEnd:   "09:00",
	}}
	provider := NewInstitutionConstraintProvider(reader, nil, 0, DefaultInstitutionDefaults(), nil)

	constraints, err := provider.Get(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "UTC", constraints.Timezone)
	assert.Equal(t, models.TimeOfDay(8*60), constraints.WorkingHoursStart)
	assert.Equal(t, models.TimeOfDay(18*60), constraints.WorkingHoursEnd)
	assert.Len(t, constraints.WorkingDays, 5)
}

func TestInstitutionConstraintProviderErrors(t *testing.T) {
	provider := NewInstitutionConstraintProvider(&institutionReaderStub{err: sql.ErrNoRows}, nil, 0, DefaultInstitutionDefaults(), nil)
	_, err := provider.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	boom := errors.New("db down")
	provider = NewInstitutionConstraintProvider(&institutionReaderStub{err: boom}, nil, 0, DefaultInstitutionDefaults(), nil)
	_, err = provider.Get(context.Background(), "inst-1")
	assert.ErrorIs(t, err, boom)
}

func TestInstitutionConstraintProviderCachesSettings(t *testing.T) {
	reader := &institutionReaderStub{settings: &models.InstitutionSettings{ID: "inst-1"}}
	cache := NewCacheService(&memoryCacheRepo{values: map[string]interface{}{}}, nil, time.Minute, nil, true)
	provider := NewInstitutionConstraintProvider(reader, cache, time.Minute, DefaultInstitutionDefaults(), nil)

	for i := 0; i < 3; i++ {
		_, err := provider.Get(context.Background(), "inst-1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, reader.calls)
}

func TestInstitutionDefaultsFromConfig(t *testing.T) {
	defaults, err := InstitutionDefaultsFromConfig(config.SchedulingConfig{
		DefaultTimezone:   "Asia/Jakarta",
		DefaultHoursStart: "07:00",
		DefaultHoursEnd:   "16:00",
		DefaultWorkDays:   []int{1, 2, 3, 4, 5, 6, 9},
	})
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", defaults.Location.String())
	assert.Equal(t, models.TimeOfDay(7*60), defaults.HoursStart)
	assert.Len(t, defaults.WorkingDays, 6)

	_, err = InstitutionDefaultsFromConfig(config.SchedulingConfig{DefaultHoursStart: "18:00", DefaultHoursEnd: "08:00"})
	assert.Error(t, err)

	_, err = InstitutionDefaultsFromConfig(config.SchedulingConfig{DefaultTimezone: "Nowhere/City"})
	assert.Error(t, err)
}
