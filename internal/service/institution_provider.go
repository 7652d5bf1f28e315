package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/trainer-availability-api/internal/models"
	"github.com/noah-isme/trainer-availability-api/pkg/config"
	appErrors "github.com/noah-isme/trainer-availability-api/pkg/errors"
)

type institutionSettingsReader interface {
	FindSettings(ctx context.Context, institutionID string) (*models.InstitutionSettings, error)
}

// InstitutionDefaults fill in policy an institution leaves unset.
type InstitutionDefaults struct {
	Location    *time.Location
	HoursStart  models.TimeOfDay
	HoursEnd    models.TimeOfDay
	WorkingDays []models.Weekday
}

// DefaultInstitutionDefaults is 08:00-18:00, Monday to Friday, UTC.
func DefaultInstitutionDefaults() InstitutionDefaults {
	return InstitutionDefaults{
		Location:    time.UTC,
		HoursStart:  8 * 60,
		HoursEnd:    18 * 60,
		WorkingDays: []models.Weekday{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday},
	}
}

// InstitutionDefaultsFromConfig resolves the configured defaults, keeping the
// built-in value for anything left blank.
func InstitutionDefaultsFromConfig(cfg config.SchedulingConfig) (InstitutionDefaults, error) {
	defaults := DefaultInstitutionDefaults()
	if cfg.DefaultTimezone != "" {
		loc, err := time.LoadLocation(cfg.DefaultTimezone)
		if err != nil {
			return defaults, fmt.Errorf("load default timezone: %w", err)
		}
		defaults.Location = loc
	}
	if cfg.DefaultHoursStart != "" {
		start, err := models.ParseTimeOfDay(cfg.DefaultHoursStart)
		if err != nil {
			return defaults, fmt.Errorf("default working hours start: %w", err)
		}
		defaults.HoursStart = start
	}
	if cfg.DefaultHoursEnd != "" {
		end, err := models.ParseTimeOfDay(cfg.DefaultHoursEnd)
		if err != nil {
			return defaults, fmt.Errorf("default working hours end: %w", err)
		}
		defaults.HoursEnd = end
	}
	if defaults.HoursEnd <= defaults.HoursStart {
		return defaults, fmt.Errorf("default working hours end %s not after start %s", defaults.HoursEnd, defaults.HoursStart)
	}
	if days := weekdaysFromIndexes(cfg.DefaultWorkDays); len(days) > 0 {
		defaults.WorkingDays = days
	}
	return defaults, nil
}

// InstitutionConstraintProvider resolves InstitutionConstraints through a Redis read-through cache.
type InstitutionConstraintProvider struct {
	repo     institutionSettingsReader
	cache    *CacheService
	cacheTTL time.Duration
	defaults InstitutionDefaults
	logger   *zap.Logger
}

// NewInstitutionConstraintProvider constructs the provider.
func NewInstitutionConstraintProvider(repo institutionSettingsReader, cache *CacheService, cacheTTL time.Duration, defaults InstitutionDefaults, logger *zap.Logger) *InstitutionConstraintProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.Location == nil {
		defaults.Location = time.UTC
	}
	return &InstitutionConstraintProvider{repo: repo, cache: cache, cacheTTL: cacheTTL, defaults: defaults, logger: logger}
}

func institutionCacheKey(id string) string {
	return fmt.Sprintf("institutions:%s:settings", id)
}

// Get returns the institution's constraints with defaults applied to unset fields.
func (p *InstitutionConstraintProvider) Get(ctx context.Context, institutionID string) (models.InstitutionConstraints, error) {
	var settings models.InstitutionSettings
	key := institutionCacheKey(institutionID)
	if !p.cache.Get(ctx, key, &settings) {
		loaded, err := p.repo.FindSettings(ctx, institutionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.InstitutionConstraints{}, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
			}
			return models.InstitutionConstraints{}, err
		}
		settings = *loaded
		p.cache.Set(ctx, key, settings, p.cacheTTL)
	}
	return p.apply(settings), nil
}

func (p *InstitutionConstraintProvider) apply(settings models.InstitutionSettings) models.InstitutionConstraints {
	constraints := models.InstitutionConstraints{
		InstitutionID:     settings.ID,
		Location:          p.defaults.Location,
		Timezone:          p.defaults.Location.String(),
		WorkingHoursStart: p.defaults.HoursStart,
		WorkingHoursEnd:   p.defaults.HoursEnd,
		WorkingDays:       p.defaults.WorkingDays,
		VacationPeriods:   settings.VacationPeriods,
		RoomAvailability:  settings.RoomAvailability,
	}

	if settings.Timezone != "" {
		if loc, err := time.LoadLocation(settings.Timezone); err == nil {
			constraints.Location = loc
			constraints.Timezone = settings.Timezone
		} else {
			p.logger.Warn("institution timezone invalid, using default",
				zap.String("institution_id", settings.ID), zap.String("timezone", settings.Timezone))
		}
	}

	start, end := constraints.WorkingHoursStart, constraints.WorkingHoursEnd
	if settings.WorkingHoursStart != "" {
		if parsed, err := models.ParseTimeOfDay(settings.WorkingHoursStart); err == nil {
			start = parsed
		}
	}
	if settings.WorkingHoursEnd != "" {
		if parsed, err := models.ParseTimeOfDay(settings.WorkingHoursEnd); err == nil {
			end = parsed
		}
	}
	if end > start {
		constraints.WorkingHoursStart, constraints.WorkingHoursEnd = start, end
	} else {
		p.logger.Warn("institution working hours inverted, using defaults", zap.String("institution_id", settings.ID))
	}

	if days := weekdaysFromIndexes(settings.WorkingDays); len(days) > 0 {
		constraints.WorkingDays = days
	}
	return constraints
}

func weekdaysFromIndexes(indexes []int) []models.Weekday {
	var days []models.Weekday
	for _, idx := range indexes {
		if day := models.WeekdayFromIndex(idx); day != "" {
			days = append(days, day)
		}
	}
	return days
}
