package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/trainer-availability-api/internal/models"
	appErrors "github.com/noah-isme/trainer-availability-api/pkg/errors"
)

const suggestionCachePattern = "suggestions:*"

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type availabilityStore interface {
	Query(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityRecord, error)
	QueryTx(ctx context.Context, exec sqlx.QueryerContext, filter models.AvailabilityFilter) ([]models.AvailabilityRecord, error)
	LockOwner(ctx context.Context, exec sqlx.ExtContext, ownerID string) error
	Insert(ctx context.Context, exec sqlx.ExtContext, record *models.AvailabilityRecord) error
	Delete(ctx context.Context, id, ownerID string) (*models.AvailabilityRecord, error)
}

type trainerDirectory interface {
	QualifiedOwners(ctx context.Context, moduleID string) ([]models.QualifiedOwner, error)
}

type constraintProvider interface {
	Get(ctx context.Context, institutionID string) (models.InstitutionConstraints, error)
}

type notificationSink interface {
	Notify(ctx context.Context, event models.AvailabilityChanged)
}

// SchedulingOptions tunes the engine. Location is the zone recurrence rules are
// evaluated in when no institution applies (create and list); it defaults to UTC.
type SchedulingOptions struct {
	Location         *time.Location
	LookaheadMonths  int
	Workers          int
	MaxSuggestions   int
	MaxOccurrences   int
	StrictCalendar   bool
	RequestTimeout   time.Duration
	CacheSuggestions bool
	SuggestionTTL    time.Duration
}

// SchedulingService is the availability engine: it stores owner availability and
// turns it into ranked slot suggestions.
type SchedulingService struct {
	tx           txProvider
	store        availabilityStore
	trainers     trainerDirectory
	institutions constraintProvider
	notifier     notificationSink
	cache        *CacheService
	metrics      *MetricsService
	expander     *RecurrenceExpander
	matcher      *ConstraintMatcher
	ranker       *SlotRanker
	opts         SchedulingOptions
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewSchedulingService wires the engine together.
func NewSchedulingService(
	tx txProvider,
	store availabilityStore,
	trainers trainerDirectory,
	institutions constraintProvider,
	notifier notificationSink,
	cache *CacheService,
	metrics *MetricsService,
	opts SchedulingOptions,
	validate *validator.Validate,
	logger *zap.Logger,
) *SchedulingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LookaheadMonths <= 0 {
		opts.LookaheadMonths = 3
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = DefaultSuggestionLimit
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &SchedulingService{
		tx:           tx,
		store:        store,
		trainers:     trainers,
		institutions: institutions,
		notifier:     notifier,
		cache:        cache,
		metrics:      metrics,
		expander:     NewRecurrenceExpander(opts.MaxOccurrences, metrics, logger).In(opts.Location),
		matcher:      NewConstraintMatcher(opts.StrictCalendar),
		ranker:       NewSlotRanker(opts.MaxSuggestions),
		opts:         opts,
		validator:    validate,
		logger:       logger,
		now:          time.Now,
	}
}

// SuggestSlots returns at most MaxSuggestions slots, best first, across every
// owner qualified for moduleID. Owners whose availability cannot be read, or
// who are still pending when ctx expires, are skipped and the rest are returned.
func (s *SchedulingService) SuggestSlots(ctx context.Context, moduleID, institutionID string, durationHours float64, preferredStart time.Time) ([]models.SuggestionSlot, error) {
	began := time.Now()
	if moduleID == "" || institutionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "module_id and institution_id are required")
	}
	if durationHours <= 0 || durationHours > 24 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "duration_hours must be within (0, 24]")
	}
	if preferredStart.IsZero() {
		preferredStart = s.now()
	}
	required := time.Duration(durationHours * float64(time.Hour))

	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	cacheKey := suggestionCacheKey(moduleID, institutionID, durationHours, preferredStart)
	if s.opts.CacheSuggestions {
		var cached []models.SuggestionSlot
		if s.cache.Get(ctx, cacheKey, &cached) {
			return cached, nil
		}
	}

	owners, err := s.trainers.QualifiedOwners(ctx, moduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "training module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve qualified trainers")
	}

	constraints, err := s.institutions.Get(ctx, institutionID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrConstraintUnavailable.Code, appErrors.ErrConstraintUnavailable.Status, "institution constraints unavailable")
	}

	windowStart := preferredStart
	windowEnd := preferredStart.AddDate(0, s.opts.LookaheadMonths, 0)

	perOwner := make([][]models.CandidateSlot, len(owners))
	var skipped atomic.Int32
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, owner := range owners {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				s.skipOwner(owner, "deadline", err)
				skipped.Add(1)
				return nil
			}
			candidates, err := s.candidatesForOwner(ctx, owner, constraints, windowStart, windowEnd, required)
			if err != nil {
				reason := "fetch_failed"
				if ctx.Err() != nil {
					reason = "deadline"
				}
				s.skipOwner(owner, reason, err)
				skipped.Add(1)
				return nil
			}
			perOwner[i] = candidates
			return nil
		})
	}
	_ = g.Wait()

	var all []models.CandidateSlot
	for _, candidates := range perOwner {
		all = append(all, candidates...)
	}
	ranked := s.ranker.Rank(all)

	slots := make([]models.SuggestionSlot, 0, len(ranked))
	for _, c := range ranked {
		slots = append(slots, models.SuggestionSlot{
			OwnerID:   c.OwnerID,
			OwnerName: c.OwnerName,
			StartTime: c.StartTime,
			EndTime:   c.EndTime,
			Score:     c.Score,
			Reason:    s.ranker.Reason(),
		})
	}

	if n := skipped.Load(); n > 0 {
		s.logger.Warn("suggestion computed with skipped owners",
			zap.String("module_id", moduleID),
			zap.String("institution_id", institutionID),
			zap.Int32("skipped", n),
			zap.Int("owners", len(owners)))
	} else if s.opts.CacheSuggestions {
		s.cache.Set(context.WithoutCancel(ctx), cacheKey, slots, s.opts.SuggestionTTL)
	}

	s.metrics.ObserveSuggestion(time.Since(began), len(slots))
	return slots, nil
}

func (s *SchedulingService) candidatesForOwner(ctx context.Context, owner models.QualifiedOwner, constraints models.InstitutionConstraints, windowStart, windowEnd time.Time, required time.Duration) ([]models.CandidateSlot, error) {
	records, err := s.store.Query(ctx, models.AvailabilityFilter{
		OwnerID:    owner.ID,
		Kind:       models.AvailabilityKindAvailable,
		RangeStart: windowStart,
		RangeEnd:   windowEnd,
	})
	if err != nil {
		return nil, err
	}

	expander := s.expander.In(constraints.Location)
	var candidates []models.CandidateSlot
	for _, record := range records {
		for occ := range expander.ExpandAll(record, windowStart, windowEnd) {
			// one-off records are returned when they merely intersect the window
			if occ.StartTime.Before(windowStart) {
				continue
			}
			candidate, ok := s.matcher.Filter(occ, constraints, required)
			if !ok {
				continue
			}
			candidate.OwnerName = owner.DisplayName
			candidate.Score = s.ranker.Score(candidate, constraints)
			candidates = append(candidates, candidate)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return candidates, nil
}

func (s *SchedulingService) skipOwner(owner models.QualifiedOwner, reason string, err error) {
	s.metrics.RecordOwnerSkipped(reason)
	s.logger.Warn("owner skipped during suggestion",
		zap.String("owner_id", owner.ID),
		zap.String("reason", reason),
		zap.Error(err))
}

func suggestionCacheKey(moduleID, institutionID string, durationHours float64, preferredStart time.Time) string {
	return fmt.Sprintf("suggestions:%s:%s:%s:%s",
		moduleID,
		institutionID,
		strconv.FormatFloat(durationHours, 'f', -1, 64),
		preferredStart.UTC().Format(time.RFC3339))
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, models.AvailabilityChanged) {}
