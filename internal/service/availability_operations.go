package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/trainer-availability-api/internal/dto"
	"github.com/noah-isme/trainer-availability-api/internal/models"
	appErrors "github.com/noah-isme/trainer-availability-api/pkg/errors"
)

// CreateAvailability validates and stores a new availability window for req.OwnerID.
// Available windows are checked against the owner's existing available windows
// while holding a per-owner lock, so concurrent creates cannot both slip through.
func (s *SchedulingService) CreateAvailability(ctx context.Context, req dto.CreateAvailabilityRequest) (*models.AvailabilityRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if req.OwnerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "owner_id is required")
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time and end_time are required")
	}
	if !req.StartTime.Before(req.EndTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	record := &models.AvailabilityRecord{
		OwnerID:     req.OwnerID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsRecurring: req.IsRecurring,
		Kind:        req.Kind,
		Note:        req.Note,
	}
	if record.Kind == "" {
		record.Kind = models.AvailabilityKindAvailable
	}

	switch {
	case req.IsRecurring && req.RecurrenceRule == nil:
		return nil, appErrors.Clone(appErrors.ErrRecurrenceParse, "recurring availability requires a recurrence_rule")
	case !req.IsRecurring && req.RecurrenceRule != nil:
		return nil, appErrors.Clone(appErrors.ErrValidation, "recurrence_rule is only allowed when is_recurring is true")
	case req.IsRecurring:
		rule := *req.RecurrenceRule
		rule.Normalize()
		if err := s.validator.Struct(rule); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrRecurrenceParse.Code, appErrors.ErrRecurrenceParse.Status, "invalid recurrence rule")
		}
		if err := rule.Validate(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrRecurrenceParse.Code, appErrors.ErrRecurrenceParse.Status, "invalid recurrence rule")
		}
		if rule.Until != nil && rule.Until.Before(truncateDay(req.StartTime)) {
			return nil, appErrors.Clone(appErrors.ErrRecurrenceParse, "recurrence until precedes start_time")
		}
		record.RecurrenceRule = &rule
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.store.LockOwner(ctx, tx, record.OwnerID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock owner availability")
	}

	if record.Kind == models.AvailabilityKindAvailable {
		if err := s.checkConflicts(ctx, tx, record); err != nil {
			return nil, err
		}
	}

	if err := s.store.Insert(ctx, tx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store availability")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit availability")
	}
	committed = true

	s.afterMutation(ctx, models.EventAvailabilityCreated, "created", record)
	return record, nil
}

// checkConflicts expands the candidate over the lookahead window and compares
// each occurrence with the owner's stored available occurrences.
func (s *SchedulingService) checkConflicts(ctx context.Context, tx *sqlx.Tx, record *models.AvailabilityRecord) error {
	windowStart := record.StartTime
	windowEnd := record.EndTime
	if record.IsRecurring {
		windowEnd = record.StartTime.AddDate(0, s.opts.LookaheadMonths, 0)
	}

	existing, err := s.store.QueryTx(ctx, tx, models.AvailabilityFilter{
		OwnerID:    record.OwnerID,
		Kind:       models.AvailabilityKindAvailable,
		RangeStart: windowStart,
		RangeEnd:   windowEnd,
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing availability")
	}
	if len(existing) == 0 {
		return nil
	}

	var stored []models.Occurrence
	for _, rec := range existing {
		// occurrences that began before the window can still overlap it
		stored = append(stored, s.expander.Materialize([]models.AvailabilityRecord{rec}, windowStart.Add(-rec.Duration()), windowEnd)...)
	}

	for occ := range s.expander.ExpandAll(*record, windowStart, windowEnd) {
		hit, found := FindConflict(record.OwnerID, occ.Interval(), stored)
		if !found {
			continue
		}
		s.metrics.RecordConflict()
		conflict := &models.AvailabilityConflictError{
			Message: fmt.Sprintf("availability overlaps %s to %s", hit.StartTime.Format(time.RFC3339), hit.EndTime.Format(time.RFC3339)),
			Conflict: models.AvailabilityConflict{
				RecordID:  hit.SourceRecordID,
				OwnerID:   hit.OwnerID,
				Existing:  hit.Interval(),
				Candidate: occ.Interval(),
			},
		}
		return appErrors.WithDetails(
			appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, appErrors.ErrConflict.Message),
			conflict.Conflict,
		)
	}
	return nil
}

// DeleteAvailability removes record id if it belongs to ownerID.
func (s *SchedulingService) DeleteAvailability(ctx context.Context, id, ownerID string) error {
	if id == "" || ownerID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "id and owner_id are required")
	}
	record, err := s.store.Delete(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "availability not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability")
	}
	s.afterMutation(ctx, models.EventAvailabilityDeleted, "deleted", record)
	return nil
}

// ListAvailabilities returns the owner's occurrences of both kinds, sorted by start,
// together with the range actually used. Recurring occurrences start inside
// [rangeStart, rangeEnd]; one-off records are included when they overlap it. A zero
// start defaults to now and a zero end to the lookahead window after start.
func (s *SchedulingService) ListAvailabilities(ctx context.Context, ownerID string, rangeStart, rangeEnd time.Time) (*dto.AvailabilityListResponse, error) {
	if ownerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "owner_id is required")
	}
	if rangeStart.IsZero() {
		rangeStart = s.now()
	}
	if rangeEnd.IsZero() {
		rangeEnd = rangeStart.AddDate(0, s.opts.LookaheadMonths, 0)
	}
	if !rangeStart.Before(rangeEnd) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start must be before end")
	}

	records, err := s.store.Query(ctx, models.AvailabilityFilter{
		OwnerID:    ownerID,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	occurrences := s.expander.Materialize(records, rangeStart, rangeEnd)
	if occurrences == nil {
		occurrences = []models.Occurrence{}
	}
	return &dto.AvailabilityListResponse{
		OwnerID:     ownerID,
		RangeStart:  rangeStart,
		RangeEnd:    rangeEnd,
		Occurrences: occurrences,
	}, nil
}

func (s *SchedulingService) afterMutation(ctx context.Context, event models.AvailabilityEvent, action string, record *models.AvailabilityRecord) {
	detached := context.WithoutCancel(ctx)
	s.cache.Invalidate(detached, suggestionCachePattern)

	payload := models.AvailabilityChanged{
		Event:          event,
		OwnerID:        record.OwnerID,
		AvailabilityID: record.ID,
		Action:         action,
		StartTime:      record.StartTime,
		EndTime:        record.EndTime,
		OccurredAt:     s.now().UTC(),
	}
	s.notifier.Notify(detached, payload)
	s.logger.Info("availability changed",
		zap.String("event", string(event)),
		zap.String("owner_id", record.OwnerID),
		zap.String("availability_id", record.ID))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
