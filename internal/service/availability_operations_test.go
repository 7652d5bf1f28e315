package service

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trainer-availability-api/internal/dto"
	"github.com/noah-isme/trainer-availability-api/internal/models"
	"github.com/noah-isme/trainer-availability-api/internal/repository"
	appErrors "github.com/noah-isme/trainer-availability-api/pkg/errors"
)

func existingAvailable(id string, start, end time.Time) models.AvailabilityRecord {
	return models.AvailabilityRecord{ID: id, OwnerID: "5", StartTime: start, EndTime: end, Kind: models.AvailabilityKindAvailable}
}

func TestCreateAvailabilityRejectsOverlap(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	store := newAvailabilityStoreStub(existingAvailable("existing-1", at(10, 0), at(12, 0)))
	notifier := &notifierStub{}
	svc := newSchedulingFixture(t, schedulingFixtureConfig{tx: tx, store: store, notifier: notifier})

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.CreateAvailability(context.Background(), dto.CreateAvailabilityRequest{
		OwnerID:   "5",
		StartTime: at(11, 0),
		EndTime:   at(13, 0),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	conflict, ok := appErr.Details.(models.AvailabilityConflict)
	require.True(t, ok)
	assert.Equal(t, "existing-1", conflict.RecordID)
	assert.Equal(t, at(10, 0), conflict.Existing.Start)

	var conflictErr *models.AvailabilityConflictError
	assert.True(t, errors.As(err, &conflictErr))
	assert.Empty(t, notifier.Events())
	assert.Equal(t, []string{"5"}, store.locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAvailabilityAdjacentSucceeds(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	store := newAvailabilityStoreStub(existingAvailable("existing-1", at(10, 0), at(11, 0)))
	notifier := &notifierStub{}
	svc := newSchedulingFixture(t, schedulingFixtureConfig{tx: tx, store: store, notifier: notifier})

	mock.ExpectBegin()
	mock.ExpectCommit()

	record, err := svc.CreateAvailability(context.Background(), dto.CreateAvailabilityRequest{
		OwnerID:   "5",
		StartTime: at(11, 0),
		EndTime:   at(12, 0),
		Note:      "after lunch",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityKindAvailable, record.Kind)
	assert.NotEmpty(t, record.ID)

	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventAvailabilityCreated, events[0].Event)
	assert.Equal(t, record.ID, events[0].AvailabilityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAvailabilityUnavailableSkipsConflictCheck(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	store := newAvailabilityStoreStub(existingAvailable("existing-1", at(10, 0), at(12, 0)))
	svc := newSchedulingFixture(t, schedulingFixtureConfig{tx: tx, store: store})

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.CreateAvailability(context.Background(), dto.CreateAvailabilityRequest{
		OwnerID:   "5",
		StartTime: at(11, 0),
		EndTime:   at(13, 0),
		Kind:      models.AvailabilityKindUnavailable,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAvailabilityRecurringCandidateHitsFutureRecord(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	future := time.Date(2024, 3, 18, 10, 30, 0, 0, time.UTC)
	store := newAvailabilityStoreStub(existingAvailable("future", future, future.Add(time.Hour)))
	svc := newSchedulingFixture(t, schedulingFixtureConfig{tx: tx, store: store})

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.CreateAvailability(context.Background(), dto.CreateAvailabilityRequest{
		OwnerID:        "5",
		StartTime:      at(10, 0),
		EndTime:        at(11, 0),
		IsRecurring:    true,
		RecurrenceRule: &models.RecurrenceRule{Frequency: "Weekly"},
	})
	require.Error(t, err)
	conflict := appErrors.FromError(err).Details.(models.AvailabilityConflict)
	assert.Equal(t, "future", conflict.RecordID)
	assert.Equal(t, time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC), conflict.Candidate.Start)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAvailabilityExistingRecurringStartedEarlier(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	earlier := time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC)
	store := newAvailabilityStoreStub(models.AvailabilityRecord{
		ID: "weekly", OwnerID: "5", StartTime: earlier, EndTime: earlier.Add(3 * time.Hour), IsRecurring: true,
		RecurrenceRule: &models.RecurrenceRule{Frequency: models.FrequencyWeekly, Interval: 1},
		Kind:           models.AvailabilityKindAvailable,
	})
	svc := newSchedulingFixture(t, schedulingFixtureConfig{tx: tx, store: store})

	mock.ExpectBegin()
	mock.ExpectRollback()

	// the stored Monday occurrence runs 09:00-12:00 and began before the candidate
	_, err := svc.CreateAvailability(context.Background(), dto.CreateAvailabilityRequest{
		OwnerID:   "5",
		StartTime: at(11, 0),
		EndTime:   at(13, 0),
	})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAvailabilityValidation(t *testing.T) {
	svc := newSchedulingFixture(t, schedulingFixtureConfig{store: newAvailabilityStoreStub()})

	cases := []struct {
		name string
		req  dto.CreateAvailabilityRequest
		want *appErrors.Error
	}{
		{"end before start", dto.CreateAvailabilityRequest{OwnerID: "5", StartTime: at(12, 0), EndTime: at(10, 0)}, appErrors.ErrValidation},
		{"equal bounds", dto.CreateAvailabilityRequest{OwnerID: "5", StartTime: at(12, 0), EndTime: at(12, 0)}, appErrors.ErrValidation},
		{"missing start", dto.CreateAvailabilityRequest{OwnerID: "5", EndTime: at(12, 0)}, appErrors.ErrValidation},
		{"missing owner", dto.CreateAvailabilityRequest{StartTime: at(10, 0), EndTime: at(12, 0)}, appErrors.ErrValidation},
		{"bad kind", dto.CreateAvailabilityRequest{OwnerID: "5", StartTime: at(10, 0), EndTime: at(12, 0), Kind: "maybe"}, appErrors.ErrValidation},
		{"rule without recurrence", dto.CreateAvailabilityRequest{OwnerID: "5", StartTime: at(10, 0), EndTime: at(12, 0), RecurrenceRule: &models.RecurrenceRule{Frequency: models.FrequencyDaily}}, appErrors.ErrValidation},
		{"recurring without rule", dto.CreateAvailabilityRequest{OwnerID: "5", StartTime: at(10, 0), EndTime: at(12, 0), IsRecurring: true}, appErrors.ErrRecurrenceParse},
		{"unknown frequency", dto.CreateAvailabilityRequest{OwnerID: "5", StartTime: at(10, 0), EndTime: at(12, 0), IsRecurring: true, RecurrenceRule: &models.RecurrenceRule{Frequency: "yearly"}}, appErrors.ErrRecurrenceParse},
		{"daily with weekdays", dto.CreateAvailabilityRequest{OwnerID: "5", StartTime: at(10, 0), EndTime: at(12, 0), IsRecurring: true, RecurrenceRule: &models.RecurrenceRule{Frequency: models.FrequencyDaily, ByWeekday: []models.Weekday{models.Monday}}}, appErrors.ErrRecurrenceParse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAvailability(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.want.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestDeleteAvailabilityNotFound(t *testing.T) {
	notifier := &notifierStub{}
	svc := newSchedulingFixture(t, schedulingFixtureConfig{store: newAvailabilityStoreStub(), notifier: notifier})

	err := svc.DeleteAvailability(context.Background(), "999", "5")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, notifier.Events())
}

func TestDeleteAvailabilityForeignOwner(t *testing.T) {
	store := newAvailabilityStoreStub(existingAvailable("rec-1", at(10, 0), at(12, 0)))
	svc := newSchedulingFixture(t, schedulingFixtureConfig{store: store})

	err := svc.DeleteAvailability(context.Background(), "rec-1", "6")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Len(t, store.records, 1)
}

func TestDeleteAvailabilityNotifies(t *testing.T) {
	store := newAvailabilityStoreStub(existingAvailable("rec-1", at(10, 0), at(12, 0)))
	notifier := &notifierStub{}
	svc := newSchedulingFixture(t, schedulingFixtureConfig{store: store, notifier: notifier})

	require.NoError(t, svc.DeleteAvailability(context.Background(), "rec-1", "5"))
	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventAvailabilityDeleted, events[0].Event)
	assert.Equal(t, "deleted", events[0].Action)
	assert.Empty(t, store.records)
}

func TestListAvailabilitiesExpandsAndSorts(t *testing.T) {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	store := newAvailabilityStoreStub(
		models.AvailabilityRecord{ID: "off", OwnerID: "5", StartTime: start.Add(30 * time.Hour), EndTime: start.Add(32 * time.Hour), Kind: models.AvailabilityKindUnavailable},
		models.AvailabilityRecord{
			ID: "daily", OwnerID: "5", StartTime: start, EndTime: start.Add(time.Hour), IsRecurring: true,
			RecurrenceRule: &models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1},
			Kind:           models.AvailabilityKindAvailable,
		},
		existingAvailable("other", start, start.Add(time.Hour)),
	)
	store.records[2].OwnerID = "6"
	svc := newSchedulingFixture(t, schedulingFixtureConfig{store: store})

	listed, err := svc.ListAvailabilities(context.Background(), "5", start, start.AddDate(0, 0, 2))
	require.NoError(t, err)
	occurrences := listed.Occurrences
	require.Len(t, occurrences, 4)
	assert.Equal(t, "daily", occurrences[0].SourceRecordID)
	assert.Equal(t, "daily", occurrences[1].SourceRecordID)
	assert.Equal(t, "off", occurrences[2].SourceRecordID)
	assert.Equal(t, models.AvailabilityKindUnavailable, occurrences[2].Kind)

	_, err = svc.ListAvailabilities(context.Background(), "5", start, start.Add(-time.Hour))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestListAvailabilitiesReportsDefaultedRange(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	svc := newSchedulingFixture(t, schedulingFixtureConfig{store: newAvailabilityStoreStub()})
	svc.now = func() time.Time { return now }

	listed, err := svc.ListAvailabilities(context.Background(), "5", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "5", listed.OwnerID)
	assert.True(t, listed.RangeStart.Equal(now))
	assert.True(t, listed.RangeEnd.Equal(now.AddDate(0, 3, 0)))
	assert.NotNil(t, listed.Occurrences)
}

func TestDeleteAvailabilityNonUUIDAgainstRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewAvailabilityRepository(sqlx.NewDb(db, "sqlmock"))
	svc := NewSchedulingService(nil, repo, nil, nil, nil, nil, nil, SchedulingOptions{}, nil, nil)

	err = svc.DeleteAvailability(context.Background(), "999", "5")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
