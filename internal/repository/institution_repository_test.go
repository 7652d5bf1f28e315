package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstitutionRepositoryFindSettings(t *testing.T) {
	db, mock, cleanup := newRepositoryMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "timezone", "working_hours_start", "working_hours_end", "working_days", "vacation_periods", "room_availability"}).
		AddRow("inst-1", "Campus", "Asia/Jakarta", "07:30", nil, []byte("{1,2,3}"), `[{"start":"2024-07-01","end":"2024-07-14"}]`, nil)
	mock.ExpectQuery("FROM institutions WHERE id = \\$1").
		WithArgs("inst-1").
		WillReturnRows(rows)

	settings, err := repo.FindSettings(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", settings.Timezone)
	assert.Equal(t, "07:30", settings.WorkingHoursStart)
	assert.Empty(t, settings.WorkingHoursEnd)
	assert.Equal(t, []int{1, 2, 3}, settings.WorkingDays)
	require.Len(t, settings.VacationPeriods, 1)
	assert.Equal(t, 14, settings.VacationPeriods[0].End.Day())
	assert.Nil(t, settings.RoomAvailability)
	assert.NoError(t, mock.ExpectationsWereMet())
}
