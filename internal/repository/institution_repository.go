package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/noah-isme/trainer-availability-api/internal/models"
)

type institutionRow struct {
	ID                string             `db:"id"`
	Name              string             `db:"name"`
	Timezone          sql.NullString     `db:"timezone"`
	WorkingHoursStart sql.NullString     `db:"working_hours_start"`
	WorkingHoursEnd   sql.NullString     `db:"working_hours_end"`
	WorkingDays       pq.Int64Array      `db:"working_days"`
	VacationPeriods   types.NullJSONText `db:"vacation_periods"`
	RoomAvailability  types.NullJSONText `db:"room_availability"`
}

// InstitutionRepository loads institution scheduling policy.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository constructs the repository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// FindSettings returns the stored policy for an institution; unset columns stay zero.
func (r *InstitutionRepository) FindSettings(ctx context.Context, institutionID string) (*models.InstitutionSettings, error) {
	const query = `SELECT id, name, timezone,
		to_char(working_hours_start, 'HH24:MI') AS working_hours_start,
		to_char(working_hours_end, 'HH24:MI') AS working_hours_end,
		working_days, vacation_periods, room_availability
		FROM institutions WHERE id = $1`
	var row institutionRow
	if err := r.db.GetContext(ctx, &row, query, institutionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("load institution: %w", err)
	}

	settings := &models.InstitutionSettings{
		ID:                row.ID,
		Name:              row.Name,
		Timezone:          row.Timezone.String,
		WorkingHoursStart: row.WorkingHoursStart.String,
		WorkingHoursEnd:   row.WorkingHoursEnd.String,
	}
	for _, day := range row.WorkingDays {
		settings.WorkingDays = append(settings.WorkingDays, int(day))
	}
	if row.VacationPeriods.Valid && len(row.VacationPeriods.JSONText) > 0 {
		if err := json.Unmarshal(row.VacationPeriods.JSONText, &settings.VacationPeriods); err != nil {
			return nil, fmt.Errorf("decode vacation periods: %w", err)
		}
	}
	if row.RoomAvailability.Valid {
		settings.RoomAvailability = json.RawMessage(row.RoomAvailability.JSONText)
	}
	return settings, nil
}
