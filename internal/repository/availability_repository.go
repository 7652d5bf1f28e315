package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/trainer-availability-api/internal/models"
)

const availabilityColumns = "id, owner_id, start_time, end_time, is_recurring, recurrence_rule, kind, note, created_at, updated_at"

type availabilityRow struct {
	ID             string             `db:"id"`
	OwnerID        string             `db:"owner_id"`
	StartTime      time.Time          `db:"start_time"`
	EndTime        time.Time          `db:"end_time"`
	IsRecurring    bool               `db:"is_recurring"`
	RecurrenceRule types.NullJSONText `db:"recurrence_rule"`
	Kind           string             `db:"kind"`
	Note           sql.NullString     `db:"note"`
	CreatedAt      time.Time          `db:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at"`
}

// toModel decodes the stored rule leniently: an undecodable payload becomes a
// rule with no frequency, which the expander reports and skips.
func (r availabilityRow) toModel() models.AvailabilityRecord {
	record := models.AvailabilityRecord{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		IsRecurring: r.IsRecurring,
		Kind:        models.AvailabilityKind(r.Kind),
		Note:        r.Note.String,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.RecurrenceRule.Valid && len(r.RecurrenceRule.JSONText) > 0 {
		var rule models.RecurrenceRule
		if err := json.Unmarshal(r.RecurrenceRule.JSONText, &rule); err != nil {
			rule = models.RecurrenceRule{}
		}
		record.RecurrenceRule = &rule
	}
	return record
}

func rowFromModel(record *models.AvailabilityRecord) (availabilityRow, error) {
	row := availabilityRow{
		ID:          record.ID,
		OwnerID:     record.OwnerID,
		StartTime:   record.StartTime.UTC(),
		EndTime:     record.EndTime.UTC(),
		IsRecurring: record.IsRecurring,
		Kind:        string(record.Kind),
		Note:        sql.NullString{String: record.Note, Valid: record.Note != ""},
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
	if record.RecurrenceRule != nil {
		payload, err := json.Marshal(record.RecurrenceRule)
		if err != nil {
			return row, fmt.Errorf("marshal recurrence rule: %w", err)
		}
		row.RecurrenceRule = types.NullJSONText{JSONText: payload, Valid: true}
	}
	return row, nil
}

// AvailabilityRepository persists trainer availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// LockOwner takes a transaction-scoped advisory lock keyed on the owner id.
// Concurrent creates for the same owner queue behind it until commit or rollback.
func (r *AvailabilityRepository) LockOwner(ctx context.Context, exec sqlx.ExtContext, ownerID string) error {
	if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerID); err != nil {
		return fmt.Errorf("lock availability owner: %w", err)
	}
	return nil
}

// Query returns the records of one owner that may produce occurrences in the filter range.
func (r *AvailabilityRepository) Query(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityRecord, error) {
	return r.QueryTx(ctx, r.db, filter)
}

// QueryTx is Query bound to the supplied executor so it can run inside a transaction.
// Recurring records are returned regardless of their anchor end; the expander clips them.
func (r *AvailabilityRepository) QueryTx(ctx context.Context, exec sqlx.QueryerContext, filter models.AvailabilityFilter) ([]models.AvailabilityRecord, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{filter.OwnerID}

	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if !filter.RangeEnd.IsZero() {
		args = append(args, filter.RangeEnd.UTC())
		conditions = append(conditions, fmt.Sprintf("start_time <= $%d", len(args)))
	}
	if !filter.RangeStart.IsZero() {
		args = append(args, filter.RangeStart.UTC())
		conditions = append(conditions, fmt.Sprintf("(is_recurring OR end_time > $%d)", len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM availabilities WHERE %s ORDER BY start_time ASC, id ASC", availabilityColumns, strings.Join(conditions, " AND "))
	var rows []availabilityRow
	if err := sqlx.SelectContext(ctx, exec, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query availabilities: %w", err)
	}

	records := make([]models.AvailabilityRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}

// Insert stores a new availability record and fills in its id and timestamps.
func (r *AvailabilityRepository) Insert(ctx context.Context, exec sqlx.ExtContext, record *models.AvailabilityRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	row, err := rowFromModel(record)
	if err != nil {
		return err
	}

	const query = `INSERT INTO availabilities (id, owner_id, start_time, end_time, is_recurring, recurrence_rule, kind, note, created_at, updated_at)
		VALUES (:id, :owner_id, :start_time, :end_time, :is_recurring, :recurrence_rule, :kind, :note, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, row); err != nil {
		return fmt.Errorf("insert availability: %w", err)
	}
	return nil
}

// Delete removes a record only when it belongs to ownerID. It returns sql.ErrNoRows
// when nothing matched, including ids that are not UUIDs and so cannot exist.
func (r *AvailabilityRepository) Delete(ctx context.Context, id, ownerID string) (*models.AvailabilityRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, sql.ErrNoRows
	}
	query := fmt.Sprintf("DELETE FROM availabilities WHERE id = $1 AND owner_id = $2 RETURNING %s", availabilityColumns)
	var row availabilityRow
	if err := r.db.GetContext(ctx, &row, query, id, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("delete availability: %w", err)
	}
	record := row.toModel()
	return &record, nil
}

// PurgeExpired deletes one-off records that ended before the horizon and
// recurring records whose rule stopped repeating before it.
func (r *AvailabilityRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM availabilities
		WHERE (is_recurring = FALSE AND end_time < $1)
		   OR (is_recurring = TRUE AND recurrence_rule ->> 'until' IS NOT NULL AND (recurrence_rule ->> 'until')::timestamptz < $1)`
	res, err := r.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired availabilities: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired availabilities rows: %w", err)
	}
	return affected, nil
}
