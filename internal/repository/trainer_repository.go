package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/trainer-availability-api/internal/models"
)

// TrainerRepository answers capability lookups against the trainer directory.
type TrainerRepository struct {
	db *sqlx.DB
}

// NewTrainerRepository constructs the repository.
func NewTrainerRepository(db *sqlx.DB) *TrainerRepository {
	return &TrainerRepository{db: db}
}

// RequiredSkills returns the skills a training module declares. A missing module yields sql.ErrNoRows.
func (r *TrainerRepository) RequiredSkills(ctx context.Context, moduleID string) ([]string, error) {
	var skills pq.StringArray
	if err := r.db.GetContext(ctx, &skills, `SELECT required_skills FROM training_modules WHERE id = $1`, moduleID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("load module skills: %w", err)
	}
	return []string(skills), nil
}

// QualifiedOwners lists active trainers whose skills cover the module's
// required skills, or every active trainer when the module declares none.
func (r *TrainerRepository) QualifiedOwners(ctx context.Context, moduleID string) ([]models.QualifiedOwner, error) {
	skills, err := r.RequiredSkills(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	var owners []models.QualifiedOwner
	if len(skills) == 0 {
		const query = `SELECT id, display_name FROM trainers WHERE active = TRUE ORDER BY id ASC`
		if err := r.db.SelectContext(ctx, &owners, query); err != nil {
			return nil, fmt.Errorf("list active trainers: %w", err)
		}
		return owners, nil
	}

	const query = `SELECT id, display_name FROM trainers WHERE active = TRUE AND skills @> $1 ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &owners, query, pq.Array(skills)); err != nil {
		return nil, fmt.Errorf("list qualified trainers: %w", err)
	}
	return owners, nil
}
