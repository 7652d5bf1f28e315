package dto

import (
	"time"

	"github.com/noah-isme/trainer-availability-api/internal/models"
)

// CreateAvailabilityRequest is the payload to register an availability window.
// OwnerID is only honoured for administrators; trainers always create for themselves.
type CreateAvailabilityRequest struct {
	OwnerID        string                  `json:"owner_id"`
	StartTime      time.Time               `json:"start_time" validate:"required"`
	EndTime        time.Time               `json:"end_time" validate:"required,gtfield=StartTime"`
	IsRecurring    bool                    `json:"is_recurring"`
	RecurrenceRule *models.RecurrenceRule  `json:"recurrence_rule,omitempty" validate:"-"`
	Kind           models.AvailabilityKind `json:"kind" validate:"omitempty,oneof=available unavailable"`
	Note           string                  `json:"note" validate:"max=500"`
}

// ListAvailabilityQuery captures the query string of the availability listing.
type ListAvailabilityQuery struct {
	OwnerID string `form:"owner_id"`
	Start   string `form:"start"`
	End     string `form:"end"`
}

// AvailabilityListResponse wraps the expanded occurrences of one owner.
type AvailabilityListResponse struct {
	OwnerID     string              `json:"owner_id"`
	RangeStart  time.Time           `json:"range_start"`
	RangeEnd    time.Time           `json:"range_end"`
	Occurrences []models.Occurrence `json:"occurrences"`
}
