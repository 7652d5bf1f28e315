package dto

import "github.com/noah-isme/trainer-availability-api/internal/models"

// SuggestSlotsRequest asks for ranked trainer slots for a module at an institution.
// PreferredStartDate accepts YYYY-MM-DD or RFC3339 and defaults to now.
type SuggestSlotsRequest struct {
	ModuleID           string  `json:"module_id" validate:"required"`
	InstitutionID      string  `json:"institution_id" validate:"required"`
	DurationHours      float64 `json:"duration_hours" validate:"required,gt=0,lte=24"`
	PreferredStartDate string  `json:"preferred_start_date"`
}

// SuggestSlotsResponse lists suggestions in score order.
type SuggestSlotsResponse struct {
	Slots []models.SuggestionSlot `json:"slots"`
}
