package models

// AvailabilityConflict identifies the stored interval that blocked a create.
type AvailabilityConflict struct {
	RecordID  string   `json:"record_id"`
	OwnerID   string   `json:"owner_id"`
	Existing  Interval `json:"existing"`
	Candidate Interval `json:"candidate"`
}

// AvailabilityConflictError is returned when a new available window overlaps an existing one.
type AvailabilityConflictError struct {
	Message  string               `json:"message"`
	Conflict AvailabilityConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *AvailabilityConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
