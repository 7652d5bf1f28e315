package models

import "time"

// AvailabilityEvent names an availability-changed signal.
type AvailabilityEvent string

const (
	EventAvailabilityCreated AvailabilityEvent = "availability.created"
	EventAvailabilityDeleted AvailabilityEvent = "availability.deleted"
)

// AvailabilityChanged is the payload handed to the notification sink.
type AvailabilityChanged struct {
	Event          AvailabilityEvent `json:"event"`
	OwnerID        string            `json:"owner_id"`
	AvailabilityID string            `json:"availability_id"`
	Action         string            `json:"action"`
	StartTime      time.Time         `json:"start_time,omitempty"`
	EndTime        time.Time         `json:"end_time,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}
