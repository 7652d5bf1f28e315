package notification

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/trainer-availability-api/internal/models"
)

// TypeAvailabilityChanged is the asynq task type consumed by downstream notifiers.
const TypeAvailabilityChanged = "availability:changed"

// NewAvailabilityChangedTask encodes event as an asynq task.
func NewAvailabilityChangedTask(event models.AvailabilityChanged) (*asynq.Task, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAvailabilityChanged, b), nil
}

// DecodeAvailabilityChanged is the consumer-side counterpart of NewAvailabilityChangedTask.
func DecodeAvailabilityChanged(task *asynq.Task) (models.AvailabilityChanged, error) {
	var event models.AvailabilityChanged
	err := json.Unmarshal(task.Payload(), &event)
	return event, err
}
