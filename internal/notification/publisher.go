package notification

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/trainer-availability-api/internal/models"
)

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Publisher hands availability events to asynq, where the notification
// service applies its own retry policy.
type Publisher struct {
	client   taskEnqueuer
	queue    string
	maxRetry int
}

// NewPublisher constructs a publisher bound to an asynq queue.
func NewPublisher(client taskEnqueuer, queue string, maxRetry int) *Publisher {
	if queue == "" {
		queue = "default"
	}
	return &Publisher{client: client, queue: queue, maxRetry: maxRetry}
}

// Publish enqueues one event.
func (p *Publisher) Publish(ctx context.Context, event models.AvailabilityChanged) error {
	task, err := NewAvailabilityChangedTask(event)
	if err != nil {
		return fmt.Errorf("encode availability event: %w", err)
	}
	if _, err := p.client.EnqueueContext(ctx, task, asynq.Queue(p.queue), asynq.MaxRetry(p.maxRetry)); err != nil {
		return fmt.Errorf("enqueue availability event: %w", err)
	}
	return nil
}
