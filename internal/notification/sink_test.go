package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trainer-availability-api/internal/models"
	"github.com/noah-isme/trainer-availability-api/pkg/jobs"
)

type enqueuerStub struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	fail  int
}

func (e *enqueuerStub) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail > 0 {
		e.fail--
		return nil, errors.New("redis unavailable")
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

func (e *enqueuerStub) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

type metricsStub struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *metricsStub) RecordNotification(_ models.AvailabilityEvent, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *metricsStub) Has(outcome string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.outcomes {
		if o == outcome {
			return true
		}
	}
	return false
}

func sampleEvent() models.AvailabilityChanged {
	return models.AvailabilityChanged{
		Event:          models.EventAvailabilityCreated,
		OwnerID:        "5",
		AvailabilityID: "rec-1",
		Action:         "created",
		OccurredAt:     time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
	}
}

func TestSinkPublishesWithRetry(t *testing.T) {
	client := &enqueuerStub{fail: 1}
	metrics := &metricsStub{}
	sink := NewSink(NewPublisher(client, "availability", 3), jobs.QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: 2, RetryDelay: 5 * time.Millisecond}, metrics, nil)
	sink.Start(context.Background())
	defer sink.Stop()

	sink.Notify(context.Background(), sampleEvent())

	require.Eventually(t, func() bool { return client.Count() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, metrics.Has(OutcomeQueued))
	require.Eventually(t, func() bool { return metrics.Has(OutcomePublished) }, time.Second, 5*time.Millisecond)

	event, err := DecodeAvailabilityChanged(client.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, "rec-1", event.AvailabilityID)
	assert.Equal(t, TypeAvailabilityChanged, client.tasks[0].Type())
}

func TestSinkSwallowsFailures(t *testing.T) {
	client := &enqueuerStub{fail: 10}
	metrics := &metricsStub{}
	sink := NewSink(NewPublisher(client, "", 0), jobs.QueueConfig{Workers: 1, MaxRetries: 0, RetryDelay: time.Millisecond}, metrics, nil)

	// not started: dropped immediately, no panic
	sink.Notify(context.Background(), sampleEvent())
	assert.True(t, metrics.Has(OutcomeDropped))

	sink.Start(context.Background())
	defer sink.Stop()
	sink.Notify(context.Background(), sampleEvent())
	require.Eventually(t, func() bool { return sink.Stats().Failed == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, client.Count())
}

func TestLogSinkRecordsOutcome(t *testing.T) {
	metrics := &metricsStub{}
	NewLogSink(metrics, nil).Notify(context.Background(), sampleEvent())
	assert.True(t, metrics.Has(OutcomeLogged))
}
