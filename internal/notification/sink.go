package notification

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/trainer-availability-api/internal/models"
	"github.com/noah-isme/trainer-availability-api/pkg/jobs"
)

// Outcomes reported to the metrics recorder.
const (
	OutcomeQueued    = "queued"
	OutcomePublished = "published"
	OutcomeDropped   = "dropped"
	OutcomeLogged    = "logged"
)

type eventPublisher interface {
	Publish(ctx context.Context, event models.AvailabilityChanged) error
}

type metricsRecorder interface {
	RecordNotification(event models.AvailabilityEvent, outcome string)
}

// Sink is the fire-and-forget NotificationSink. Notify never blocks the caller:
// events go onto an in-process retrying queue and are published from its workers.
type Sink struct {
	queue     *jobs.Queue
	publisher eventPublisher
	metrics   metricsRecorder
	logger    *zap.Logger
}

// NewSink builds a sink whose workers publish through publisher.
func NewSink(publisher eventPublisher, cfg jobs.QueueConfig, metrics metricsRecorder, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sink{publisher: publisher, metrics: metrics, logger: logger}
	cfg.Logger = logger
	cfg.OnGiveUp = s.giveUp
	s.queue = jobs.NewQueue("availability-notifications", s.handle, cfg)
	return s
}

// Start launches the queue workers.
func (s *Sink) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *Sink) Stop() {
	s.queue.Stop()
}

// Stats exposes queue counters.
func (s *Sink) Stats() jobs.Stats {
	return s.queue.Stats()
}

// Notify schedules event for publication. Failures are logged and swallowed.
func (s *Sink) Notify(_ context.Context, event models.AvailabilityChanged) {
	job := jobs.Job{ID: event.AvailabilityID, Type: string(event.Event), Payload: event}
	if err := s.queue.TryEnqueue(job); err != nil {
		if !errors.Is(err, jobs.ErrQueueFull) {
			s.giveUp(job, err)
		}
		return
	}
	s.record(event.Event, OutcomeQueued)
}

func (s *Sink) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.AvailabilityChanged)
	if !ok {
		return nil
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return err
	}
	s.record(event.Event, OutcomePublished)
	return nil
}

func (s *Sink) giveUp(job jobs.Job, err error) {
	s.record(models.AvailabilityEvent(job.Type), OutcomeDropped)
	s.logger.Warn("availability notification dropped",
		zap.String("availability_id", job.ID),
		zap.String("event", job.Type),
		zap.Int("attempts", job.Attempt),
		zap.Error(err))
}

func (s *Sink) record(event models.AvailabilityEvent, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordNotification(event, outcome)
	}
}

// LogSink records events in the log only. It is used when publishing is disabled.
type LogSink struct {
	metrics metricsRecorder
	logger  *zap.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(metrics metricsRecorder, logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{metrics: metrics, logger: logger}
}

// Notify logs the event.
func (s *LogSink) Notify(_ context.Context, event models.AvailabilityChanged) {
	if s.metrics != nil {
		s.metrics.RecordNotification(event.Event, OutcomeLogged)
	}
	s.logger.Debug("availability changed",
		zap.String("event", string(event.Event)),
		zap.String("owner_id", event.OwnerID),
		zap.String("availability_id", event.AvailabilityID))
}
