package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/trainer-availability-api/internal/dto"
)

const defaultRunTimeout = 5 * time.Minute

type purgeRunner interface {
	PurgeExpired(ctx context.Context) (*dto.PurgeResponse, error)
}

// Scheduler triggers the expired-availability purge on a cron schedule.
// Overlapping runs are skipped.
type Scheduler struct {
	c       *cron.Cron
	runner  purgeRunner
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	lastRun *dto.PurgeResponse
}

// NewScheduler parses schedule (standard five-field cron or a descriptor such as @yearly)
// in the given time zone and registers the purge job.
func NewScheduler(runner purgeRunner, schedule, timezone string, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load maintenance timezone: %w", err)
		}
		loc = l
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s := &Scheduler{
		c:       cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
		runner:  runner,
		timeout: defaultRunTimeout,
		logger:  logger,
	}
	if _, err := s.c.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("parse maintenance schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running scheduled purges in the background.
func (s *Scheduler) Start() {
	s.c.Start()
	for _, entry := range s.c.Entries() {
		s.logger.Info("maintenance scheduled", zap.Time("next_run", entry.Next))
	}
}

// Stop halts the scheduler and waits for an in-flight run or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("maintenance run still in flight at shutdown")
	}
}

// RunOnce executes the purge immediately unless a run is already in progress.
func (s *Scheduler) RunOnce(ctx context.Context) (*dto.PurgeResponse, bool, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, false, nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	result, err := s.runner.PurgeExpired(ctx)
	if err != nil {
		return nil, true, err
	}
	s.mu.Lock()
	s.lastRun = result
	s.mu.Unlock()
	return result, true, nil
}

// LastRun returns the result of the most recent successful run.
func (s *Scheduler) LastRun() *dto.PurgeResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, ran, err := s.RunOnce(ctx)
	switch {
	case !ran:
		s.logger.Info("maintenance run skipped, previous run still active")
	case err != nil:
		s.logger.Error("maintenance run failed", zap.Error(err))
	}
}
