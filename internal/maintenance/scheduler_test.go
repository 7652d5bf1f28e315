package maintenance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trainer-availability-api/internal/dto"
)

type runnerStub struct {
	calls atomic.Int32
	block chan struct{}
	err   error
}

func (r *runnerStub) PurgeExpired(ctx context.Context) (*dto.PurgeResponse, error) {
	r.calls.Add(1)
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return nil, r.err
	}
	return &dto.PurgeResponse{Purged: 2}, nil
}

func TestNewSchedulerValidatesInput(t *testing.T) {
	_, err := NewScheduler(&runnerStub{}, "not a cron", "UTC", nil)
	assert.Error(t, err)

	_, err = NewScheduler(&runnerStub{}, "@yearly", "Nowhere/City", nil)
	assert.Error(t, err)

	s, err := NewScheduler(&runnerStub{}, "0 3 1 1 *", "Asia/Jakarta", nil)
	require.NoError(t, err)
	assert.Len(t, s.c.Entries(), 1)
}

func TestSchedulerRunOnceRecordsResult(t *testing.T) {
	runner := &runnerStub{}
	s, err := NewScheduler(runner, "@yearly", "", nil)
	require.NoError(t, err)

	result, ran, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, int64(2), result.Purged)
	assert.Equal(t, result, s.LastRun())
}

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	runner := &runnerStub{block: make(chan struct{})}
	s, err := NewScheduler(runner, "@yearly", "", nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = s.RunOnce(context.Background())
	}()
	require.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, time.Millisecond)

	_, ran, err := s.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.False(t, ran)

	close(runner.block)
	<-done
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestSchedulerRunOncePropagatesError(t *testing.T) {
	s, err := NewScheduler(&runnerStub{err: errors.New("db down")}, "@yearly", "", nil)
	require.NoError(t, err)

	_, ran, err := s.RunOnce(context.Background())
	assert.True(t, ran)
	assert.Error(t, err)
	assert.Nil(t, s.LastRun())
}

func TestSchedulerStartStop(t *testing.T) {
	s, err := NewScheduler(&runnerStub{}, "@yearly", "", nil)
	require.NoError(t, err)
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
