package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls atomic.Int32
	delay time.Duration
}

func (c *countingRunner) RunTick(ctx context.Context) (model.DispatchTickResult, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
		}
	}
	return model.DispatchTickResult{}, nil
}

func TestDispatchWorker_StartStop(t *testing.T) {
	r := &countingRunner{}
	w := NewDispatchWorker(r, time.Second)

	assert.False(t, w.IsRunning())
	assert.True(t, w.NextRun().IsZero())

	started, err := w.Start()
	require.NoError(t, err)
	assert.True(t, started)
	assert.True(t, w.IsRunning())
	assert.False(t, w.NextRun().IsZero())

	again, err := w.Start()
	require.NoError(t, err)
	assert.False(t, again)

	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	assert.True(t, w.Stop())
	assert.False(t, w.Stop())
	assert.False(t, w.IsRunning())

	n := r.calls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, n, r.calls.Load(), "no ticks after stop")
}

func TestDispatchWorker_StopCancelsInFlightTick(t *testing.T) {
	r := &countingRunner{delay: time.Minute}
	w := NewDispatchWorker(r, time.Second)

	_, err := w.Start()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, 3*time.Second, 20*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the running tick")
	}
	// the long tick blocked the schedule, later firings were skipped
	assert.Equal(t, int32(1), r.calls.Load())
}

type busyRunner struct{}

func (busyRunner) RunTick(context.Context) (model.DispatchTickResult, error) {
	return model.DispatchTickResult{}, errs.ErrTickInProgress
}

func TestDispatchWorker_TriggerNow(t *testing.T) {
	w := NewDispatchWorker(busyRunner{}, time.Minute)
	_, err := w.TriggerNow(context.Background())
	assert.ErrorIs(t, err, errs.ErrTickInProgress)

	r := &countingRunner{}
	w = NewDispatchWorker(r, time.Minute)
	_, err = w.TriggerNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), r.calls.Load())
}
