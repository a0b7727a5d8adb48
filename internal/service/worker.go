package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type TickRunner interface {
	RunTick(ctx context.Context) (model.DispatchTickResult, error)
}

// DispatchWorker fires the dispatcher on a fixed interval. A tick that is still
// running when the next one is due causes that one to be skipped.
type DispatchWorker struct {
	runner   TickRunner
	interval time.Duration

	mu     sync.Mutex
	c      *cron.Cron
	cancel context.CancelFunc
}

func NewDispatchWorker(runner TickRunner, interval time.Duration) *DispatchWorker {
	return &DispatchWorker{runner: runner, interval: interval}
}

// Start returns false when the worker is already running.
func (w *DispatchWorker) Start() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.c != nil {
		return false, nil
	}

	cl := cronLogger{l: logger.With(zap.String("component", "dispatch-worker")).Sugar()}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl))

	ctx, cancel := context.WithCancel(context.Background())
	expr := fmt.Sprintf("@every %s", w.interval)
	if _, err := c.AddFunc(expr, func() { w.runOnce(ctx) }); err != nil {
		cancel()
		return false, fmt.Errorf("schedule dispatch tick %q: %w", expr, err)
	}

	c.Start()
	w.c = c
	w.cancel = cancel
	logger.Info("dispatch worker started", zap.Duration("interval", w.interval))
	return true, nil
}

// Stop cancels any in-flight tick and waits for it to return. It returns
// false when the worker was not running.
func (w *DispatchWorker) Stop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.c == nil {
		return false
	}
	w.cancel()
	<-w.c.Stop().Done()
	w.c = nil
	w.cancel = nil
	logger.Info("dispatch worker stopped")
	return true
}

func (w *DispatchWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c != nil
}

func (w *DispatchWorker) Interval() time.Duration {
	return w.interval
}

// NextRun is zero when the worker is stopped.
func (w *DispatchWorker) NextRun() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.c == nil {
		return time.Time{}
	}
	entries := w.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// TriggerNow runs one tick synchronously, outside the schedule.
func (w *DispatchWorker) TriggerNow(ctx context.Context) (model.DispatchTickResult, error) {
	return w.runner.RunTick(ctx)
}

func (w *DispatchWorker) runOnce(ctx context.Context) {
	if _, err := w.runner.RunTick(ctx); err != nil {
		if errors.Is(err, errs.ErrTickInProgress) {
			logger.Debug("scheduled tick skipped", zap.Error(err))
			return
		}
		logger.Error("scheduled dispatch tick failed", zap.Error(err))
	}
}

// cronLogger routes robfig/cron's logging into zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
