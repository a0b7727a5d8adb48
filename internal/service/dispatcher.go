package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gunuduru/assignment-auth/internal/buffer"
	"github.com/gunuduru/assignment-auth/internal/channel"
	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/internal/metrics"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/gunuduru/assignment-auth/internal/repository"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

const deleteTimeout = 5 * time.Second

type DispatcherConfig struct {
	PrimaryBudget   int
	SecondaryBudget int
	TickTimeout     time.Duration
}

// TickPublisher receives every recorded tick result.
type TickPublisher interface {
	Publish(r model.DispatchTickResult)
}

// Dispatcher drains the message queue one tick at a time, trying the primary
// channel first and falling back to the secondary one. Budgets are per tick.
type Dispatcher struct {
	queue     repository.MessageQueueInterface
	primary   channel.Sender
	secondary channel.Sender
	cfg       DispatcherConfig

	locker    repository.TickLocker
	history   *buffer.TickHistory
	publisher TickPublisher
	observer  metrics.DispatchObserver
	now       func() time.Time

	running sync.Mutex
}

type DispatcherOption func(*Dispatcher)

func WithTickLocker(l repository.TickLocker) DispatcherOption {
	return func(d *Dispatcher) { d.locker = l }
}

func WithTickHistory(h *buffer.TickHistory) DispatcherOption {
	return func(d *Dispatcher) { d.history = h }
}

func WithTickPublisher(p TickPublisher) DispatcherOption {
	return func(d *Dispatcher) { d.publisher = p }
}

func WithDispatchObserver(o metrics.DispatchObserver) DispatcherOption {
	return func(d *Dispatcher) { d.observer = o }
}

func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(queue repository.MessageQueueInterface, primary, secondary channel.Sender, cfg DispatcherConfig, opts ...DispatcherOption) *Dispatcher {
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = 55 * time.Second
	}
	d := &Dispatcher{
		queue:     queue,
		primary:   primary,
		secondary: secondary,
		cfg:       cfg,
		locker:    repository.NewNoopLocker(),
		history:   buffer.NewTickHistory(100),
		observer:  metrics.NewNopObserver(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) History() *buffer.TickHistory {
	return d.history
}

// RunTick processes at most SecondaryBudget of the oldest queued messages.
// It returns ErrTickInProgress when another tick holds the local or
// distributed lock, and a wrapped ErrStorage when the queue cannot be read.
func (d *Dispatcher) RunTick(ctx context.Context) (model.DispatchTickResult, error) {
	if !d.running.TryLock() {
		return model.DispatchTickResult{}, errs.ErrTickInProgress
	}
	defer d.running.Unlock()

	unlock, err := d.locker.TryLock(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrLockHeld) {
			logger.Debug("dispatch tick skipped, another instance holds the lock")
			return model.DispatchTickResult{}, fmt.Errorf("%w: %v", errs.ErrTickInProgress, err)
		}
		return model.DispatchTickResult{}, fmt.Errorf("acquire tick lock: %w", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, d.cfg.TickTimeout)
	defer cancel()

	return d.tick(ctx)
}

func (d *Dispatcher) tick(ctx context.Context) (model.DispatchTickResult, error) {
	res := model.DispatchTickResult{StartedAt: d.now()}

	batch, err := d.queue.FetchOldest(ctx, d.cfg.SecondaryBudget)
	if err != nil {
		res.Aborted = true
		res.StopReason = model.StopFetchFailed
		res.Error = err.Error()
		logger.Error("dispatch tick aborted, queue unreadable", zap.Error(err))
		d.finish(&res, false)
		return res, err
	}
	if len(batch) == 0 {
		logger.Debug("dispatch tick: queue empty")
		return res, nil
	}
	res.Fetched = len(batch)

	primaryUsed, secondaryUsed := 0, 0

loop:
	for _, msg := range batch {
		if ctx.Err() != nil {
			res.StopReason = model.StopTimeout
			logger.Warn("dispatch tick timed out, leaving the rest for the next tick", zap.Int64("next_id", msg.ID))
			break
		}

		if primaryUsed < d.cfg.PrimaryBudget {
			primaryUsed++
			switch d.send(ctx, d.primary, msg) {
			case channel.Delivered:
				res.Delivered++
				res.PrimaryDelivered++
				d.remove(ctx, msg, &res)
				continue
			case channel.RecipientRejected:
				res.Rejected++
				logger.Error("recipient rejected by primary channel, dropping message",
					zap.Int64("id", msg.ID), zap.String("phone", msg.Recipient))
				d.remove(ctx, msg, &res)
				continue
			case channel.Unexpected:
				continue
			case channel.TransientFailure:
				logger.Warn("primary channel transient failure, falling back", zap.Int64("id", msg.ID))
			}
		}

		if secondaryUsed >= d.cfg.SecondaryBudget {
			res.StopReason = model.StopSecondaryExhausted
			logger.Warn("secondary budget exhausted, stopping tick", zap.Int("budget", d.cfg.SecondaryBudget))
			break
		}
		secondaryUsed++
		switch d.send(ctx, d.secondary, msg) {
		case channel.Delivered:
			res.Delivered++
			res.SecondaryDelivered++
			d.remove(ctx, msg, &res)
		case channel.TransientFailure:
			// the fallback channel is saturated; everything from here waits
			res.StopReason = model.StopSecondaryTransient
			logger.Warn("secondary channel transient failure, stopping tick", zap.Int64("id", msg.ID))
			break loop
		case channel.RecipientRejected:
			res.Rejected++
			logger.Error("recipient rejected by secondary channel, dropping message",
				zap.Int64("id", msg.ID), zap.String("phone", msg.Recipient))
			d.remove(ctx, msg, &res)
		case channel.Unexpected:
			// left queued for the next tick
		}
	}

	res.PrimaryAttempts = primaryUsed
	res.SecondaryAttempts = secondaryUsed
	d.finish(&res, true)
	return res, nil
}

// send shields the tick from a panicking adapter.
func (d *Dispatcher) send(ctx context.Context, s channel.Sender, msg model.PendingMessage) (out channel.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("channel adapter panicked",
				zap.String("channel", s.Name()), zap.Int64("id", msg.ID), zap.Any("panic", r))
			out = channel.Unexpected
		}
		d.observer.ObserveAttempt(s.Name(), out.String())
	}()
	return s.Send(ctx, msg.Recipient, msg.Body)
}

// remove runs detached from the tick deadline: the send already happened, so
// the row must go even if the tick expired meanwhile.
func (d *Dispatcher) remove(ctx context.Context, msg model.PendingMessage, res *model.DispatchTickResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()
	if err := d.queue.Delete(ctx, msg.ID); err != nil {
		// the row stays queued and may be delivered twice next tick
		logger.Error("failed to delete dispatched message", zap.Int64("id", msg.ID), zap.Error(err))
		return
	}
	res.Deleted++
}

func (d *Dispatcher) finish(res *model.DispatchTickResult, countRemaining bool) {
	res.Duration = d.now().Sub(res.StartedAt)
	res.Remaining = -1
	if countRemaining {
		// the tick context may have expired, so use a short independent one
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		n, err := d.queue.Count(ctx)
		cancel()
		if err != nil {
			logger.Warn("failed to count remaining messages", zap.Error(err))
		} else {
			res.Remaining = n
			d.observer.SetQueueDepth(n)
		}
	}
	d.observer.ObserveTick(res.Duration, res.Aborted)

	*res = d.history.Add(*res)
	if d.publisher != nil {
		d.publisher.Publish(*res)
	}

	logger.Info("dispatch tick finished",
		zap.Int64("seq", res.Seq),
		zap.Int("fetched", res.Fetched),
		zap.Int("primary", res.PrimaryAttempts),
		zap.Int("secondary", res.SecondaryAttempts),
		zap.Int("deleted", res.Deleted),
		zap.Int64("remaining", res.Remaining),
		zap.String("stop_reason", res.StopReason),
		zap.Duration("took", res.Duration),
	)
}
