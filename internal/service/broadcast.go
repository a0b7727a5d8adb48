package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gunuduru/assignment-auth/internal/agegroup"
	"github.com/gunuduru/assignment-auth/internal/dto/resp"
	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/internal/metrics"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/gunuduru/assignment-auth/internal/repository"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

// UserDirectory provides the broadcast audience.
type UserDirectory interface {
	ListActiveUsers(ctx context.Context) ([]model.User, error)
}

type BroadcastConfig struct {
	// Greeting is a format string with one %s for the recipient's name.
	Greeting      string
	AvgThroughput int
	TickInterval  time.Duration
}

type BroadcastService struct {
	users      UserDirectory
	queue      repository.MessageQueueInterface
	classifier *agegroup.Classifier
	observer   metrics.DispatchObserver
	cfg        BroadcastConfig
}

func NewBroadcastService(users UserDirectory, queue repository.MessageQueueInterface, classifier *agegroup.Classifier, observer metrics.DispatchObserver, cfg BroadcastConfig) *BroadcastService {
	if cfg.AvgThroughput <= 0 {
		cfg.AvgThroughput = 450
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	if observer == nil {
		observer = metrics.NewNopObserver()
	}
	return &BroadcastService{
		users:      users,
		queue:      queue,
		classifier: classifier,
		observer:   observer,
		cfg:        cfg,
	}
}

// ScheduleBroadcast queues one personalized message for every active user
// whose age falls into bracket.
func (s *BroadcastService) ScheduleBroadcast(ctx context.Context, bracket int, body string) (*resp.BroadcastResp, error) {
	if !agegroup.ValidBracket(bracket) {
		return nil, fmt.Errorf("%w: got %d", errs.ErrInvalidBracket, bracket)
	}

	users, err := s.users.ListActiveUsers(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]model.QueueItem, 0)
	for _, u := range users {
		ok, err := s.classifier.IsInBracket(u.SSN, bracket)
		if err != nil {
			if errors.Is(err, errs.ErrFormat) {
				logger.Warn("skipping user with malformed identifier", zap.Int64("user_id", u.ID), zap.Error(err))
				continue
			}
			return nil, err
		}
		if !ok {
			continue
		}
		items = append(items, model.QueueItem{
			Recipient: u.PhoneNumber,
			Body:      s.Personalize(u.Name, body),
		})
	}

	depth, err := s.queue.Count(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.queue.EnqueueBatch(ctx, items); err != nil {
		return nil, err
	}
	s.observer.AddEnqueued(bracket, len(items))
	s.observer.SetQueueDepth(depth + int64(len(items)))

	logger.Info("broadcast scheduled",
		zap.String("operator", GetOperator(ctx)),
		zap.Int("bracket", bracket),
		zap.Int("candidates", len(users)),
		zap.Int("enqueued", len(items)),
		zap.Int64("queue_depth_before", depth))

	return &resp.BroadcastResp{
		AgeGroup:              bracket,
		TargetUserCount:       len(items),
		ScheduledMessageCount: len(items),
		EstimatedStartTime:    s.EstimateStart(depth),
	}, nil
}

func (s *BroadcastService) PendingCount(ctx context.Context) (int64, error) {
	return s.queue.Count(ctx)
}

func (s *BroadcastService) Personalize(name, body string) string {
	return fmt.Sprintf(s.cfg.Greeting, name) + "\n\n" + body
}

// EstimateStart renders how long the messages already queued ahead of a new
// batch will take to drain.
func (s *BroadcastService) EstimateStart(depthBefore int64) string {
	ticks := depthBefore / int64(s.cfg.AvgThroughput)
	minutes := int64((time.Duration(ticks) * s.cfg.TickInterval).Minutes())
	return FormatETA(minutes)
}

func FormatETA(minutes int64) string {
	switch {
	case minutes <= 0:
		return "immediate"
	case minutes == 1:
		return "~1 minute"
	case minutes < 60:
		return fmt.Sprintf("~%d minutes", minutes)
	}
	h, m := minutes/60, minutes%60
	hours := fmt.Sprintf("~%d hours", h)
	if h == 1 {
		hours = "~1 hour"
	}
	if m == 0 {
		return hours
	}
	return fmt.Sprintf("%s %d minutes", hours, m)
}
