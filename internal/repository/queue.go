package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/internal/model"
	"gorm.io/gorm"
)

// MessageQueueInterface is the durable FIFO drained by the dispatcher.
type MessageQueueInterface interface {
	EnqueueBatch(ctx context.Context, items []model.QueueItem) ([]model.PendingMessage, error)
	FetchOldest(ctx context.Context, limit int) ([]model.PendingMessage, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	WithTx(tx *gorm.DB) MessageQueueInterface
}

type MessageQueueRepository struct {
	db        *gorm.DB
	batchSize int
	now       func() time.Time
}

func NewMessageQueueRepository(db *gorm.DB) *MessageQueueRepository {
	return &MessageQueueRepository{db: db, batchSize: 500, now: time.Now}
}

// EnqueueBatch inserts all items in one transaction. Ids are assigned in
// submission order; on failure nothing is persisted.
func (r *MessageQueueRepository) EnqueueBatch(ctx context.Context, items []model.QueueItem) ([]model.PendingMessage, error) {
	if len(items) == 0 {
		return nil, nil
	}

	createdAt := r.now()
	rows := make([]model.PendingMessage, len(items))
	for i, it := range items {
		rows[i] = model.PendingMessage{
			Recipient: it.Recipient,
			Body:      it.Body,
			CreatedAt: createdAt,
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&rows, r.batchSize).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: enqueue %d messages: %v", errs.ErrStorage, len(items), err)
	}
	return rows, nil
}

func (r *MessageQueueRepository) FetchOldest(ctx context.Context, limit int) ([]model.PendingMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	var rows []model.PendingMessage
	if err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: fetch oldest: %v", errs.ErrStorage, err)
	}
	return rows, nil
}

// Delete removes a row by id. Deleting an id that is already gone is not an error.
func (r *MessageQueueRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&model.PendingMessage{}, id).Error; err != nil {
		return fmt.Errorf("%w: delete message %d: %v", errs.ErrStorage, id, err)
	}
	return nil
}

func (r *MessageQueueRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.PendingMessage{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: count: %v", errs.ErrStorage, err)
	}
	return n, nil
}

func (r *MessageQueueRepository) WithTx(tx *gorm.DB) MessageQueueInterface {
	return &MessageQueueRepository{db: tx, batchSize: r.batchSize, now: r.now}
}
