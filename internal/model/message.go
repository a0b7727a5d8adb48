package model

import "time"

// PendingMessage is a queued outbound notification. Rows are only ever inserted
// or deleted; the auto-increment id defines queue order.
type PendingMessage struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Recipient string    `json:"recipient" gorm:"column:phone;size:13;not null"`
	Body      string    `json:"body" gorm:"column:message;type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

func (PendingMessage) TableName() string {
	return "scheduled_messages"
}

// QueueItem is the input to a batch enqueue.
type QueueItem struct {
	Recipient string
	Body      string
}
