package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageQueue_EnqueueBatchAssignsIncreasingIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageQueueRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `scheduled_messages`").
		WillReturnResult(sqlmock.NewResult(41, 3))
	mock.ExpectCommit()

	rows, err := repo.EnqueueBatch(context.Background(), []model.QueueItem{
		{Recipient: "010-0000-0001", Body: "a"},
		{Recipient: "010-0000-0002", Body: "b"},
		{Recipient: "010-0000-0003", Body: "c"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []int64{41, 42, 43}, []int64{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.Equal(t, "b", rows[1].Body)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageQueue_EnqueueBatchRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageQueueRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `scheduled_messages`").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	rows, err := repo.EnqueueBatch(context.Background(), []model.QueueItem{{Recipient: "010-0000-0001", Body: "a"}})
	assert.ErrorIs(t, err, errs.ErrStorage)
	assert.Nil(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageQueue_EnqueueEmptyIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageQueueRepository(db)

	rows, err := repo.EnqueueBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageQueue_FetchOldestOrdersByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageQueueRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT \\* FROM `scheduled_messages` ORDER BY id ASC LIMIT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone", "message", "created_at"}).
			AddRow(1, "010-0000-0001", "a", now).
			AddRow(2, "010-0000-0002", "b", now))

	rows, err := repo.FetchOldest(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, "010-0000-0002", rows[1].Recipient)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageQueue_FetchOldestWrapsStorageError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageQueueRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `scheduled_messages`").WillReturnError(errors.New("connection refused"))

	_, err := repo.FetchOldest(context.Background(), 10)
	assert.ErrorIs(t, err, errs.ErrStorage)
}

func TestMessageQueue_DeleteTwiceIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageQueueRepository(db)

	mock.ExpectExec("DELETE FROM `scheduled_messages` WHERE `scheduled_messages`.`id` = \\?").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `scheduled_messages` WHERE `scheduled_messages`.`id` = \\?").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 7))
	require.NoError(t, repo.Delete(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageQueue_Count(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageQueueRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `scheduled_messages`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1234))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1234), n)
}
