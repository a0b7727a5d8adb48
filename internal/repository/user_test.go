package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var userColumns = []string{"id", "username", "password", "name", "ssn", "phone_number", "address", "role", "is_active", "created_at", "updated_at"}

func TestUserRepository_FindByUsernameNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE username = \\?").
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := repo.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestUserRepository_ListActiveUsersFiltersRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE is_active = \\? AND role = \\? ORDER BY id ASC").
		WithArgs(true, "USER").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "kim", "h", "Kim", "900101-1234567", "010-1111-2222", "서울특별시 강남구 테헤란로", "USER", true, now, now))

	users, err := repo.ListActiveUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "900101-1234567", users[0].SSN)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ListUnknownSortFallsBackToID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery("SELECT \\* FROM `users` ORDER BY id DESC LIMIT").
		WillReturnRows(sqlmock.NewRows(userColumns))

	users, total, err := repo.List(context.Background(), UserPage{Page: 2, Size: 10, Sort: "password; DROP TABLE users"})
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Equal(t, int64(25), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("DELETE FROM `users`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 99), errs.ErrUserNotFound)
}

func TestUserRepository_Stats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`$").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE is_active = \\?").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.Total)
	assert.Equal(t, int64(7), stats.Active)
	assert.Equal(t, int64(3), stats.Inactive)
}
