package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/redis/go-redis/v9"
)

const SessionKeyPrefix = "assignauth:auth:session:"

// SessionInterface is the refresh-token allow-list. One live refresh token per user.
type SessionInterface interface {
	Save(ctx context.Context, userID int64, refreshToken string, ttl time.Duration) error
	Get(ctx context.Context, userID int64) (string, error)
	Delete(ctx context.Context, userID int64) error
}

type SessionRepository struct {
	rdb *redis.Client
}

func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("%s%d", SessionKeyPrefix, userID)
}

func (r *SessionRepository) Save(ctx context.Context, userID int64, refreshToken string, ttl time.Duration) error {
	return r.rdb.Set(ctx, sessionKey(userID), refreshToken, ttl).Err()
}

// Get returns ErrSessionExpired when no session is stored for the user.
func (r *SessionRepository) Get(ctx context.Context, userID int64) (string, error) {
	tok, err := r.rdb.Get(ctx, sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", errs.ErrSessionExpired
	}
	return tok, err
}

func (r *SessionRepository) Delete(ctx context.Context, userID int64) error {
	return r.rdb.Del(ctx, sessionKey(userID)).Err()
}
