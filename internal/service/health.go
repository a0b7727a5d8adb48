package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	ErrDatabaseUnhealthy = errors.New("database unhealthy")
	ErrRedisUnhealthy    = errors.New("redis unhealthy")
)

type HealthService struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewHealthService(db *gorm.DB, rdb *redis.Client) *HealthService {
	return &HealthService{db: db, rdb: rdb}
}

func (s *HealthService) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseUnhealthy, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseUnhealthy, err)
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnhealthy, err)
	}
	return nil
}
