package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gunuduru/assignment-auth/pkg/logger"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
	"go.uber.org/zap"
)

var ErrLockHeld = errors.New("tick lock held by another instance")

// TickLocker serializes dispatch ticks across service replicas.
type TickLocker interface {
	// TryLock returns an unlock func, or ErrLockHeld when another holder owns the lock.
	TryLock(ctx context.Context) (func(), error)
	Close() error
}

type noopLocker struct{}

// NewNoopLocker is used for single-instance deployments.
func NewNoopLocker() TickLocker { return noopLocker{} }

func (noopLocker) TryLock(context.Context) (func(), error) { return func() {}, nil }
func (noopLocker) Close() error { return nil }

// lockMutex is the subset of *concurrency.Mutex the tick locker uses.
type lockMutex interface {
	TryLock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// EtcdTickLocker holds a lease-backed session so a crashed replica releases
// the lock once its TTL runs out.
type EtcdTickLocker struct {
	mutex       lockMutex
	close       func() error
	lockTimeout time.Duration
}

func NewEtcdTickLocker(client *clientv3.Client, key string, ttlSeconds int, lockTimeout time.Duration) (*EtcdTickLocker, error) {
	session, err := concurrency.NewSession(client, concurrency.WithTTL(ttlSeconds))
	if err != nil {
		return nil, err
	}
	return newEtcdTickLocker(concurrency.NewMutex(session, key), session.Close, lockTimeout), nil
}

func newEtcdTickLocker(m lockMutex, closeFn func() error, lockTimeout time.Duration) *EtcdTickLocker {
	if lockTimeout <= 0 {
		lockTimeout = time.Second
	}
	return &EtcdTickLocker{mutex: m, close: closeFn, lockTimeout: lockTimeout}
}

func (l *EtcdTickLocker) TryLock(ctx context.Context) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, l.lockTimeout)
	defer cancel()

	err := l.mutex.TryLock(lockCtx)
	if errors.Is(err, concurrency.ErrLocked) || errors.Is(err, context.DeadlineExceeded) {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, err
	}

	return func() {
		// parent ctx may already be cancelled by the tick timeout
		unlockCtx, cancel := context.WithTimeout(context.Background(), l.lockTimeout)
		defer cancel()
		if err := l.mutex.Unlock(unlockCtx); err != nil {
			logger.Warn("failed to release tick lock", zap.Error(err))
		}
	}, nil
}

func (l *EtcdTickLocker) Close() error {
	return l.close()
}
