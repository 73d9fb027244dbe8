// services/lock.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	activationLockKey   = "ascendra:activation_lock"
	activationLockTTL   = 30 * time.Second
	activationLockRetry = 50 * time.Millisecond
)

// ActivationLock serializes the approve path: snapshot, engine run and
// commit happen inside one exclusive critical section, because the tree
// walk and daily-cap check read-then-write shared ancestor records.
type ActivationLock interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// RedisActivationLock takes a SETNX lock with an expiry so a crashed holder
// cannot wedge registrations. With no Redis client configured it degrades to
// a process-local mutex, which is enough for single-instance deployments.
type RedisActivationLock struct {
	client *redis.Client
	local  sync.Mutex
}

func NewRedisActivationLock(client *redis.Client) *RedisActivationLock {
	return &RedisActivationLock{client: client}
}

func (l *RedisActivationLock) Acquire(ctx context.Context) (func(), error) {
	if l.client == nil {
		l.local.Lock()
		return l.local.Unlock, nil
	}

	token := time.Now().UnixNano()
	for {
		ok, err := l.client.SetNX(ctx, activationLockKey, token, activationLockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				l.client.Del(context.Background(), activationLockKey)
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(activationLockRetry):
		}
	}
}
