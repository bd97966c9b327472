package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"workpulse/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	defaultTTL         = 30 * time.Second
	lockAcquireTimeout = 5 * time.Second
)

const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

const renewScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`

// DistributedLock guards work that must run on a single replica
type DistributedLock interface {
	// TryLock attempts to acquire the lock without waiting
	TryLock(ctx context.Context) (bool, error)

	// Unlock releases the lock if this instance still owns it
	Unlock(ctx context.Context) error

	// IsHeld reports whether this instance believes it holds the lock
	IsHeld() bool
}

// RedisLock Redis SET NX lock with background renewal.
// A nil client runs in single-instance mode and always acquires.
type RedisLock struct {
	client      *redis.Client
	key         string
	owner       string
	ttl         time.Duration
	maxHold     time.Duration
	isHeld      bool
	acquiredAt  time.Time
	stopRenew   chan struct{}
	renewClosed bool
	mu          sync.Mutex
}

// NewRedisLock creates a lock on key. maxHold bounds how long renewal keeps it alive, zero means unbounded.
func NewRedisLock(client *redis.Client, key string, ttl, maxHold time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLock{
		client:  client,
		key:     key,
		owner:   fmt.Sprintf("%s-%s", key, uuid.NewString()),
		ttl:     ttl,
		maxHold: maxHold,
	}
}

// TryLock attempts to acquire the lock
func (l *RedisLock) TryLock(ctx context.Context) (bool, error) {
	if l.client == nil {
		logger.WarnCtx(ctx, "redis client is nil, skipping distributed lock %s (running in single-instance mode)", l.key)
		l.mu.Lock()
		l.isHeld = true
		l.mu.Unlock()
		return true, nil
	}

	acquireCtx, cancel := context.WithTimeout(ctx, lockAcquireTimeout)
	defer cancel()

	acquired, err := l.client.SetNX(acquireCtx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !acquired {
		logger.DebugCtx(ctx, "lock %s already held by another instance", l.key)
		return false, nil
	}

	l.mu.Lock()
	l.isHeld = true
	l.acquiredAt = time.Now()
	// fresh channel per acquisition so TryLock/Unlock can cycle
	stop := make(chan struct{})
	l.stopRenew = stop
	l.renewClosed = false
	l.mu.Unlock()

	go l.renew(ctx, stop)

	logger.DebugCtx(ctx, "lock %s acquired", l.key)
	return true, nil
}

// Unlock releases the lock
func (l *RedisLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	if l.client == nil {
		l.isHeld = false
		l.mu.Unlock()
		return nil
	}
	if l.stopRenew != nil && !l.renewClosed {
		l.renewClosed = true
		close(l.stopRenew)
	}
	wasHeld := l.isHeld
	l.isHeld = false
	l.mu.Unlock()

	if !wasHeld {
		return nil
	}

	result, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.owner).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if result == 1 {
		logger.DebugCtx(ctx, "lock %s released", l.key)
	} else {
		logger.WarnCtx(ctx, "lock %s was already released or held by another instance", l.key)
	}
	return nil
}

// IsHeld reports whether the lock is held
func (l *RedisLock) IsHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isHeld
}

// renew extends the TTL every ttl/3 until stopped, lost or past maxHold
func (l *RedisLock) renew(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			held := time.Since(l.acquiredAt)
			l.mu.Unlock()

			if l.maxHold > 0 && held > l.maxHold {
				// let the owner's Unlock do the release
				logger.WarnCtx(ctx, "lock %s held for %.0f seconds, stop renewing", l.key, held.Seconds())
				return
			}

			result, err := l.client.Eval(ctx, renewScript, []string{l.key}, l.owner, l.ttl.Milliseconds()).Int64()
			if err != nil || result == 0 {
				logger.WarnCtx(ctx, "lock %s renewal failed, lock lost: %v", l.key, err)
				l.mu.Lock()
				l.isHeld = false
				l.mu.Unlock()
				return
			}
		}
	}
}
