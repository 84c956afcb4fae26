// Package lock serializes work on a key, across processes through Redis or
// inside one process for tests and single-node runs.
package lock

import (
	"context"
	"sync"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Locker interface {
	// Acquire blocks until key is held or ctx/wait runs out. The returned release is safe to call once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

func NewRedisLocker(rdb *redis.Client, prefix string, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: prefix, ttl: ttl, wait: wait, retry: 25 * time.Millisecond}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + ":" + key
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	for {
		ok, err := l.rdb.SetNX(waitCtx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, common.Errorf("lock %s: %v: %w", fullKey, err, common.ErrLockFailed)
		}
		if ok {
			break
		}
		select {
		case <-waitCtx.Done():
			return nil, common.Errorf("lock %s busy: %w", fullKey, common.ErrLockFailed)
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release with a fresh context so a cancelled request still frees the key.
			rctx, rcancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer rcancel()
			deleted, err := releaseScript.Run(rctx, l.rdb, []string{fullKey}, token).Int64()
			if err != nil {
				logger.Error().Err(err).Str("key", fullKey).Msg("failed to release lock")
			} else if deleted == 0 {
				logger.Warn().Str("key", fullKey).Msg("lock expired before release")
			}
		})
	}, nil
}

// LocalLocker is an in-process Locker keyed by string. A key's slot is
// dropped once no holder or waiter references it.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*localSlot
}

type localSlot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*localSlot)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, slot)
		return nil, common.Errorf("lock %s: %v: %w", key, ctx.Err(), common.ErrLockFailed)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.unref(key, slot)
		})
	}, nil
}

func (l *LocalLocker) unref(key string, slot *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
