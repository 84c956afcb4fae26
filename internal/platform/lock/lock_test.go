package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"contest_arena/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "c1:alice")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, l.size(), "released keys are dropped")
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	l := NewLocalLocker()
	r1, err := l.Acquire(context.Background(), "c1:alice")
	require.NoError(t, err)
	defer r1()

	r2, err := l.Acquire(context.Background(), "c1:bob")
	require.NoError(t, err)
	r2()
}

func TestLocalLockerHonoursContext(t *testing.T) {
	l := NewLocalLocker()
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, common.ErrLockFailed)

	release()
	release() // second call is a no-op
	r, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	r()
}

func TestLocalLockerDropsIdleKeys(t *testing.T) {
	l := NewLocalLocker()
	for _, key := range []string{"c1:alice", "c1:bob", "c2:alice"} {
		release, err := l.Acquire(context.Background(), key)
		require.NoError(t, err)
		release()
	}
	assert.Zero(t, l.size())

	held, err := l.Acquire(context.Background(), "c1:alice")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "c1:alice")
	require.ErrorIs(t, err, common.ErrLockFailed)
	assert.Equal(t, 1, l.size(), "the holder keeps its key after a waiter gives up")

	held()
	assert.Zero(t, l.size())
}
