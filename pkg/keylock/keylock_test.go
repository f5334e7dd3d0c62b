package keylock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseMutualExclusion(t *testing.T, l Locker) {
	t.Helper()
	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
		counter int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "enrollment:1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)
			counter++

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, workers, counter)
}

func TestLocalLockerMutualExclusion(t *testing.T) {
	l := NewLocalLocker()
	exerciseMutualExclusion(t, l)
	assert.Zero(t, l.Len())
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	l := NewLocalLocker()
	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocalLockerContextCancel(t *testing.T) {
	l := NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Zero(t, l.Len())
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("LMS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LMS_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())

	l := NewRedisLocker(client, 5*time.Second, WithPrefix("lms:test:lock:"), WithRetryDelay(time.Millisecond))
	exerciseMutualExclusion(t, l)

	exists, err := client.Exists(context.Background(), "lms:test:lock:enrollment:1").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRedisLockerRenewsLease(t *testing.T) {
	addr := os.Getenv("LMS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LMS_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	var lost atomic.Int32
	opts := []RedisOption{
		WithPrefix("lms:test:lock:"),
		WithRetryDelay(time.Millisecond),
		WithLostHandler(func(string) { lost.Add(1) }),
	}
	l := NewRedisLocker(client, 300*time.Millisecond, opts...)
	other := NewRedisLocker(client, 300*time.Millisecond, opts...)

	unlock, err := l.Lock(ctx, "renew")
	require.NoError(t, err)
	time.Sleep(time.Second)

	pttl, err := client.PTTL(ctx, "lms:test:lock:renew").Result()
	require.NoError(t, err)
	assert.Greater(t, pttl, time.Duration(0))
	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	_, err = other.Lock(short, "renew")
	cancel()
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Zero(t, lost.Load())
	exists, err := client.Exists(ctx, "lms:test:lock:renew").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	// key 被外部删除后，下一次续期即报告丢锁，释放时不重复报告
	unlock, err = l.Lock(ctx, "renew")
	require.NoError(t, err)
	require.NoError(t, client.Del(ctx, "lms:test:lock:renew").Err())
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), lost.Load())
	unlock()
	assert.Equal(t, int32(1), lost.Load())
}
