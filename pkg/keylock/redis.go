package keylock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrLockLost = errors.New("lock expired before release")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker 多实例部署时使用。先拿进程内锁，再用 SET NX PX 抢占 redis 上的 key，
// 释放时比对 token 防止误删别人的锁。
// 持有期间每 ttl/3 续期一次；只有续期连续失败到 key 过期(如与 redis 断连超过 ttl)才会失去互斥，
// 此时回调 onLost
type RedisLocker struct {
	client     *redis.Client
	local      *LocalLocker
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
	onLost     func(key string)
}

type RedisOption func(*RedisLocker)

func WithPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) { l.prefix = prefix }
}

func WithRetryDelay(d time.Duration) RedisOption {
	return func(l *RedisLocker) { l.retryDelay = d }
}

// WithLostHandler 续期或释放时发现锁已过期(可能已被他人抢占)时回调，每次加锁最多回调一次
func WithLostHandler(fn func(key string)) RedisOption {
	return func(l *RedisLocker) { l.onLost = fn }
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:     client,
		local:      NewLocalLocker(),
		prefix:     "lms:lock:",
		ttl:        ttl,
		retryDelay: 25 * time.Millisecond,
		onLost:     func(string) {},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}

	redisKey := l.prefix + key
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			unlockLocal()
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			unlockLocal()
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}

	stop := make(chan struct{})
	renewed := make(chan bool, 1)
	go func() { renewed <- l.renew(key, redisKey, token, stop) }()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			lost := !<-renewed
			// 调用方的 ctx 可能已取消，释放时使用独立的超时
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			n, err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Int()
			if !lost && (err != nil || n == 0) {
				l.onLost(key)
			}
			unlockLocal()
		})
	}, nil
}

// renew 定期延长 key 的过期时间，直到 stop 关闭。
// 返回 false 表示期间发现 key 已不属于自己，且已回调 onLost
func (l *RedisLocker) renew(key, redisKey, token string, stop <-chan struct{}) bool {
	interval := l.ttl / 3
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return true
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := renewScript.Run(ctx, l.client, []string{redisKey}, token, l.ttl.Milliseconds()).Int()
		cancel()
		if err != nil {
			// 网络抖动时继续重试，key 仍在 ttl 内有效
			continue
		}
		if n == 0 {
			l.onLost(key)
			return false
		}
	}
}
