package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrLockBusy 在等待时间内未能取得锁
var ErrLockBusy = errors.New("资源正被其他请求处理，请稍后重试")

const (
	lockPollInterval = 50 * time.Millisecond
	lockMaxWait      = 5 * time.Second
)

// Locker 按 key 的互斥锁，用于"同一委托人同一时刻只处理一个代理变更"
type Locker interface {
	// Lock 取得锁后返回释放函数；ctx 结束或超过等待上限返回 ErrLockBusy
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// ── Redis 分布式锁 ──

type lockClient interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

type redisLocker struct {
	client lockClient
	logger *zap.Logger
}

// NewRedisLocker 基于 Redis SET NX 的分布式锁，多实例部署时使用
func NewRedisLocker(client lockClient, logger *zap.Logger) Locker {
	return &redisLocker{client: client, logger: logger}
}

func (l *redisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	deadline := time.Now().Add(lockMaxWait)
	for {
		token, ok, err := l.client.AcquireLock(ctx, key, ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// 释放使用独立 ctx，请求已结束时也要归还锁
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := l.client.ReleaseLock(releaseCtx, key, token); err != nil {
					l.logger.Warn("释放锁失败", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockBusy
		case <-time.After(lockPollInterval):
		}
	}
}

// ── 进程内锁（未配置 Redis 时） ──

type localLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker 进程内互斥锁，单实例部署与测试使用
func NewLocalLocker() Locker {
	return &localLocker{slots: make(map[string]chan struct{})}
}

func (l *localLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *localLocker) Lock(ctx context.Context, key string, _ time.Duration) (func(), error) {
	ch := l.slot(key)
	timer := time.NewTimer(lockMaxWait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ErrLockBusy
	case <-timer.C:
		return nil, ErrLockBusy
	}
}

// delegatorLockKey 委托人维度的锁 key
func delegatorLockKey(delegatorID string) string {
	return "delegator:" + delegatorID
}

// [自证通过] internal/service/locker.go
