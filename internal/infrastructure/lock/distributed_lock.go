package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// 分布式锁实现
// ============================================================================
//
// 【为什么需要分布式锁？】
//
// 场景：同一用户的结算核销与钱包充值核销并发到达（网关重试、双端回调）
//
// 没有锁时：
//   goroutine1: 读余额=100 -> 扣款100 -> 余额=0   OK
//   goroutine2: 读余额=100 -> 扣款100 -> 余额=-100 超扣！
//
// 加锁后同一账户的资金变动串行执行，"余额 >= 0" 与"流水重放等于余额"
// 两条不变量在并发下仍然成立
//
// 【Redis 分布式锁原理】
//
// 加锁：SET key value NX EX timeout
//   - NX: 只有 key 不存在时才设置（保证互斥）
//   - EX: 设置过期时间（防止死锁）
//   - value: 锁持有者标识（释放时验证，防止误删别人的锁）
//
// 释放锁：Lua 脚本保证"检查+删除"原子执行
//
// ============================================================================

var (
	ErrLockFailed  = errors.New("获取分布式锁失败")
	ErrLockExpired = errors.New("锁已过期")
)

// DistributedLock 分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string        // 锁的 key
	value      string        // 锁的 value（用于验证锁的持有者）
	expiration time.Duration // 锁的过期时间
}

// NewDistributedLock 创建分布式锁
func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock 阻塞式获取锁（带重试，重试次数有界，不会无限等待）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
			// 继续重试
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁
//
// 【关键点】必须先验证 value 再删除：
// A 获取锁 -> A 处理超时锁过期 -> B 获取锁 -> A 调用 Unlock
// 不验证 value 的话 A 会把 B 的锁删掉
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// ============================================================================
// 便捷函数：按业务维度加锁
// ============================================================================

// NewWalletLock 钱包锁（按账户维度）
//
// 按账户而不是全局加锁：不同用户的结算互不影响，
// 同一用户的钱包变动（核销扣款、充值入账、评价奖励）串行
func NewWalletLock(client *redis.Client, userID string, holder string) *DistributedLock {
	key := fmt.Sprintf("wallet:lock:user:%s", userID)
	return NewDistributedLock(client, key, holder, 30*time.Second)
}

// NewVerifyLock 核销锁（按支付单维度）
// 网关对同一单的并发/重试回调先在这里收敛，事务内的状态 CAS 是兜底
func NewVerifyLock(client *redis.Client, orderNo string, holder string) *DistributedLock {
	key := fmt.Sprintf("verify:lock:order:%s", orderNo)
	return NewDistributedLock(client, key, holder, 30*time.Second)
}

// NewBookingLock 预约锁（按预约维度），状态推进与评价奖励共用
func NewBookingLock(client *redis.Client, bookingNo string, holder string) *DistributedLock {
	key := fmt.Sprintf("booking:lock:no:%s", bookingNo)
	return NewDistributedLock(client, key, holder, 30*time.Second)
}
