// 文件路径: internal/security/ratelimiter.go
// 模块说明: 这是 internal 模块里的限流逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package security

import (
	"context"
	"fmt"
	"time"

	"github.com/silverlode/fleetpanel/internal/cache"
)

// RateLimiter 对按 key 聚合的行为计数，比如同一来源的登录尝试。
// 计数器存在缓存里，窗口过期后自动归零。
type RateLimiter struct {
	store cache.Store
}

// RateResult 描述一次 Allow 判定。
type RateResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// NewRateLimiter 使用缓存存储构建限流器，计数器统一挂在 rate 命名空间下。
func NewRateLimiter(store cache.Store) (*RateLimiter, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limiter requires cache store / 限流器需要缓存存储")
	}
	return &RateLimiter{store: store.Namespace("rate")}, nil
}

// Allow 给 key 的计数器加一并判断是否仍在限额内。
// 窗口以第一次计数为起点：后续自增沿用剩余 TTL，不会把窗口往后推。
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateResult, error) {
	if l == nil {
		return RateResult{}, fmt.Errorf("rate limiter not initialized / 限流器未初始化")
	}
	if limit <= 0 {
		return RateResult{}, fmt.Errorf("limit must be positive / limit 必须为正数")
	}
	if window <= 0 {
		window = time.Minute
	}

	ttl := window
	if remain, ok := l.store.TTL(ctx, key); ok && remain > 0 {
		ttl = remain
	}

	count, err := l.store.Increment(ctx, key, 1, ttl)
	if err != nil {
		return RateResult{}, fmt.Errorf("increment rate limit counter failed: %v / 限流计数自增失败: %w", err, err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return RateResult{
		Allowed:   count <= int64(limit),
		Remaining: remaining,
		ResetAt:   time.Now().UTC().Add(ttl),
	}, nil
}

// Reset 清掉 key 的计数器，成功登录后调用。
func (l *RateLimiter) Reset(ctx context.Context, key string) {
	if l == nil {
		return
	}
	l.store.Delete(ctx, key)
}
