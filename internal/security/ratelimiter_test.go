// 文件路径: internal/security/ratelimiter_test.go
// 模块说明: 这是 internal 模块里的 ratelimiter 测试逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverlode/fleetpanel/internal/cache"
)

func newTestLimiter(t *testing.T) *RateLimiter {
	t.Helper()
	store := cache.NewStore(cache.Options{DefaultTTL: time.Minute})
	limiter, err := NewRateLimiter(store)
	require.NoError(t, err)
	return limiter
}

func TestRateLimiterRequiresStore(t *testing.T) {
	_, err := NewRateLimiter(nil)
	require.Error(t, err)
}

func TestRateLimiterAllowWithinLimit(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Allow(ctx, "login:alpha", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 2-i, result.Remaining)
	}

	result, err := limiter.Allow(ctx, "login:alpha", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()

	first, err := limiter.Allow(ctx, "login:alpha", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	blocked, err := limiter.Allow(ctx, "login:alpha", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := limiter.Allow(ctx, "login:beta", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestRateLimiterResetClearsCounter(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "register:node", 1, time.Minute)
	require.NoError(t, err)
	blocked, err := limiter.Allow(ctx, "register:node", 1, time.Minute)
	require.NoError(t, err)
	require.False(t, blocked.Allowed)

	limiter.Reset(ctx, "register:node")

	again, err := limiter.Allow(ctx, "register:node", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, again.Allowed)
}

func TestRateLimiterRejectsNonPositiveLimit(t *testing.T) {
	limiter := newTestLimiter(t)
	_, err := limiter.Allow(context.Background(), "login:alpha", 0, time.Minute)
	require.Error(t, err)
}
