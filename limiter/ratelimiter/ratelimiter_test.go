package ratelimiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gotop/rtbridge/limiter"
)

func TestRateLimiterBurst(t *testing.T) {
	rl, err := NewRateLimiter(limiter.WithPeriodLimitArray([]limiter.PeriodLimit{
		{WsConnectPeriod: "1h", WsConnectTimes: 2, RefreshPeriod: "1h", RefreshTimes: 1},
	}))
	require.NoError(t, err)

	assert.True(t, rl.WsAllow())
	assert.True(t, rl.WsAllow())
	assert.False(t, rl.WsAllow())

	assert.True(t, rl.RefreshAllow())
	assert.False(t, rl.RefreshAllow())
}

func TestRateLimiterAllPeriodsMustAllow(t *testing.T) {
	rl, err := NewRateLimiter(limiter.WithPeriodLimitArray([]limiter.PeriodLimit{
		{WsConnectPeriod: "1h", WsConnectTimes: 5},
		{WsConnectPeriod: "1h", WsConnectTimes: 1},
	}))
	require.NoError(t, err)

	assert.True(t, rl.WsAllow())
	assert.False(t, rl.WsAllow())
	// 未配置的类型不限流
	assert.True(t, rl.RefreshAllow())
}

func TestRateLimiterBadPeriod(t *testing.T) {
	_, err := NewRateLimiter(limiter.WithPeriodLimitArray([]limiter.PeriodLimit{
		{WsConnectPeriod: "5d", WsConnectTimes: 1},
	}))
	assert.Error(t, err)
}
