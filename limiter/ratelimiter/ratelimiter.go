package ratelimiter

import (
	"golang.org/x/time/rate"

	"github.com/go-gotop/rtbridge/limiter"
)

// NewRateLimiter 默认: 每分钟最多 10 次建连, 每分钟最多 2 次凭证刷新
func NewRateLimiter(opts ...limiter.Option) (*RateLimiter, error) {
	o := &limiter.Options{
		PeriodLimitArray: []limiter.PeriodLimit{
			{
				WsConnectPeriod: "1m",
				WsConnectTimes:  10,
				RefreshPeriod:   "1m",
				RefreshTimes:    2,
			},
		},
	}
	for _, opt := range opts {
		opt(o)
	}

	m, err := limiter.SetAllLimiters(o.PeriodLimitArray)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{
		opts:       o,
		limiterMap: m,
	}, nil
}

type RateLimiter struct {
	opts *limiter.Options

	limiterMap map[limiter.LimitType][]*rate.Limiter
}

func (r *RateLimiter) WsAllow() bool {
	return limiter.LimiterAllow(r.limiterMap[limiter.WsConnectLimit])
}

func (r *RateLimiter) RefreshAllow() bool {
	return limiter.LimiterAllow(r.limiterMap[limiter.TokenRefreshLimit])
}
