package limiter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// 解析 period 字符串，返回 time.Duration 和 int
func ParsePeriod(period string) (time.Duration, int, error) {
	var unit time.Duration

	// 去除字符串中的空格
	period = strings.TrimSpace(period)

	// 获取数字部分
	var numStr string
	var unitStr string
	for i, char := range period {
		if char >= '0' && char <= '9' {
			numStr += string(char)
		} else {
			unitStr = period[i:]
			break
		}
	}
	// 解析数字部分
	num, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, 0, err
	}
	// 解析时间单位部分
	switch strings.ToLower(unitStr) {
	case "ms":
		unit = time.Millisecond
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	default:
		return 0, 0, fmt.Errorf("unsupported time unit: %s", unitStr)
	}
	return unit, num, nil
}

// SetAllLimiters 按类型构建所有限流器
func SetAllLimiters(periodLimitArray []PeriodLimit) (map[LimitType][]*rate.Limiter, error) {
	limiterMap := make(map[LimitType][]*rate.Limiter)
	for _, pl := range periodLimitArray {
		if err := appendLimiter(limiterMap, WsConnectLimit, pl.WsConnectPeriod, pl.WsConnectTimes); err != nil {
			return nil, err
		}
		if err := appendLimiter(limiterMap, TokenRefreshLimit, pl.RefreshPeriod, pl.RefreshTimes); err != nil {
			return nil, err
		}
	}
	return limiterMap, nil
}

func appendLimiter(m map[LimitType][]*rate.Limiter, t LimitType, period string, times int64) error {
	if period == "" || times <= 0 {
		return nil
	}
	unit, n, err := ParsePeriod(period)
	if err != nil {
		return fmt.Errorf("parse %s period: %w", t, err)
	}
	window := unit * time.Duration(n)
	if window <= 0 {
		return fmt.Errorf("parse %s period: empty window %q", t, period)
	}
	// 令牌匀速补充, 桶容量为周期内次数
	every := window / time.Duration(times)
	m[t] = append(m[t], rate.NewLimiter(rate.Every(every), int(times)))
	return nil
}

// LimiterAllow 所有周期都允许才放行
func LimiterAllow(l []*rate.Limiter) bool {
	now := time.Now()
	for _, limiter := range l {
		if !limiter.AllowN(now, 1) {
			return false
		}
	}
	return true
}
