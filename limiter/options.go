package limiter

type Option func(*Options)

// PeriodLimit 一个周期内允许的次数, 周期格式如 "10s" "5m"
type PeriodLimit struct {
	WsConnectPeriod string
	WsConnectTimes  int64
	RefreshPeriod   string
	RefreshTimes    int64
}

type Options struct {
	// 请求次数限制
	PeriodLimitArray []PeriodLimit
}

func WithPeriodLimitArray(p []PeriodLimit) Option {
	return func(o *Options) {
		o.PeriodLimitArray = p
	}
}
