package manager

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/rtbridge/limiter"
	"github.com/go-gotop/rtbridge/websocket"
)

type ConnConfig func(*connConfig)

type connConfig struct {
	rawLogger       log.Logger                     // 日志记录器
	logger          *log.Helper
	maxConn         int                            // 最大连接数
	maxConnDuration time.Duration                  // 最大连接持续时间
	connLimiter     limiter.Limiter                // 连接限流器
	isCheckReConn   bool                           // 是否检查重连
	checkInterval   time.Duration                  // 巡检间隔
	connFactory     func() websocket.WebSocketConn // 底层连接构造
}

func WithLogger(logger log.Logger) ConnConfig {
	return func(c *connConfig) {
		c.rawLogger = logger
	}
}

func WithMaxConn(maxConn int) ConnConfig {
	return func(c *connConfig) {
		c.maxConn = maxConn
	}
}

func WithMaxConnDuration(maxConnDuration time.Duration) ConnConfig {
	return func(c *connConfig) {
		c.maxConnDuration = maxConnDuration
	}
}

func WithConnLimiter(connLimiter limiter.Limiter) ConnConfig {
	return func(c *connConfig) {
		c.connLimiter = connLimiter
	}
}

func WithCheckReConn(isCheckReConn bool) ConnConfig {
	return func(c *connConfig) {
		c.isCheckReConn = isCheckReConn
	}
}

func WithCheckInterval(d time.Duration) ConnConfig {
	return func(c *connConfig) {
		if d > 0 {
			c.checkInterval = d
		}
	}
}

func WithConnFactory(f func() websocket.WebSocketConn) ConnConfig {
	return func(c *connConfig) {
		c.connFactory = f
	}
}
