package broker

import (
	"github.com/go-kratos/kratos/v2/log"
)

type Option func(*options)

type options struct {
	logger      *log.Helper
	mailboxSize int
	source      string
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.NewHelper(logger)
	}
}

// WithMailboxSize 每个订阅者的缓冲事件数, 满了之后新事件直接丢弃并记 Warn 日志, 不保证送达
func WithMailboxSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.mailboxSize = size
		}
	}
}

// WithSource 日志里标识上游
func WithSource(source string) Option {
	return func(o *options) {
		o.source = source
	}
}
