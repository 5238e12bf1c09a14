package bridge

import "github.com/go-kratos/kratos/v2/log"

type Option func(*options)

type options struct {
	logger    *log.Helper
	taskSize  int // 任务队列长度
	eventSize int // 入站事件队列长度
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.NewHelper(logger)
	}
}

func WithTaskSize(n int) Option {
	return func(o *options) {
		o.taskSize = n
	}
}

func WithEventSize(n int) Option {
	return func(o *options) {
		o.eventSize = n
	}
}
