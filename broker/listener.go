package broker

import (
	"context"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
)

// listener 每个订阅者一个协程, 慢订阅者不影响上游和其他订阅者
type listener struct {
	id       uint64
	topic    string
	handler  Handler
	mailbox  chan Event
	exitChan chan struct{}
	once     sync.Once
}

func newListener(id uint64, topic string, h Handler, size int) *listener {
	return &listener{
		id:       id,
		topic:    topic,
		handler:  h,
		mailbox:  make(chan Event, size),
		exitChan: make(chan struct{}),
	}
}

func (l *listener) deliver(evt Event) bool {
	select {
	case <-l.exitChan:
		return false
	default:
	}
	select {
	case l.mailbox <- evt:
		return true
	default:
		return false
	}
}

func (l *listener) stop() {
	l.once.Do(func() {
		close(l.exitChan)
	})
}

func (l *listener) run(ctx context.Context, logger *log.Helper) {
	for {
		select {
		case <-l.exitChan:
			return
		case <-ctx.Done():
			return
		case evt := <-l.mailbox:
			l.handle(ctx, logger, evt)
		}
	}
}

func (l *listener) handle(ctx context.Context, logger *log.Helper, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("listener %d on %s panic: %v", l.id, l.topic, r)
		}
	}()
	if err := l.handler(ctx, evt); err != nil {
		logger.Warnf("listener %d on %s error: %v", l.id, l.topic, err)
	}
}
