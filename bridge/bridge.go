// Package bridge 连接所属执行域.
//
// 网络回调 (读协程) 只负责把事件入队, 发送请求也只能通过 Post 投递,
// 两者都在同一个 loop 协程里按顺序执行, 连接句柄只在该协程里使用.
package bridge

import (
	"errors"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
)

var (
	ErrClosed = errors.New("bridge closed")
)

type EventType int

const (
	EventConnecting EventType = iota + 1
	EventConnected
	EventDisconnected
	EventMessage
)

func (t EventType) String() string {
	switch t {
	case EventConnecting:
		return "CONNECTING"
	case EventConnected:
		return "CONNECTED"
	case EventDisconnected:
		return "DISCONNECTED"
	case EventMessage:
		return "MESSAGE"
	default:
		return "UNKNOWN"
	}
}

// Event 连接侧产生的事件
type Event struct {
	Type EventType
	Data []byte
	Err  error
}

// Endpoint 交易商连接的最小边界
type Endpoint interface {
	// Connect 发起连接, 结果通过事件通知
	Connect() error
	Send(data []byte) error
	// OnEvent 注册事件回调, 回调运行在连接自己的协程里
	OnEvent(h func(evt Event))
	Close() error
}

// Handler 在 loop 协程中处理事件
type Handler func(evt Event)

type Bridge struct {
	opts     *options
	endpoint Endpoint
	handler  Handler
	tasks    chan func()
	events   chan Event
	exitChan chan struct{}
	doneChan chan struct{}
	once     sync.Once
	started  bool
	mux      sync.Mutex
}

func New(ep Endpoint, h Handler, opts ...Option) *Bridge {
	o := &options{
		logger:    log.NewHelper(log.DefaultLogger),
		taskSize:  256,
		eventSize: 1024,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Bridge{
		opts:     o,
		endpoint: ep,
		handler:  h,
		tasks:    make(chan func(), o.taskSize),
		events:   make(chan Event, o.eventSize),
		exitChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start 启动 loop, 并注册连接回调
func (b *Bridge) Start() {
	b.mux.Lock()
	defer b.mux.Unlock()
	if b.started {
		return
	}
	b.started = true
	b.endpoint.OnEvent(b.enqueue)
	go b.run()
}

// Post 把任务投递到 loop 执行, 不等待执行结果
func (b *Bridge) Post(fn func()) error {
	select {
	case <-b.exitChan:
		return ErrClosed
	default:
	}
	select {
	case b.tasks <- fn:
		return nil
	case <-b.exitChan:
		return ErrClosed
	}
}

// Send 在 loop 中写连接, 写失败只记录日志, 断线由连接事件驱动
func (b *Bridge) Send(data []byte) error {
	return b.Post(func() {
		if err := b.endpoint.Send(data); err != nil {
			b.opts.logger.Errorf("bridge send error: %v", err)
		}
	})
}

// Connect 在 loop 中发起连接
func (b *Bridge) Connect() error {
	return b.Post(func() {
		if err := b.endpoint.Connect(); err != nil {
			b.opts.logger.Warnf("bridge connect error: %v", err)
		}
	})
}

// Stop 停止 loop 并关闭连接, 可重复调用
func (b *Bridge) Stop() error {
	var err error
	b.once.Do(func() {
		close(b.exitChan)
		b.mux.Lock()
		started := b.started
		b.mux.Unlock()
		if started {
			<-b.doneChan
		}
		err = b.endpoint.Close()
	})
	return err
}

// Done loop 退出后关闭
func (b *Bridge) Done() <-chan struct{} {
	return b.doneChan
}

func (b *Bridge) enqueue(evt Event) {
	select {
	case b.events <- evt:
	case <-b.exitChan:
	}
}

func (b *Bridge) run() {
	defer close(b.doneChan)
	for {
		select {
		case <-b.exitChan:
			return
		case fn := <-b.tasks:
			b.safe(fn)
		case evt := <-b.events:
			b.safe(func() { b.handler(evt) })
		}
	}
}

// loop 不能因为单个处理函数 panic 退出
func (b *Bridge) safe(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.opts.logger.Errorf("bridge loop recovered: %v", r)
		}
	}()
	fn()
}
