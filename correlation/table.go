// Package correlation 请求与异步响应的配对表.
//
// 每个请求在发送之前登记一个 Call, 之后由响应 (Complete/Fail) 或超时二者之一完成,
// 先到者生效, 后到者为空操作. 完成结果写入 Call 的缓冲通道, 写方永远不会阻塞.
package correlation

import (
	"context"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/go-gotop/rtbridge/errs"
)

// Result 请求结果
type Result[T any] struct {
	Reply T
	Err   error
}

// Call 一个等待中的请求
type Call[T any] struct {
	ID       string
	Start    time.Time
	Deadline time.Time

	table *Table[T]
	timer *time.Timer
	done  chan Result[T]
}

// Done 结果通道, 只会收到一次
func (c *Call[T]) Done() <-chan Result[T] {
	return c.done
}

// Wait 等待结果, ctx 取消时由调用方完成该请求
func (c *Call[T]) Wait(ctx context.Context) (T, error) {
	select {
	case res := <-c.done:
		return res.Reply, res.Err
	case <-ctx.Done():
		if c.table.finish(c.ID, Result[T]{Err: ctx.Err()}) {
			var zero T
			return zero, ctx.Err()
		}
		// 响应或超时已抢先完成
		res := <-c.done
		return res.Reply, res.Err
	}
}

type Option func(*options)

type options struct {
	logger *log.Helper
	newID  func() string
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.NewHelper(logger)
	}
}

// WithIDGenerator 替换默认的 uuid 生成器
func WithIDGenerator(f func() string) Option {
	return func(o *options) {
		o.newID = f
	}
}

// Table 配对表
type Table[T any] struct {
	opts    *options
	mux     sync.Mutex
	pending map[string]*Call[T]
}

func NewTable[T any](opts ...Option) *Table[T] {
	o := &options{
		logger: log.NewHelper(log.DefaultLogger),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Table[T]{
		opts:    o,
		pending: make(map[string]*Call[T]),
	}
}

// Begin 分配 id 并登记, 必须在发送请求之前调用
func (t *Table[T]) Begin(timeout time.Duration) *Call[T] {
	now := time.Now()
	c := &Call[T]{
		ID:       t.opts.newID(),
		Start:    now,
		Deadline: now.Add(timeout),
		table:    t,
		done:     make(chan Result[T], 1),
	}

	t.mux.Lock()
	t.pending[c.ID] = c
	// 定时器在锁内创建, 回调里的 finish 要等到锁释放后才能看到该请求
	c.timer = time.AfterFunc(timeout, func() {
		if t.finish(c.ID, Result[T]{Err: errs.Timeout("request %s timed out after %s", c.ID, timeout)}) {
			t.opts.logger.Debugf("request %s timed out", c.ID)
		}
	})
	t.mux.Unlock()
	return c
}

// Complete 交付响应, id 不存在 (已完成或已超时) 时返回 false
func (t *Table[T]) Complete(id string, reply T) bool {
	ok := t.finish(id, Result[T]{Reply: reply})
	if !ok {
		t.opts.logger.Debugf("drop response for unknown request %s", id)
	}
	return ok
}

// Fail 以错误完成请求
func (t *Table[T]) Fail(id string, err error) bool {
	return t.finish(id, Result[T]{Err: err})
}

// FailAll 以同一个错误完成所有等待中的请求, 返回完成数量
func (t *Table[T]) FailAll(err error) int {
	t.mux.Lock()
	calls := make([]*Call[T], 0, len(t.pending))
	for id, c := range t.pending {
		calls = append(calls, c)
		delete(t.pending, id)
	}
	t.mux.Unlock()

	for _, c := range calls {
		c.timer.Stop()
		c.done <- Result[T]{Err: err}
	}
	return len(calls)
}

// Len 等待中的请求数
func (t *Table[T]) Len() int {
	t.mux.Lock()
	defer t.mux.Unlock()
	return len(t.pending)
}

func (t *Table[T]) finish(id string, res Result[T]) bool {
	t.mux.Lock()
	c, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	t.mux.Unlock()
	if !ok {
		return false
	}
	c.timer.Stop()
	c.done <- res
	return true
}
