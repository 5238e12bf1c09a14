package broker

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
)

var (
	ErrRegistryClosed = errors.New("registry closed")
	ErrNotSubscribed  = errors.New("subscription not found")
)

// Subscription 订阅句柄
type Subscription struct {
	topic    string
	listener *listener
}

func (s *Subscription) Topic() string {
	return s.topic
}

// topicState 单个 topic 的订阅者与上游状态
// listeners 和 upstream 由 Registry.mux 保护, opMux 串行化上游调用
type topicState struct {
	opMux     sync.Mutex
	listeners map[uint64]*listener
	upstream  bool
}

// Registry 按 topic 引用计数订阅者, 并把上游推送分发给所有订阅者.
// 最后一个订阅者退出时立即取消上游订阅.
type Registry struct {
	opts     *options
	upstream Upstream
	mux      sync.Mutex
	topics   map[string]*topicState
	nextID   uint64
	gen      uint64 // Reset 递增, 上游调用期间发生 Reset 时结果作废
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewRegistry(upstream Upstream, opts ...Option) *Registry {
	o := &options{
		logger:      log.NewHelper(log.DefaultLogger),
		mailboxSize: 256,
	}
	for _, opt := range opts {
		opt(o)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		opts:     o,
		upstream: upstream,
		topics:   make(map[string]*topicState),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Subscribe 注册订阅者, topic 首个订阅者触发上游订阅.
// 上游订阅失败只记录日志, 订阅者保留, 重连后由 Replay 重试.
func (r *Registry) Subscribe(ctx context.Context, topic string, h Handler) (*Subscription, error) {
	r.mux.Lock()
	if r.closed {
		r.mux.Unlock()
		return nil, ErrRegistryClosed
	}
	ts, ok := r.topics[topic]
	if !ok {
		ts = &topicState{listeners: make(map[uint64]*listener)}
		r.topics[topic] = ts
	}
	r.nextID++
	l := newListener(r.nextID, topic, h, r.opts.mailboxSize)
	ts.listeners[l.id] = l
	r.wg.Add(1)
	r.mux.Unlock()

	go func() {
		defer r.wg.Done()
		l.run(r.ctx, r.opts.logger)
	}()

	if err := r.reconcile(ctx, topic, ts); err != nil {
		r.opts.logger.Warnf("%s subscribe %s upstream error: %v", r.opts.source, topic, err)
	}
	return &Subscription{topic: topic, listener: l}, nil
}

// Unsubscribe 移除订阅者, topic 没有订阅者时取消上游订阅并删除 topic.
// 上游取消失败时标记依然清除, 错误返回给调用方.
func (r *Registry) Unsubscribe(ctx context.Context, sub *Subscription) error {
	if sub == nil {
		return ErrNotSubscribed
	}
	r.mux.Lock()
	ts, ok := r.topics[sub.topic]
	if !ok {
		r.mux.Unlock()
		return ErrNotSubscribed
	}
	if _, ok := ts.listeners[sub.listener.id]; !ok {
		r.mux.Unlock()
		return ErrNotSubscribed
	}
	delete(ts.listeners, sub.listener.id)
	r.mux.Unlock()

	sub.listener.stop()
	return r.reconcile(ctx, sub.topic, ts)
}

// reconcile 让上游状态与订阅者数量一致, 不持有 r.mux 调用上游
func (r *Registry) reconcile(ctx context.Context, topic string, ts *topicState) error {
	ts.opMux.Lock()
	defer ts.opMux.Unlock()

	r.mux.Lock()
	want := len(ts.listeners) > 0 && !r.closed
	have := ts.upstream
	gen := r.gen
	r.mux.Unlock()

	var err error
	switch {
	case want && !have:
		if err = r.upstream.Subscribe(ctx, topic); err == nil {
			r.mux.Lock()
			stale := r.gen != gen
			if !stale {
				ts.upstream = true
			}
			r.mux.Unlock()
			if stale {
				r.opts.logger.Debugf("%s upstream reset while subscribing %s", r.opts.source, topic)
			} else {
				r.opts.logger.Debugf("%s upstream subscribed %s", r.opts.source, topic)
			}
		}
	case !want && have:
		err = r.upstream.Unsubscribe(ctx, topic)
		r.mux.Lock()
		ts.upstream = false
		r.mux.Unlock()
		if err != nil {
			r.opts.logger.Warnf("%s unsubscribe %s upstream error: %v", r.opts.source, topic, err)
		} else {
			r.opts.logger.Debugf("%s upstream unsubscribed %s", r.opts.source, topic)
		}
	}

	r.mux.Lock()
	if len(ts.listeners) == 0 && !ts.upstream && r.topics[topic] == ts {
		delete(r.topics, topic)
	}
	r.mux.Unlock()
	return err
}

// Dispatch 在上游回调协程里调用, 只做投递不等待处理, 返回投递成功的订阅者数
func (r *Registry) Dispatch(topic string, evt Event) int {
	r.mux.Lock()
	ts, ok := r.topics[topic]
	if !ok || r.closed {
		r.mux.Unlock()
		return 0
	}
	snapshot := make([]*listener, 0, len(ts.listeners))
	for _, l := range ts.listeners {
		snapshot = append(snapshot, l)
	}
	r.mux.Unlock()

	if evt.Topic == "" {
		evt.Topic = topic
	}
	delivered := 0
	for _, l := range snapshot {
		if l.deliver(evt) {
			delivered++
			continue
		}
		r.opts.logger.Warnf("%s listener %d on %s is full, event dropped", r.opts.source, l.id, topic)
	}
	return delivered
}

// Reset 上游连接断开后调用, 所有上游订阅视为失效
func (r *Registry) Reset() {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.gen++
	for _, ts := range r.topics {
		ts.upstream = false
	}
}

// Replay 重新订阅所有有订阅者的 topic
func (r *Registry) Replay(ctx context.Context) error {
	r.mux.Lock()
	type pair struct {
		topic string
		ts    *topicState
	}
	pending := make([]pair, 0, len(r.topics))
	for topic, ts := range r.topics {
		pending = append(pending, pair{topic, ts})
	}
	r.mux.Unlock()

	sort.Slice(pending, func(i, j int) bool { return pending[i].topic < pending[j].topic })
	var errs []error
	for _, p := range pending {
		if err := r.reconcile(ctx, p.topic, p.ts); err != nil {
			r.opts.logger.Warnf("%s replay %s error: %v", r.opts.source, p.topic, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Topics 当前有订阅者的 topic, 已排序
func (r *Registry) Topics() []string {
	r.mux.Lock()
	defer r.mux.Unlock()
	out := make([]string, 0, len(r.topics))
	for topic, ts := range r.topics {
		if len(ts.listeners) > 0 {
			out = append(out, topic)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Listeners(topic string) int {
	r.mux.Lock()
	defer r.mux.Unlock()
	ts, ok := r.topics[topic]
	if !ok {
		return 0
	}
	return len(ts.listeners)
}

// Subscribed topic 是否已经在上游订阅
func (r *Registry) Subscribed(topic string) bool {
	r.mux.Lock()
	defer r.mux.Unlock()
	ts, ok := r.topics[topic]
	return ok && ts.upstream
}

// Close 停止所有订阅者, 不调用上游取消订阅
func (r *Registry) Close() {
	r.mux.Lock()
	if r.closed {
		r.mux.Unlock()
		return
	}
	r.closed = true
	var all []*listener
	for _, ts := range r.topics {
		for _, l := range ts.listeners {
			all = append(all, l)
		}
	}
	r.topics = make(map[string]*topicState)
	r.mux.Unlock()

	for _, l := range all {
		l.stop()
	}
	r.cancel()
	r.wg.Wait()
}
