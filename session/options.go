package session

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-gotop/rtbridge/bridge"
	"github.com/go-gotop/rtbridge/broker"
	"github.com/go-gotop/rtbridge/limiter"
)

type Option func(*options)

type options struct {
	logger         log.Logger
	requestTimeout time.Duration
	heartbeat      time.Duration
	limiter        limiter.Limiter
	store          CredentialStore
	tracerProvider trace.TracerProvider
	idGenerator    func() string
	onStateChange  func(from, to State)
	bridgeOpts     []bridge.Option
	registryOpts   []broker.Option
}

func defaultOptions() *options {
	return &options{
		logger:         log.DefaultLogger,
		requestTimeout: 10 * time.Second,
		heartbeat:      10 * time.Second,
		tracerProvider: otel.GetTracerProvider(),
	}
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRequestTimeout 内部请求 (刷新凭证, 订阅, 品种查询) 的超时
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.requestTimeout = d
		}
	}
}

// WithHeartbeat 心跳间隔, 0 关闭心跳
func WithHeartbeat(d time.Duration) Option {
	return func(o *options) {
		o.heartbeat = d
	}
}

// WithLimiter 凭证刷新限流
func WithLimiter(l limiter.Limiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

func WithCredentialStore(store CredentialStore) Option {
	return func(o *options) {
		o.store = store
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

func WithIDGenerator(f func() string) Option {
	return func(o *options) {
		o.idGenerator = f
	}
}

// WithStateListener 状态迁移回调, 在连接 loop 中调用, 不能阻塞
func WithStateListener(f func(from, to State)) Option {
	return func(o *options) {
		o.onStateChange = f
	}
}

func WithBridgeOptions(opts ...bridge.Option) Option {
	return func(o *options) {
		o.bridgeOpts = append(o.bridgeOpts, opts...)
	}
}

func WithRegistryOptions(opts ...broker.Option) Option {
	return func(o *options) {
		o.registryOpts = append(o.registryOpts, opts...)
	}
}
