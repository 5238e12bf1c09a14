// Package session 管理交易商 Open API 会话.
//
// 连接由 bridge 的 loop 协程独占: 入站消息在 loop 中分类为生命周期消息, 带 clientMsgId
// 的响应或推送事件. 调用方通过 Request 发起请求并等待配对结果, 不直接触碰连接.
package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-gotop/rtbridge/bridge"
	"github.com/go-gotop/rtbridge/broker"
	"github.com/go-gotop/rtbridge/correlation"
	"github.com/go-gotop/rtbridge/entitycache"
	"github.com/go-gotop/rtbridge/errs"
	"github.com/go-gotop/rtbridge/exchange"
	"github.com/go-gotop/rtbridge/openapi"
)

// Credentials 应用与账户凭证, AccountID 为 0 时使用账户列表中第一个匹配 IsLive 的账户
type Credentials struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	AccountID    int64
	IsLive       bool
}

// ReadyHook 每次 (重新) 连接并授权账户后在调用方协程中执行
type ReadyHook func(ctx context.Context) error

type Session struct {
	opts     *options
	logger   *log.Helper
	endpoint bridge.Endpoint
	bridge   *bridge.Bridge
	calls    *correlation.Table[*openapi.Message]
	machine  *machine
	tracer   trace.Tracer

	credMux sync.RWMutex
	creds   Credentials

	metaMux  sync.RWMutex
	accounts []openapi.CtidTraderAccount
	symbols  []openapi.LightSymbol

	details *entitycache.Cache[int64, openapi.Symbol]
	spots   *broker.Registry

	readyMux sync.Mutex
	ready    []ReadyHook

	// 以下字段只在 loop 协程中访问
	needReady bool
	quotes    map[int64]exchange.QuoteEvent

	refreshing atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func New(ep bridge.Endpoint, creds Credentials, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := log.NewHelper(log.With(o.logger, "module", "session"))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		opts:     o,
		logger:   logger,
		endpoint: ep,
		creds:    creds,
		quotes:   make(map[int64]exchange.QuoteEvent),
		tracer:   o.tracerProvider.Tracer("github.com/go-gotop/rtbridge/session"),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.machine = newMachine(logger, o.onStateChange)

	copts := []correlation.Option{correlation.WithLogger(o.logger)}
	if o.idGenerator != nil {
		copts = append(copts, correlation.WithIDGenerator(o.idGenerator))
	}
	s.calls = correlation.NewTable[*openapi.Message](copts...)

	bopts := append([]bridge.Option{bridge.WithLogger(o.logger)}, o.bridgeOpts...)
	s.bridge = bridge.New(ep, s.handle, bopts...)

	s.details = entitycache.New[int64, openapi.Symbol](s.fetchSymbols, entitycache.WithLogger(o.logger))

	ropts := append([]broker.Option{
		broker.WithLogger(o.logger),
		broker.WithSource(exchange.CTraderExchange),
	}, o.registryOpts...)
	s.spots = broker.NewRegistry(&spotUpstream{s: s}, ropts...)
	s.OnReady(s.spots.Replay)
	return s
}

// Start 启动 loop 并发起首次连接
func (s *Session) Start() error {
	s.bridge.Start()
	if s.opts.heartbeat > 0 {
		s.wg.Add(1)
		go s.heartbeatLoop()
	}
	return s.bridge.Connect()
}

// Reconnect 在 loop 中重新发起连接
func (s *Session) Reconnect() error {
	return s.bridge.Connect()
}

// Close 停止 loop, 关闭连接, 所有等待中的请求以 ConnectionError 结束
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.bridge.Stop()
		s.calls.FailAll(errs.Connection("session closed"))
		s.spots.Close()
		s.wg.Wait()
	})
	return err
}

// OnReady 注册账户授权完成后的回调
func (s *Session) OnReady(h ReadyHook) {
	s.readyMux.Lock()
	s.ready = append(s.ready, h)
	s.readyMux.Unlock()
}

func (s *Session) State() State {
	return s.machine.current()
}

func (s *Session) Status() Status {
	return Status{
		State:      s.machine.current(),
		Err:        s.machine.lastErr(),
		Refreshing: s.refreshing.Load(),
	}
}

// Spots 按 symbolId 订阅报价
func (s *Session) Spots() *broker.Registry {
	return s.spots
}

func (s *Session) Credentials() Credentials {
	s.credMux.RLock()
	defer s.credMux.RUnlock()
	return s.creds
}

func (s *Session) setTokens(access, refresh string) {
	s.credMux.Lock()
	s.creds.AccessToken = access
	if refresh != "" {
		s.creds.RefreshToken = refresh
	}
	s.credMux.Unlock()
}

func (s *Session) setAccountID(id int64) {
	s.credMux.Lock()
	s.creds.AccountID = id
	s.credMux.Unlock()
}

// Request 发送请求并等待配对的响应, timeout <= 0 时使用默认超时.
// 交易商返回 ErrorRes 时按错误码分类返回.
func (s *Session) Request(ctx context.Context, p openapi.Payload, timeout time.Duration) (*openapi.Message, error) {
	if timeout <= 0 {
		timeout = s.opts.requestTimeout
	}
	ctx, span := s.tracer.Start(ctx, "openapi."+p.PayloadType().String(), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	// 先登记再发送
	call := s.calls.Begin(timeout)
	span.SetAttributes(
		attribute.String("rtbridge.correlation_id", call.ID),
		attribute.Int("rtbridge.payload_type", int(p.PayloadType())),
	)

	data, err := openapi.Encode(call.ID, p)
	if err != nil {
		s.calls.Fail(call.ID, errs.Protocol("encode %s: %v", p.PayloadType(), err))
	} else {
		id := call.ID
		perr := s.bridge.Post(func() {
			if err := s.endpoint.Send(data); err != nil {
				s.calls.Fail(id, errs.Connection("send %s: %v", p.PayloadType(), err))
			}
		})
		if perr != nil {
			s.calls.Fail(call.ID, errs.Connection("send %s: %v", p.PayloadType(), perr))
		}
	}

	msg, err := call.Wait(ctx)
	if err == nil {
		err = msg.Err()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return msg, nil
}

// write 只能在 loop 中调用
func (s *Session) write(p openapi.Payload) {
	data, err := openapi.Encode("", p)
	if err != nil {
		s.logger.Errorf("encode %s error: %v", p.PayloadType(), err)
		return
	}
	if err := s.endpoint.Send(data); err != nil {
		s.logger.Warnf("send %s error: %v", p.PayloadType(), err)
	}
}

func (s *Session) heartbeatLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.opts.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			err := s.bridge.Post(func() {
				if s.machine.current() >= Connected {
					s.write(openapi.HeartbeatEvent{})
				}
			})
			if err != nil {
				return
			}
		}
	}
}

func (s *Session) runReady() {
	s.readyMux.Lock()
	hooks := make([]ReadyHook, len(s.ready))
	copy(hooks, s.ready)
	s.readyMux.Unlock()

	for _, h := range hooks {
		ctx, cancel := context.WithTimeout(s.ctx, s.opts.requestTimeout)
		if err := h(ctx); err != nil {
			s.logger.Warnf("ready hook error: %v", err)
		}
		cancel()
	}
}

func (s *Session) Accounts() []openapi.CtidTraderAccount {
	s.metaMux.RLock()
	defer s.metaMux.RUnlock()
	out := make([]openapi.CtidTraderAccount, len(s.accounts))
	copy(out, s.accounts)
	return out
}

func (s *Session) Symbols() []openapi.LightSymbol {
	s.metaMux.RLock()
	defer s.metaMux.RUnlock()
	out := make([]openapi.LightSymbol, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// FindSymbol 先精确匹配名称, 再忽略大小写匹配
func (s *Session) FindSymbol(name string) (openapi.LightSymbol, error) {
	s.metaMux.RLock()
	defer s.metaMux.RUnlock()
	for _, sym := range s.symbols {
		if sym.SymbolName == name {
			return sym, nil
		}
	}
	for _, sym := range s.symbols {
		if strings.EqualFold(sym.SymbolName, name) {
			return sym, nil
		}
	}
	return openapi.LightSymbol{}, errs.NotFound("symbol %s not found", name)
}

func (s *Session) setSymbols(symbols []openapi.LightSymbol) {
	s.metaMux.Lock()
	s.symbols = symbols
	s.metaMux.Unlock()
}

func (s *Session) setAccounts(accounts []openapi.CtidTraderAccount) {
	s.metaMux.Lock()
	s.accounts = accounts
	s.metaMux.Unlock()
}

func (s *Session) requireAccount() (int64, error) {
	if st := s.machine.current(); st != AccountAuthorized {
		return 0, errs.Connection("session not ready: %s", st)
	}
	return s.Credentials().AccountID, nil
}
