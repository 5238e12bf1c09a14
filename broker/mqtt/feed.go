// Package mqtt 通过 DNSE 的 mqtt 行情源实现订阅上游.
package mqtt

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/go-gotop/rtbridge/broker"
	"github.com/go-gotop/rtbridge/errs"
	"github.com/go-gotop/rtbridge/exchange"
)

// tick DNSE 逐笔成交报文
type tick struct {
	Symbol      string          `json:"symbol"`
	MatchPrice  decimal.Decimal `json:"matchPrice"`
	MatchQtty   decimal.Decimal `json:"matchQtty"`
	MatchValue  decimal.Decimal `json:"matchValue"`
	Side        string          `json:"side"`
	SendingTime string          `json:"sendingTime"`
}

// Feed paho 的回调协程就是外部执行域, 回调里只做解析和投递
type Feed struct {
	opts     *options
	logger   *log.Helper
	registry *broker.Registry
	mux      sync.RWMutex
	client   paho.Client
}

var _ broker.Upstream = (*Feed)(nil)

func NewFeed(opts ...Option) *Feed {
	o := &options{
		logger:      log.DefaultLogger,
		brokerURL:   DefaultBrokerURL,
		topicFormat: TopicTick,
		qos:         0,
		timeout:     10 * time.Second,
		keepAlive:   60 * time.Second,
		clientFactory: func(co *paho.ClientOptions) paho.Client {
			return paho.NewClient(co)
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	f := &Feed{
		opts:   o,
		logger: log.NewHelper(o.logger),
	}
	ropts := append([]broker.Option{
		broker.WithLogger(o.logger),
		broker.WithSource(exchange.DNSEExchange),
	}, o.registryOpts...)
	f.registry = broker.NewRegistry(f, ropts...)
	return f
}

// Registry 按标的订阅逐笔成交
func (f *Feed) Registry() *broker.Registry {
	return f.registry
}

// Connect 建立 mqtt 连接, 断线由 paho 自动重连, 重连后重放订阅
func (f *Feed) Connect(ctx context.Context, creds *Credentials) error {
	if creds == nil || creds.Token == "" || creds.InvestorID == "" {
		return errs.Auth("dnse token or investor id missing")
	}
	co := paho.NewClientOptions().
		AddBroker(f.opts.brokerURL).
		SetClientID("dnse-sub-" + uuid.NewString()[:8]).
		SetUsername(creds.InvestorID).
		SetPassword(creds.Token).
		SetTLSConfig(&tls.Config{InsecureSkipVerify: true}).
		SetKeepAlive(f.opts.keepAlive).
		SetConnectTimeout(f.opts.timeout).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetOrderMatters(false).
		SetOnConnectHandler(f.onConnect).
		SetConnectionLostHandler(f.onConnectionLost)

	client := f.opts.clientFactory(co)
	f.mux.Lock()
	f.client = client
	f.mux.Unlock()

	if err := f.wait(ctx, client.Connect()); err != nil {
		return errs.Connection("dnse mqtt connect: %v", err)
	}
	return nil
}

func (f *Feed) IsConnected() bool {
	c := f.getClient()
	return c != nil && c.IsConnected()
}

func (f *Feed) getClient() paho.Client {
	f.mux.RLock()
	defer f.mux.RUnlock()
	return f.client
}

func (f *Feed) Topic(symbol string) string {
	return fmt.Sprintf(f.opts.topicFormat, symbol)
}

func (f *Feed) Subscribe(ctx context.Context, symbol string) error {
	c := f.getClient()
	if c == nil || !c.IsConnected() {
		return errs.Connection("dnse mqtt not connected")
	}
	return f.wait(ctx, c.Subscribe(f.Topic(symbol), f.opts.qos, f.onMessage))
}

func (f *Feed) Unsubscribe(ctx context.Context, symbol string) error {
	c := f.getClient()
	if c == nil || !c.IsConnected() {
		return errs.Connection("dnse mqtt not connected")
	}
	return f.wait(ctx, c.Unsubscribe(f.Topic(symbol)))
}

func (f *Feed) wait(ctx context.Context, token paho.Token) error {
	timer := time.NewTimer(f.opts.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errs.Timeout("dnse mqtt operation timed out after %s", f.opts.timeout)
	}
}

func (f *Feed) onConnect(c paho.Client) {
	f.logger.Info("dnse mqtt connected")
	// 不在 paho 回调里等待订阅结果
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), f.opts.timeout)
		defer cancel()
		if err := f.registry.Replay(ctx); err != nil {
			f.logger.Warnf("dnse replay subscriptions error: %v", err)
		}
	}()
}

func (f *Feed) onConnectionLost(c paho.Client, err error) {
	f.logger.Warnf("dnse mqtt connection lost: %v", err)
	f.registry.Reset()
}

func (f *Feed) onMessage(c paho.Client, msg paho.Message) {
	symbol := symbolFromTopic(msg.Topic())
	var t tick
	if err := broker.Json.Unmarshal(msg.Payload(), &t); err != nil {
		f.logger.Warnf("dnse message discarded: %v", errs.Protocol("decode %s: %v", msg.Topic(), err))
		return
	}
	if symbol == "" {
		symbol = t.Symbol
	}
	if symbol == "" {
		f.logger.Debugf("dnse message without symbol on %s", msg.Topic())
		return
	}
	now := time.Now()
	tradedAt := now.UnixMilli()
	if ts, err := time.Parse(time.RFC3339Nano, t.SendingTime); err == nil {
		tradedAt = ts.UnixMilli()
	}
	evt := exchange.TradeEvent{
		Symbol:    symbol,
		Exchange:  exchange.DNSEExchange,
		Price:     t.MatchPrice,
		Size:      t.MatchQtty,
		Value:     t.MatchValue,
		Side:      t.Side,
		SendingAt: t.SendingTime,
		TradedAt:  tradedAt,
	}
	f.registry.Dispatch(symbol, broker.Event{
		Topic:   symbol,
		Source:  exchange.DNSEExchange,
		Payload: evt,
		Raw:     msg.Payload(),
		Time:    now,
	})
}

// symbolFromTopic 取 topic 中 symbol 之后的一段
func symbolFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	for i, p := range parts {
		if p == "symbol" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

// Close 停止订阅者并断开连接
func (f *Feed) Close() {
	f.registry.Close()
	if c := f.getClient(); c != nil {
		c.Disconnect(250)
	}
}
