// Package wsendpoint 基于 websocket 管理器实现 bridge.Endpoint.
package wsendpoint

import (
	"errors"
	"sync"
	"sync/atomic"

	gws "github.com/gorilla/websocket"
	"github.com/google/uuid"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/rtbridge/bridge"
	"github.com/go-gotop/rtbridge/errs"
	"github.com/go-gotop/rtbridge/websocket"
	"github.com/go-gotop/rtbridge/wsmanager"
)

const (
	LiveEndpoint = "wss://live.ctraderapi.com:5036"
	DemoEndpoint = "wss://demo.ctraderapi.com:5036"
)

var ErrNotConnected = errors.New("websocket not connected")

type Option func(*Endpoint)

func WithLogger(logger log.Logger) Option {
	return func(e *Endpoint) {
		e.logger = log.NewHelper(logger)
	}
}

// WithID 指定连接在管理器中的标识, 默认随机
func WithID(id string) Option {
	return func(e *Endpoint) {
		e.id = id
	}
}

func WithWebsocketConfig(conf *wsmanager.WebsocketConfig) Option {
	return func(e *Endpoint) {
		e.conf = conf
	}
}

// Endpoint 一条交易商 websocket 连接, 重连由管理器巡检完成
type Endpoint struct {
	wsm       wsmanager.WebsocketManager
	url       string
	id        string
	conf      *wsmanager.WebsocketConfig
	logger    *log.Helper
	mux       sync.Mutex
	handler   func(evt bridge.Event)
	connected atomic.Bool
}

func New(wsm wsmanager.WebsocketManager, url string, opts ...Option) *Endpoint {
	e := &Endpoint{
		wsm:    wsm,
		url:    url,
		id:     uuid.NewString(),
		logger: log.NewHelper(log.DefaultLogger),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Endpoint) ID() string {
	return e.id
}

func (e *Endpoint) OnEvent(h func(evt bridge.Event)) {
	e.mux.Lock()
	e.handler = h
	e.mux.Unlock()
}

// Connect 首次调用注册到管理器, 之后调用触发重连
func (e *Endpoint) Connect() error {
	if e.wsm.GetWebsocket(e.id) != nil {
		return e.wsm.Reconnect(e.id)
	}
	_, err := e.wsm.AddWebsocket(&websocket.WebsocketRequest{
		Endpoint:          e.url,
		ID:                e.id,
		MessageHandler:    e.onMessage,
		ConnectingHandler: e.onConnecting,
		ConnectedHandler:  e.onConnected,
		ErrorHandler:      e.onError,
	}, e.conf)
	return err
}

func (e *Endpoint) Send(data []byte) error {
	ws := e.wsm.GetWebsocket(e.id)
	if ws == nil || !ws.IsConnected() {
		return ErrNotConnected
	}
	return ws.WriteMessage(gws.TextMessage, data)
}

func (e *Endpoint) Close() error {
	e.connected.Store(false)
	if e.wsm.GetWebsocket(e.id) == nil {
		return nil
	}
	return e.wsm.CloseWebsocket(e.id)
}

func (e *Endpoint) emit(evt bridge.Event) {
	e.mux.Lock()
	h := e.handler
	e.mux.Unlock()
	if h != nil {
		h(evt)
	}
}

func (e *Endpoint) onConnecting(id string) {
	// 超过最大连接时长的主动重连不会回调错误, 这里补一个断开事件
	if e.connected.Swap(false) {
		e.emit(bridge.Event{Type: bridge.EventDisconnected, Err: errs.Connection("websocket %s recycled", id)})
	}
	e.emit(bridge.Event{Type: bridge.EventConnecting})
}

func (e *Endpoint) onConnected(id string) {
	e.connected.Store(true)
	e.emit(bridge.Event{Type: bridge.EventConnected})
}

func (e *Endpoint) onMessage(message []byte) {
	e.emit(bridge.Event{Type: bridge.EventMessage, Data: message})
}

func (e *Endpoint) onError(id string, err error) {
	e.logger.Warnf("websocket %s error: %v", id, err)
	e.connected.Store(false)
	e.emit(bridge.Event{Type: bridge.EventDisconnected, Err: errs.Connection("websocket %s: %v", id, err)})
}
