// Package bridgetest 提供内存版 Endpoint, 用于脚本化模拟交易商.
package bridgetest

import (
	"errors"
	"sync"

	"github.com/go-gotop/rtbridge/bridge"
)

var ErrNotConnected = errors.New("fake endpoint not connected")

// Endpoint 内存连接, Reply 钩子在 loop 协程中被调用, 可以通过 Emit 回推响应
type Endpoint struct {
	mux        sync.Mutex
	handler    func(evt bridge.Event)
	connected  bool
	sent       [][]byte
	connects   int
	closed     bool
	ConnectErr error
	Reply      func(ep *Endpoint, data []byte)
}

func New() *Endpoint {
	return &Endpoint{}
}

func (e *Endpoint) Connect() error {
	e.mux.Lock()
	e.connects++
	err := e.ConnectErr
	e.mux.Unlock()

	e.Emit(bridge.Event{Type: bridge.EventConnecting})
	if err != nil {
		e.Emit(bridge.Event{Type: bridge.EventDisconnected, Err: err})
		return err
	}
	e.mux.Lock()
	e.connected = true
	e.mux.Unlock()
	e.Emit(bridge.Event{Type: bridge.EventConnected})
	return nil
}

func (e *Endpoint) Send(data []byte) error {
	e.mux.Lock()
	if !e.connected {
		e.mux.Unlock()
		return ErrNotConnected
	}
	cp := append([]byte(nil), data...)
	e.sent = append(e.sent, cp)
	reply := e.Reply
	e.mux.Unlock()

	if reply != nil {
		reply(e, cp)
	}
	return nil
}

func (e *Endpoint) OnEvent(h func(evt bridge.Event)) {
	e.mux.Lock()
	e.handler = h
	e.mux.Unlock()
}

func (e *Endpoint) Close() error {
	e.mux.Lock()
	e.closed = true
	e.connected = false
	e.mux.Unlock()
	return nil
}

// Emit 模拟连接协程推送事件
func (e *Endpoint) Emit(evt bridge.Event) {
	e.mux.Lock()
	h := e.handler
	e.mux.Unlock()
	if h != nil {
		h(evt)
	}
}

// Push 推送一帧消息
func (e *Endpoint) Push(data []byte) {
	e.Emit(bridge.Event{Type: bridge.EventMessage, Data: data})
}

// Drop 模拟断线
func (e *Endpoint) Drop(err error) {
	e.mux.Lock()
	e.connected = false
	e.mux.Unlock()
	e.Emit(bridge.Event{Type: bridge.EventDisconnected, Err: err})
}

// Sent 已发送帧的拷贝
func (e *Endpoint) Sent() [][]byte {
	e.mux.Lock()
	defer e.mux.Unlock()
	out := make([][]byte, len(e.sent))
	copy(out, e.sent)
	return out
}

func (e *Endpoint) Connects() int {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.connects
}

func (e *Endpoint) Closed() bool {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.closed
}
