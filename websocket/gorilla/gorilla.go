package gorilla

import (
	"errors"
	"net/http"
	"sync"
	"time"

	gwebsocket "github.com/gorilla/websocket"
)

var ErrNotDialed = errors.New("websocket not dialed")

func NewGorillaWebSocketConn() *GorillaWebSocketConn {
	return &GorillaWebSocketConn{}
}

// GorillaWebSocketConn gorilla 只允许一个并发写者, ping/pong 回调与业务写入共用写锁
type GorillaWebSocketConn struct {
	mux  sync.RWMutex
	wmux sync.Mutex
	conn *gwebsocket.Conn
}

func (g *GorillaWebSocketConn) Dial(endpoint string, requestHeader http.Header) error {
	dialer := gwebsocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.Dial(endpoint, requestHeader)
	if err != nil {
		return err
	}
	conn.SetReadLimit(655350)
	g.mux.Lock()
	g.conn = conn
	g.mux.Unlock()
	return nil
}

func (g *GorillaWebSocketConn) current() (*gwebsocket.Conn, error) {
	g.mux.RLock()
	defer g.mux.RUnlock()
	if g.conn == nil {
		return nil, ErrNotDialed
	}
	return g.conn, nil
}

func (g *GorillaWebSocketConn) ReadMessage() (int, []byte, error) {
	conn, err := g.current()
	if err != nil {
		return 0, nil, err
	}
	return conn.ReadMessage()
}

func (g *GorillaWebSocketConn) WriteMessage(messageType int, data []byte) error {
	conn, err := g.current()
	if err != nil {
		return err
	}
	g.wmux.Lock()
	defer g.wmux.Unlock()
	return conn.WriteMessage(messageType, data)
}

func (g *GorillaWebSocketConn) SetPingHandler(h func(appData string) error) {
	if conn, err := g.current(); err == nil {
		conn.SetPingHandler(h)
	}
}

func (g *GorillaWebSocketConn) SetPongHandler(h func(appData string) error) {
	if conn, err := g.current(); err == nil {
		conn.SetPongHandler(h)
	}
}

func (g *GorillaWebSocketConn) Close() error {
	conn, err := g.current()
	if err != nil {
		return nil
	}
	return conn.Close()
}
